package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

// searchSessionHeader keys stale-search tracking for anonymous callers.
const searchSessionHeader = "X-Search-Session"

// PageParams is offset pagination shared by list endpoints.
type PageParams struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Items to skip"`
}

func (p PageParams) page() store.Page {
	return store.Page{Limit: p.Limit, Offset: p.Offset}.Normalize()
}

// IDPath is a single {id} path parameter.
type IDPath struct {
	ID string `path:"id" doc:"Resource ID"`
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Status message"`
}

// MessageOutput wraps the message response for huma.
type MessageOutput struct {
	Body MessageResponse
}

func message(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}

// parseKind reads a {kind} path or query value. Empty is allowed when
// optional is true.
func parseKind(raw string, optional bool) (domain.MediaKind, error) {
	if raw == "" && optional {
		return "", nil
	}
	kind, err := domain.ParseMediaKind(raw)
	if err != nil {
		return "", huma.Error400BadRequest("kind must be film or series")
	}
	return kind, nil
}

var authenticated = []map[string][]string{{"bearer": {}}}
