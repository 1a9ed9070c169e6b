package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/service"
)

func (s *Server) registerWatchlistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getWatchlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/watchlist",
		Summary:     "Your watchlist",
		Tags:        []string{"Watchlist"},
		Security:    authenticated,
	}, s.handleGetWatchlist)

	huma.Register(s.api, huma.Operation{
		OperationID: "watchlistContains",
		Method:      http.MethodGet,
		Path:        "/api/v1/watchlist/contains",
		Summary:     "Check watchlist membership",
		Description: "Reports whether a metadata source title is on your watchlist without touching the catalog",
		Tags:        []string{"Watchlist"},
		Security:    authenticated,
	}, s.handleWatchlistContains)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleWatchlist",
		Method:      http.MethodPost,
		Path:        "/api/v1/watchlist/toggle",
		Summary:     "Add or remove a title",
		Description: "Toggles a catalog entry, or an external record which is added to the catalog first",
		Tags:        []string{"Watchlist"},
		Security:    authenticated,
	}, s.handleToggleWatchlist)
}

// === DTOs ===

// WatchlistResponse holds the watchlist entries in order.
type WatchlistResponse struct {
	Items []*domain.CatalogEntry `json:"items" doc:"Catalog entries"`
}

// WatchlistOutput wraps the watchlist.
type WatchlistOutput struct {
	Body WatchlistResponse
}

// WatchlistContainsInput names a metadata source title.
type WatchlistContainsInput struct {
	Kind       string `query:"kind" required:"true" doc:"film or series"`
	ExternalID int64  `query:"external_id" required:"true" minimum:"1" doc:"Metadata source id"`
}

// WatchlistContainsResponse is the membership flag.
type WatchlistContainsResponse struct {
	InWatchlist bool `json:"in_watchlist" doc:"Whether the title is on the watchlist"`
}

// WatchlistContainsOutput wraps the membership flag.
type WatchlistContainsOutput struct {
	Body WatchlistContainsResponse
}

// ToggleWatchlistRequest names the title by catalog entry id or by record.
type ToggleWatchlistRequest struct {
	CatalogEntryID string      `json:"catalog_entry_id,omitempty" doc:"Catalog entry to toggle"`
	Record         *RecordBody `json:"record,omitempty" doc:"External record to toggle"`
}

// ToggleWatchlistInput wraps the toggle request for Huma.
type ToggleWatchlistInput struct {
	Body ToggleWatchlistRequest
}

// ToggleWatchlistOutput wraps the membership after a toggle.
type ToggleWatchlistOutput struct {
	Body *service.WatchlistResult
}

// === Handlers ===

func (s *Server) handleGetWatchlist(ctx context.Context, _ *struct{}) (*WatchlistOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.services.Watchlist.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.CatalogEntry{}
	}
	return &WatchlistOutput{Body: WatchlistResponse{Items: items}}, nil
}

func (s *Server) handleWatchlistContains(ctx context.Context, input *WatchlistContainsInput) (*WatchlistContainsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(input.Kind, false)
	if err != nil {
		return nil, err
	}
	ok, err := s.services.Watchlist.Contains(ctx, userID, kind, input.ExternalID)
	if err != nil {
		return nil, err
	}
	return &WatchlistContainsOutput{Body: WatchlistContainsResponse{InWatchlist: ok}}, nil
}

func (s *Server) handleToggleWatchlist(ctx context.Context, input *ToggleWatchlistInput) (*ToggleWatchlistOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	target := service.WatchlistTarget{CatalogEntryID: input.Body.CatalogEntryID}
	if input.Body.Record != nil {
		r := input.Body.Record.record()
		target.Record = &r
	}

	res, err := s.services.Watchlist.Toggle(ctx, userID, target)
	if err != nil {
		return nil, err
	}
	return &ToggleWatchlistOutput{Body: res}, nil
}
