package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/search"
	"github.com/cineza/cineza-server/internal/store"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "ensureCatalogEntry",
		Method:      http.MethodPost,
		Path:        "/api/v1/catalog/ensure",
		Summary:     "Ensure a title is in the catalog",
		Description: "Returns the catalog entry for the external record, creating it on first use. Concurrent calls for the same title converge on one entry.",
		Tags:        []string{"Catalog"},
		Security:    authenticated,
	}, s.handleEnsureCatalogEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog",
		Summary:     "List catalog entries",
		Description: "Substring match on title, director or genre; best rated first",
		Tags:        []string{"Catalog"},
	}, s.handleListCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/search",
		Summary:     "Search the catalog",
		Description: "Full-text search over catalog entries",
		Tags:        []string{"Catalog"},
	}, s.handleSearchCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalogEntry",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/{id}",
		Summary:     "Get a catalog entry",
		Tags:        []string{"Catalog"},
	}, s.handleGetCatalogEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCatalogReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/{id}/reviews",
		Summary:     "Reviews of a catalog entry",
		Description: "Newest first",
		Tags:        []string{"Catalog", "Reviews"},
	}, s.handleListCatalogReviews)
}

// === DTOs ===

// RecordBody is an external record as sent by clients, usually copied from
// a discover response.
type RecordBody struct {
	ExternalID  int64   `json:"external_id" minimum:"1" doc:"Metadata source id"`
	Kind        string  `json:"kind" enum:"film,series" doc:"Media kind"`
	Title       string  `json:"title,omitempty" maxLength:"500" doc:"Title"`
	Description string  `json:"description,omitempty" doc:"Synopsis"`
	PosterURL   string  `json:"poster_url,omitempty" doc:"Poster image URL"`
	BackdropURL string  `json:"backdrop_url,omitempty" doc:"Backdrop image URL"`
	ReleaseDate string  `json:"release_date,omitempty" doc:"Release or first air date"`
	Year        *int    `json:"year,omitempty" doc:"Release year"`
	GenreIDs    []int   `json:"genre_ids,omitempty" doc:"Genre ids"`
	GenreNames  string  `json:"genre_names,omitempty" doc:"Comma separated genre names"`
	VoteAverage float64 `json:"vote_average,omitempty" doc:"Source vote average"`
	Director    string  `json:"director,omitempty" doc:"Director"`
	Creators    string  `json:"creators,omitempty" doc:"Series creators"`
}

func (b RecordBody) record() domain.ExternalRecord {
	kind, _ := domain.ParseMediaKind(b.Kind)
	return domain.ExternalRecord{
		ExternalID:  b.ExternalID,
		Kind:        kind,
		Title:       b.Title,
		Description: b.Description,
		PosterURL:   b.PosterURL,
		BackdropURL: b.BackdropURL,
		ReleaseDate: b.ReleaseDate,
		Year:        b.Year,
		GenreIDs:    b.GenreIDs,
		GenreNames:  b.GenreNames,
		VoteAverage: b.VoteAverage,
		Director:    b.Director,
		Creators:    b.Creators,
	}
}

// EnsureInput wraps the record to reconcile.
type EnsureInput struct {
	Body RecordBody
}

// CatalogEntryOutput wraps one catalog entry.
type CatalogEntryOutput struct {
	Body *domain.CatalogEntry
}

// CatalogListInput filters catalog listings.
type CatalogListInput struct {
	PageParams
	Query string `query:"q" maxLength:"200" doc:"Text to match"`
	Kind  string `query:"kind" doc:"film or series; empty covers both"`
}

// CatalogSearchInput is a full-text catalog search.
type CatalogSearchInput struct {
	PageParams
	Query string `query:"q" maxLength:"200" doc:"Search text"`
	Kind  string `query:"kind" doc:"film or series; empty covers both"`
	Genre string `query:"genre" doc:"Genre slug filter"`
}

// CatalogPageOutput wraps a page of catalog entries.
type CatalogPageOutput struct {
	Body store.PageResult[*domain.CatalogEntry]
}

// ReviewListInput pages the reviews under one resource.
type ReviewListInput struct {
	IDPath
	PageParams
}

// ReviewPageOutput wraps a page of reviews.
type ReviewPageOutput struct {
	Body store.PageResult[*domain.Review]
}

// === Handlers ===

func (s *Server) handleEnsureCatalogEntry(ctx context.Context, input *EnsureInput) (*CatalogEntryOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	entry, err := s.services.Catalog.Ensure(ctx, input.Body.record())
	if err != nil {
		return nil, err
	}
	return &CatalogEntryOutput{Body: entry}, nil
}

func (s *Server) handleListCatalog(ctx context.Context, input *CatalogListInput) (*CatalogPageOutput, error) {
	kind, err := parseKind(input.Kind, true)
	if err != nil {
		return nil, err
	}
	page, err := s.services.Catalog.List(ctx, input.Query, kind, input.page())
	if err != nil {
		return nil, err
	}
	return &CatalogPageOutput{Body: page}, nil
}

func (s *Server) handleSearchCatalog(ctx context.Context, input *CatalogSearchInput) (*CatalogPageOutput, error) {
	kind, err := parseKind(input.Kind, true)
	if err != nil {
		return nil, err
	}
	p := input.page()
	page, err := s.services.Catalog.Search(ctx, search.Query{
		Text:   input.Query,
		Kind:   kind,
		Genre:  input.Genre,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &CatalogPageOutput{Body: page}, nil
}

func (s *Server) handleGetCatalogEntry(ctx context.Context, input *IDPath) (*CatalogEntryOutput, error) {
	entry, err := s.services.Catalog.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CatalogEntryOutput{Body: entry}, nil
}

func (s *Server) handleListCatalogReviews(ctx context.Context, input *ReviewListInput) (*ReviewPageOutput, error) {
	page, err := s.services.Reviews.ListByCatalogEntry(ctx, input.ID, input.page())
	if err != nil {
		return nil, err
	}
	return &ReviewPageOutput{Body: page}, nil
}
