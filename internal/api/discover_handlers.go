package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/service"
)

func (s *Server) registerDiscoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "discoverSearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/discover/search",
		Summary:     "Search films and series",
		Description: "Searches the metadata source. A newer search from the same session makes an in-flight one return stale with no items.",
		Tags:        []string{"Discover"},
	}, s.handleDiscoverSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "discoverPopular",
		Method:      http.MethodGet,
		Path:        "/api/v1/discover/popular",
		Summary:     "Popular titles",
		Tags:        []string{"Discover"},
	}, s.handleDiscoverPopular)

	huma.Register(s.api, huma.Operation{
		OperationID: "discoverTrending",
		Method:      http.MethodGet,
		Path:        "/api/v1/discover/trending",
		Summary:     "Trending titles",
		Tags:        []string{"Discover"},
	}, s.handleDiscoverTrending)

	huma.Register(s.api, huma.Operation{
		OperationID: "discoverDetails",
		Method:      http.MethodGet,
		Path:        "/api/v1/discover/{kind}/{external_id}",
		Summary:     "Title details",
		Description: "Returns full details with cast, videos and recommendations",
		Tags:        []string{"Discover"},
	}, s.handleDiscoverDetails)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/{kind}",
		Summary:     "Genre taxonomy",
		Tags:        []string{"Discover"},
	}, s.handleListGenres)
}

// === DTOs ===

// DiscoverSearchInput is a discover search.
type DiscoverSearchInput struct {
	Query   string `query:"query" maxLength:"200" doc:"Search text"`
	Page    int    `query:"page" default:"1" minimum:"1" maximum:"500" doc:"Result page"`
	Kind    string `query:"kind" doc:"Restrict to one kind; empty searches both"`
	Genres  []int  `query:"genres" doc:"Genre ids; every id must match"`
	Session string `header:"X-Search-Session" doc:"Session key for anonymous callers"`
}

// SearchOutput wraps a guarded search outcome.
type SearchOutput struct {
	Body service.SearchOutcome
}

// DiscoverPopularInput lists popular titles.
type DiscoverPopularInput struct {
	Kind   string `query:"kind" default:"film" enum:"film,series" doc:"Media kind"`
	Page   int    `query:"page" default:"1" minimum:"1" maximum:"500" doc:"Result page"`
	Genres []int  `query:"genres" doc:"Genre ids"`
}

// ListOutput wraps a page of external records.
type ListOutput struct {
	Body domain.ListResult
}

// DiscoverTrendingInput lists trending titles.
type DiscoverTrendingInput struct {
	Kind   string `query:"kind" doc:"Media kind; empty covers both"`
	Window string `query:"window" default:"week" enum:"day,week" doc:"Trending window"`
}

// TrendingResponse holds trending records.
type TrendingResponse struct {
	Items []domain.ExternalRecord `json:"items" doc:"Trending titles"`
}

// TrendingOutput wraps the trending response.
type TrendingOutput struct {
	Body TrendingResponse
}

// DiscoverDetailsInput identifies one title at the metadata source.
type DiscoverDetailsInput struct {
	Kind       string `path:"kind" doc:"film or series"`
	ExternalID int64  `path:"external_id" minimum:"1" doc:"Metadata source id"`
}

// DetailsOutput wraps title details.
type DetailsOutput struct {
	Body *domain.Details
}

// GenresInput selects a taxonomy.
type GenresInput struct {
	Kind string `path:"kind" doc:"film or series"`
}

// GenresResponse holds one taxonomy.
type GenresResponse struct {
	Genres []domain.Genre `json:"genres" doc:"Genres with URL slugs"`
}

// GenresOutput wraps the genres response.
type GenresOutput struct {
	Body GenresResponse
}

// === Handlers ===

func (s *Server) handleDiscoverSearch(ctx context.Context, input *DiscoverSearchInput) (*SearchOutput, error) {
	kind, err := parseKind(input.Kind, true)
	if err != nil {
		return nil, err
	}
	q := service.SearchQuery{
		Query:  input.Query,
		Page:   input.Page,
		Kind:   kind,
		Genres: input.Genres,
	}

	session := optionalUserID(ctx)
	if session == "" {
		session = input.Session
	}
	if session == "" {
		return &SearchOutput{Body: service.SearchOutcome{ListResult: s.services.Metadata.Search(ctx, q)}}, nil
	}
	return &SearchOutput{Body: s.services.Metadata.SearchLatest(ctx, session, q)}, nil
}

func (s *Server) handleDiscoverPopular(ctx context.Context, input *DiscoverPopularInput) (*ListOutput, error) {
	kind, err := parseKind(input.Kind, false)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: s.services.Metadata.Popular(ctx, kind, input.Page, input.Genres)}, nil
}

func (s *Server) handleDiscoverTrending(ctx context.Context, input *DiscoverTrendingInput) (*TrendingOutput, error) {
	kind, err := parseKind(input.Kind, true)
	if err != nil {
		return nil, err
	}
	window := domain.TrendingWindow(input.Window)
	if window != domain.WindowDay {
		window = domain.WindowWeek
	}
	return &TrendingOutput{Body: TrendingResponse{Items: s.services.Metadata.Trending(ctx, kind, window)}}, nil
}

func (s *Server) handleDiscoverDetails(ctx context.Context, input *DiscoverDetailsInput) (*DetailsOutput, error) {
	kind, err := parseKind(input.Kind, false)
	if err != nil {
		return nil, err
	}
	d, err := s.services.Metadata.Details(ctx, input.ExternalID, kind)
	if err != nil {
		return nil, err
	}
	return &DetailsOutput{Body: d}, nil
}

func (s *Server) handleListGenres(ctx context.Context, input *GenresInput) (*GenresOutput, error) {
	kind, err := parseKind(input.Kind, false)
	if err != nil {
		return nil, err
	}
	genres, err := s.services.Metadata.Genres(ctx, kind)
	if err != nil {
		return nil, err
	}
	return &GenresOutput{Body: GenresResponse{Genres: genres}}, nil
}
