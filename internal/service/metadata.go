package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/metadata/tmdb"
)

// MetadataSource is the read-only metadata oracle. *tmdb.Client implements it.
type MetadataSource interface {
	Search(ctx context.Context, p tmdb.SearchParams) (domain.ListResult, error)
	Popular(ctx context.Context, kind domain.MediaKind, page int, genres []int) (domain.ListResult, error)
	Trending(ctx context.Context, kind domain.MediaKind, window domain.TrendingWindow) ([]domain.ExternalRecord, error)
	Details(ctx context.Context, externalID int64, kind domain.MediaKind) (domain.Details, error)
	Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error)
}

// GenreCatalog is the slice of *genre.Cache the services use.
type GenreCatalog interface {
	EnsureLoaded(ctx context.Context, kind domain.MediaKind) error
	EnsureAll(ctx context.Context) error
	ResolveNames(ids []int, kind domain.MediaKind) string
	Genres(kind domain.MediaKind) []domain.Genre
}

// SearchQuery is a discover search request. An empty Kind searches both kinds.
type SearchQuery struct {
	Query  string
	Page   int
	Kind   domain.MediaKind
	Genres []int
}

// SearchOutcome is the result of a guarded search. Stale is set when a newer
// search for the same session began before this one resolved.
type SearchOutcome struct {
	domain.ListResult
	Stale bool `json:"stale"`
}

// MetadataService is the gateway to the metadata source. List calls degrade
// to empty results; detail calls surface failures.
type MetadataService struct {
	source MetadataSource
	genres GenreCatalog
	guard  *QueryGuard
	logger *slog.Logger
}

// NewMetadataService creates a gateway over source.
func NewMetadataService(source MetadataSource, genres GenreCatalog, guard *QueryGuard, logger *slog.Logger) *MetadataService {
	if guard == nil {
		guard = NewQueryGuard()
	}
	return &MetadataService{
		source: source,
		genres: genres,
		guard:  guard,
		logger: logger,
	}
}

// Search runs a discover search. A blank query yields an empty page.
func (s *MetadataService) Search(ctx context.Context, q SearchQuery) domain.ListResult {
	query := strings.TrimSpace(q.Query)
	page := max(q.Page, 1)
	if query == "" {
		return emptyList(page)
	}
	if q.Kind != "" && !q.Kind.Valid() {
		return emptyList(page)
	}

	s.loadGenres(ctx, q.Kind)

	res, err := s.source.Search(ctx, tmdb.SearchParams{
		Query:  query,
		Page:   page,
		Kind:   q.Kind,
		Genres: q.Genres,
	})
	if err != nil {
		s.listFailed("search", err, "query", query)
		return emptyList(page)
	}

	s.fillGenreNames(ctx, q.Kind, res.Items)

	// Multi-search cannot filter upstream, so every requested genre must be
	// present on the item. TotalPages and TotalResults keep the upstream
	// counts so callers can keep paging; a filtered page may be short.
	if q.Kind == "" && len(q.Genres) > 0 {
		res.Items = slices.DeleteFunc(res.Items, func(r domain.ExternalRecord) bool {
			return !hasAllGenres(r.GenreIDs, q.Genres)
		})
	}
	return res
}

// SearchLatest runs Search as the newest search for session. When another
// search for the same session starts first, this one's context is canceled
// and its outcome comes back stale with no items.
func (s *MetadataService) SearchLatest(ctx context.Context, session string, q SearchQuery) SearchOutcome {
	ticket := s.guard.Begin(ctx, session)
	defer ticket.Done()

	res := s.Search(ticket.Context(), q)
	if !ticket.Current() {
		s.logger.Debug("discarding stale search", "session", session, "query", q.Query)
		return SearchOutcome{ListResult: emptyList(max(q.Page, 1)), Stale: true}
	}
	return SearchOutcome{ListResult: res}
}

// Popular lists popular items of kind, optionally filtered by genre ids.
func (s *MetadataService) Popular(ctx context.Context, kind domain.MediaKind, page int, genres []int) domain.ListResult {
	page = max(page, 1)
	if !kind.Valid() {
		return emptyList(page)
	}
	s.loadGenres(ctx, kind)

	res, err := s.source.Popular(ctx, kind, page, genres)
	if err != nil {
		s.listFailed("popular", err, "kind", string(kind))
		return emptyList(page)
	}
	s.fillGenreNames(ctx, kind, res.Items)
	return res
}

// Trending lists trending items. An empty kind covers both.
func (s *MetadataService) Trending(ctx context.Context, kind domain.MediaKind, window domain.TrendingWindow) []domain.ExternalRecord {
	if kind != "" && !kind.Valid() {
		return []domain.ExternalRecord{}
	}
	s.loadGenres(ctx, kind)

	items, err := s.source.Trending(ctx, kind, window)
	if err != nil {
		s.listFailed("trending", err, "kind", string(kind))
		return []domain.ExternalRecord{}
	}
	s.fillGenreNames(ctx, kind, items)
	return items
}

// Details fetches one item. A missing item is NOT_FOUND; any other source
// failure is METADATA_UNAVAILABLE.
func (s *MetadataService) Details(ctx context.Context, externalID int64, kind domain.MediaKind) (*domain.Details, error) {
	if externalID <= 0 {
		return nil, domainerrors.Validation("external id must be positive")
	}
	if !kind.Valid() {
		return nil, domainerrors.Validationf("unknown media kind %q", kind)
	}

	details, err := s.source.Details(ctx, externalID, kind)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, domainerrors.NotFoundf("%s %d not found", kind, externalID)
		}
		s.logger.Warn("metadata details failed",
			"external_id", externalID,
			"kind", string(kind),
			"error", err,
		)
		return nil, domainerrors.MetadataUnavailable("could not load details", err)
	}

	if details.GenreNames == "" || len(details.Recommendations) > 0 {
		s.loadGenres(ctx, kind)
	}
	if details.GenreNames == "" {
		details.GenreNames = s.genres.ResolveNames(details.GenreIDs, kind)
	}
	s.fillGenreNames(ctx, kind, details.Recommendations)
	return &details, nil
}

// Genres returns kind's taxonomy with slugs, loading it on first use.
func (s *MetadataService) Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	if !kind.Valid() {
		return nil, domainerrors.Validationf("unknown media kind %q", kind)
	}
	if err := s.genres.EnsureLoaded(ctx, kind); err != nil {
		return nil, domainerrors.MetadataUnavailable("could not load genres", err)
	}
	return s.genres.Genres(kind), nil
}

// loadGenres makes a best effort to have names available. On failure the
// records carry the loading sentinel instead.
func (s *MetadataService) loadGenres(ctx context.Context, kind domain.MediaKind) {
	var err error
	if kind == "" {
		err = s.genres.EnsureAll(ctx)
	} else {
		err = s.genres.EnsureLoaded(ctx, kind)
	}
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("genre taxonomy unavailable", "kind", string(kind), "error", err)
	}
}

// fillGenreNames resolves names for items that lack them. requested is the
// kind loadGenres already tried (empty means both); any other kind present
// in items is loaded here first.
func (s *MetadataService) fillGenreNames(ctx context.Context, requested domain.MediaKind, items []domain.ExternalRecord) {
	tried := map[domain.MediaKind]bool{requested: true}
	for i := range items {
		if items[i].GenreNames != "" {
			continue
		}
		kind := items[i].Kind
		if requested != "" && !tried[kind] && kind.Valid() {
			tried[kind] = true
			s.loadGenres(ctx, kind)
		}
		items[i].GenreNames = s.genres.ResolveNames(items[i].GenreIDs, kind)
	}
}

func (s *MetadataService) listFailed(op string, err error, args ...any) {
	if errors.Is(err, context.Canceled) {
		s.logger.Debug("metadata list canceled", append([]any{"op", op}, args...)...)
		return
	}
	s.logger.Warn("metadata list failed, returning empty result",
		append([]any{"op", op, "error", err}, args...)...)
}

func emptyList(page int) domain.ListResult {
	return domain.ListResult{Items: []domain.ExternalRecord{}, Page: page}
}

func hasAllGenres(have, want []int) bool {
	for _, id := range want {
		if !slices.Contains(have, id) {
			return false
		}
	}
	return true
}

var _ GenreCatalog = (*genre.Cache)(nil)
