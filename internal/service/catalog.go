package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/id"
	"github.com/cineza/cineza-server/internal/search"
	"github.com/cineza/cineza-server/internal/store"
)

const (
	untitledPlaceholder = "Unknown Title"

	defaultReconcileRetries   = 3
	defaultReconcileBaseDelay = 100 * time.Millisecond
)

// errNotVisibleYet marks a lookup that should be retried.
var errNotVisibleYet = errors.New("catalog entry not visible yet")

// CatalogIndex is the full-text index the catalog keeps in step with the store.
// *search.CatalogIndex implements it.
type CatalogIndex interface {
	Index(doc *search.CatalogDocument) error
	IndexBatch(docs []*search.CatalogDocument) error
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	Rebuild() error
}

// CatalogOptions tunes reconciliation.
type CatalogOptions struct {
	// Retries is how many delayed lookups follow a duplicate insert.
	Retries int
	// BaseDelay is the first backoff; each later one doubles.
	BaseDelay time.Duration
	// Timer replaces the wall clock between retries. Nil uses time.After.
	Timer retry.Timer
}

// CatalogService maps external records to local catalog entries and serves
// catalog listings.
type CatalogService struct {
	store     store.CatalogStore
	genres    GenreCatalog
	index     CatalogIndex
	retries   int
	baseDelay time.Duration
	timer     retry.Timer
	logger    *slog.Logger
}

// NewCatalogService creates the catalog service. index may be nil, in which
// case Search falls back to the store.
func NewCatalogService(catalog store.CatalogStore, genres GenreCatalog, index CatalogIndex, opts CatalogOptions, logger *slog.Logger) *CatalogService {
	if opts.Retries <= 0 {
		opts.Retries = defaultReconcileRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultReconcileBaseDelay
	}
	return &CatalogService{
		store:     catalog,
		genres:    genres,
		index:     index,
		retries:   opts.Retries,
		baseDelay: opts.BaseDelay,
		timer:     opts.Timer,
		logger:    logger,
	}
}

// Ensure returns the one catalog entry for r's (external id, kind), creating
// it on first sight. Concurrent callers for the same pair all get the same entry.
func (s *CatalogService) Ensure(ctx context.Context, r domain.ExternalRecord) (*domain.CatalogEntry, error) {
	if r.ExternalID <= 0 {
		return nil, domainerrors.Validation("external record has no external id")
	}
	if !r.Kind.Valid() {
		return nil, domainerrors.Validationf("external record has invalid media kind %q", r.Kind)
	}

	existing, err := s.store.GetCatalogEntryByExternal(ctx, r.ExternalID, r.Kind)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeError("ensure catalog entry", "catalog entry", err)
	}

	entry, err := s.newEntry(ctx, r)
	if err != nil {
		return nil, err
	}

	var created bool
	if upserter, ok := s.store.(store.CatalogUpserter); ok {
		entry, created, err = upserter.UpsertCatalogEntry(ctx, entry)
		if err != nil {
			return nil, storeError("upsert catalog entry", "catalog entry", err)
		}
	} else {
		entry, created, err = s.createOrFind(ctx, entry)
		if err != nil {
			return nil, err
		}
	}

	if created {
		s.logger.Info("catalog entry created",
			"catalog_entry_id", entry.ID,
			"external_id", entry.ExternalID,
			"kind", string(entry.Kind),
		)
		s.indexEntry(entry)
	}
	return entry, nil
}

// createOrFind inserts entry and, when another caller won the insert race,
// looks the winner up with exponential backoff.
func (s *CatalogService) createOrFind(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, bool, error) {
	err := s.store.CreateCatalogEntry(ctx, entry)
	if err == nil {
		return entry, true, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return nil, false, storeError("create catalog entry", "catalog entry", err)
	}

	s.logger.Debug("lost catalog insert race, looking up winner",
		"external_id", entry.ExternalID,
		"kind", string(entry.Kind),
	)

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(s.retries) + 1),
		retry.DelayType(s.backoff),
		retry.LastErrorOnly(true),
	}
	if s.timer != nil {
		opts = append(opts, retry.WithTimer(s.timer))
	}

	winner, err := retry.DoWithData(
		func() (*domain.CatalogEntry, error) {
			found, err := s.store.GetCatalogEntryByExternal(ctx, entry.ExternalID, entry.Kind)
			switch {
			case err == nil:
				return found, nil
			case errors.Is(err, store.ErrNotFound):
				return nil, errNotVisibleYet
			default:
				return nil, retry.Unrecoverable(err)
			}
		},
		opts...,
	)
	if err == nil {
		return winner, false, nil
	}

	if errors.Is(err, errNotVisibleYet) {
		s.logger.Error("catalog entry missing after duplicate insert",
			"external_id", entry.ExternalID,
			"kind", string(entry.Kind),
			"retries", s.retries,
		)
		return nil, false, domainerrors.Wrapf(err, domainerrors.CodeReconciliationRace,
			"catalog entry for %s not found after %d retries", entry.ExternalKey(), s.retries)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, domainerrors.BackendUnavailable("find catalog entry", ctxErr)
	}
	return nil, false, storeError("find catalog entry", "catalog entry", err)
}

// backoff is the wait before retry n (1-based): baseDelay, then doubling.
func (s *CatalogService) backoff(n uint, _ error, _ *retry.Config) time.Duration {
	if n == 0 {
		n = 1
	}
	return s.baseDelay << (n - 1)
}

func (s *CatalogService) newEntry(ctx context.Context, r domain.ExternalRecord) (*domain.CatalogEntry, error) {
	entryID, err := id.Generate(id.PrefixCatalog)
	if err != nil {
		return nil, domainerrors.Internal("could not allocate catalog id").WithCause(err)
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = untitledPlaceholder
	}
	director := r.Director
	if director == "" {
		director = r.Creators
	}

	return &domain.CatalogEntry{
		ID:          entryID,
		ExternalID:  r.ExternalID,
		Kind:        r.Kind,
		Title:       title,
		Description: r.Description,
		PosterURL:   r.PosterURL,
		BackdropURL: r.BackdropURL,
		ReleaseDate: r.ReleaseDate,
		Year:        r.Year,
		Genre:       s.genreNames(ctx, r),
		Director:    director,
		VoteAverage: r.VoteAverage,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// genreNames prefers the names the record already carries. The loading
// sentinel is never persisted.
func (s *CatalogService) genreNames(ctx context.Context, r domain.ExternalRecord) string {
	if r.GenreNames != "" && r.GenreNames != genre.LoadingName {
		return r.GenreNames
	}
	if err := s.genres.EnsureLoaded(ctx, r.Kind); err != nil {
		s.logger.Warn("genre taxonomy unavailable for new catalog entry",
			"external_id", r.ExternalID,
			"kind", string(r.Kind),
			"error", err,
		)
	}
	names := s.genres.ResolveNames(r.GenreIDs, r.Kind)
	if names == genre.LoadingName {
		return genre.UnknownName
	}
	return names
}

func (s *CatalogService) indexEntry(entry *domain.CatalogEntry) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(search.FromCatalogEntry(entry)); err != nil {
		s.logger.Warn("failed to index catalog entry", "catalog_entry_id", entry.ID, "error", err)
	}
}

// Get returns one entry.
func (s *CatalogService) Get(ctx context.Context, entryID string) (*domain.CatalogEntry, error) {
	entry, err := s.store.GetCatalogEntry(ctx, entryID)
	if err != nil {
		return nil, storeError("get catalog entry", "catalog entry", err)
	}
	return entry, nil
}

// List pages through entries matching text as a substring, best rated first.
func (s *CatalogService) List(ctx context.Context, text string, kind domain.MediaKind, page store.Page) (store.PageResult[*domain.CatalogEntry], error) {
	page = page.Normalize()
	if kind != "" && !kind.Valid() {
		return store.PageResult[*domain.CatalogEntry]{}, domainerrors.Validationf("unknown media kind %q", kind)
	}

	entries, total, err := s.store.ListCatalogEntries(ctx, store.CatalogQuery{
		Text: strings.TrimSpace(text),
		Kind: kind,
		Page: page,
	})
	if err != nil {
		return store.PageResult[*domain.CatalogEntry]{}, storeError("list catalog entries", "catalog entry", err)
	}
	return store.NewPageResult(entries, total, page), nil
}

// Search ranks entries through the full-text index. Without an index, or
// when the index fails, it degrades to List.
func (s *CatalogService) Search(ctx context.Context, q search.Query) (store.PageResult[*domain.CatalogEntry], error) {
	page := store.Page{Limit: q.Limit, Offset: q.Offset}.Normalize()
	if q.Kind != "" && !q.Kind.Valid() {
		return store.PageResult[*domain.CatalogEntry]{}, domainerrors.Validationf("unknown media kind %q", q.Kind)
	}
	if s.index == nil {
		return s.List(ctx, q.Text, q.Kind, page)
	}

	q.Limit, q.Offset = page.Limit, page.Offset
	res, err := s.index.Search(ctx, q)
	if err != nil {
		s.logger.Warn("catalog index search failed, falling back to store", "query", q.Text, "error", err)
		return s.List(ctx, q.Text, q.Kind, page)
	}

	entries, err := s.store.GetCatalogEntriesByIDs(ctx, res.IDs)
	if err != nil {
		return store.PageResult[*domain.CatalogEntry]{}, storeError("load search hits", "catalog entry", err)
	}
	return store.NewPageResult(entries, int(res.Total), page), nil
}

// Refresh re-indexes one entry, picking up a changed mean rating.
func (s *CatalogService) Refresh(ctx context.Context, entryID string) error {
	if s.index == nil {
		return nil
	}
	entry, err := s.store.GetCatalogEntry(ctx, entryID)
	if err != nil {
		return storeError("refresh catalog entry", "catalog entry", err)
	}
	if err := s.index.Index(search.FromCatalogEntry(entry)); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "index catalog entry")
	}
	return nil
}

// Reindex rebuilds the index from the store and returns the number of
// entries indexed.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	start := time.Now()
	if err := s.index.Rebuild(); err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "rebuild catalog index")
	}

	page := store.Page{Limit: 100}
	indexed := 0
	for {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		entries, total, err := s.store.ListCatalogEntries(ctx, store.CatalogQuery{Page: page})
		if err != nil {
			return indexed, storeError("list catalog entries", "catalog entry", err)
		}

		docs := make([]*search.CatalogDocument, 0, len(entries))
		for _, e := range entries {
			docs = append(docs, search.FromCatalogEntry(e))
		}
		if err := s.index.IndexBatch(docs); err != nil {
			return indexed, domainerrors.Wrap(err, domainerrors.CodeInternal, "index catalog batch")
		}
		indexed += len(docs)

		page.Offset += len(entries)
		if len(entries) == 0 || page.Offset >= total {
			break
		}
	}

	s.logger.Info("catalog index rebuilt", "entries", indexed, "duration", time.Since(start))
	return indexed, nil
}
