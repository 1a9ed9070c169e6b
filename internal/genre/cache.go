// Package genre keeps the process-wide genre taxonomy for each media kind.
package genre

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/cineza/cineza-server/internal/domain"
)

const (
	// UnknownName stands in for ids missing from a loaded taxonomy and for empty id lists.
	UnknownName = "Unknown"
	// LoadingName is returned while a kind's taxonomy has not finished loading.
	LoadingName = "Loading"

	defaultLoadTimeout = 30 * time.Second
)

// State is the load state of one media kind.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Fetcher retrieves a kind's full taxonomy from the metadata source.
type Fetcher interface {
	Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error)
}

type inflight struct {
	done chan struct{}
	err  error
}

type kindCache struct {
	state   State
	names   map[int]string
	genres  []domain.Genre
	pending *inflight
}

// Cache maps (kind, genre id) to names. Each kind moves
// Unloaded -> Loading -> Loaded; a failed load goes back to Unloaded.
type Cache struct {
	fetcher     Fetcher
	logger      *slog.Logger
	loadTimeout time.Duration

	mu    sync.Mutex
	kinds map[domain.MediaKind]*kindCache
}

// NewCache creates an empty cache backed by fetcher.
func NewCache(fetcher Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fetcher:     fetcher,
		logger:      logger,
		loadTimeout: defaultLoadTimeout,
		kinds: map[domain.MediaKind]*kindCache{
			domain.KindFilm:   {},
			domain.KindSeries: {},
		},
	}
}

// EnsureLoaded returns once kind is loaded. Concurrent callers wait on the
// same fetch. The fetch outlives a caller whose ctx ends first; that caller
// gets ctx.Err() while the others still receive the outcome.
func (c *Cache) EnsureLoaded(ctx context.Context, kind domain.MediaKind) error {
	if !kind.Valid() {
		return fmt.Errorf("genre cache: invalid media kind %q", kind)
	}

	c.mu.Lock()
	kc := c.kinds[kind]
	if kc.state == StateLoaded {
		c.mu.Unlock()
		return nil
	}
	p := kc.pending
	if p == nil {
		p = &inflight{done: make(chan struct{})}
		kc.state = StateLoading
		kc.pending = p
		go c.load(context.WithoutCancel(ctx), kind, p)
	}
	c.mu.Unlock()

	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnsureAll loads every kind in parallel and joins their errors.
func (c *Cache) EnsureAll(ctx context.Context) error {
	p := pool.New().WithContext(ctx)
	for _, kind := range []domain.MediaKind{domain.KindFilm, domain.KindSeries} {
		p.Go(func(ctx context.Context) error {
			return c.EnsureLoaded(ctx, kind)
		})
	}
	return p.Wait()
}

func (c *Cache) load(ctx context.Context, kind domain.MediaKind, p *inflight) {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	start := time.Now()
	genres, err := c.fetcher.Genres(ctx, kind)
	if err == nil && genres == nil {
		err = errors.New("empty taxonomy")
	}

	c.mu.Lock()
	kc := c.kinds[kind]
	kc.pending = nil
	if err != nil {
		kc.state = StateUnloaded
	} else {
		kc.names = make(map[int]string, len(genres))
		kc.genres = make([]domain.Genre, 0, len(genres))
		for _, g := range genres {
			if g.Slug == "" {
				g.Slug = Slugify(g.Name)
			}
			kc.names[g.ID] = g.Name
			kc.genres = append(kc.genres, g)
		}
		kc.state = StateLoaded
	}
	c.mu.Unlock()

	if err != nil {
		p.err = fmt.Errorf("load %s genres: %w", kind, err)
		c.logger.Warn("genre taxonomy load failed", "kind", kind, "error", err)
	} else {
		c.logger.Info("genre taxonomy loaded", "kind", kind, "count", len(genres), "duration", time.Since(start))
	}
	close(p.done)
}

// ResolveNames joins the names for ids with ", ". Ids missing from the
// taxonomy become UnknownName; an unloaded kind yields LoadingName.
func (c *Cache) ResolveNames(ids []int, kind domain.MediaKind) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	kc, ok := c.kinds[kind]
	if !ok || kc.state != StateLoaded {
		return LoadingName
	}
	if len(ids) == 0 {
		return UnknownName
	}

	names := make([]string, len(ids))
	for i, id := range ids {
		name, found := kc.names[id]
		if !found {
			name = UnknownName
		}
		names[i] = name
	}
	return strings.Join(names, ", ")
}

// State reports the current load state of kind.
func (c *Cache) State(kind domain.MediaKind) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kc, ok := c.kinds[kind]; ok {
		return kc.state
	}
	return StateUnloaded
}

// Genres returns kind's taxonomy in source order, or nil if not loaded.
func (c *Cache) Genres(kind domain.MediaKind) []domain.Genre {
	c.mu.Lock()
	defer c.mu.Unlock()
	kc, ok := c.kinds[kind]
	if !ok || kc.state != StateLoaded {
		return nil
	}
	return slices.Clone(kc.genres)
}
