package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// CatalogIndex wraps a Bleve index of catalog entries. All methods are safe
// for concurrent use; Rebuild takes the write lock.
type CatalogIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the catalog index.
type Options struct {
	DataPath string       // Directory holding search.bleve
	Logger   *slog.Logger // Defaults to slog.Default()
}

// mappingVersion is bumped whenever buildIndexMapping changes so an index
// written with an older mapping is dropped on startup.
const mappingVersion = "cineza-1"

// Open opens the index under opts.DataPath, creating it when absent and
// recreating it when corrupt or written with another mapping version.
func Open(opts Options) (*CatalogIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var (
		index bleve.Index
		err   error
	)

	stale := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		version, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("catalog index has no version file, rebuilding", "version", mappingVersion)
			stale = true
		case string(version) != mappingVersion:
			logger.Info("catalog index mapping changed, rebuilding",
				"old_version", string(version),
				"new_version", mappingVersion,
			)
			stale = true
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("catalog index unreadable, recreating", "path", indexPath, "error", err)
				stale = true
			}
		}
	}

	if stale {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write index version file", "error", err)
		}
		logger.Info("created catalog index", "path", indexPath)
	} else {
		logger.Info("opened catalog index", "path", indexPath)
	}

	return &CatalogIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close releases the index.
func (c *CatalogIndex) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Close()
}

// Index adds or replaces one document.
func (c *CatalogIndex) Index(doc *CatalogDocument) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Index(doc.ID, doc.toMap())
}

// IndexBatch indexes docs in chunks of 500.
func (c *CatalogIndex) IndexBatch(docs []*CatalogDocument) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	const chunk = 500
	for start := 0; start < len(docs); start += chunk {
		end := min(start+chunk, len(docs))

		batch := c.index.NewBatch()
		for _, doc := range docs[start:end] {
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := c.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Delete removes a document.
func (c *CatalogIndex) Delete(id string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Delete(id)
}

// Count returns the number of indexed documents.
func (c *CatalogIndex) Count() (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.DocCount()
}

// Rebuild drops every document by recreating the index. Searches block
// until it returns.
func (c *CatalogIndex) Rebuild() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(c.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	index, err := bleve.New(c.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	c.index = index
	c.logger.Info("rebuilt catalog index", "path", c.path)
	return nil
}
