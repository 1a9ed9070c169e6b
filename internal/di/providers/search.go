package providers

import (
	"github.com/samber/do/v2"

	"github.com/cineza/cineza-server/internal/config"
	"github.com/cineza/cineza-server/internal/logger"
	"github.com/cineza/cineza-server/internal/search"
)

// SearchIndexHandle wraps the catalog index with shutdown capability.
type SearchIndexHandle struct {
	*search.CatalogIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve catalog index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.Open(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.Count()
	log.Info("Search index initialized", "path", cfg.Data.SearchIndexPath(), "documents", docCount)

	return &SearchIndexHandle{CatalogIndex: index}, nil
}
