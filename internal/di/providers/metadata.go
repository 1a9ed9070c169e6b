package providers

import (
	"github.com/samber/do/v2"

	"github.com/cineza/cineza-server/internal/config"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/logger"
	"github.com/cineza/cineza-server/internal/metadata/tmdb"
	"github.com/cineza/cineza-server/internal/service"
)

// MetadataClientHandle wraps the TMDB client with shutdown capability.
type MetadataClientHandle struct {
	*tmdb.Client
}

// Shutdown implements do.Shutdownable.
func (h *MetadataClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideMetadataClient provides the TMDB API client.
func ProvideMetadataClient(i do.Injector) (*MetadataClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := tmdb.New(tmdb.Config{
		BaseURL:      cfg.Metadata.BaseURL,
		ImageBaseURL: cfg.Metadata.ImageBaseURL,
		APIKey:       cfg.Metadata.APIKey,
		Language:     cfg.Metadata.Language,
		RPS:          cfg.Metadata.RequestsPerSecond,
		Burst:        cfg.Metadata.Burst,
		Timeout:      cfg.Metadata.Timeout,
	}, log.Logger)

	log.Info("Metadata client initialized",
		"base_url", cfg.Metadata.BaseURL,
		"language", cfg.Metadata.Language,
		"rps", cfg.Metadata.RequestsPerSecond,
	)

	return &MetadataClientHandle{Client: client}, nil
}

// ProvideGenreCache provides the per-kind genre name cache.
func ProvideGenreCache(i do.Injector) (*genre.Cache, error) {
	clientHandle := do.MustInvoke[*MetadataClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return genre.NewCache(clientHandle.Client, log.Logger), nil
}

// ProvideMetadataService provides the discover gateway.
func ProvideMetadataService(i do.Injector) (*service.MetadataService, error) {
	clientHandle := do.MustInvoke[*MetadataClientHandle](i)
	genres := do.MustInvoke[*genre.Cache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMetadataService(clientHandle.Client, genres, service.NewQueryGuard(), log.Logger), nil
}
