package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/cineza/cineza-server/internal/api"
	"github.com/cineza/cineza-server/internal/config"
	"github.com/cineza/cineza-server/internal/logger"
	"github.com/cineza/cineza-server/internal/service"
	"github.com/cineza/cineza-server/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	authService := do.MustInvoke[*service.AuthService](i)
	notifications := do.MustInvoke[*NotificationServiceHandle](i)

	services := &api.Services{
		Auth:          authService,
		Metadata:      do.MustInvoke[*service.MetadataService](i),
		Catalog:       do.MustInvoke[*service.CatalogService](i),
		Reviews:       do.MustInvoke[*service.ReviewService](i),
		Profiles:      do.MustInvoke[*service.ProfileService](i),
		Social:        do.MustInvoke[*service.SocialService](i),
		Watchlist:     do.MustInvoke[*service.WatchlistService](i),
		Notifications: notifications.NotificationService,
	}

	sseHandler := sse.NewHandler(sseHandle.Manager, authService.ValidateToken, log.Logger)

	handler := api.NewServer(
		services,
		storeHandle.Store,
		indexHandle.CatalogIndex,
		sseHandler,
		sseHandle.ClientCount,
		api.Options{AllowedOrigins: cfg.Server.AllowedOrigins},
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
