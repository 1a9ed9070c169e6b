package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cineza/cineza-server/internal/auth"
	"github.com/cineza/cineza-server/internal/config"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/logger"
	"github.com/cineza/cineza-server/internal/service"
	"github.com/cineza/cineza-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, storeHandle.Store, tokenService, v, log.Logger), nil
}

// ProvideCatalogService provides identity reconciliation and catalog reads.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	genres := do.MustInvoke[*genre.Cache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, genres, indexHandle.CatalogIndex, service.CatalogOptions{
		Retries:   cfg.Catalog.ReconcileRetries,
		BaseDelay: cfg.Catalog.ReconcileBaseDelay,
	}, log.Logger), nil
}

// ProvideRatingService provides mean rating aggregation.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingService(storeHandle.Store, catalog.Refresh, log.Logger), nil
}

// NotificationServiceHandle drains in-flight emissions on shutdown.
type NotificationServiceHandle struct {
	*service.NotificationService
}

// Shutdown implements do.Shutdownable.
func (h *NotificationServiceHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.NotificationService.Shutdown(ctx)
}

// ProvideNotificationService provides notification emission and the inbox.
func ProvideNotificationService(i do.Injector) (*NotificationServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewNotificationService(storeHandle.Store, sseHandle.Manager, log.Logger)
	return &NotificationServiceHandle{NotificationService: svc}, nil
}

// ProvideReviewService provides reviews, likes and comments.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	ratings := do.MustInvoke[*service.RatingService](i)
	notifications := do.MustInvoke[*NotificationServiceHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(service.ReviewServiceDeps{
		Reviews:   storeHandle.Store,
		Catalog:   storeHandle.Store,
		Profiles:  storeHandle.Store,
		Ensure:    catalog,
		Ratings:   ratings,
		Notifier:  notifications.NotificationService,
		Validator: v,
		Logger:    log.Logger,
	}), nil
}

// ProvideProfileService provides profile reads and edits.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, v, log.Logger), nil
}

// ProvideSocialService provides the follow graph.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*NotificationServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(storeHandle.Store, notifications.NotificationService, log.Logger), nil
}

// ProvideWatchlistService provides watchlist toggling.
func ProvideWatchlistService(i do.Injector) (*service.WatchlistService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWatchlistService(storeHandle.Store, storeHandle.Store, catalog, log.Logger), nil
}
