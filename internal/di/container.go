// Package di provides dependency injection configuration for the Cineza server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/cineza/cineza-server/internal/auth"
	"github.com/cineza/cineza-server/internal/config"
	"github.com/cineza/cineza-server/internal/di/providers"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/logger"
	"github.com/cineza/cineza-server/internal/service"
	"github.com/cineza/cineza-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Metadata layer
	do.Provide(injector, providers.ProvideMetadataClient)
	do.Provide(injector, providers.ProvideGenreCache)
	do.Provide(injector, providers.ProvideMetadataService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideRatingService)
	do.Provide(injector, providers.ProvideNotificationService)
	do.Provide(injector, providers.ProvideReviewService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideSocialService)
	do.Provide(injector, providers.ProvideWatchlistService)

	// Workers
	do.Provide(injector, providers.ProvideWarmupJob)
	do.Provide(injector, providers.ProvideSymmetrySweepJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes every service, starts the workers and opens the listener.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	for _, invoke := range []func(do.Injector) error{
		invokeAs[providers.AuthKey],
		invokeAs[*providers.SSEManagerHandle],
		invokeAs[*providers.StoreHandle],
		invokeAs[*providers.SearchIndexHandle],
		invokeAs[*providers.MetadataClientHandle],
		invokeAs[*genre.Cache],
		invokeAs[*auth.TokenService],
	} {
		if err := invoke(injector); err != nil {
			return err
		}
	}

	// Business services
	_ = do.MustInvoke[*service.MetadataService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.RatingService](injector)
	_ = do.MustInvoke[*providers.NotificationServiceHandle](injector)
	_ = do.MustInvoke[*service.ReviewService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.SocialService](injector)
	_ = do.MustInvoke[*service.WatchlistService](injector)

	// Workers
	_ = do.MustInvoke[*providers.WarmupJob](injector)
	_ = do.MustInvoke[*providers.SymmetrySweepJob](injector)

	// Server
	return invokeAs[*providers.HTTPServerHandle](injector)
}

// invokeAs resolves T for its side effects, surfacing provider errors
// instead of panicking.
func invokeAs[T any](i do.Injector) error {
	_, err := do.Invoke[T](i)
	return err
}
