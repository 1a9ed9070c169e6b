package api

import "github.com/cineza/cineza-server/internal/service"

// Services groups the business logic the API server calls into.
type Services struct {
	Auth          *service.AuthService
	Metadata      *service.MetadataService
	Catalog       *service.CatalogService
	Reviews       *service.ReviewService
	Profiles      *service.ProfileService
	Social        *service.SocialService
	Watchlist     *service.WatchlistService
	Notifications *service.NotificationService
}
