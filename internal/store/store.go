// Package store defines the persistence contracts the services depend on.
// internal/store/sqlite is the production implementation.
package store

import (
	"context"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
)

// CatalogQuery filters catalog listings. Text matches title, director or
// genre as a case-insensitive substring.
type CatalogQuery struct {
	Text string
	Kind domain.MediaKind
	Page Page
}

// CatalogStore persists catalog entries.
type CatalogStore interface {
	GetCatalogEntry(ctx context.Context, id string) (*domain.CatalogEntry, error)
	GetCatalogEntryByExternal(ctx context.Context, externalID int64, kind domain.MediaKind) (*domain.CatalogEntry, error)
	// GetCatalogEntriesByIDs returns entries in the order of ids, skipping missing ones.
	GetCatalogEntriesByIDs(ctx context.Context, ids []string) ([]*domain.CatalogEntry, error)
	// CreateCatalogEntry returns ErrAlreadyExists when (external id, kind) is taken.
	CreateCatalogEntry(ctx context.Context, entry *domain.CatalogEntry) error
	// ListCatalogEntries orders by mean rating desc, then newest first.
	ListCatalogEntries(ctx context.Context, q CatalogQuery) ([]*domain.CatalogEntry, int, error)
	UpdateMeanRating(ctx context.Context, id string, mean float64) error
}

// CatalogUpserter is implemented by backends that can insert-or-return in one
// statement. Callers prefer it over create-then-lookup when available.
type CatalogUpserter interface {
	// UpsertCatalogEntry returns the stored row for entry's (external id, kind)
	// and whether this call created it.
	UpsertCatalogEntry(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, bool, error)
}

// ReviewStore persists reviews. (author, catalog entry) is unique.
type ReviewStore interface {
	CreateReview(ctx context.Context, r *domain.Review) error
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	GetReviewByAuthorAndEntry(ctx context.Context, authorID, catalogEntryID string) (*domain.Review, error)
	UpdateReview(ctx context.Context, id string, rating float64, comment string, at time.Time) error
	DeleteReview(ctx context.Context, id string) error
	ListReviewsByCatalogEntry(ctx context.Context, catalogEntryID string, p Page) ([]*domain.Review, int, error)
	ListReviewsByAuthors(ctx context.Context, authorIDs []string, p Page) ([]*domain.Review, int, error)
	ReviewRatings(ctx context.Context, catalogEntryID string) ([]float64, error)
}

// LikeStore toggles like rows keyed by (user, target).
type LikeStore interface {
	ToggleReviewLike(ctx context.Context, userID, reviewID string, at time.Time) (domain.LikeState, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string, at time.Time) (domain.LikeState, error)
}

// CommentStore persists review comments, oldest first.
type CommentStore interface {
	CreateComment(ctx context.Context, c *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, reviewID string, p Page) ([]*domain.Comment, int, error)
}

// ProfileStore persists user profiles. The Set* methods overwrite one
// array column each in a single UPDATE; SetWatchlist writes both watchlist
// columns together.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*domain.UserProfile, error)
	GetProfileByUsername(ctx context.Context, username string) (*domain.UserProfile, error)
	GetProfilesByIDs(ctx context.Context, ids []string) ([]*domain.UserProfile, error)
	ListAllProfiles(ctx context.Context) ([]*domain.UserProfile, error)
	// SearchProfiles matches username or name, ordered by name.
	SearchProfiles(ctx context.Context, query string, p Page) ([]*domain.UserProfile, int, error)
	UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate, at time.Time) (*domain.UserProfile, error)
	SetFollowing(ctx context.Context, id string, following []string) error
	SetFollowers(ctx context.Context, id string, followers []string) error
	SetWatchlist(ctx context.Context, id string, watchlist []string, index map[string]string) error
}

// UserStore persists auth identities.
type UserStore interface {
	// CreateAccount stores the identity and its profile together.
	CreateAccount(ctx context.Context, u *domain.User, p *domain.UserProfile) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, p Page) ([]*domain.Notification, int, error)
	MarkNotificationRead(ctx context.Context, recipientID, id string) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error)
	CountUnreadNotifications(ctx context.Context, recipientID string) (int, error)
}

// Store is the full backend.
type Store interface {
	CatalogStore
	ReviewStore
	LikeStore
	CommentStore
	ProfileStore
	UserStore
	NotificationStore
	Close() error
}
