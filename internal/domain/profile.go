package domain

import (
	"slices"
	"time"

	"github.com/cineza/cineza-server/internal/color"
)

// UserProfile is the public face of a user. Following, Followers and
// Watchlist are id sets stored as arrays; WatchlistIndex maps
// ExternalKey values to catalog entry ids and always mirrors Watchlist.
type UserProfile struct {
	ID             string            `json:"id"`
	Username       string            `json:"username"`
	Name           string            `json:"name"`
	Bio            string            `json:"bio"`
	AvatarURL      string            `json:"avatar_url,omitempty"`
	Following      []string          `json:"following"`
	Followers      []string          `json:"followers"`
	Watchlist      []string          `json:"watchlist"`
	WatchlistIndex map[string]string `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IsFollowing reports whether p follows userID.
func (p *UserProfile) IsFollowing(userID string) bool {
	return slices.Contains(p.Following, userID)
}

// InWatchlist reports whether entryID is on p's watchlist.
func (p *UserProfile) InWatchlist(entryID string) bool {
	return slices.Contains(p.Watchlist, entryID)
}

// Summary trims p to what list views show.
func (p *UserProfile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:             p.ID,
		Username:       p.Username,
		Name:           p.Name,
		AvatarURL:      p.AvatarURL,
		AvatarColor:    color.ForUser(p.ID),
		FollowerCount:  len(p.Followers),
		FollowingCount: len(p.Following),
	}
}

// ProfileSummary is a compact profile for follower lists and search.
type ProfileSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	AvatarColor    string `json:"avatar_color"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
}

// ProfileUpdate carries optional edits; nil fields are left alone.
type ProfileUpdate struct {
	Name      *string
	Bio       *string
	AvatarURL *string
}

// WithID returns ids plus id, unchanged if already present. The input is not modified.
func WithID(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return slices.Clone(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

// WithoutID returns ids minus every occurrence of id. The input is not modified.
func WithoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
