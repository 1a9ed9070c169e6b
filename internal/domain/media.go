// Package domain holds the records shared by the store, the services and the HTTP layer.
package domain

import (
	"fmt"
	"strings"
)

// MediaKind distinguishes films from series.
type MediaKind string

const (
	KindFilm   MediaKind = "film"
	KindSeries MediaKind = "series"
)

// Valid reports whether k is one of the known kinds.
func (k MediaKind) Valid() bool {
	return k == KindFilm || k == KindSeries
}

// SourceType is the metadata source's name for the kind ("movie" or "tv").
func (k MediaKind) SourceType() string {
	if k == KindSeries {
		return "tv"
	}
	return "movie"
}

// ParseMediaKind accepts both local names (film, series) and source names (movie, tv).
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "film", "movie":
		return KindFilm, nil
	case "series", "tv":
		return KindSeries, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// ExternalRecord is the normalized shape of a metadata source item.
// Film and series payloads both collapse into it.
type ExternalRecord struct {
	ExternalID  int64     `json:"external_id"`
	Kind        MediaKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PosterURL   string    `json:"poster_url,omitempty"`
	BackdropURL string    `json:"backdrop_url,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Year        *int      `json:"year"`
	GenreIDs    []int     `json:"genre_ids"`
	GenreNames  string    `json:"genre_names"`
	VoteAverage float64   `json:"vote_average"`
	VoteCount   int       `json:"vote_count"`
	Popularity  float64   `json:"popularity"`
	Director    string    `json:"director,omitempty"`
	Creators    string    `json:"creators,omitempty"`
}

// Key identifies the record across kinds: "<kind>/<external id>".
func (r ExternalRecord) Key() string {
	return ExternalKey(r.Kind, r.ExternalID)
}

// ExternalKey formats the (kind, external id) pair used by watchlist lookups.
func ExternalKey(kind MediaKind, externalID int64) string {
	return fmt.Sprintf("%s/%d", kind, externalID)
}

// CastMember is one credited performer.
type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Order      int    `json:"order"`
}

// Video is a trailer or clip hosted by a third party.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Details is a single item with its credits, videos and recommendations.
type Details struct {
	ExternalRecord
	Tagline         string           `json:"tagline,omitempty"`
	Runtime         int              `json:"runtime,omitempty"`
	Seasons         int              `json:"seasons,omitempty"`
	Cast            []CastMember     `json:"cast"`
	Videos          []Video          `json:"videos"`
	Recommendations []ExternalRecord `json:"recommendations"`
}

// Genre is one entry of a source taxonomy.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListResult is a page of normalized list items.
type ListResult struct {
	Items        []ExternalRecord `json:"items"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}

// TrendingWindow selects the trending time window.
type TrendingWindow string

const (
	WindowDay  TrendingWindow = "day"
	WindowWeek TrendingWindow = "week"
)
