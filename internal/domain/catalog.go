package domain

import "time"

// CatalogEntry is the local record for one film or series. The pair
// (ExternalID, Kind) is unique; everything except MeanRating is written once.
type CatalogEntry struct {
	ID          string    `json:"id"`
	ExternalID  int64     `json:"external_id"`
	Kind        MediaKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PosterURL   string    `json:"poster_url,omitempty"`
	BackdropURL string    `json:"backdrop_url,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Year        *int      `json:"year"`
	Genre       string    `json:"genre"`
	Director    string    `json:"director,omitempty"`
	MeanRating  *float64  `json:"mean_rating"`
	VoteAverage float64   `json:"vote_average"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExternalKey returns the watchlist lookup key for the entry.
func (c *CatalogEntry) ExternalKey() string {
	return ExternalKey(c.Kind, c.ExternalID)
}
