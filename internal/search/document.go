// Package search provides full-text search over the local catalog using Bleve.
// Titles, directors and genre names are indexed so the catalog search
// endpoint can rank and fuzzy-match instead of falling back to substring scans.
package search

import (
	"strings"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/genre"
)

// CatalogDocument is the indexed form of a domain.CatalogEntry.
type CatalogDocument struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Director    string   `json:"director,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	GenreSlugs  []string `json:"genre_slugs,omitempty"`
	Year        int      `json:"year,omitempty"`
	MeanRating  float64  `json:"mean_rating"`
	Rated       bool     `json:"rated"`
	CreatedAt   int64    `json:"created_at"`
}

// FromCatalogEntry builds the index document for e.
func FromCatalogEntry(e *domain.CatalogEntry) *CatalogDocument {
	doc := &CatalogDocument{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Title:       e.Title,
		Description: e.Description,
		Director:    e.Director,
		Genre:       e.Genre,
		CreatedAt:   e.CreatedAt.UnixMilli(),
	}
	if e.Year != nil {
		doc.Year = *e.Year
	}
	if e.MeanRating != nil {
		doc.MeanRating = *e.MeanRating
		doc.Rated = true
	}
	for name := range strings.SplitSeq(e.Genre, ",") {
		if slug := genre.Slugify(name); slug != "" {
			doc.GenreSlugs = append(doc.GenreSlugs, slug)
		}
	}
	return doc
}

// toMap keys fields by their mapping names. Bleve reads struct fields by Go
// name otherwise, which would miss the lowercase mapping.
func (d *CatalogDocument) toMap() map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"kind":        d.Kind,
		"title":       d.Title,
		"mean_rating": d.MeanRating,
		"rated":       d.Rated,
		"created_at":  float64(d.CreatedAt),
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Director != "" {
		m["director"] = d.Director
	}
	if d.Genre != "" {
		m["genre"] = d.Genre
	}
	if len(d.GenreSlugs) > 0 {
		m["genre_slugs"] = d.GenreSlugs
	}
	if d.Year > 0 {
		m["year"] = float64(d.Year)
	}
	return m
}
