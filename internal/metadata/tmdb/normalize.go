package tmdb

import (
	"strconv"
	"strings"

	"github.com/cineza/cineza-server/internal/domain"
)

const (
	posterSize   = "w500"
	backdropSize = "w1280"
	profileSize  = "w185"
	maxCast      = 20

	defaultDescription = "No description available."
)

func (c *Client) imageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return c.imageBase + "/" + size + path
}

// parseYear reads the leading four digits of a source date.
func parseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y <= 0 {
		return nil
	}
	return &y
}

// normalize maps a raw item onto the canonical record shape. kind wins over
// any media_type the payload carries.
func (c *Client) normalize(item *rawItem, kind domain.MediaKind) domain.ExternalRecord {
	title, date := item.Title, item.ReleaseDate
	if kind == domain.KindSeries {
		title, date = item.Name, item.FirstAirDate
	}

	description := strings.TrimSpace(item.Overview)
	if description == "" {
		description = defaultDescription
	}

	genreIDs := item.GenreIDs
	if genreIDs == nil {
		genreIDs = make([]int, 0, len(item.Genres))
		for _, g := range item.Genres {
			genreIDs = append(genreIDs, g.ID)
		}
	}

	return domain.ExternalRecord{
		ExternalID:  item.ID,
		Kind:        kind,
		Title:       strings.TrimSpace(title),
		Description: description,
		PosterURL:   c.imageURL(posterSize, item.PosterPath),
		BackdropURL: c.imageURL(backdropSize, item.BackdropPath),
		ReleaseDate: date,
		Year:        parseYear(date),
		GenreIDs:    genreIDs,
		VoteAverage: item.VoteAverage,
		VoteCount:   item.VoteCount,
		Popularity:  item.Popularity,
	}
}

// kindOf resolves a multi-search media_type. Anything but movie or tv
// (people, collections) reports false.
func kindOf(mediaType string) (domain.MediaKind, bool) {
	switch mediaType {
	case "movie":
		return domain.KindFilm, true
	case "tv":
		return domain.KindSeries, true
	default:
		return "", false
	}
}

// listable reports whether a list item can be reconciled later.
func listable(item *rawItem) bool {
	return item.ID > 0 && item.PosterPath != ""
}

func (c *Client) normalizeList(page *rawPage, kind domain.MediaKind) domain.ListResult {
	res := domain.ListResult{
		Items:        make([]domain.ExternalRecord, 0, len(page.Results)),
		Page:         page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
	for i := range page.Results {
		item := &page.Results[i]
		k := kind
		if k == "" {
			var ok bool
			if k, ok = kindOf(item.MediaType); !ok {
				continue
			}
		}
		if !listable(item) {
			continue
		}
		res.Items = append(res.Items, c.normalize(item, k))
	}
	return res
}

func (c *Client) normalizeDetails(item *rawItem, kind domain.MediaKind) domain.Details {
	d := domain.Details{
		ExternalRecord:  c.normalize(item, kind),
		Tagline:         item.Tagline,
		Runtime:         item.Runtime,
		Seasons:         item.NumberSeasons,
		Cast:            []domain.CastMember{},
		Videos:          []domain.Video{},
		Recommendations: []domain.ExternalRecord{},
	}

	names := make([]string, 0, len(item.Genres))
	for _, g := range item.Genres {
		names = append(names, g.Name)
	}
	d.GenreNames = strings.Join(names, ", ")

	creators := make([]string, 0, len(item.CreatedBy))
	for _, cb := range item.CreatedBy {
		creators = append(creators, cb.Name)
	}
	d.Creators = strings.Join(creators, ", ")

	if item.Credits != nil {
		for _, crew := range item.Credits.Crew {
			if crew.Job == "Director" {
				d.Director = crew.Name
				break
			}
		}
		for i, cast := range item.Credits.Cast {
			if i == maxCast {
				break
			}
			d.Cast = append(d.Cast, domain.CastMember{
				Name:       cast.Name,
				Character:  cast.Character,
				ProfileURL: c.imageURL(profileSize, cast.ProfilePath),
				Order:      cast.Order,
			})
		}
	}

	if item.Videos != nil {
		for _, v := range item.Videos.Results {
			d.Videos = append(d.Videos, domain.Video(v))
		}
	}

	if item.Recommendations != nil {
		d.Recommendations = c.normalizeList(item.Recommendations, kind).Items
	}

	return d
}
