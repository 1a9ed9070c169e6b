package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineza/cineza-server/internal/domain"
)

func setupTestIndex(t *testing.T) *CatalogIndex {
	t.Helper()
	index, err := Open(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func entry(id, title, director, genre string, kind domain.MediaKind, rating *float64, created time.Time) *domain.CatalogEntry {
	return &domain.CatalogEntry{
		ID:         id,
		ExternalID: 1,
		Kind:       kind,
		Title:      title,
		Director:   director,
		Genre:      genre,
		MeanRating: rating,
		CreatedAt:  created,
	}
}

func ptr(v float64) *float64 { return &v }

func seed(t *testing.T, index *CatalogIndex) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []*CatalogDocument{
		FromCatalogEntry(entry("ctl-1", "Inception", "Christopher Nolan", "Action, Science Fiction", domain.KindFilm, ptr(4.5), base)),
		FromCatalogEntry(entry("ctl-2", "Interstellar", "Christopher Nolan", "Drama, Science Fiction", domain.KindFilm, ptr(4.8), base.Add(time.Hour))),
		FromCatalogEntry(entry("ctl-3", "Dark", "Baran bo Odar", "Mystery, Drama", domain.KindSeries, nil, base.Add(2*time.Hour))),
		FromCatalogEntry(entry("ctl-4", "Amélie", "Jean-Pierre Jeunet", "Comedy, Romance", domain.KindFilm, ptr(3.9), base.Add(3*time.Hour))),
	}
	require.NoError(t, index.IndexBatch(docs))
}

func TestOpen_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestOpen_ReopensExisting(t *testing.T) {
	dir := t.TempDir()

	index, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.Index(FromCatalogEntry(entry("ctl-1", "Heat", "Michael Mann", "Crime", domain.KindFilm, nil, time.Now()))))
	require.NoError(t, index.Close())

	reopened, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestFromCatalogEntry(t *testing.T) {
	year := 2010
	e := entry("ctl-1", "Inception", "Christopher Nolan", "Action, Science Fiction", domain.KindFilm, ptr(4.5), time.UnixMilli(1000))
	e.Year = &year

	doc := FromCatalogEntry(e)
	assert.Equal(t, []string{"action", "science-fiction"}, doc.GenreSlugs)
	assert.Equal(t, 2010, doc.Year)
	assert.True(t, doc.Rated)
	assert.Equal(t, int64(1000), doc.CreatedAt)

	unrated := FromCatalogEntry(entry("ctl-2", "X", "", "", domain.KindFilm, nil, time.Now()))
	assert.False(t, unrated.Rated)
	assert.Empty(t, unrated.GenreSlugs)
}

func TestSearch_ByTitle(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Query{Text: "interstellar"})
	require.NoError(t, err)
	require.NotEmpty(t, res.IDs)
	assert.Equal(t, "ctl-2", res.IDs[0])
}

func TestSearch_ByDirector(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Query{Text: "nolan"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ctl-1", "ctl-2"}, res.IDs)
}

func TestSearch_FuzzyTitle(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Query{Text: "incepton"})
	require.NoError(t, err)
	assert.Contains(t, res.IDs, "ctl-1")
}

func TestSearch_KindAndGenreFilters(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	res, err := index.Search(ctx, Query{Kind: domain.KindSeries})
	require.NoError(t, err)
	assert.Equal(t, []string{"ctl-3"}, res.IDs)

	res, err = index.Search(ctx, Query{Genre: "science-fiction"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ctl-1", "ctl-2"}, res.IDs)
}

func TestSearch_EmptyTextOrdersByRating(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Total)
	assert.Equal(t, []string{"ctl-2", "ctl-1", "ctl-4", "ctl-3"}, res.IDs)
}

func TestSearch_Pagination(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Query{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Total)
	assert.Equal(t, []string{"ctl-4", "ctl-3"}, res.IDs)
}

func TestDeleteAndRebuild(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	require.NoError(t, index.Delete("ctl-3"))
	count, err := index.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	require.NoError(t, index.Rebuild())
	count, err = index.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNormalizeText(t *testing.T) {
	decomposed := "Ame\u0301lie   Poulain "
	assert.Equal(t, "Am\u00e9lie Poulain", NormalizeText(decomposed))
	assert.Equal(t, "", NormalizeText("   "))
}
