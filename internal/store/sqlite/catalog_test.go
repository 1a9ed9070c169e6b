package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

func TestCatalogEntry_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := createTestEntry(t, s, 27205, "Inception")

	got, err := s.GetCatalogEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Inception" || got.Kind != domain.KindFilm || got.ExternalID != 27205 {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Year == nil || *got.Year != 2010 {
		t.Errorf("year = %v, want 2010", got.Year)
	}
	if got.MeanRating != nil {
		t.Errorf("new entry should be unrated, got %v", *got.MeanRating)
	}

	if _, err := s.GetCatalogEntry(ctx, "ctl-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing entry: got %v, want ErrNotFound", err)
	}
}

func TestCatalogEntry_UniqueExternalPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestEntry(t, s, 1399, "Film 1399")

	dup := makeTestEntry(1399, domain.KindFilm, "Duplicate")
	dup.ID = "ctl-other"
	if err := s.CreateCatalogEntry(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("duplicate pair: got %v, want ErrAlreadyExists", err)
	}

	// Same external id under the other kind is a different title.
	series := makeTestEntry(1399, domain.KindSeries, "Game of Thrones")
	if err := s.CreateCatalogEntry(ctx, series); err != nil {
		t.Fatalf("series with same external id: %v", err)
	}
}

func TestCatalogEntry_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := makeTestEntry(603, domain.KindFilm, "The Matrix")
	stored, created, err := s.UpsertCatalogEntry(ctx, first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created || stored.ID != first.ID {
		t.Fatalf("first upsert: created=%v id=%s", created, stored.ID)
	}

	second := makeTestEntry(603, domain.KindFilm, "The Matrix (again)")
	second.ID = "ctl-second"
	stored, created, err = s.UpsertCatalogEntry(ctx, second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert should not create")
	}
	if stored.ID != first.ID || stored.Title != "The Matrix" {
		t.Errorf("second upsert returned %s %q, want the original row", stored.ID, stored.Title)
	}
}

func TestCatalogEntry_ConcurrentUpsertSingleRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := makeTestEntry(550, domain.KindFilm, "Fight Club")
			e.ID = "ctl-worker-" + string(rune('a'+i))
			stored, _, err := s.UpsertCatalogEntry(ctx, e)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			ids[i] = stored.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("workers saw different rows: %v", ids)
		}
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM catalog_entries WHERE external_id = 550`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestCatalogEntry_GetByIDsKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createTestEntry(t, s, 1, "A")
	b := createTestEntry(t, s, 2, "B")
	c := createTestEntry(t, s, 3, "C")

	got, err := s.GetCatalogEntriesByIDs(ctx, []string{c.ID, "ctl-missing", a.ID, b.ID})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ID != c.ID || got[1].ID != a.ID || got[2].ID != b.ID {
		t.Errorf("order not preserved: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestCatalogEntry_ListOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	titles := []string{"Unrated Old", "Unrated New", "Low", "High"}
	for i, title := range titles {
		e := makeTestEntry(int64(100+i), domain.KindFilm, title)
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.CreateCatalogEntry(ctx, e); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	if err := s.UpdateMeanRating(ctx, "ctl-film-102", 2.5); err != nil {
		t.Fatalf("rate low: %v", err)
	}
	if err := s.UpdateMeanRating(ctx, "ctl-film-103", 4.5); err != nil {
		t.Fatalf("rate high: %v", err)
	}

	got, total, err := s.ListCatalogEntries(ctx, store.CatalogQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	want := []string{"High", "Low", "Unrated New", "Unrated Old"}
	for i, w := range want {
		if got[i].Title != w {
			t.Errorf("position %d: got %q, want %q", i, got[i].Title, w)
		}
	}
}

func TestCatalogEntry_ListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestEntry(t, s, 1, "Inception")
	createTestEntry(t, s, 2, "Interstellar")
	series := makeTestEntry(3, domain.KindSeries, "Dark")
	series.Director = ""
	series.Genre = "Mystery"
	if err := s.CreateCatalogEntry(ctx, series); err != nil {
		t.Fatalf("create series: %v", err)
	}

	got, total, err := s.ListCatalogEntries(ctx, store.CatalogQuery{Text: "inter"})
	if err != nil {
		t.Fatalf("text filter: %v", err)
	}
	if total != 1 || got[0].Title != "Interstellar" {
		t.Errorf("text filter: total=%d items=%v", total, got)
	}

	_, total, err = s.ListCatalogEntries(ctx, store.CatalogQuery{Text: "nolan"})
	if err != nil {
		t.Fatalf("director filter: %v", err)
	}
	if total != 2 {
		t.Errorf("director filter total = %d, want 2", total)
	}

	got, total, err = s.ListCatalogEntries(ctx, store.CatalogQuery{Kind: domain.KindSeries})
	if err != nil {
		t.Fatalf("kind filter: %v", err)
	}
	if total != 1 || got[0].Title != "Dark" {
		t.Errorf("kind filter: total=%d", total)
	}

	_, total, err = s.ListCatalogEntries(ctx, store.CatalogQuery{Text: "%"})
	if err != nil {
		t.Fatalf("wildcard text: %v", err)
	}
	if total != 0 {
		t.Errorf("literal %% should match nothing, got %d", total)
	}
}

func TestCatalogEntry_UpdateMeanRating(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := createTestEntry(t, s, 11, "Star Wars")
	if err := s.UpdateMeanRating(ctx, e.ID, 3.7); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetCatalogEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MeanRating == nil || *got.MeanRating != 3.7 {
		t.Errorf("mean rating = %v, want 3.7", got.MeanRating)
	}

	if err := s.UpdateMeanRating(ctx, "ctl-missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing entry: got %v", err)
	}
}
