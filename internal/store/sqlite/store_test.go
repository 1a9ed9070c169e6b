package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestAccount stores a user and profile with the given username.
func createTestAccount(t *testing.T, s *Store, username string) *domain.UserProfile {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:           "usr-" + username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
	}
	p := &domain.UserProfile{
		ID:        u.ID,
		Username:  username,
		Name:      username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateAccount(context.Background(), u, p); err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return p
}

func makeTestEntry(externalID int64, kind domain.MediaKind, title string) *domain.CatalogEntry {
	year := 2010
	return &domain.CatalogEntry{
		ID:          fmt.Sprintf("ctl-%s-%d", kind, externalID),
		ExternalID:  externalID,
		Kind:        kind,
		Title:       title,
		Description: "A film about " + title,
		PosterURL:   "https://image.example/w500/p.jpg",
		ReleaseDate: "2010-07-16",
		Year:        &year,
		Genre:       "Science Fiction",
		Director:    "Christopher Nolan",
		VoteAverage: 8.4,
		CreatedAt:   time.Now().UTC(),
	}
}

func createTestEntry(t *testing.T, s *Store, externalID int64, title string) *domain.CatalogEntry {
	t.Helper()
	e := makeTestEntry(externalID, domain.KindFilm, title)
	if err := s.CreateCatalogEntry(context.Background(), e); err != nil {
		t.Fatalf("create catalog entry %d: %v", externalID, err)
	}
	return e
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	tables := []string{
		"users", "profiles", "catalog_entries", "reviews", "review_likes",
		"review_comments", "comment_likes", "notifications",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	createTestEntry(t, s, 27205, "Inception")
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	s2, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetCatalogEntryByExternal(context.Background(), 27205, domain.KindFilm); err != nil {
		t.Fatalf("entry lost across reopen: %v", err)
	}
	if err := s2.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestTimeOrderingIsLexical(t *testing.T) {
	early := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(500 * time.Millisecond)
	if !(formatTime(early) < formatTime(late)) {
		t.Fatalf("formatted times do not sort: %s vs %s", formatTime(early), formatTime(late))
	}

	parsed, err := parseTime(formatTime(late))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(late) {
		t.Errorf("round trip: got %v, want %v", parsed, late)
	}
}

func TestLikePatternEscapes(t *testing.T) {
	got := likePattern(" 100%_off ")
	want := `%100\%\_off%`
	if got != want {
		t.Errorf("likePattern = %q, want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	if !errors.Is(classify(errors.New("UNIQUE constraint failed: users.email_lower")), store.ErrAlreadyExists) {
		t.Error("unique violation should map to ErrAlreadyExists")
	}
	if !errors.Is(classify(errors.New("FOREIGN KEY constraint failed")), store.ErrInvalidInput) {
		t.Error("fk violation should map to ErrInvalidInput")
	}
	if classify(nil) != nil {
		t.Error("nil should stay nil")
	}
}
