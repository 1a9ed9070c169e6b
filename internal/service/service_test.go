package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// staticGenres serves a fixed taxonomy and counts fetches.
type staticGenres struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *staticGenres) Genres(_ context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if kind == domain.KindSeries {
		return []domain.Genre{{ID: 18, Name: "Drama"}, {ID: 10765, Name: "Sci-Fi & Fantasy"}}, nil
	}
	return []domain.Genre{{ID: 18, Name: "Drama"}, {ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}}, nil
}

func newGenreCache(t *testing.T) *genre.Cache {
	t.Helper()
	return genre.NewCache(&staticGenres{}, testLogger())
}

func createUser(t *testing.T, s *sqlite.Store, username string) *domain.UserProfile {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:           "usr-" + username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
	}
	p := &domain.UserProfile{
		ID:             u.ID,
		Username:       username,
		Name:           username,
		Following:      []string{},
		Followers:      []string{},
		Watchlist:      []string{},
		WatchlistIndex: map[string]string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.CreateAccount(context.Background(), u, p))
	return p
}

func filmRecord(externalID int64, title string) domain.ExternalRecord {
	year := 1999
	return domain.ExternalRecord{
		ExternalID:  externalID,
		Kind:        domain.KindFilm,
		Title:       title,
		Description: "A film.",
		PosterURL:   "https://image.example/w500/poster.jpg",
		Year:        &year,
		GenreIDs:    []int{28, 878},
		VoteAverage: 8.1,
		Director:    "Lana Wachowski",
	}
}

// notification is one recorded Emit call.
type notification struct {
	Recipient string
	Actor     string
	Type      domain.NotificationType
	Target    string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Emit(recipientID, actorID string, typ domain.NotificationType, targetID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{recipientID, actorID, typ, targetID})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.events...)
}
