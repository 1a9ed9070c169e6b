package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/cineza/cineza-server/internal/auth"
	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/metadata/tmdb"
	"github.com/cineza/cineza-server/internal/search"
	"github.com/cineza/cineza-server/internal/service"
	"github.com/cineza/cineza-server/internal/sse"
	"github.com/cineza/cineza-server/internal/store/sqlite"
)

// testServer wraps the API server with direct access to its dependencies.
type testServer struct {
	*Server
	api           humatest.TestAPI
	store         *sqlite.Store
	notifications *service.NotificationService
}

// testEnvelope decodes the success envelope around T.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope decodes a coded error.
type testErrorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// fakeSource is an in-memory metadata source with a fixed catalog.
type fakeSource struct{}

var fakeItems = []domain.ExternalRecord{
	{ExternalID: 603, Kind: domain.KindFilm, Title: "The Matrix", GenreIDs: []int{28, 878}, PosterURL: "https://image.example/w500/m.jpg"},
	{ExternalID: 1399, Kind: domain.KindSeries, Title: "Game of Thrones", GenreIDs: []int{18, 10765}, PosterURL: "https://image.example/w500/g.jpg"},
}

func (fakeSource) Search(_ context.Context, p tmdb.SearchParams) (domain.ListResult, error) {
	items := make([]domain.ExternalRecord, 0, len(fakeItems))
	for _, it := range fakeItems {
		if p.Kind == "" || p.Kind == it.Kind {
			items = append(items, it)
		}
	}
	return domain.ListResult{Items: items, Page: p.Page, TotalPages: 1, TotalResults: len(items)}, nil
}

func (fakeSource) Popular(_ context.Context, kind domain.MediaKind, page int, _ []int) (domain.ListResult, error) {
	return domain.ListResult{Items: []domain.ExternalRecord{fakeItems[0]}, Page: page, TotalPages: 1, TotalResults: 1}, nil
}

func (fakeSource) Trending(context.Context, domain.MediaKind, domain.TrendingWindow) ([]domain.ExternalRecord, error) {
	return append([]domain.ExternalRecord(nil), fakeItems...), nil
}

func (fakeSource) Details(_ context.Context, externalID int64, kind domain.MediaKind) (domain.Details, error) {
	for _, it := range fakeItems {
		if it.ExternalID == externalID && it.Kind == kind {
			return domain.Details{ExternalRecord: it, Tagline: "Free your mind"}, nil
		}
	}
	return domain.Details{}, &tmdb.Error{Op: "details", Err: tmdb.ErrNotFound}
}

func (fakeSource) Genres(_ context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	if kind == domain.KindSeries {
		return []domain.Genre{{ID: 18, Name: "Drama"}, {ID: 10765, Name: "Sci-Fi & Fantasy"}}, nil
	}
	return []domain.Genre{{ID: 18, Name: "Drama"}, {ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}}, nil
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, Options{AuthRatePerMinute: 600, AuthBurst: 100})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.Open(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	keyHex, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(keyHex, 15*time.Minute)
	require.NoError(t, err)

	manager := sse.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	manager.Start(ctx)

	source := fakeSource{}
	genres := genre.NewCache(source, logger)
	catalog := service.NewCatalogService(st, genres, index, service.CatalogOptions{}, logger)
	notifications := service.NewNotificationService(st, manager, logger)
	authService := service.NewAuthService(st, st, tokens, nil, logger)

	services := &Services{
		Auth:     authService,
		Metadata: service.NewMetadataService(source, genres, nil, logger),
		Catalog:  catalog,
		Reviews: service.NewReviewService(service.ReviewServiceDeps{
			Reviews:  st,
			Catalog:  st,
			Profiles: st,
			Ensure:   catalog,
			Ratings:  service.NewRatingService(st, catalog.Refresh, logger),
			Notifier: notifications,
			Logger:   logger,
		}),
		Profiles:      service.NewProfileService(st, nil, logger),
		Social:        service.NewSocialService(st, notifications, logger),
		Watchlist:     service.NewWatchlistService(st, st, catalog, logger),
		Notifications: notifications,
	}

	stream := sse.NewHandler(manager, authService.ValidateToken, logger)
	srv := NewServer(services, st, index, stream, manager.ClientCount, opts, logger)
	t.Cleanup(srv.Close)

	return &testServer{
		Server:        srv,
		api:           humatest.Wrap(t, srv.api),
		store:         st,
		notifications: notifications,
	}
}

// signup creates an account and returns its access token and user id.
func (ts *testServer) signup(t *testing.T, username string) (string, string) {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":    username + "@example.com",
		"password": "correct horse battery",
		"username": username,
		"name":     "Test " + username,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decodeData[AuthResponse](t, resp.Body.Bytes())
	return env.AccessToken, env.User.ID
}

func bearer(token string) string {
	return fmt.Sprintf("Authorization: Bearer %s", token)
}

func decodeData[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	require.True(t, env.Success, string(raw))
	return env.Data
}

func decodeError(t *testing.T, raw []byte) testErrorEnvelope {
	t.Helper()
	var env testErrorEnvelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	require.False(t, env.Success, string(raw))
	return env
}

// waitForEmissions flushes in-flight notification writes.
func (ts *testServer) waitForEmissions(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.notifications.Shutdown(ctx))
}

var matrixRecord = map[string]any{
	"external_id": 603,
	"kind":        "film",
	"title":       "The Matrix",
	"genre_ids":   []int{28, 878},
	"director":    "Lana Wachowski",
}
