// Package main seeds a Cineza database with demo users, follows, reviews and
// watchlists so the feed, notifications and mean ratings have data to show.
//
// It runs the same services the server does, without the metadata source:
// catalog entries come from a fixed list of well-known titles.
//
// Usage:
//
//	DATA_PATH=~/.cineza go run ./cmd/seed
//	DATA_PATH=~/.cineza go run ./cmd/seed --users 8 --password hunter22
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/cineza/cineza-server/internal/auth"
	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/logger"
	"github.com/cineza/cineza-server/internal/service"
	"github.com/cineza/cineza-server/internal/store/sqlite"
)

var (
	userCount = flag.Int("users", 6, "Number of demo users to create")
	password  = flag.String("password", "cineza-demo", "Password for every demo user")
)

// staticGenres serves a fixed taxonomy in place of the metadata source.
type staticGenres struct{}

func (staticGenres) Genres(_ context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	if kind == domain.KindSeries {
		return []domain.Genre{{ID: 18, Name: "Drama"}, {ID: 80, Name: "Crime"}, {ID: 10765, Name: "Sci-Fi & Fantasy"}}, nil
	}
	return []domain.Genre{{ID: 18, Name: "Drama"}, {ID: 28, Name: "Action"}, {ID: 80, Name: "Crime"}, {ID: 878, Name: "Science Fiction"}}, nil
}

var titles = []domain.ExternalRecord{
	{ExternalID: 603, Kind: domain.KindFilm, Title: "The Matrix", GenreIDs: []int{28, 878}, Director: "Lana Wachowski", ReleaseDate: "1999-03-31"},
	{ExternalID: 238, Kind: domain.KindFilm, Title: "The Godfather", GenreIDs: []int{18, 80}, Director: "Francis Ford Coppola", ReleaseDate: "1972-03-14"},
	{ExternalID: 680, Kind: domain.KindFilm, Title: "Pulp Fiction", GenreIDs: []int{80}, Director: "Quentin Tarantino", ReleaseDate: "1994-09-10"},
	{ExternalID: 27205, Kind: domain.KindFilm, Title: "Inception", GenreIDs: []int{28, 878}, Director: "Christopher Nolan", ReleaseDate: "2010-07-15"},
	{ExternalID: 1396, Kind: domain.KindSeries, Title: "Breaking Bad", GenreIDs: []int{18, 80}, Creators: "Vince Gilligan", ReleaseDate: "2008-01-20"},
	{ExternalID: 1399, Kind: domain.KindSeries, Title: "Game of Thrones", GenreIDs: []int{18, 10765}, Creators: "David Benioff, D. B. Weiss", ReleaseDate: "2011-04-17"},
}

var comments = []string{
	"",
	"Holds up on every rewatch.",
	"Slow first half, worth it.",
	"Not for me, but I see the appeal.",
	"An all-timer.",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.cineza")
	}
	fmt.Printf("Seeding data directory: %s\n", dataPath)

	l := logger.New(logger.Config{Environment: "development", Level: logger.ParseLevel("warn")})

	keyHex, err := auth.LoadOrGenerateKey(dataPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}

	st, err := sqlite.Open(filepath.Join(dataPath, "cineza.db"), l.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	tokens, err := auth.NewTokenService(keyHex, time.Hour)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	genres := genre.NewCache(staticGenres{}, l.Logger)
	catalog := service.NewCatalogService(st, genres, nil, service.CatalogOptions{}, l.Logger)
	authSvc := service.NewAuthService(st, st, tokens, nil, l.Logger)
	reviews := service.NewReviewService(service.ReviewServiceDeps{
		Reviews:  st,
		Catalog:  st,
		Profiles: st,
		Ensure:   catalog,
		Ratings:  service.NewRatingService(st, catalog.Refresh, l.Logger),
		Logger:   l.Logger,
	})
	social := service.NewSocialService(st, nil, l.Logger)
	watchlist := service.NewWatchlistService(st, st, catalog, l.Logger)

	ctx := context.Background()
	if err := genres.EnsureAll(ctx); err != nil {
		log.Fatalf("Failed to load genres: %v", err)
	}

	userIDs := make([]string, 0, *userCount)
	for n := range *userCount {
		id, err := demoUser(ctx, authSvc, n)
		if err != nil {
			log.Fatalf("Failed to create demo user %d: %v", n, err)
		}
		userIDs = append(userIDs, id)
	}
	fmt.Printf("Users ready: %d\n", len(userIDs))

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	var follows, written, saved int
	for _, actor := range userIDs {
		for _, target := range userIDs {
			if actor == target || rng.IntN(2) == 0 {
				continue
			}
			res, err := social.ToggleFollow(ctx, actor, target)
			if err == nil && res.Following {
				follows++
			}
		}

		for _, rec := range titles {
			if rng.IntN(3) == 0 {
				continue
			}
			_, err := reviews.Submit(ctx, actor, service.ReviewInput{
				Record:  &rec,
				Rating:  float64(rng.IntN(51)) / 10,
				Comment: comments[rng.IntN(len(comments))],
			})
			switch {
			case err == nil:
				written++
			case !isCode(err, domainerrors.CodeAlreadyExists):
				log.Printf("review by %s of %q failed: %v", actor, rec.Title, err)
			}

			if rng.IntN(4) == 0 {
				if _, err := watchlist.Toggle(ctx, actor, service.WatchlistTarget{Record: &rec}); err == nil {
					saved++
				}
			}
		}
	}

	report, err := social.RepairSymmetry(ctx)
	if err != nil {
		log.Printf("Symmetry check failed: %v", err)
	}

	fmt.Printf("Follows: %d, reviews: %d, watchlist toggles: %d, symmetry repairs: %d\n",
		follows, written, saved, report.Added+report.Removed)
	fmt.Printf("Log in as demo0@example.com with password %q\n", *password)
}

// demoUser signs up demo<n>, or logs in when a previous run created it.
func demoUser(ctx context.Context, authSvc *service.AuthService, n int) (string, error) {
	email := fmt.Sprintf("demo%d@example.com", n)

	resp, err := authSvc.Signup(ctx, service.SignupRequest{
		Email:    email,
		Password: *password,
		Username: fmt.Sprintf("demo%d", n),
		Name:     fmt.Sprintf("Demo User %d", n),
	})
	if err == nil {
		return resp.User.ID, nil
	}

	if !isCode(err, domainerrors.CodeAlreadyExists) {
		return "", err
	}

	resp, err = authSvc.Login(ctx, service.LoginRequest{Email: email, Password: *password})
	if err != nil {
		return "", err
	}
	return resp.User.ID, nil
}

func isCode(err error, code domainerrors.Code) bool {
	var domainErr *domainerrors.Error
	return errors.As(err, &domainErr) && domainErr.Code == code
}
