package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/cineza/cineza-server/internal/store"
)

// RatingStore is what rating aggregation reads and writes.
type RatingStore interface {
	ReviewRatings(ctx context.Context, catalogEntryID string) ([]float64, error)
	UpdateMeanRating(ctx context.Context, id string, mean float64) error
}

// MeanRating is the arithmetic mean rounded half away from zero to one
// decimal. No ratings yields 0.
func MeanRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return math.Round(sum/float64(len(ratings))*10) / 10
}

// RatingService recomputes catalog mean ratings from scratch.
type RatingService struct {
	store   RatingStore
	refresh func(ctx context.Context, entryID string) error
	logger  *slog.Logger
}

// NewRatingService creates the aggregator. refresh, when set, runs after a
// successful write so derived views (the search index) pick up the new mean.
func NewRatingService(ratings RatingStore, refresh func(ctx context.Context, entryID string) error, logger *slog.Logger) *RatingService {
	return &RatingService{store: ratings, refresh: refresh, logger: logger}
}

// Recompute reads every rating for the entry and persists their mean.
func (s *RatingService) Recompute(ctx context.Context, entryID string) (float64, error) {
	ratings, err := s.store.ReviewRatings(ctx, entryID)
	if err != nil {
		return 0, storeError("read review ratings", "catalog entry", err)
	}

	mean := MeanRating(ratings)
	if err := s.store.UpdateMeanRating(ctx, entryID, mean); err != nil {
		return 0, storeError("update mean rating", "catalog entry", err)
	}

	if s.refresh != nil {
		if err := s.refresh(ctx, entryID); err != nil {
			s.logger.Warn("failed to refresh catalog entry after rating change",
				"catalog_entry_id", entryID,
				"error", err,
			)
		}
	}
	return mean, nil
}

var _ RatingStore = (store.Store)(nil)
