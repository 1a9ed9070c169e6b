package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/id"
	"github.com/cineza/cineza-server/internal/store"
	"github.com/cineza/cineza-server/internal/validation"
)

// ReviewStore is the storage the review service needs.
type ReviewStore interface {
	store.ReviewStore
	store.LikeStore
	store.CommentStore
}

// Recomputer refreshes a catalog entry's mean rating. *RatingService implements it.
type Recomputer interface {
	Recompute(ctx context.Context, entryID string) (float64, error)
}

// ReviewInput is a new review. Exactly one of CatalogEntryID and Record
// names the reviewed item.
type ReviewInput struct {
	CatalogEntryID string                 `json:"catalog_entry_id"`
	Record         *domain.ExternalRecord `json:"record" validate:"-"`
	Rating         float64                `json:"rating" validate:"rating"`
	Comment        string                 `json:"comment" validate:"max=2000"`
}

// ReviewUpdate edits a review; nil fields are kept.
type ReviewUpdate struct {
	Rating  *float64 `json:"rating" validate:"omitnil,rating"`
	Comment *string  `json:"comment" validate:"omitnil,max=2000"`
}

type commentInput struct {
	Body string `json:"body" validate:"required,max=1000"`
}

// ReviewService manages reviews and everything hanging off them: likes,
// comments and the catalog mean rating.
type ReviewService struct {
	store     ReviewStore
	catalog   store.CatalogStore
	profiles  store.ProfileStore
	ensure    Reconciler
	ratings   Recomputer
	notifier  Notifier
	validator *validation.Validator
	logger    *slog.Logger
}

// ReviewServiceDeps groups the collaborators of ReviewService.
type ReviewServiceDeps struct {
	Reviews   ReviewStore
	Catalog   store.CatalogStore
	Profiles  store.ProfileStore
	Ensure    Reconciler
	Ratings   Recomputer
	Notifier  Notifier
	Validator *validation.Validator
	Logger    *slog.Logger
}

// NewReviewService creates the service.
func NewReviewService(deps ReviewServiceDeps) *ReviewService {
	v := deps.Validator
	if v == nil {
		v = validation.New()
	}
	return &ReviewService{
		store:     deps.Reviews,
		catalog:   deps.Catalog,
		profiles:  deps.Profiles,
		ensure:    deps.Ensure,
		ratings:   deps.Ratings,
		notifier:  deps.Notifier,
		validator: v,
		logger:    deps.Logger,
	}
}

// Submit creates the author's review of an item. An external record is
// reconciled into the catalog first; if that fails nothing is written.
func (s *ReviewService) Submit(ctx context.Context, authorID string, in ReviewInput) (*domain.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	entryID, err := s.resolveEntry(ctx, in)
	if err != nil {
		return nil, err
	}

	reviewID, err := id.Generate(id.PrefixReview)
	if err != nil {
		return nil, domainerrors.Internal("could not allocate review id").WithCause(err)
	}
	now := time.Now().UTC()
	review := &domain.Review{
		ID:             reviewID,
		CatalogEntryID: entryID,
		AuthorID:       authorID,
		Rating:         in.Rating,
		Comment:        in.Comment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, storeError("create review", "review", err)
	}

	s.logger.Info("review submitted",
		"review_id", review.ID,
		"author_id", authorID,
		"catalog_entry_id", entryID,
		"rating", in.Rating,
	)
	s.recompute(ctx, entryID)
	return review, nil
}

func (s *ReviewService) resolveEntry(ctx context.Context, in ReviewInput) (string, error) {
	switch {
	case in.CatalogEntryID != "" && in.Record != nil:
		return "", domainerrors.Validation("give either catalog_entry_id or record, not both")
	case in.CatalogEntryID != "":
		entry, err := s.catalog.GetCatalogEntry(ctx, in.CatalogEntryID)
		if err != nil {
			return "", storeError("load catalog entry", "catalog entry", err)
		}
		return entry.ID, nil
	case in.Record != nil:
		entry, err := s.ensure.Ensure(ctx, *in.Record)
		if err != nil {
			return "", err
		}
		return entry.ID, nil
	default:
		return "", domainerrors.Validation("catalog_entry_id or record is required")
	}
}

// Update edits the author's own review.
func (s *ReviewService) Update(ctx context.Context, actorID, reviewID string, upd ReviewUpdate) (*domain.Review, error) {
	if upd.Comment != nil {
		trimmed := strings.TrimSpace(*upd.Comment)
		upd.Comment = &trimmed
	}
	if err := s.validator.Validate(upd); err != nil {
		return nil, err
	}

	review, err := s.ownedReview(ctx, actorID, reviewID)
	if err != nil {
		return nil, err
	}

	rating, comment := review.Rating, review.Comment
	if upd.Rating != nil {
		rating = *upd.Rating
	}
	if upd.Comment != nil {
		comment = *upd.Comment
	}

	if err := s.store.UpdateReview(ctx, reviewID, rating, comment, time.Now().UTC()); err != nil {
		return nil, storeError("update review", "review", err)
	}
	if upd.Rating != nil && *upd.Rating != review.Rating {
		s.recompute(ctx, review.CatalogEntryID)
	}

	updated, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, storeError("reload review", "review", err)
	}
	return updated, nil
}

// Delete removes the author's own review with its likes and comments.
func (s *ReviewService) Delete(ctx context.Context, actorID, reviewID string) error {
	review, err := s.ownedReview(ctx, actorID, reviewID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return storeError("delete review", "review", err)
	}
	s.logger.Info("review deleted", "review_id", reviewID, "author_id", actorID)
	s.recompute(ctx, review.CatalogEntryID)
	return nil
}

func (s *ReviewService) ownedReview(ctx context.Context, actorID, reviewID string) (*domain.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, storeError("load review", "review", err)
	}
	if review.AuthorID != actorID {
		return nil, domainerrors.Forbidden("only the author can change this review")
	}
	return review, nil
}

// recompute refreshes the mean rating. The review write already happened,
// so a failure here only leaves the mean stale until the next mutation.
func (s *ReviewService) recompute(ctx context.Context, entryID string) {
	if s.ratings == nil {
		return
	}
	if _, err := s.ratings.Recompute(ctx, entryID); err != nil {
		s.logger.Warn("mean rating recompute failed", "catalog_entry_id", entryID, "error", err)
	}
}

// Get returns one review.
func (s *ReviewService) Get(ctx context.Context, reviewID string) (*domain.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, storeError("get review", "review", err)
	}
	return review, nil
}

// ListByCatalogEntry pages through an entry's reviews, newest first.
func (s *ReviewService) ListByCatalogEntry(ctx context.Context, entryID string, page store.Page) (store.PageResult[*domain.Review], error) {
	if _, err := s.catalog.GetCatalogEntry(ctx, entryID); err != nil {
		return store.PageResult[*domain.Review]{}, storeError("load catalog entry", "catalog entry", err)
	}
	page = page.Normalize()
	items, total, err := s.store.ListReviewsByCatalogEntry(ctx, entryID, page)
	if err != nil {
		return store.PageResult[*domain.Review]{}, storeError("list reviews", "review", err)
	}
	return store.NewPageResult(items, total, page), nil
}

// ListByAuthor pages through one user's reviews, newest first.
func (s *ReviewService) ListByAuthor(ctx context.Context, authorID string, page store.Page) (store.PageResult[*domain.Review], error) {
	if _, err := s.profiles.GetProfile(ctx, authorID); err != nil {
		return store.PageResult[*domain.Review]{}, storeError("load profile", "user", err)
	}
	return s.listByAuthors(ctx, []string{authorID}, page)
}

// Feed pages through reviews by the users userID follows and by userID.
func (s *ReviewService) Feed(ctx context.Context, userID string, page store.Page) (store.PageResult[*domain.Review], error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return store.PageResult[*domain.Review]{}, storeError("load profile", "user", err)
	}
	return s.listByAuthors(ctx, domain.WithID(profile.Following, userID), page)
}

func (s *ReviewService) listByAuthors(ctx context.Context, authorIDs []string, page store.Page) (store.PageResult[*domain.Review], error) {
	page = page.Normalize()
	items, total, err := s.store.ListReviewsByAuthors(ctx, authorIDs, page)
	if err != nil {
		return store.PageResult[*domain.Review]{}, storeError("list reviews", "review", err)
	}
	return store.NewPageResult(items, total, page), nil
}

// ToggleLike flips userID's like on a review. Liking someone else's review
// notifies its author.
func (s *ReviewService) ToggleLike(ctx context.Context, userID, reviewID string) (*domain.LikeState, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, storeError("load review", "review", err)
	}

	state, err := s.store.ToggleReviewLike(ctx, userID, reviewID, time.Now().UTC())
	if err != nil {
		return nil, storeError("toggle review like", "review", err)
	}
	if state.Liked && s.notifier != nil {
		s.notifier.Emit(review.AuthorID, userID, domain.NotificationReviewLike, reviewID)
	}
	return &state, nil
}

// AddComment replies to a review.
func (s *ReviewService) AddComment(ctx context.Context, authorID, reviewID, body string) (*domain.Comment, error) {
	in := commentInput{Body: strings.TrimSpace(body)}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetReview(ctx, reviewID); err != nil {
		return nil, storeError("load review", "review", err)
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return nil, domainerrors.Internal("could not allocate comment id").WithCause(err)
	}
	c := &domain.Comment{
		ID:        commentID,
		ReviewID:  reviewID,
		AuthorID:  authorID,
		Body:      in.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, storeError("create comment", "review", err)
	}
	return c, nil
}

// DeleteComment removes the author's own comment.
func (s *ReviewService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return storeError("load comment", "comment", err)
	}
	if c.AuthorID != actorID {
		return domainerrors.Forbidden("only the author can delete this comment")
	}
	return storeError("delete comment", "comment", s.store.DeleteComment(ctx, commentID))
}

// ListComments pages through a review's comments, oldest first.
func (s *ReviewService) ListComments(ctx context.Context, reviewID string, page store.Page) (store.PageResult[*domain.Comment], error) {
	if _, err := s.store.GetReview(ctx, reviewID); err != nil {
		return store.PageResult[*domain.Comment]{}, storeError("load review", "review", err)
	}
	page = page.Normalize()
	items, total, err := s.store.ListComments(ctx, reviewID, page)
	if err != nil {
		return store.PageResult[*domain.Comment]{}, storeError("list comments", "comment", err)
	}
	return store.NewPageResult(items, total, page), nil
}

// ToggleCommentLike flips userID's like on a comment, notifying its author on a like.
func (s *ReviewService) ToggleCommentLike(ctx context.Context, userID, commentID string) (*domain.LikeState, error) {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, storeError("load comment", "comment", err)
	}

	state, err := s.store.ToggleCommentLike(ctx, userID, commentID, time.Now().UTC())
	if err != nil {
		return nil, storeError("toggle comment like", "comment", err)
	}
	if state.Liked && s.notifier != nil {
		s.notifier.Emit(c.AuthorID, userID, domain.NotificationCommentLike, commentID)
	}
	return &state, nil
}
