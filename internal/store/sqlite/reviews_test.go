package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

func createTestReview(t *testing.T, s *Store, id, authorID, entryID string, rating float64, at time.Time) *domain.Review {
	t.Helper()
	r := &domain.Review{
		ID:             id,
		CatalogEntryID: entryID,
		AuthorID:       authorID,
		Rating:         rating,
		Comment:        "worth it",
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if err := s.CreateReview(context.Background(), r); err != nil {
		t.Fatalf("create review %s: %v", id, err)
	}
	return r
}

func TestReview_OnePerAuthorAndEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestAccount(t, s, "alice")
	entry := createTestEntry(t, s, 27205, "Inception")
	now := time.Now().UTC()

	createTestReview(t, s, "rev-1", alice.ID, entry.ID, 4.5, now)

	dup := &domain.Review{
		ID: "rev-2", CatalogEntryID: entry.ID, AuthorID: alice.ID,
		Rating: 1, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateReview(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("second review: got %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetReviewByAuthorAndEntry(ctx, alice.ID, entry.ID)
	if err != nil {
		t.Fatalf("get by author and entry: %v", err)
	}
	if got.ID != "rev-1" || got.Rating != 4.5 {
		t.Errorf("unexpected review: %+v", got)
	}
}

func TestReview_RejectsUnknownEntry(t *testing.T) {
	s := newTestStore(t)
	alice := createTestAccount(t, s, "alice")
	now := time.Now().UTC()

	r := &domain.Review{
		ID: "rev-1", CatalogEntryID: "ctl-nope", AuthorID: alice.ID,
		Rating: 3, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateReview(context.Background(), r); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("unknown entry: got %v, want ErrInvalidInput", err)
	}
}

func TestReview_UpdateAndRatings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestAccount(t, s, "alice")
	bob := createTestAccount(t, s, "bobby")
	entry := createTestEntry(t, s, 1, "Heat")
	now := time.Now().UTC()

	createTestReview(t, s, "rev-a", alice.ID, entry.ID, 4, now)
	createTestReview(t, s, "rev-b", bob.ID, entry.ID, 2, now)

	if err := s.UpdateReview(ctx, "rev-b", 3, "changed my mind", now.Add(time.Minute)); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetReview(ctx, "rev-b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Rating != 3 || got.Comment != "changed my mind" {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("updated_at should advance")
	}

	ratings, err := s.ReviewRatings(ctx, entry.ID)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("expected 2 ratings, got %v", ratings)
	}

	empty, err := s.ReviewRatings(ctx, "ctl-none")
	if err != nil {
		t.Fatalf("ratings of unknown entry: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no ratings, got %v", empty)
	}

	if err := s.UpdateReview(ctx, "rev-missing", 1, "", now); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing: got %v", err)
	}
}

func TestReview_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := createTestEntry(t, s, 1, "Alien")
	other := createTestEntry(t, s, 2, "Aliens")

	names := []string{"amy", "ben", "cal"}
	for i, name := range names {
		p := createTestAccount(t, s, name)
		createTestReview(t, s, "rev-"+name, p.ID, entry.ID, 3, base.Add(time.Duration(i)*time.Hour))
	}
	createTestReview(t, s, "rev-amy-2", "usr-amy", other.ID, 5, base.Add(10*time.Hour))

	got, total, err := s.ListReviewsByCatalogEntry(ctx, entry.ID, store.Page{Limit: 2})
	if err != nil {
		t.Fatalf("list by entry: %v", err)
	}
	if total != 3 || len(got) != 2 {
		t.Fatalf("total=%d len=%d", total, len(got))
	}
	if got[0].ID != "rev-cal" || got[1].ID != "rev-ben" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}

	feed, total, err := s.ListReviewsByAuthors(ctx, []string{"usr-amy", "usr-cal"}, store.Page{})
	if err != nil {
		t.Fatalf("list by authors: %v", err)
	}
	if total != 3 {
		t.Errorf("feed total = %d, want 3", total)
	}
	if feed[0].ID != "rev-amy-2" {
		t.Errorf("feed should start with newest, got %s", feed[0].ID)
	}

	none, total, err := s.ListReviewsByAuthors(ctx, nil, store.Page{})
	if err != nil || total != 0 || len(none) != 0 {
		t.Errorf("empty authors: %v %d %v", none, total, err)
	}
}

func TestLikes_Toggle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestAccount(t, s, "alice")
	bob := createTestAccount(t, s, "bobby")
	entry := createTestEntry(t, s, 1, "Up")
	now := time.Now().UTC()
	createTestReview(t, s, "rev-1", alice.ID, entry.ID, 4, now)

	state, err := s.ToggleReviewLike(ctx, bob.ID, "rev-1", now)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !state.Liked || state.LikeCount != 1 {
		t.Errorf("after like: %+v", state)
	}

	state, err = s.ToggleReviewLike(ctx, alice.ID, "rev-1", now)
	if err != nil {
		t.Fatalf("second liker: %v", err)
	}
	if state.LikeCount != 2 {
		t.Errorf("two likers: %+v", state)
	}

	state, err = s.ToggleReviewLike(ctx, bob.ID, "rev-1", now)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if state.Liked || state.LikeCount != 1 {
		t.Errorf("after unlike: %+v", state)
	}

	got, err := s.GetReview(ctx, "rev-1")
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if got.LikeCount != 1 {
		t.Errorf("review like count = %d, want 1", got.LikeCount)
	}

	if _, err := s.ToggleReviewLike(ctx, bob.ID, "rev-missing", now); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("like missing review: got %v", err)
	}
}

func TestComments_CascadeWithReview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestAccount(t, s, "alice")
	bob := createTestAccount(t, s, "bobby")
	entry := createTestEntry(t, s, 1, "Jaws")
	now := time.Now().UTC()
	createTestReview(t, s, "rev-1", alice.ID, entry.ID, 5, now)

	for i, body := range []string{"first", "second"} {
		c := &domain.Comment{
			ID: "cmt-" + body, ReviewID: "rev-1", AuthorID: bob.ID,
			Body: body, CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateComment(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	state, err := s.ToggleCommentLike(ctx, alice.ID, "cmt-first", now)
	if err != nil {
		t.Fatalf("like comment: %v", err)
	}
	if !state.Liked || state.LikeCount != 1 {
		t.Errorf("comment like: %+v", state)
	}

	comments, total, err := s.ListComments(ctx, "rev-1", store.Page{})
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if total != 2 || comments[0].ID != "cmt-first" || comments[0].LikeCount != 1 {
		t.Errorf("unexpected comments: total=%d first=%+v", total, comments[0])
	}

	review, err := s.GetReview(ctx, "rev-1")
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if review.CommentCount != 2 {
		t.Errorf("comment count = %d, want 2", review.CommentCount)
	}

	if err := s.DeleteReview(ctx, "rev-1"); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	if _, err := s.GetComment(ctx, "cmt-first"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("comment should cascade: got %v", err)
	}
	var likes int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM comment_likes`).Scan(&likes); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if likes != 0 {
		t.Errorf("comment likes should cascade, %d left", likes)
	}
}

func TestComments_UnknownReview(t *testing.T) {
	s := newTestStore(t)
	bob := createTestAccount(t, s, "bobby")

	c := &domain.Comment{ID: "cmt-1", ReviewID: "rev-nope", AuthorID: bob.ID, Body: "hi", CreatedAt: time.Now()}
	if err := s.CreateComment(context.Background(), c); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}
