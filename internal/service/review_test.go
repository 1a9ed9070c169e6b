package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/store"
	"github.com/cineza/cineza-server/internal/store/sqlite"
)

type reviewFixture struct {
	store    *sqlite.Store
	catalog  *CatalogService
	reviews  *ReviewService
	notifier *recordingNotifier
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	s := newTestStore(t)
	catalog := newCatalogService(t, s, nil)
	notifier := &recordingNotifier{}
	reviews := NewReviewService(ReviewServiceDeps{
		Reviews:  s,
		Catalog:  s,
		Profiles: s,
		Ensure:   catalog,
		Ratings:  NewRatingService(s, nil, testLogger()),
		Notifier: notifier,
		Logger:   testLogger(),
	})
	return &reviewFixture{store: s, catalog: catalog, reviews: reviews, notifier: notifier}
}

func (f *reviewFixture) meanRating(t *testing.T, entryID string) float64 {
	t.Helper()
	e, err := f.store.GetCatalogEntry(context.Background(), entryID)
	require.NoError(t, err)
	if e.MeanRating == nil {
		return -1
	}
	return *e.MeanRating
}

func TestReviewService_SubmitReconcilesRecord(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	ana := createUser(t, f.store, "ana")
	record := filmRecord(603, "The Matrix")

	r, err := f.reviews.Submit(ctx, ana.ID, ReviewInput{Record: &record, Rating: 4.5, Comment: "  great  "})
	require.NoError(t, err)
	assert.Equal(t, "great", r.Comment)

	entry, err := f.catalog.Ensure(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, r.CatalogEntryID)
	assert.InDelta(t, 4.5, f.meanRating(t, entry.ID), 1e-9)

	_, err = f.reviews.Submit(ctx, ana.ID, ReviewInput{CatalogEntryID: entry.ID, Rating: 3})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestReviewService_SubmitValidation(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	ana := createUser(t, f.store, "ana")
	record := filmRecord(1, "Film")

	cases := map[string]ReviewInput{
		"no target":      {Rating: 3},
		"both targets":   {CatalogEntryID: "ctl-x", Record: &record, Rating: 3},
		"rating too big": {Record: &record, Rating: 5.5},
		"off grid":       {Record: &record, Rating: 3.25},
		"long comment":   {Record: &record, Rating: 3, Comment: strings.Repeat("x", 2001)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.reviews.Submit(ctx, ana.ID, in)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}

	// A failed reconciliation writes nothing.
	bad := domain.ExternalRecord{Kind: domain.KindFilm, Title: "no id"}
	_, err := f.reviews.Submit(ctx, ana.ID, ReviewInput{Record: &bad, Rating: 3})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = f.reviews.Submit(ctx, ana.ID, ReviewInput{CatalogEntryID: "ctl-missing", Rating: 3})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReviewService_UpdateAndDeleteRecompute(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	ana := createUser(t, f.store, "ana")
	ben := createUser(t, f.store, "ben")
	record := filmRecord(603, "The Matrix")

	ra, err := f.reviews.Submit(ctx, ana.ID, ReviewInput{Record: &record, Rating: 4})
	require.NoError(t, err)
	rb, err := f.reviews.Submit(ctx, ben.ID, ReviewInput{Record: &record, Rating: 5})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, f.meanRating(t, ra.CatalogEntryID), 1e-9)

	rating := 2.0
	_, err = f.reviews.Update(ctx, ben.ID, ra.ID, ReviewUpdate{Rating: &rating})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	updated, err := f.reviews.Update(ctx, ana.ID, ra.ID, ReviewUpdate{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 2.0, updated.Rating)
	assert.InDelta(t, 3.5, f.meanRating(t, ra.CatalogEntryID), 1e-9)

	assert.ErrorIs(t, f.reviews.Delete(ctx, ana.ID, rb.ID), domainerrors.ErrForbidden)
	require.NoError(t, f.reviews.Delete(ctx, ben.ID, rb.ID))
	assert.InDelta(t, 2.0, f.meanRating(t, ra.CatalogEntryID), 1e-9)

	require.NoError(t, f.reviews.Delete(ctx, ana.ID, ra.ID))
	assert.Equal(t, 0.0, f.meanRating(t, ra.CatalogEntryID))

	_, err = f.reviews.Get(ctx, ra.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReviewService_ListingsAndFeed(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	ana := createUser(t, f.store, "ana")
	ben := createUser(t, f.store, "ben")
	cy := createUser(t, f.store, "cy")

	social := NewSocialService(f.store, nil, testLogger())
	_, err := social.ToggleFollow(ctx, ana.ID, ben.ID)
	require.NoError(t, err)

	for i, author := range []string{ana.ID, ben.ID, cy.ID} {
		record := filmRecord(int64(10+i), "Film")
		_, err := f.reviews.Submit(ctx, author, ReviewInput{Record: &record, Rating: 3})
		require.NoError(t, err)
	}

	feed, err := f.reviews.Feed(ctx, ana.ID, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, feed.Total)
	for _, r := range feed.Items {
		assert.NotEqual(t, cy.ID, r.AuthorID)
	}

	byAuthor, err := f.reviews.ListByAuthor(ctx, cy.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, byAuthor.Items, 1)

	byEntry, err := f.reviews.ListByCatalogEntry(ctx, byAuthor.Items[0].CatalogEntryID, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, byEntry.Total)

	_, err = f.reviews.ListByCatalogEntry(ctx, "ctl-missing", store.Page{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = f.reviews.ListByAuthor(ctx, "usr-ghost", store.Page{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReviewService_LikesNotifyAuthor(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	ana := createUser(t, f.store, "ana")
	ben := createUser(t, f.store, "ben")
	record := filmRecord(603, "The Matrix")

	r, err := f.reviews.Submit(ctx, ana.ID, ReviewInput{Record: &record, Rating: 4})
	require.NoError(t, err)

	state, err := f.reviews.ToggleLike(ctx, ben.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeState{Liked: true, LikeCount: 1}, *state)

	state, err = f.reviews.ToggleLike(ctx, ben.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeState{Liked: false, LikeCount: 0}, *state)

	_, err = f.reviews.ToggleLike(ctx, ana.ID, r.ID)
	require.NoError(t, err)

	// The recording notifier sees every call; the real service skips self-notifications.
	events := f.notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, notification{ana.ID, ben.ID, domain.NotificationReviewLike, r.ID}, events[0])

	_, err = f.reviews.ToggleLike(ctx, ben.ID, "rev-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReviewService_Comments(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	ana := createUser(t, f.store, "ana")
	ben := createUser(t, f.store, "ben")
	record := filmRecord(603, "The Matrix")

	r, err := f.reviews.Submit(ctx, ana.ID, ReviewInput{Record: &record, Rating: 4})
	require.NoError(t, err)

	c, err := f.reviews.AddComment(ctx, ben.ID, r.ID, " agreed ")
	require.NoError(t, err)
	assert.Equal(t, "agreed", c.Body)

	_, err = f.reviews.AddComment(ctx, ben.ID, r.ID, "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = f.reviews.AddComment(ctx, ben.ID, r.ID, strings.Repeat("y", 1001))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = f.reviews.AddComment(ctx, ben.ID, "rev-missing", "hello")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	state, err := f.reviews.ToggleCommentLike(ctx, ana.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Contains(t, f.notifier.all(), notification{ben.ID, ana.ID, domain.NotificationCommentLike, c.ID})

	page, err := f.reviews.ListComments(ctx, r.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Items[0].LikeCount)

	assert.ErrorIs(t, f.reviews.DeleteComment(ctx, ana.ID, c.ID), domainerrors.ErrForbidden)
	require.NoError(t, f.reviews.DeleteComment(ctx, ben.ID, c.ID))

	page, err = f.reviews.ListComments(ctx, r.ID, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
