package service

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/store"
)

// failingFollowers makes every followers write fail, and optionally the
// rollback of following too.
type failingFollowers struct {
	store.ProfileStore
	failRollback  bool
	followingSets int
}

func (f *failingFollowers) SetFollowers(context.Context, string, []string) error {
	return fmt.Errorf("disk full")
}

func (f *failingFollowers) SetFollowing(ctx context.Context, id string, following []string) error {
	f.followingSets++
	if f.failRollback && f.followingSets > 1 {
		return fmt.Errorf("still full")
	}
	return f.ProfileStore.SetFollowing(ctx, id, following)
}

func TestSocialService_ToggleFollow_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	notifier := &recordingNotifier{}
	svc := NewSocialService(s, notifier, testLogger())
	ctx := context.Background()

	ana := createUser(t, s, "ana")
	ben := createUser(t, s, "ben")

	res, err := svc.ToggleFollow(ctx, ana.ID, ben.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)

	a, _ := s.GetProfile(ctx, ana.ID)
	b, _ := s.GetProfile(ctx, ben.ID)
	assert.Equal(t, []string{ben.ID}, a.Following)
	assert.Equal(t, []string{ana.ID}, b.Followers)

	res, err = svc.ToggleFollow(ctx, ana.ID, ben.ID)
	require.NoError(t, err)
	assert.False(t, res.Following)

	a, _ = s.GetProfile(ctx, ana.ID)
	b, _ = s.GetProfile(ctx, ben.ID)
	assert.Empty(t, a.Following)
	assert.Empty(t, b.Followers)

	// Only the transition into following notifies.
	assert.Equal(t, []notification{{ben.ID, ana.ID, domain.NotificationNewFollower, ana.ID}}, notifier.all())
}

func TestSocialService_ToggleFollow_SelfRejected(t *testing.T) {
	s := newTestStore(t)
	svc := NewSocialService(s, nil, testLogger())
	ana := createUser(t, s, "ana")

	_, err := svc.ToggleFollow(context.Background(), ana.ID, ana.ID)
	assert.ErrorIs(t, err, domainerrors.ErrSelfFollowRejected)

	p, _ := s.GetProfile(context.Background(), ana.ID)
	assert.Empty(t, p.Following)
	assert.Empty(t, p.Followers)
}

func TestSocialService_ToggleFollow_UnknownTarget(t *testing.T) {
	s := newTestStore(t)
	svc := NewSocialService(s, nil, testLogger())
	ana := createUser(t, s, "ana")

	_, err := svc.ToggleFollow(context.Background(), ana.ID, "usr-ghost")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSocialService_ToggleFollow_RollsBackFollowing(t *testing.T) {
	s := newTestStore(t)
	notifier := &recordingNotifier{}
	svc := NewSocialService(&failingFollowers{ProfileStore: s}, notifier, testLogger())
	ana := createUser(t, s, "ana")
	ben := createUser(t, s, "ben")

	_, err := svc.ToggleFollow(context.Background(), ana.ID, ben.ID)
	assert.ErrorIs(t, err, domainerrors.ErrBackendUnavailable)

	a, _ := s.GetProfile(context.Background(), ana.ID)
	assert.Empty(t, a.Following, "following should be restored")
	assert.Empty(t, notifier.all())
}

func TestSocialService_RepairSymmetry_FixesFailedRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	broken := NewSocialService(&failingFollowers{ProfileStore: s, failRollback: true}, nil, testLogger())
	ana := createUser(t, s, "ana")
	ben := createUser(t, s, "ben")

	_, err := broken.ToggleFollow(ctx, ana.ID, ben.ID)
	require.Error(t, err)

	a, _ := s.GetProfile(ctx, ana.ID)
	b, _ := s.GetProfile(ctx, ben.ID)
	require.Equal(t, []string{ben.ID}, a.Following)
	require.Empty(t, b.Followers)

	svc := NewSocialService(s, nil, testLogger())
	report, err := svc.RepairSymmetry(ctx)
	require.NoError(t, err)
	assert.Equal(t, SymmetryReport{Checked: 2, Added: 1}, report)

	b, _ = s.GetProfile(ctx, ben.ID)
	assert.Equal(t, []string{ana.ID}, b.Followers)

	report, err = svc.RepairSymmetry(ctx)
	require.NoError(t, err)
	assert.False(t, report.Repaired())
}

func TestSocialService_RepairSymmetry_DropsOrphans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ana := createUser(t, s, "ana")
	ben := createUser(t, s, "ben")

	require.NoError(t, s.SetFollowing(ctx, ana.ID, []string{ana.ID, "usr-ghost", ben.ID}))
	require.NoError(t, s.SetFollowers(ctx, ben.ID, []string{"usr-ghost", ana.ID}))
	require.NoError(t, s.SetFollowers(ctx, ana.ID, []string{ben.ID}))

	report, err := NewSocialService(s, nil, testLogger()).RepairSymmetry(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 4, report.Removed)

	a, _ := s.GetProfile(ctx, ana.ID)
	b, _ := s.GetProfile(ctx, ben.ID)
	assert.Equal(t, []string{ben.ID}, a.Following)
	assert.Empty(t, a.Followers)
	assert.Equal(t, []string{ana.ID}, b.Followers)
}

func TestSocialService_FollowersAndFollowing(t *testing.T) {
	s := newTestStore(t)
	svc := NewSocialService(s, nil, testLogger())
	ctx := context.Background()
	ana := createUser(t, s, "ana")
	ben := createUser(t, s, "ben")

	_, err := svc.ToggleFollow(ctx, ana.ID, ben.ID)
	require.NoError(t, err)

	followers, err := svc.Followers(ctx, ben.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "ana", followers[0].Username)
	assert.Equal(t, 1, followers[0].FollowingCount)

	following, err := svc.Following(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, 1, following[0].FollowerCount)
}

func TestSocialService_SymmetryProperty(t *testing.T) {
	s := newTestStore(t)
	svc := NewSocialService(s, nil, testLogger())
	ctx := context.Background()

	users := []*domain.UserProfile{createUser(t, s, "ana"), createUser(t, s, "ben"), createUser(t, s, "cy")}

	rapid.Check(t, func(rt *rapid.T) {
		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for range steps {
			a := rapid.IntRange(0, len(users)-1).Draw(rt, "actor")
			b := rapid.IntRange(0, len(users)-1).Draw(rt, "target")
			_, err := svc.ToggleFollow(ctx, users[a].ID, users[b].ID)
			if a == b {
				if !domainerrors.Is(err, domainerrors.ErrSelfFollowRejected) {
					rt.Fatalf("self follow: %v", err)
				}
				continue
			}
			if err != nil {
				rt.Fatalf("toggle: %v", err)
			}
		}

		for _, u := range users {
			p, err := s.GetProfile(ctx, u.ID)
			if err != nil {
				rt.Fatal(err)
			}
			for _, followed := range p.Following {
				other, _ := s.GetProfile(ctx, followed)
				if !slices.Contains(other.Followers, u.ID) {
					rt.Fatalf("%s follows %s but is not in their followers", u.ID, followed)
				}
			}
			for _, follower := range p.Followers {
				other, _ := s.GetProfile(ctx, follower)
				if !other.IsFollowing(u.ID) {
					rt.Fatalf("%s lists follower %s who does not follow back", u.ID, follower)
				}
			}
		}
	})
}

func TestReconcileFollowers(t *testing.T) {
	fixed, added, removed := reconcileFollowers([]string{"c", "x", "a", "a"}, []string{"a", "b", "c", "d"})
	assert.Equal(t, []string{"c", "a", "b", "d"}, fixed)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, removed)
}
