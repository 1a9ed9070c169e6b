package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/store"
)

const rollbackTimeout = 5 * time.Second

// FollowResult is the state after a follow toggle.
type FollowResult struct {
	Following bool `json:"following"`
}

// SymmetryReport summarizes one RepairSymmetry pass.
type SymmetryReport struct {
	Checked int `json:"checked"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Repaired reports whether the pass changed anything.
func (r SymmetryReport) Repaired() bool {
	return r.Added > 0 || r.Removed > 0
}

// SocialService maintains the follow graph. Each follow is stored twice,
// in the actor's following and the target's followers, with two writes.
type SocialService struct {
	profiles store.ProfileStore
	notifier Notifier
	logger   *slog.Logger
}

// NewSocialService creates the service.
func NewSocialService(profiles store.ProfileStore, notifier Notifier, logger *slog.Logger) *SocialService {
	return &SocialService{profiles: profiles, notifier: notifier, logger: logger}
}

// ToggleFollow flips whether actor follows target.
//
// The actor's following array is written first and the target's followers
// second. If the second write fails the first is reverted; if that revert
// also fails the pair stays asymmetric until RepairSymmetry runs.
func (s *SocialService) ToggleFollow(ctx context.Context, actorID, targetID string) (*FollowResult, error) {
	if actorID == targetID {
		return nil, domainerrors.ErrSelfFollowRejected
	}

	actor, err := s.profiles.GetProfile(ctx, actorID)
	if err != nil {
		return nil, storeError("load actor profile", "user", err)
	}
	target, err := s.profiles.GetProfile(ctx, targetID)
	if err != nil {
		return nil, storeError("load target profile", "user", err)
	}

	wasFollowing := actor.IsFollowing(targetID)
	previous := slices.Clone(actor.Following)

	var following, followers []string
	if wasFollowing {
		following = domain.WithoutID(actor.Following, targetID)
		followers = domain.WithoutID(target.Followers, actorID)
	} else {
		following = domain.WithID(actor.Following, targetID)
		followers = domain.WithID(target.Followers, actorID)
	}

	if err := s.profiles.SetFollowing(ctx, actorID, following); err != nil {
		return nil, storeError("update following", "user", err)
	}

	if err := s.profiles.SetFollowers(ctx, targetID, followers); err != nil {
		s.rollbackFollowing(ctx, actorID, targetID, previous, err)
		return nil, storeError("update followers", "user", err)
	}

	now := !wasFollowing
	s.logger.Info("follow toggled", "actor_id", actorID, "target_id", targetID, "following", now)

	if now && s.notifier != nil {
		s.notifier.Emit(targetID, actorID, domain.NotificationNewFollower, actorID)
	}
	return &FollowResult{Following: now}, nil
}

// rollbackFollowing restores the actor's following array. It runs even when
// the request context is already canceled.
func (s *SocialService) rollbackFollowing(ctx context.Context, actorID, targetID string, previous []string, cause error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := s.profiles.SetFollowing(rctx, actorID, previous); err != nil {
		s.logger.Error("follow rollback failed, graph left asymmetric",
			"actor_id", actorID,
			"target_id", targetID,
			"cause", cause,
			"error", err,
		)
		return
	}
	s.logger.Warn("follow reverted after followers write failed",
		"actor_id", actorID,
		"target_id", targetID,
		"error", cause,
	)
}

// Followers returns summaries of the users following userID.
func (s *SocialService) Followers(ctx context.Context, userID string) ([]domain.ProfileSummary, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError("load profile", "user", err)
	}
	return s.summaries(ctx, p.Followers)
}

// Following returns summaries of the users userID follows.
func (s *SocialService) Following(ctx context.Context, userID string) ([]domain.ProfileSummary, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError("load profile", "user", err)
	}
	return s.summaries(ctx, p.Following)
}

func (s *SocialService) summaries(ctx context.Context, ids []string) ([]domain.ProfileSummary, error) {
	profiles, err := s.profiles.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("load profiles", "user", err)
	}
	out := make([]domain.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Summary())
	}
	return out, nil
}

// RepairSymmetry makes every followers array agree with the following
// arrays, which are taken as the source of truth. Ids of missing profiles
// and self references are dropped from both sides. Per-profile write
// failures are collected and the pass continues.
func (s *SocialService) RepairSymmetry(ctx context.Context) (SymmetryReport, error) {
	var report SymmetryReport

	profiles, err := s.profiles.ListAllProfiles(ctx)
	if err != nil {
		return report, storeError("list profiles", "user", err)
	}

	known := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		known[p.ID] = true
	}

	// Expected followers, derived from the cleaned following arrays.
	expected := make(map[string][]string, len(profiles))
	var errs []error

	for _, p := range profiles {
		report.Checked++
		cleaned := make([]string, 0, len(p.Following))
		for _, followed := range p.Following {
			if followed == p.ID || !known[followed] || slices.Contains(cleaned, followed) {
				continue
			}
			cleaned = append(cleaned, followed)
			expected[followed] = append(expected[followed], p.ID)
		}
		if len(cleaned) != len(p.Following) {
			report.Removed += len(p.Following) - len(cleaned)
			if err := s.profiles.SetFollowing(ctx, p.ID, cleaned); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		want := expected[p.ID]
		fixed, added, removed := reconcileFollowers(p.Followers, want)
		if added == 0 && removed == 0 {
			continue
		}
		report.Added += added
		report.Removed += removed
		s.logger.Warn("repairing followers",
			"user_id", p.ID,
			"added", added,
			"removed", removed,
		)
		if err := s.profiles.SetFollowers(ctx, p.ID, fixed); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return report, domainerrors.BackendUnavailable("repair follow symmetry", errors.Join(errs...))
	}
	return report, nil
}

// reconcileFollowers keeps the entries of current that appear in want, in
// their existing order, then appends the missing ones sorted.
func reconcileFollowers(current, want []string) (fixed []string, added, removed int) {
	fixed = make([]string, 0, len(want))
	for _, id := range current {
		if slices.Contains(want, id) && !slices.Contains(fixed, id) {
			fixed = append(fixed, id)
		} else {
			removed++
		}
	}

	var missing []string
	for _, id := range want {
		if !slices.Contains(fixed, id) {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	fixed = append(fixed, missing...)
	return fixed, len(missing), removed
}
