package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/store"
	"github.com/cineza/cineza-server/internal/validation"
)

// ProfileEdit is a partial profile edit. Usernames cannot change.
type ProfileEdit struct {
	Name      *string `json:"name" validate:"omitnil,min=1,max=80"`
	Bio       *string `json:"bio" validate:"omitnil,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitnil,http_url|len=0"`
}

// ProfileService reads and edits user profiles.
type ProfileService struct {
	profiles  store.ProfileStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewProfileService creates the service.
func NewProfileService(profiles store.ProfileStore, v *validation.Validator, logger *slog.Logger) *ProfileService {
	if v == nil {
		v = validation.New()
	}
	return &ProfileService{profiles: profiles, validator: v, logger: logger}
}

// Get returns a profile by id.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError("get profile", "user", err)
	}
	return p, nil
}

// GetByUsername returns a profile by username, ignoring case.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*domain.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domainerrors.Validation("username is required")
	}
	p, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, storeError("get profile by username", "user", err)
	}
	return p, nil
}

// Search pages through users whose username or name contains query.
func (s *ProfileService) Search(ctx context.Context, query string, page store.Page) (store.PageResult[domain.ProfileSummary], error) {
	page = page.Normalize()
	profiles, total, err := s.profiles.SearchProfiles(ctx, query, page)
	if err != nil {
		return store.PageResult[domain.ProfileSummary]{}, storeError("search profiles", "user", err)
	}
	out := make([]domain.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Summary())
	}
	return store.NewPageResult(out, total, page), nil
}

// Update applies edit to the user's own profile.
func (s *ProfileService) Update(ctx context.Context, userID string, edit ProfileEdit) (*domain.UserProfile, error) {
	edit.Name = trimmed(edit.Name)
	edit.Bio = trimmed(edit.Bio)
	edit.AvatarURL = trimmed(edit.AvatarURL)
	if err := s.validator.Validate(edit); err != nil {
		return nil, err
	}

	p, err := s.profiles.UpdateProfile(ctx, userID, domain.ProfileUpdate{
		Name:      edit.Name,
		Bio:       edit.Bio,
		AvatarURL: edit.AvatarURL,
	}, time.Now().UTC())
	if err != nil {
		return nil, storeError("update profile", "user", err)
	}
	s.logger.Debug("profile updated", "user_id", userID)
	return p, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
