package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cineza/cineza-server/internal/auth"
	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/id"
	"github.com/cineza/cineza-server/internal/store"
	"github.com/cineza/cineza-server/internal/validation"
)

// SignupRequest creates an account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=512"`
	Username string `json:"username" validate:"required,username"`
	Name     string `json:"name" validate:"required,min=1,max=80"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User        *domain.User        `json:"user"`
	Profile     *domain.UserProfile `json:"profile"`
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

// AuthService handles signup, login and token checks.
type AuthService struct {
	users     store.UserStore
	profiles  store.ProfileStore
	tokens    *auth.TokenService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates the service.
func NewAuthService(users store.UserStore, profiles store.ProfileStore, tokens *auth.TokenService, v *validation.Validator, logger *slog.Logger) *AuthService {
	if v == nil {
		v = validation.New()
	}
	return &AuthService{
		users:     users,
		profiles:  profiles,
		tokens:    tokens,
		validator: v,
		logger:    logger,
	}
}

// Signup registers a user with an empty profile and logs them in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Internal("could not hash password").WithCause(err)
	}
	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, domainerrors.Internal("could not allocate user id").WithCause(err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		LastLoginAt:  &now,
	}
	profile := &domain.UserProfile{
		ID:             userID,
		Username:       req.Username,
		Name:           req.Name,
		Following:      []string{},
		Followers:      []string{},
		Watchlist:      []string{},
		WatchlistIndex: map[string]string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.CreateAccount(ctx, user, profile); err != nil {
		return nil, storeError("create account", "account", err)
	}

	s.logger.Info("user signed up", "user_id", userID, "username", req.Username)
	return s.respond(user, profile)
}

// Login checks credentials. Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, storeError("find user", "user", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	profile, err := s.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, storeError("load profile", "user", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return s.respond(user, profile)
}

// Me returns the identity and profile behind userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, *domain.UserProfile, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, storeError("get user", "user", err)
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, storeError("load profile", "user", err)
	}
	return user, profile, nil
}

// ValidateToken returns the user id a token was issued to.
func (s *AuthService) ValidateToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domainerrors.Unauthorized("missing access token")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", domainerrors.Unauthorized("invalid or expired access token").WithCause(err)
	}
	return claims.UserID, nil
}

func (s *AuthService) respond(user *domain.User, profile *domain.UserProfile) (*AuthResponse, error) {
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, domainerrors.Internal("could not issue access token").WithCause(err)
	}
	return &AuthResponse{
		User:        user,
		Profile:     profile,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
	}, nil
}
