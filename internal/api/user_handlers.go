package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/service"
	"github.com/cineza/cineza-server/internal/store"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed",
		Summary:     "Review feed",
		Description: "Reviews by the users you follow and by you, newest first",
		Tags:        []string{"Users", "Reviews"},
		Security:    authenticated,
	}, s.handleFeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "Find users",
		Description: "Matches username or name; ordered by name",
		Tags:        []string{"Users"},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMyProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Edit your profile",
		Description: "Updates name, bio or avatar URL. The username cannot change.",
		Tags:        []string{"Users"},
		Security:    authenticated,
	}, s.handleUpdateMyProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserByUsername",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/by-username/{username}",
		Summary:     "Get a profile by username",
		Tags:        []string{"Users"},
	}, s.handleGetUserByUsername)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get a profile",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/reviews",
		Summary:     "Reviews by a user",
		Description: "Newest first",
		Tags:        []string{"Users", "Reviews"},
	}, s.handleListUserReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFollowers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/followers",
		Summary:     "Followers of a user",
		Tags:        []string{"Users", "Social"},
	}, s.handleListFollowers)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFollowing",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/following",
		Summary:     "Users a user follows",
		Tags:        []string{"Users", "Social"},
	}, s.handleListFollowing)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFollow",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{id}/follow",
		Summary:     "Follow or unfollow a user",
		Description: "Toggles following. The target is notified when you start following them.",
		Tags:        []string{"Users", "Social"},
		Security:    authenticated,
	}, s.handleToggleFollow)
}

// === DTOs ===

// ProfileOutput wraps one profile.
type ProfileOutput struct {
	Body *domain.UserProfile
}

// UsernamePath is a {username} path parameter.
type UsernamePath struct {
	Username string `path:"username" doc:"Username"`
}

// UserListInput searches users.
type UserListInput struct {
	PageParams
	Query string `query:"q" maxLength:"100" doc:"Text to match against username or name"`
}

// ProfilePageOutput wraps a page of profile summaries.
type ProfilePageOutput struct {
	Body store.PageResult[domain.ProfileSummary]
}

// UpdateProfileRequest is a partial profile edit.
type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty" maxLength:"80" doc:"Display name"`
	Bio       *string `json:"bio,omitempty" maxLength:"500" doc:"Short bio"`
	AvatarURL *string `json:"avatar_url,omitempty" doc:"Avatar image URL; empty clears it"`
}

// UpdateProfileInput wraps the profile edit for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// ProfileListResponse holds profile summaries.
type ProfileListResponse struct {
	Users []domain.ProfileSummary `json:"users" doc:"Profiles"`
}

// ProfileListOutput wraps the profile list.
type ProfileListOutput struct {
	Body ProfileListResponse
}

// FollowOutput wraps the follow state after a toggle.
type FollowOutput struct {
	Body *service.FollowResult
}

// === Handlers ===

func (s *Server) handleFeed(ctx context.Context, input *PageParams) (*ReviewPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.services.Reviews.Feed(ctx, userID, input.page())
	if err != nil {
		return nil, err
	}
	return &ReviewPageOutput{Body: page}, nil
}

func (s *Server) handleListUsers(ctx context.Context, input *UserListInput) (*ProfilePageOutput, error) {
	page, err := s.services.Profiles.Search(ctx, input.Query, input.page())
	if err != nil {
		return nil, err
	}
	return &ProfilePageOutput{Body: page}, nil
}

func (s *Server) handleUpdateMyProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.services.Profiles.Update(ctx, userID, service.ProfileEdit{
		Name:      input.Body.Name,
		Bio:       input.Body.Bio,
		AvatarURL: input.Body.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: p}, nil
}

func (s *Server) handleGetUserByUsername(ctx context.Context, input *UsernamePath) (*ProfileOutput, error) {
	p, err := s.services.Profiles.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: p}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *IDPath) (*ProfileOutput, error) {
	p, err := s.services.Profiles.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: p}, nil
}

func (s *Server) handleListUserReviews(ctx context.Context, input *ReviewListInput) (*ReviewPageOutput, error) {
	page, err := s.services.Reviews.ListByAuthor(ctx, input.ID, input.page())
	if err != nil {
		return nil, err
	}
	return &ReviewPageOutput{Body: page}, nil
}

func (s *Server) handleListFollowers(ctx context.Context, input *IDPath) (*ProfileListOutput, error) {
	users, err := s.services.Social.Followers(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileListOutput{Body: ProfileListResponse{Users: users}}, nil
}

func (s *Server) handleListFollowing(ctx context.Context, input *IDPath) (*ProfileListOutput, error) {
	users, err := s.services.Social.Following(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileListOutput{Body: ProfileListResponse{Users: users}}, nil
}

func (s *Server) handleToggleFollow(ctx context.Context, input *IDPath) (*FollowOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.services.Social.ToggleFollow(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &FollowOutput{Body: res}, nil
}
