package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/service"
	"github.com/cineza/cineza-server/internal/store"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/reviews",
		Summary:       "Review a title",
		Description:   "Reviews a catalog entry, or an external record which is added to the catalog first. One review per user and title.",
		Tags:          []string{"Reviews"},
		Security:      authenticated,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Edit a review",
		Description: "Author only",
		Tags:        []string{"Reviews"},
		Security:    authenticated,
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Delete a review",
		Description: "Author only",
		Tags:        []string{"Reviews"},
		Security:    authenticated,
	}, s.handleDeleteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleReviewLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/reviews/{id}/like",
		Summary:     "Like or unlike a review",
		Tags:        []string{"Reviews"},
		Security:    authenticated,
	}, s.handleToggleReviewLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{id}/comments",
		Summary:     "Comments on a review",
		Description: "Oldest first",
		Tags:        []string{"Comments"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/reviews/{id}/comments",
		Summary:       "Comment on a review",
		Tags:          []string{"Comments"},
		Security:      authenticated,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete a comment",
		Description: "Author only",
		Tags:        []string{"Comments"},
		Security:    authenticated,
	}, s.handleDeleteComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleCommentLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/like",
		Summary:     "Like or unlike a comment",
		Tags:        []string{"Comments"},
		Security:    authenticated,
	}, s.handleToggleCommentLike)
}

// === DTOs ===

// CreateReviewRequest names the title by catalog entry id or by record.
type CreateReviewRequest struct {
	CatalogEntryID string      `json:"catalog_entry_id,omitempty" doc:"Catalog entry to review"`
	Record         *RecordBody `json:"record,omitempty" doc:"External record to review when it has no catalog entry yet"`
	Rating         float64     `json:"rating" minimum:"0" maximum:"5" doc:"Rating from 0.0 to 5.0 in steps of 0.1"`
	Comment        string      `json:"comment,omitempty" maxLength:"2000" doc:"Review text"`
}

// CreateReviewInput wraps the create review request for Huma.
type CreateReviewInput struct {
	Body CreateReviewRequest
}

// UpdateReviewRequest edits a review; omitted fields are kept.
type UpdateReviewRequest struct {
	Rating  *float64 `json:"rating,omitempty" minimum:"0" maximum:"5" doc:"New rating"`
	Comment *string  `json:"comment,omitempty" maxLength:"2000" doc:"New review text"`
}

// UpdateReviewInput wraps the update review request for Huma.
type UpdateReviewInput struct {
	IDPath
	Body UpdateReviewRequest
}

// ReviewOutput wraps one review.
type ReviewOutput struct {
	Body *domain.Review
}

// LikeOutput wraps the like state after a toggle.
type LikeOutput struct {
	Body *domain.LikeState
}

// CommentRequest is a comment body.
type CommentRequest struct {
	Body string `json:"body" maxLength:"1000" doc:"Comment text"`
}

// CreateCommentInput wraps the comment request for Huma.
type CreateCommentInput struct {
	IDPath
	Body CommentRequest
}

// CommentOutput wraps one comment.
type CommentOutput struct {
	Body *domain.Comment
}

// CommentPageOutput wraps a page of comments.
type CommentPageOutput struct {
	Body store.PageResult[*domain.Comment]
}

// === Handlers ===

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	in := service.ReviewInput{
		CatalogEntryID: input.Body.CatalogEntryID,
		Rating:         input.Body.Rating,
		Comment:        input.Body.Comment,
	}
	if input.Body.Record != nil {
		r := input.Body.Record.record()
		in.Record = &r
	}

	review, err := s.services.Reviews.Submit(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Reviews.Update(ctx, userID, input.ID, service.ReviewUpdate{
		Rating:  input.Body.Rating,
		Comment: input.Body.Comment,
	})
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *IDPath) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Reviews.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return message("Review deleted"), nil
}

func (s *Server) handleToggleReviewLike(ctx context.Context, input *IDPath) (*LikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	state, err := s.services.Reviews.ToggleLike(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: state}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *ReviewListInput) (*CommentPageOutput, error) {
	page, err := s.services.Reviews.ListComments(ctx, input.ID, input.page())
	if err != nil {
		return nil, err
	}
	return &CommentPageOutput{Body: page}, nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.services.Reviews.AddComment(ctx, userID, input.ID, input.Body.Body)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: c}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *IDPath) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Reviews.DeleteComment(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return message("Comment deleted"), nil
}

func (s *Server) handleToggleCommentLike(ctx context.Context, input *IDPath) (*LikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	state, err := s.services.Reviews.ToggleCommentLike(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: state}, nil
}
