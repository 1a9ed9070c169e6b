package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "Your notifications",
		Description: "Newest first. Live delivery is available at /api/v1/notifications/stream (SSE).",
		Tags:        []string{"Notifications"},
		Security:    authenticated,
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "unreadNotificationCount",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications/unread-count",
		Summary:     "Unread notification count",
		Tags:        []string{"Notifications"},
		Security:    authenticated,
	}, s.handleUnreadCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "markNotificationRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/{id}/read",
		Summary:     "Mark a notification read",
		Tags:        []string{"Notifications"},
		Security:    authenticated,
	}, s.handleMarkNotificationRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "markAllNotificationsRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/read-all",
		Summary:     "Mark every notification read",
		Tags:        []string{"Notifications"},
		Security:    authenticated,
	}, s.handleMarkAllRead)
}

// === DTOs ===

// NotificationListInput pages notifications.
type NotificationListInput struct {
	PageParams
	UnreadOnly bool `query:"unread_only" doc:"Only unread notifications"`
}

// NotificationPageOutput wraps a page of notifications.
type NotificationPageOutput struct {
	Body store.PageResult[*domain.Notification]
}

// CountResponse holds a count.
type CountResponse struct {
	Count int `json:"count" doc:"Number of notifications"`
}

// CountOutput wraps a count.
type CountOutput struct {
	Body CountResponse
}

// === Handlers ===

func (s *Server) handleListNotifications(ctx context.Context, input *NotificationListInput) (*NotificationPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.services.Notifications.List(ctx, userID, input.UnreadOnly, input.page())
	if err != nil {
		return nil, err
	}
	return &NotificationPageOutput{Body: page}, nil
}

func (s *Server) handleUnreadCount(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.services.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}

func (s *Server) handleMarkNotificationRead(ctx context.Context, input *IDPath) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Notifications.MarkRead(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return message("Notification marked read"), nil
}

func (s *Server) handleMarkAllRead(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.services.Notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}
