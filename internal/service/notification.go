package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/id"
	"github.com/cineza/cineza-server/internal/store"
)

const emitTimeout = 5 * time.Second

// NotificationPublisher pushes a stored notification to live clients.
// *sse.Manager implements it.
type NotificationPublisher interface {
	PublishNotification(n *domain.Notification)
}

// Notifier is the fire-and-forget side of NotificationService that other
// services depend on.
type Notifier interface {
	Emit(recipientID, actorID string, typ domain.NotificationType, targetID string)
}

// NotificationService records social events for their recipients.
type NotificationService struct {
	store     store.NotificationStore
	publisher NotificationPublisher
	logger    *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     conc.WaitGroup
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(notifications store.NotificationStore, publisher NotificationPublisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		store:     notifications,
		publisher: publisher,
		logger:    logger,
	}
}

// Emit records a notification in the background and returns at once.
// Failures are logged and dropped. Actors are never notified about themselves.
func (s *NotificationService) Emit(recipientID, actorID string, typ domain.NotificationType, targetID string) {
	if recipientID == "" || recipientID == actorID {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("notification dropped after shutdown", "type", string(typ), "recipient_id", recipientID)
		return
	}

	s.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		s.deliver(ctx, recipientID, actorID, typ, targetID)
	})
}

func (s *NotificationService) deliver(ctx context.Context, recipientID, actorID string, typ domain.NotificationType, targetID string) {
	log := s.logger.With("type", string(typ), "recipient_id", recipientID, "actor_id", actorID)

	notificationID, err := id.Generate(id.PrefixNotification)
	if err != nil {
		log.Error("failed to allocate notification id", "error", err)
		return
	}

	n := &domain.Notification{
		ID:          notificationID,
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        typ,
		TargetID:    targetID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		log.Warn("failed to store notification", "error", err)
		return
	}

	if s.publisher != nil {
		s.publisher.PublishNotification(n)
	}
	log.Debug("notification emitted", "notification_id", n.ID)
}

// Shutdown stops accepting emissions and waits for in-flight ones, or for ctx.
func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List pages through the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID string, unreadOnly bool, page store.Page) (store.PageResult[*domain.Notification], error) {
	page = page.Normalize()
	items, total, err := s.store.ListNotifications(ctx, recipientID, unreadOnly, page)
	if err != nil {
		return store.PageResult[*domain.Notification]{}, storeError("list notifications", "notification", err)
	}
	return store.NewPageResult(items, total, page), nil
}

// MarkRead marks one of the recipient's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	if notificationID == "" {
		return domainerrors.Validation("notification id is required")
	}
	return storeError("mark notification read", "notification", s.store.MarkNotificationRead(ctx, recipientID, notificationID))
}

// MarkAllRead marks every unread notification and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, recipientID)
	if err != nil {
		return 0, storeError("mark notifications read", "notification", err)
	}
	return n, nil
}

// UnreadCount counts the recipient's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	n, err := s.store.CountUnreadNotifications(ctx, recipientID)
	if err != nil {
		return 0, storeError("count unread notifications", "notification", err)
	}
	return n, nil
}
