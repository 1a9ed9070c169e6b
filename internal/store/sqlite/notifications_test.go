package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

func TestNotifications_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createTestAccount(t, s, "alice")
	bob := createTestAccount(t, s, "bobby")

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	types := []domain.NotificationType{
		domain.NotificationNewFollower,
		domain.NotificationReviewLike,
		domain.NotificationCommentLike,
	}
	for i, typ := range types {
		n := &domain.Notification{
			ID:          "ntf-" + string(rune('a'+i)),
			RecipientID: alice.ID,
			ActorID:     bob.ID,
			Type:        typ,
			TargetID:    "rev-1",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("create %s: %v", typ, err)
		}
	}

	list, total, err := s.ListNotifications(ctx, alice.ID, false, store.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || list[0].ID != "ntf-c" {
		t.Fatalf("expected newest first, total=%d first=%s", total, list[0].ID)
	}

	if err := s.MarkNotificationRead(ctx, alice.ID, "ntf-a"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := s.MarkNotificationRead(ctx, bob.ID, "ntf-b"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign notification: got %v", err)
	}

	unread, err := s.CountUnreadNotifications(ctx, alice.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if unread != 2 {
		t.Errorf("unread = %d, want 2", unread)
	}

	_, total, err = s.ListNotifications(ctx, alice.ID, true, store.Page{})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if total != 2 {
		t.Errorf("unread list total = %d", total)
	}

	changed, err := s.MarkAllNotificationsRead(ctx, alice.ID)
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if changed != 2 {
		t.Errorf("mark all changed %d, want 2", changed)
	}
}

func TestNotifications_RejectsUnknownType(t *testing.T) {
	s := newTestStore(t)
	alice := createTestAccount(t, s, "alice")

	n := &domain.Notification{
		ID: "ntf-x", RecipientID: alice.ID, ActorID: "usr-x",
		Type: domain.NotificationType("poke"), CreatedAt: time.Now(),
	}
	if err := s.CreateNotification(context.Background(), n); err == nil {
		t.Fatal("expected check constraint failure")
	}
}
