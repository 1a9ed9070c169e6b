package domain

import "time"

// NotificationType names the social event behind a notification.
type NotificationType string

const (
	NotificationNewFollower NotificationType = "new_follower"
	NotificationReviewLike  NotificationType = "review_like"
	NotificationCommentLike NotificationType = "comment_like"
)

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewFollower, NotificationReviewLike, NotificationCommentLike:
		return true
	}
	return false
}

// Notification is one social event directed at RecipientID. Only Read changes after creation.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id"`
	Type        NotificationType `json:"type"`
	TargetID    string           `json:"target_id,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
