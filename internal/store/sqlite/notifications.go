package sqlite

import (
	"context"
	"database/sql"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

const notificationColumns = `id, recipient_id, actor_id, type, target_id, is_read, created_at`

func scanNotification(sc scanner) (*domain.Notification, error) {
	var (
		n         domain.Notification
		typ       string
		target    sql.NullString
		isRead    int
		createdAt string
	)
	if err := sc.Scan(&n.ID, &n.RecipientID, &n.ActorID, &typ, &target, &isRead, &createdAt); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	n.TargetID = target.String
	n.Read = isRead != 0
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification inserts n.
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	read := 0
	if n.Read {
		read = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.RecipientID,
		n.ActorID,
		string(n.Type),
		nullString(n.TargetID),
		read,
		formatTime(n.CreatedAt),
	)
	return classify(err)
}

// ListNotifications returns a recipient's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, p store.Page) ([]*domain.Notification, int, error) {
	page := p.Normalize()

	where := `recipient_id = ?`
	if unreadOnly {
		where += ` AND is_read = 0`
	}

	total, err := countRows(ctx, s.db, `SELECT COUNT(*) FROM notifications WHERE `+where, recipientID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE `+where+`
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		recipientID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*domain.Notification, 0, page.Limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkNotificationRead flags one of the recipient's notifications as read.
// Another user's notification is reported as not found.
func (s *Store) MarkNotificationRead(ctx context.Context, recipientID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// MarkAllNotificationsRead flags every unread notification and returns how many changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CountUnreadNotifications counts the recipient's unread notifications.
func (s *Store) CountUnreadNotifications(ctx context.Context, recipientID string) (int, error) {
	return countRows(ctx, s.db,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`, recipientID)
}
