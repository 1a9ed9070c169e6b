package sqlite

import (
	"context"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

const commentSelect = `SELECT c.id, c.review_id, c.author_id, c.body, c.created_at,
	(SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = c.id)
	FROM review_comments c`

func scanComment(sc scanner) (*domain.Comment, error) {
	var (
		c         domain.Comment
		createdAt string
	)
	if err := sc.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Body, &createdAt, &c.LikeCount); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateComment inserts c. An unknown review yields store.ErrInvalidInput.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_comments (id, review_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ReviewID, c.AuthorID, c.Body, formatTime(c.CreatedAt))
	return classify(err)
}

// GetComment returns a comment with its like count.
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return c, nil
}

// DeleteComment removes a comment and its likes.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM review_comments WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	return requireOneRow(res)
}

// ListComments returns a review's comments, oldest first.
func (s *Store) ListComments(ctx context.Context, reviewID string, p store.Page) ([]*domain.Comment, int, error) {
	page := p.Normalize()

	total, err := countRows(ctx, s.db,
		`SELECT COUNT(*) FROM review_comments WHERE review_id = ?`, reviewID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		commentSelect+` WHERE c.review_id = ? ORDER BY c.created_at ASC, c.id ASC LIMIT ? OFFSET ?`,
		reviewID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0, page.Limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}
