package sqlite

import (
	"context"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

// reviewSelect must match the scan order in scanReview.
const reviewSelect = `SELECT r.id, r.catalog_entry_id, r.author_id, r.rating, r.comment,
	r.created_at, r.updated_at,
	(SELECT COUNT(*) FROM review_likes l WHERE l.review_id = r.id),
	(SELECT COUNT(*) FROM review_comments c WHERE c.review_id = r.id)
	FROM reviews r`

func scanReview(sc scanner) (*domain.Review, error) {
	var (
		r         domain.Review
		createdAt string
		updatedAt string
	)
	err := sc.Scan(
		&r.ID,
		&r.CatalogEntryID,
		&r.AuthorID,
		&r.Rating,
		&r.Comment,
		&createdAt,
		&updatedAt,
		&r.LikeCount,
		&r.CommentCount,
	)
	if err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReview inserts r. A second review by the same author for the same
// entry yields store.ErrAlreadyExists.
func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, catalog_entry_id, author_id, rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.CatalogEntryID,
		r.AuthorID,
		r.Rating,
		r.Comment,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	return classify(err)
}

// GetReview returns a review with its like and comment counts.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// GetReviewByAuthorAndEntry returns the author's review of the entry, if any.
func (s *Store) GetReviewByAuthorAndEntry(ctx context.Context, authorID, catalogEntryID string) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		reviewSelect+` WHERE r.author_id = ? AND r.catalog_entry_id = ?`, authorID, catalogEntryID))
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// UpdateReview rewrites rating and comment.
func (s *Store) UpdateReview(ctx context.Context, id string, rating float64, comment string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?`,
		rating, comment, formatTime(at), id)
	if err != nil {
		return classify(err)
	}
	return requireOneRow(res)
}

// DeleteReview removes a review; likes and comments cascade.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	return requireOneRow(res)
}

// ListReviewsByCatalogEntry returns an entry's reviews, newest first.
func (s *Store) ListReviewsByCatalogEntry(ctx context.Context, catalogEntryID string, p store.Page) ([]*domain.Review, int, error) {
	return s.listReviews(ctx, `r.catalog_entry_id = ?`, []any{catalogEntryID}, p)
}

// ListReviewsByAuthors returns reviews written by any of authorIDs, newest first.
func (s *Store) ListReviewsByAuthors(ctx context.Context, authorIDs []string, p store.Page) ([]*domain.Review, int, error) {
	if len(authorIDs) == 0 {
		return []*domain.Review{}, 0, nil
	}
	marks, args := placeholders(authorIDs)
	return s.listReviews(ctx, `r.author_id IN (`+marks+`)`, args, p)
}

func (s *Store) listReviews(ctx context.Context, where string, args []any, p store.Page) ([]*domain.Review, int, error) {
	page := p.Normalize()

	total, err := countRows(ctx, s.db, `SELECT COUNT(*) FROM reviews r WHERE `+where, args...)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		reviewSelect+` WHERE `+where+` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := make([]*domain.Review, 0, page.Limit)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, r)
	}
	return reviews, total, rows.Err()
}

// ReviewRatings returns every rating recorded for the entry.
func (s *Store) ReviewRatings(ctx context.Context, catalogEntryID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rating FROM reviews WHERE catalog_entry_id = ?`, catalogEntryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := []float64{}
	for rows.Next() {
		var r float64
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// likeTable describes one (user, target) like relation.
type likeTable struct {
	table       string
	column      string
	parentTable string
}

var (
	reviewLikes  = likeTable{table: "review_likes", column: "review_id", parentTable: "reviews"}
	commentLikes = likeTable{table: "comment_likes", column: "comment_id", parentTable: "review_comments"}
)

// ToggleReviewLike flips userID's like on reviewID.
func (s *Store) ToggleReviewLike(ctx context.Context, userID, reviewID string, at time.Time) (domain.LikeState, error) {
	return s.toggleLike(ctx, reviewLikes, userID, reviewID, at)
}

// ToggleCommentLike flips userID's like on commentID.
func (s *Store) ToggleCommentLike(ctx context.Context, userID, commentID string, at time.Time) (domain.LikeState, error) {
	return s.toggleLike(ctx, commentLikes, userID, commentID, at)
}

func (s *Store) toggleLike(ctx context.Context, lt likeTable, userID, targetID string, at time.Time) (domain.LikeState, error) {
	var state domain.LikeState

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return state, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM `+lt.parentTable+` WHERE id = ?`, targetID).Scan(&exists); err != nil {
		return state, classify(err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM `+lt.table+` WHERE user_id = ? AND `+lt.column+` = ?`, userID, targetID)
	if err != nil {
		return state, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return state, err
	}

	if removed == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+lt.table+` (user_id, `+lt.column+`, created_at) VALUES (?, ?, ?)`,
			userID, targetID, formatTime(at))
		if err != nil {
			return state, classify(err)
		}
		state.Liked = true
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+lt.table+` WHERE `+lt.column+` = ?`, targetID).Scan(&state.LikeCount); err != nil {
		return state, err
	}

	return state, tx.Commit()
}
