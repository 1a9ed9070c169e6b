package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

const userColumns = `id, email, password_hash, created_at, last_login_at`

func scanUser(sc scanner) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		lastLogin sql.NullString
	)
	if err := sc.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt, &lastLogin); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.LastLoginAt, err = parseNullableTime(lastLogin); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateAccount inserts the user and its profile in one transaction. A taken
// email or username yields store.ErrAlreadyExists naming the field.
func (s *Store) CreateAccount(ctx context.Context, u *domain.User, p *domain.UserProfile) error {
	following, err := encodeIDs(p.Following)
	if err != nil {
		return err
	}
	followers, err := encodeIDs(p.Followers)
	if err != nil {
		return err
	}
	watchlist, err := encodeIDs(p.Watchlist)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, email_lower, password_hash, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		strings.ToLower(u.Email),
		u.PasswordHash,
		formatTime(u.CreatedAt),
		nullTimeString(u.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("email already registered").WithCause(err)
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, username, name, bio, avatar_url, following, followers,
			watchlist, watchlist_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '{}', ?, ?)`,
		p.ID,
		strings.ToLower(p.Username),
		p.Name,
		p.Bio,
		p.AvatarURL,
		following,
		followers,
		watchlist,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("username already taken").WithCause(err)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetUser returns the identity with id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// GetUserByEmail matches email case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}
