package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

// profileColumns must match the scan order in scanProfile.
const profileColumns = `id, username, name, bio, avatar_url, following, followers,
	watchlist, watchlist_index, created_at, updated_at`

func scanProfile(sc scanner) (*domain.UserProfile, error) {
	var (
		p         domain.UserProfile
		following string
		followers string
		watchlist string
		index     string
		createdAt string
		updatedAt string
	)
	err := sc.Scan(
		&p.ID,
		&p.Username,
		&p.Name,
		&p.Bio,
		&p.AvatarURL,
		&following,
		&followers,
		&watchlist,
		&index,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Following, err = decodeIDs(following); err != nil {
		return nil, err
	}
	if p.Followers, err = decodeIDs(followers); err != nil {
		return nil, err
	}
	if p.Watchlist, err = decodeIDs(watchlist); err != nil {
		return nil, err
	}
	p.WatchlistIndex = map[string]string{}
	if index != "" {
		if err := json.Unmarshal([]byte(index), &p.WatchlistIndex); err != nil {
			return nil, fmt.Errorf("decode watchlist index: %w", err)
		}
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the profile with id or store.ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// GetProfileByUsername looks a profile up by its exact username.
func (s *Store) GetProfileByUsername(ctx context.Context, username string) (*domain.UserProfile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = ?`, strings.ToLower(username)))
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// GetProfilesByIDs returns profiles in the order of ids, skipping missing ones.
func (s *Store) GetProfilesByIDs(ctx context.Context, ids []string) ([]*domain.UserProfile, error) {
	if len(ids) == 0 {
		return []*domain.UserProfile{}, nil
	}

	marks, args := placeholders(ids)
	byID, err := s.queryProfiles(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*domain.UserProfile, len(byID))
	for _, p := range byID {
		index[p.ID] = p
	}
	out := make([]*domain.UserProfile, 0, len(byID))
	for _, id := range ids {
		if p, ok := index[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAllProfiles returns every profile ordered by id.
func (s *Store) ListAllProfiles(ctx context.Context) ([]*domain.UserProfile, error) {
	return s.queryProfiles(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY id`)
}

// SearchProfiles matches username or name as a substring, ordered by name.
// An empty query lists everyone.
func (s *Store) SearchProfiles(ctx context.Context, query string, p store.Page) ([]*domain.UserProfile, int, error) {
	page := p.Normalize()

	clause := ""
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		pattern := likePattern(q)
		clause = ` WHERE username LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}

	total, err := countRows(ctx, s.db, `SELECT COUNT(*) FROM profiles`+clause, args...)
	if err != nil {
		return nil, 0, err
	}

	profiles, err := s.queryProfiles(ctx,
		`SELECT `+profileColumns+` FROM profiles`+clause+
			` ORDER BY name COLLATE NOCASE ASC, username ASC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (s *Store) queryProfiles(ctx context.Context, query string, args ...any) ([]*domain.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.UserProfile{}
	}
	return out, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the result.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate, at time.Time) (*domain.UserProfile, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(at)}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *upd.Bio)
	}
	if upd.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *upd.AvatarURL)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return nil, classify(err)
	}
	if err := requireOneRow(res); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// SetFollowing overwrites the following array.
func (s *Store) SetFollowing(ctx context.Context, id string, following []string) error {
	return s.setIDColumn(ctx, id, "following", following)
}

// SetFollowers overwrites the followers array.
func (s *Store) SetFollowers(ctx context.Context, id string, followers []string) error {
	return s.setIDColumn(ctx, id, "followers", followers)
}

func (s *Store) setIDColumn(ctx context.Context, id, column string, ids []string) error {
	encoded, err := encodeIDs(ids)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		encoded, formatTime(time.Now()), id)
	if err != nil {
		return classify(err)
	}
	return requireOneRow(res)
}

// SetWatchlist overwrites the watchlist array and its external-key index in one statement.
func (s *Store) SetWatchlist(ctx context.Context, id string, watchlist []string, index map[string]string) error {
	encoded, err := encodeIDs(watchlist)
	if err != nil {
		return err
	}
	if index == nil {
		index = map[string]string{}
	}
	encodedIndex, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode watchlist index: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET watchlist = ?, watchlist_index = ?, updated_at = ? WHERE id = ?`,
		encoded, string(encodedIndex), formatTime(time.Now()), id)
	if err != nil {
		return classify(err)
	}
	return requireOneRow(res)
}
