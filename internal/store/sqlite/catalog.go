package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/store"
)

// catalogColumns must match the scan order in scanCatalogEntry.
const catalogColumns = `id, external_id, media_kind, title, description, poster_url, backdrop_url,
	release_date, year, genre, director, mean_rating, vote_average, created_at`

func scanCatalogEntry(sc scanner) (*domain.CatalogEntry, error) {
	var (
		e           domain.CatalogEntry
		kind        string
		poster      sql.NullString
		backdrop    sql.NullString
		releaseDate sql.NullString
		year        sql.NullInt64
		mean        sql.NullFloat64
		createdAt   string
	)

	err := sc.Scan(
		&e.ID,
		&e.ExternalID,
		&kind,
		&e.Title,
		&e.Description,
		&poster,
		&backdrop,
		&releaseDate,
		&year,
		&e.Genre,
		&e.Director,
		&mean,
		&e.VoteAverage,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.Kind = domain.MediaKind(kind)
	e.PosterURL = poster.String
	e.BackdropURL = backdrop.String
	e.ReleaseDate = releaseDate.String
	if year.Valid {
		y := int(year.Int64)
		e.Year = &y
	}
	if mean.Valid {
		m := mean.Float64
		e.MeanRating = &m
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}

const insertCatalogSQL = `INSERT INTO catalog_entries (` + catalogColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func catalogArgs(e *domain.CatalogEntry) []any {
	var mean sql.NullFloat64
	if e.MeanRating != nil {
		mean = sql.NullFloat64{Float64: *e.MeanRating, Valid: true}
	}
	return []any{
		e.ID,
		e.ExternalID,
		string(e.Kind),
		e.Title,
		e.Description,
		nullString(e.PosterURL),
		nullString(e.BackdropURL),
		nullString(e.ReleaseDate),
		nullInt(e.Year),
		e.Genre,
		e.Director,
		mean,
		e.VoteAverage,
		formatTime(e.CreatedAt),
	}
}

// GetCatalogEntry returns the entry with id or store.ErrNotFound.
func (s *Store) GetCatalogEntry(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_entries WHERE id = ?`, id)
	e, err := scanCatalogEntry(row)
	if err != nil {
		return nil, classify(err)
	}
	return e, nil
}

// GetCatalogEntryByExternal looks an entry up by its (external id, kind) pair.
func (s *Store) GetCatalogEntryByExternal(ctx context.Context, externalID int64, kind domain.MediaKind) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_entries WHERE external_id = ? AND media_kind = ?`,
		externalID, string(kind))
	e, err := scanCatalogEntry(row)
	if err != nil {
		return nil, classify(err)
	}
	return e, nil
}

// GetCatalogEntriesByIDs returns the entries for ids in the order given.
func (s *Store) GetCatalogEntriesByIDs(ctx context.Context, ids []string) ([]*domain.CatalogEntry, error) {
	if len(ids) == 0 {
		return []*domain.CatalogEntry{}, nil
	}

	marks, args := placeholders(ids)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_entries WHERE id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.CatalogEntry, len(ids))
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.CatalogEntry, 0, len(byID))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateCatalogEntry inserts e. A taken (external id, kind) pair yields store.ErrAlreadyExists.
func (s *Store) CreateCatalogEntry(ctx context.Context, e *domain.CatalogEntry) error {
	_, err := s.db.ExecContext(ctx, insertCatalogSQL, catalogArgs(e)...)
	return classify(err)
}

// UpsertCatalogEntry inserts e unless its (external id, kind) pair exists,
// then returns whichever row is stored.
func (s *Store) UpsertCatalogEntry(ctx context.Context, e *domain.CatalogEntry) (*domain.CatalogEntry, bool, error) {
	res, err := s.db.ExecContext(ctx,
		insertCatalogSQL+` ON CONFLICT(external_id, media_kind) DO NOTHING`, catalogArgs(e)...)
	if err != nil {
		return nil, false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	stored, err := s.GetCatalogEntryByExternal(ctx, e.ExternalID, e.Kind)
	if err != nil {
		return nil, false, fmt.Errorf("read back catalog entry: %w", err)
	}
	return stored, n == 1, nil
}

// ListCatalogEntries filters by q and orders by mean rating (unrated last), then newest.
func (s *Store) ListCatalogEntries(ctx context.Context, q store.CatalogQuery) ([]*domain.CatalogEntry, int, error) {
	page := q.Page.Normalize()

	var (
		where []string
		args  []any
	)
	if text := strings.TrimSpace(q.Text); text != "" {
		pattern := likePattern(text)
		where = append(where,
			`(title LIKE ? ESCAPE '\' OR director LIKE ? ESCAPE '\' OR genre LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if q.Kind != "" {
		where = append(where, `media_kind = ?`)
		args = append(args, string(q.Kind))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	total, err := countRows(ctx, s.db, `SELECT COUNT(*) FROM catalog_entries`+clause, args...)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_entries`+clause+`
		ORDER BY mean_rating DESC NULLS LAST, created_at DESC
		LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]*domain.CatalogEntry, 0, page.Limit)
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// UpdateMeanRating overwrites the entry's mean rating.
func (s *Store) UpdateMeanRating(ctx context.Context, id string, mean float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE catalog_entries SET mean_rating = ? WHERE id = ?`, mean, id)
	if err != nil {
		return classify(err)
	}
	return requireOneRow(res)
}
