// Package cache keeps a local SQLite copy of the tracked series list so a
// session can show the last known list before the remote fetch completes.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/listenup-tracker/internal/domain"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a series is not cached.
var ErrNotFound = errors.New("cache: series not found")

// seriesColumns must match the scan order in scanSeries.
const seriesColumns = `user_id, media_id, item_type, subtype, service, title, status,
	progress, total_length, start_date, end_date, poster_image_url, rating`

// Store is the SQLite-backed series cache.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open creates or opens the cache database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanSeries(scanner interface{ Scan(dest ...any) error }) (domain.Series, error) {
	var (
		series    domain.Series
		subtype   string
		startDate sql.NullString
		endDate   sql.NullString
		poster    sql.NullString
	)

	err := scanner.Scan(
		&series.UserID,
		&series.ID,
		&series.Type,
		&subtype,
		&series.Service,
		&series.Title,
		&series.Status,
		&series.Progress,
		&series.TotalLength,
		&startDate,
		&endDate,
		&poster,
		&series.Rating,
	)
	if err != nil {
		return domain.Series{}, err
	}

	series.Subtype = domain.ParseSubtype(subtype)
	if startDate.Valid {
		series.StartDate = domain.Date(startDate.String)
	}
	if endDate.Valid {
		series.EndDate = domain.Date(endDate.String)
	}
	if poster.Valid {
		series.PosterImageURL = poster.String
	}
	return series, nil
}

// ListSeries returns every cached series in remote order.
func (s *Store) ListSeries(ctx context.Context) ([]domain.Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+seriesColumns+` FROM series ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []domain.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, series)
	}
	return out, rows.Err()
}

// GetSeries returns the cached series with the given library entry id.
func (s *Store) GetSeries(ctx context.Context, userID int) (domain.Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE user_id = ?`, userID)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Series{}, ErrNotFound
	}
	if err != nil {
		return domain.Series{}, fmt.Errorf("get series %d: %w", userID, err)
	}
	return series, nil
}

// ReplaceSeries atomically swaps the cached list for series.
func (s *Store) ReplaceSeries(ctx context.Context, series []domain.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM series`); err != nil {
		return fmt.Errorf("clear series: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(time.RFC3339Nano)
	for i, item := range series {
		if _, err := stmt.ExecContext(ctx, upsertArgs(item, i, now)...); err != nil {
			return fmt.Errorf("insert series %d: %w", item.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("series cache replaced", "count", len(series))
	return nil
}

// UpsertSeries stores a single series, keeping its list position when it
// is already cached and appending it otherwise.
func (s *Store) UpsertSeries(ctx context.Context, series domain.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRowContext(ctx, `SELECT position FROM series WHERE user_id = ?`, series.UserID).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM series`).Scan(&position)
	}
	if err != nil {
		return fmt.Errorf("resolve position: %w", err)
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, upsertSQL, upsertArgs(series, position, now)...); err != nil {
		return fmt.Errorf("upsert series %d: %w", series.UserID, err)
	}
	return tx.Commit()
}

// TrackedMediaIDs returns the media ids of the given type present in the cache.
func (s *Store) TrackedMediaIDs(ctx context.Context, itemType domain.ItemType) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT media_id FROM series WHERE item_type = ?`, itemType)
	if err != nil {
		return nil, fmt.Errorf("query tracked ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tracked id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Count returns the number of cached series.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count series: %w", err)
	}
	return n, nil
}

const upsertSQL = `
	INSERT INTO series (
		user_id, media_id, item_type, subtype, service, title, status,
		progress, total_length, start_date, end_date, poster_image_url, rating,
		position, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		media_id = excluded.media_id,
		item_type = excluded.item_type,
		subtype = excluded.subtype,
		service = excluded.service,
		title = excluded.title,
		status = excluded.status,
		progress = excluded.progress,
		total_length = excluded.total_length,
		start_date = excluded.start_date,
		end_date = excluded.end_date,
		poster_image_url = excluded.poster_image_url,
		rating = excluded.rating,
		position = excluded.position,
		updated_at = excluded.updated_at`

func upsertArgs(s domain.Series, position int, now string) []any {
	service := s.Service
	if !service.Valid() {
		service = domain.ServiceKitsu
	}
	return []any{
		s.UserID,
		s.ID,
		s.Type,
		string(s.Subtype),
		service,
		s.Title,
		s.Status,
		s.Progress,
		s.TotalLength,
		nullString(string(s.StartDate)),
		nullString(string(s.EndDate)),
		nullString(s.PosterImageURL),
		s.Rating,
		position,
		now,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
