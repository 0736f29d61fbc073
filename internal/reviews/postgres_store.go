package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// DefaultBatchSize bounds how many rows a single batched write transaction touches.
const DefaultBatchSize = 100

type PostgresStore struct {
	db        *sql.DB
	batchSize int
}

func NewPostgresStore(db *sql.DB, batchSize int) *PostgresStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PostgresStore{db: db, batchSize: batchSize}
}

const reviewColumns = `id, steam_id, game_id, coalesce(author_steam_id,''), recommended, content, timestamp_created, timestamp_updated, removed, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Review, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+reviewColumns+` FROM reviews WHERE id=$1
    `, id)
	return scanReview(row)
}

func (s *PostgresStore) FindBySteamID(ctx context.Context, steamID string) (*Review, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+reviewColumns+` FROM reviews WHERE steam_id=$1
    `, steamID)
	return scanReview(row)
}

func (s *PostgresStore) FindByGameID(ctx context.Context, gameID int64) ([]*Review, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+reviewColumns+` FROM reviews WHERE game_id=$1 AND removed=false ORDER BY timestamp_created DESC
    `, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (s *PostgresStore) FindByGameIDPaginated(ctx context.Context, gameID int64, offset, limit int) ([]*Review, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+reviewColumns+` FROM reviews WHERE game_id=$1 AND removed=false
        ORDER BY timestamp_created DESC OFFSET $2 LIMIT $3
    `, gameID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (s *PostgresStore) CountByGameID(ctx context.Context, gameID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
        SELECT count(*) FROM reviews WHERE game_id=$1 AND removed=false
    `, gameID).Scan(&n)
	return n, err
}

// BatchCreate inserts revs in chunks, one transaction per chunk. A chunk
// either applies fully or not at all; chunks are independent of each other.
func (s *PostgresStore) BatchCreate(ctx context.Context, revs []*Review) error {
	for _, chunk := range chunkReviews(revs, s.batchSize) {
		if err := s.createChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) createChunk(ctx context.Context, chunk []*Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sb strings.Builder
	sb.WriteString(`INSERT INTO reviews (steam_id, game_id, author_steam_id, recommended, content, timestamp_created, timestamp_updated, removed, created_at, updated_at) VALUES `)
	args := make([]interface{}, 0, len(chunk)*10)
	for i, r := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 10
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args,
			r.SteamID, r.GameID, nullIfEmpty(r.AuthorSteamID), r.Recommended, r.Content,
			r.TimestampCreated, nullIfZeroTime(r.TimestampUpdated), r.Removed, r.CreatedAt, r.UpdatedAt)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return classifyWriteError(err, chunk)
	}
	return tx.Commit()
}

// BatchUpdate refreshes revs keyed by steam_id, chunked like BatchCreate.
func (s *PostgresStore) BatchUpdate(ctx context.Context, revs []*Review) error {
	for _, chunk := range chunkReviews(revs, s.batchSize) {
		if err := s.updateChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) updateChunk(ctx context.Context, chunk []*Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        UPDATE reviews
        SET content=$1, recommended=$2, timestamp_updated=$3, removed=$4, updated_at=$5
        WHERE steam_id=$6
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range chunk {
		if _, err := stmt.ExecContext(ctx, r.Content, r.Recommended, nullIfZeroTime(r.TimestampUpdated), r.Removed, r.UpdatedAt, r.SteamID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MarkRemovedExcept soft-deletes every non-removed review of a game whose
// steam_id is absent from keepSteamIDs.
func (s *PostgresStore) MarkRemovedExcept(ctx context.Context, gameID int64, keepSteamIDs []string) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE reviews
        SET removed=true, updated_at=now()
        WHERE game_id=$1 AND removed=false AND NOT (steam_id = ANY($2))
    `, gameID, pq.Array(ensureSliceNotNil(keepSteamIDs)))
	return err
}

func scanReview(scanner interface{ Scan(dest ...any) error }) (*Review, error) {
	var r Review
	var updated sql.NullTime
	if err := scanner.Scan(&r.ID, &r.SteamID, &r.GameID, &r.AuthorSteamID, &r.Recommended, &r.Content,
		&r.TimestampCreated, &updated, &r.Removed, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if updated.Valid {
		r.TimestampUpdated = updated.Time
	}
	return &r, nil
}

func collectReviews(rows *sql.Rows) ([]*Review, error) {
	// Always return a non-nil slice so JSON encodes as [] instead of null
	out := make([]*Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func chunkReviews(revs []*Review, size int) [][]*Review {
	if len(revs) == 0 {
		return nil
	}
	chunks := make([][]*Review, 0, (len(revs)+size-1)/size)
	for start := 0; start < len(revs); start += size {
		end := start + size
		if end > len(revs) {
			end = len(revs)
		}
		chunks = append(chunks, revs[start:end])
	}
	return chunks
}

func classifyWriteError(err error, chunk []*Review) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		steamID := ""
		if len(chunk) > 0 {
			steamID = chunk[0].SteamID
		}
		return &DuplicateError{SteamID: steamID, Err: err}
	}
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func ensureSliceNotNil(slice []string) []string {
	if slice == nil {
		return []string{}
	}
	return slice
}
