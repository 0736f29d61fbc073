package games

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

const gameColumns = `id, app_id, coalesce(name,''), created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+gameColumns+` FROM games WHERE id=$1
    `, id)
	return scanGame(row)
}

func (s *PostgresStore) FindByAppID(ctx context.Context, appID int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+gameColumns+` FROM games WHERE app_id=$1
    `, appID)
	return scanGame(row)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*Game, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+gameColumns+` FROM games ORDER BY id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, g *Game) error {
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO games (app_id, name, created_at, updated_at)
        VALUES ($1, $2, now(), now())
        RETURNING id, created_at, updated_at
    `, g.AppID, nullIfEmpty(g.Name)).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return &DuplicateError{AppID: g.AppID, Err: err}
		}
		return err
	}
	return nil
}

func scanGame(scanner interface{ Scan(dest ...any) error }) (*Game, error) {
	var g Game
	if err := scanner.Scan(&g.ID, &g.AppID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
