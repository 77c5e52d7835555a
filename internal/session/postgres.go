package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists sessions in a single table, one row per
// session id.
type PostgresStore struct {
	db *sql.DB
}

// ConnectPostgres opens and pings a PostgreSQL connection.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS gateway_sessions (
			id         TEXT PRIMARY KEY,
			token      TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			role       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (ps *PostgresStore) Save(ctx context.Context, sess *Session) error {
	now := time.Now()
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO gateway_sessions (id, token, user_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET token = EXCLUDED.token,
		     user_id = EXCLUDED.user_id,
		     role = EXCLUDED.role,
		     updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.Token, sess.UserID, sess.Role, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (ps *PostgresStore) Load(ctx context.Context, id string) (*Session, bool, error) {
	var sess Session
	err := ps.db.QueryRowContext(ctx,
		`SELECT id, token, user_id, role, created_at, updated_at
		 FROM gateway_sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.Role, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session %s: %w", id, err)
	}
	return &sess, true, nil
}

func (ps *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := ps.db.ExecContext(ctx, `DELETE FROM gateway_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
