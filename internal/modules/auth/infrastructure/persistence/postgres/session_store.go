package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/jmoiron/sqlx"
)

type storageRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// PgSessionStore keeps sessions as key/value rows of client_storage. Rows
// not written within ttl are ignored by Load; a zero ttl never expires.
type PgSessionStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

func NewSessionStore(db *sqlx.DB, ttl time.Duration) *PgSessionStore {
	return &PgSessionStore{db: db, ttl: ttl}
}

// Save upserts every session key for clientID in one transaction.
func (r *PgSessionStore) Save(ctx context.Context, clientID string, session domain.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO client_storage (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (client_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	values := session.Values()
	for _, key := range domain.SessionKeys {
		if _, err := tx.ExecContext(ctx, query, clientID, key, values[key]); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

func (r *PgSessionStore) Load(ctx context.Context, clientID string) (domain.Session, error) {
	var rows []storageRow
	query := `SELECT key, value FROM client_storage WHERE client_id = $1`
	args := []any{clientID}
	if r.ttl > 0 {
		query += ` AND updated_at > $2`
		args = append(args, time.Now().Add(-r.ttl))
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	if values[domain.KeyToken] == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return domain.SessionFromValues(values), nil
}

func (r *PgSessionStore) Clear(ctx context.Context, clientID string) error {
	query := `DELETE FROM client_storage WHERE client_id = $1`
	if _, err := r.db.ExecContext(ctx, query, clientID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
