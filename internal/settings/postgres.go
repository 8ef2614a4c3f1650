package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps settings in the admin_settings table.
type PostgresStore struct {
	db querier
}

// NewPostgresStore wraps a pgx pool or connection.
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

const getSettingsSQL = `SELECT setting_key, setting_value FROM admin_settings WHERE setting_key = ANY($1)`

// GetMany returns the stored values for the requested keys. Absent keys are
// simply missing from the map.
func (s *PostgresStore) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	rows, err := s.db.Query(ctx, getSettingsSQL, keys)
	if err != nil {
		return nil, fmt.Errorf("query admin settings: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan admin setting: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

const upsertSettingSQL = `
INSERT INTO admin_settings (setting_key, setting_value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = now()`

// Upsert writes a single key.
func (s *PostgresStore) Upsert(ctx context.Context, key, value string) error {
	if _, err := s.db.Exec(ctx, upsertSettingSQL, key, value); err != nil {
		return fmt.Errorf("upsert admin setting %s: %w", key, err)
	}
	return nil
}
