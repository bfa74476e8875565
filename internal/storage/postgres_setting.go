package storage

import (
	"context"
	"database/sql"

	"github.com/radieske/surebet-promoter/internal/model"
)

type PostgresSettings struct{ db *sql.DB }

func NewPostgresSettings(db *sql.DB) *PostgresSettings { return &PostgresSettings{db: db} }

func (r *PostgresSettings) All(ctx context.Context) ([]model.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Setting
	for rows.Next() {
		var s model.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresSettings) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, key, value)
	return err
}
