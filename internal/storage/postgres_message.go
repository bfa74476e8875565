package storage

import (
	"context"
	"database/sql"
)

type PostgresMessages struct{ db *sql.DB }

func NewPostgresMessages(db *sql.DB) *PostgresMessages { return &PostgresMessages{db: db} }

func (r *PostgresMessages) Claim(ctx context.Context, consumer, messageID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO consumed_messages (consumer, message_id) VALUES ($1,$2)
		ON CONFLICT DO NOTHING`, consumer, messageID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
