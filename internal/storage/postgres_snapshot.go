package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/radieske/surebet-promoter/internal/model"
)

// PostgresSnapshots persiste a série crown_odds usada pelo detector de steam
type PostgresSnapshots struct{ db *sql.DB }

func NewPostgresSnapshots(db *sql.DB) *PostgresSnapshots { return &PostgresSnapshots{db: db} }

const snapshotColumns = `id, match_id, variety, period, kind, condition, value0, value1, is_ignored, created_at`

func scanSnapshot(row rowScanner) (model.CrownOdd, error) {
	var c model.CrownOdd
	err := row.Scan(&c.ID, &c.MatchID, &c.Variety, &c.Period, &c.Kind, &c.Condition,
		&c.Value0, &c.Value1, &c.IsIgnored, &c.CreatedAt)
	return c, err
}

func (r *PostgresSnapshots) Latest(ctx context.Context, b Bucket) (model.CrownOdd, error) {
	c, err := scanSnapshot(r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM crown_odds
		WHERE match_id=$1 AND variety=$2 AND period=$3 AND kind=$4 AND NOT is_ignored
		ORDER BY id DESC LIMIT 1`, b.MatchID, b.Variety, b.Period, b.Kind))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (r *PostgresSnapshots) Append(ctx context.Context, c *model.CrownOdd) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO crown_odds (match_id, variety, period, kind, condition, value0, value1, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		c.MatchID, c.Variety, c.Period, c.Kind, c.Condition, c.Value0, c.Value1, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *PostgresSnapshots) IgnoreBefore(ctx context.Context, b Bucket, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE crown_odds SET is_ignored = TRUE
		WHERE match_id=$1 AND variety=$2 AND period=$3 AND kind=$4 AND id < $5 AND NOT is_ignored`,
		b.MatchID, b.Variety, b.Period, b.Kind, id)
	return err
}

func (r *PostgresSnapshots) Series(ctx context.Context, b Bucket, since time.Time) ([]model.CrownOdd, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM crown_odds
		WHERE match_id=$1 AND variety=$2 AND period=$3 AND kind=$4 AND NOT is_ignored AND created_at >= $5
		ORDER BY created_at, id`, b.MatchID, b.Variety, b.Period, b.Kind, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CrownOdd
	for rows.Next() {
		c, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
