package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
)

type PostgresOdds struct{ db *sql.DB }

func NewPostgresOdds(db *sql.DB) *PostgresOdds { return &PostgresOdds{db: db} }

const oddColumns = `
	id, match_id, variety, period, type, condition, surebet_value,
	crown_value, crown_value2, crown_condition2, status, ready_at, final_at, created_at`

func scanOdd(row rowScanner) (model.Odd, error) {
	var o model.Odd
	var readyAt, finalAt sql.NullTime
	err := row.Scan(&o.ID, &o.MatchID, &o.Variety, &o.Period, &o.Type, &o.Condition, &o.SurebetValue,
		&o.CrownValue, &o.CrownValue2, &o.CrownCondition2, &o.Status, &readyAt, &finalAt, &o.CreatedAt)
	if err != nil {
		return model.Odd{}, err
	}
	if readyAt.Valid {
		o.ReadyAt = &readyAt.Time
	}
	if finalAt.Valid {
		o.FinalAt = &finalAt.Time
	}
	return o, nil
}

// Upsert resolve a corrida de criação pela unique parcial odds_unresolved_tuple:
// quem perde atualiza a linha existente. xmax = 0 só na linha recém inserida.
func (r *PostgresOdds) Upsert(ctx context.Context, o model.Odd) (model.Odd, bool, error) {
	const q = `
		INSERT INTO odds (match_id, variety, period, type, condition, surebet_value)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (match_id, variety, period, type, condition) WHERE status IN ('','ready')
		DO UPDATE SET surebet_value = EXCLUDED.surebet_value, updated_at = NOW()
		RETURNING ` + oddColumns + `, (xmax = 0) AS inserted
	`
	row := r.db.QueryRowContext(ctx, q, o.MatchID, o.Variety, o.Period, o.Type, o.Condition, o.SurebetValue)

	var out model.Odd
	var readyAt, finalAt sql.NullTime
	var inserted bool
	err := row.Scan(&out.ID, &out.MatchID, &out.Variety, &out.Period, &out.Type, &out.Condition, &out.SurebetValue,
		&out.CrownValue, &out.CrownValue2, &out.CrownCondition2, &out.Status, &readyAt, &finalAt, &out.CreatedAt,
		&inserted)
	if err != nil {
		return model.Odd{}, false, fmt.Errorf("upsert odd match=%d: %w", o.MatchID, err)
	}
	if readyAt.Valid {
		out.ReadyAt = &readyAt.Time
	}
	if finalAt.Valid {
		out.FinalAt = &finalAt.Time
	}
	return out, inserted, nil
}

func (r *PostgresOdds) Get(ctx context.Context, id int64) (model.Odd, error) {
	o, err := scanOdd(r.db.QueryRowContext(ctx, `SELECT `+oddColumns+` FROM odds WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	return o, err
}

func (r *PostgresOdds) ListByMatch(ctx context.Context, matchID int64, statuses ...string) ([]model.Odd, error) {
	if len(statuses) == 0 {
		return r.list(ctx, `SELECT `+oddColumns+` FROM odds WHERE match_id=$1 ORDER BY id`, matchID)
	}
	return r.list(ctx, `SELECT `+oddColumns+` FROM odds WHERE match_id=$1 AND status = ANY($2) ORDER BY id`,
		matchID, pq.Array(statuses))
}

func (r *PostgresOdds) ListUnset(ctx context.Context, now time.Time, limit int) ([]model.Odd, error) {
	return r.list(ctx, `
		SELECT `+oddColumns+` FROM odds o
		WHERE o.status = ''
		  AND EXISTS (SELECT 1 FROM matches m WHERE m.id = o.match_id AND m.match_time > $1)
		ORDER BY o.id
		LIMIT $2`, now, limit)
}

func (r *PostgresOdds) MarkReady(ctx context.Context, id int64, crownValue decimal.Decimal, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE odds SET status='ready', crown_value=$2, ready_at=$3, updated_at=NOW()
		WHERE id=$1 AND status=''`, id, crownValue, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresOdds) Finish(ctx context.Context, id int64, from, to string, f FinalRead) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE odds SET status=$3, crown_value2=$4, crown_condition2=$5, final_at=$6, updated_at=NOW()
		WHERE id=$1 AND status=$2`, id, from, to, f.Value, f.Condition, f.At)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresOdds) list(ctx context.Context, q string, args ...any) ([]model.Odd, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Odd
	for rows.Next() {
		o, err := scanOdd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
