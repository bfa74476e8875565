package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/radieske/surebet-promoter/internal/model"
)

type PostgresPromoted struct{ db *sql.DB }

func NewPostgresPromoted(db *sql.DB) *PostgresPromoted { return &PostgresPromoted{db: db} }

const promotedColumns = `
	id, odd_id, match_id, channel, variety, period, kind, type, condition, value,
	back, rule, is_valid, is_skip, start_crown_odd_id, end_crown_odd_id,
	COALESCE(result,''), COALESCE(score,''), created_at, settled_at`

func scanPromoted(row rowScanner) (model.PromotedOdd, error) {
	var p model.PromotedOdd
	var oddID, startID, endID sql.NullInt64
	var settled sql.NullTime
	err := row.Scan(&p.ID, &oddID, &p.MatchID, &p.Channel, &p.Variety, &p.Period, &p.Kind, &p.Type,
		&p.Condition, &p.Value, &p.Back, &p.Rule, &p.IsValid, &p.IsSkip, &startID, &endID,
		&p.Result, &p.Score, &p.CreatedAt, &settled)
	if err != nil {
		return model.PromotedOdd{}, err
	}
	p.OddID = nullInt(oddID)
	p.StartCrownOddID = nullInt(startID)
	p.EndCrownOddID = nullInt(endID)
	if settled.Valid {
		p.SettledAt = &settled.Time
	}
	return p, nil
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// Create usa ON CONFLICT DO NOTHING: odd_id e promoted_steam_bucket são únicos,
// então entregas repetidas não duplicam a promoção
func (r *PostgresPromoted) Create(ctx context.Context, p *model.PromotedOdd) (bool, error) {
	const q = `
		INSERT INTO promoted_odds
		  (odd_id, match_id, channel, variety, period, kind, type, condition, value,
		   back, rule, is_valid, is_skip, start_crown_odd_id, end_crown_odd_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, q,
		p.OddID, p.MatchID, p.Channel, p.Variety, p.Period, p.Kind, p.Type, p.Condition, p.Value,
		p.Back, p.Rule, p.IsValid, p.IsSkip, p.StartCrownOddID, p.EndCrownOddID,
	).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PostgresPromoted) Get(ctx context.Context, id int64) (model.PromotedOdd, error) {
	p, err := scanPromoted(r.db.QueryRowContext(ctx, `SELECT `+promotedColumns+` FROM promoted_odds WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (r *PostgresPromoted) ListByMatch(ctx context.Context, matchID int64) ([]model.PromotedOdd, error) {
	return r.list(ctx, `SELECT `+promotedColumns+` FROM promoted_odds WHERE match_id=$1 ORDER BY id`, matchID)
}

func (r *PostgresPromoted) ListBetween(ctx context.Context, from, to time.Time) ([]model.PromotedOdd, error) {
	return r.list(ctx, `
		SELECT `+promotedColumns+` FROM promoted_odds
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY id`, from, to)
}

func (r *PostgresPromoted) CountNonSkipSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM promoted_odds
		WHERE channel = 1 AND NOT is_skip AND created_at >= $1`, since).Scan(&n)
	return n, err
}

func (r *PostgresPromoted) ExistsSteam(ctx context.Context, matchID int64, variety, period, kind string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM promoted_odds
		  WHERE channel = 2 AND match_id=$1 AND variety=$2 AND period=$3 AND kind=$4)`,
		matchID, variety, period, kind).Scan(&ok)
	return ok, err
}

func (r *PostgresPromoted) ListUnsettled(ctx context.Context, matchID int64) ([]model.PromotedOdd, error) {
	return r.list(ctx, `
		SELECT `+promotedColumns+` FROM promoted_odds
		WHERE match_id=$1 AND result IS NULL
		ORDER BY id`, matchID)
}

// Settle só grava uma vez; reprocessar a mesma partida não sobrescreve
func (r *PostgresPromoted) Settle(ctx context.Context, id int64, result, score string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE promoted_odds SET result=$2, score=$3, settled_at=$4
		WHERE id=$1 AND result IS NULL`, id, result, score, at)
	return err
}

func (r *PostgresPromoted) list(ctx context.Context, q string, args ...any) ([]model.PromotedOdd, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PromotedOdd
	for rows.Next() {
		p, err := scanPromoted(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
