package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/radieske/surebet-promoter/internal/model"
)

type PostgresTrends struct{ db *sql.DB }

func NewPostgresTrends(db *sql.DB) *PostgresTrends { return &PostgresTrends{db: db} }

// Upsert mantém uma linha por partida
func (r *PostgresTrends) Upsert(ctx context.Context, w model.TrendWindow) error {
	const q = `
		INSERT INTO titan007_odds
		  (match_id, handicap_early, handicap_late, half_handicap_early, half_handicap_late,
		   goal_early, goal_late, half_goal_early, half_goal_late,
		   corner_early, corner_late, corner_goal_early, corner_goal_late, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
		ON CONFLICT (match_id) DO UPDATE SET
		  handicap_early      = EXCLUDED.handicap_early,
		  handicap_late       = EXCLUDED.handicap_late,
		  half_handicap_early = EXCLUDED.half_handicap_early,
		  half_handicap_late  = EXCLUDED.half_handicap_late,
		  goal_early          = EXCLUDED.goal_early,
		  goal_late           = EXCLUDED.goal_late,
		  half_goal_early     = EXCLUDED.half_goal_early,
		  half_goal_late      = EXCLUDED.half_goal_late,
		  corner_early        = EXCLUDED.corner_early,
		  corner_late         = EXCLUDED.corner_late,
		  corner_goal_early   = EXCLUDED.corner_goal_early,
		  corner_goal_late    = EXCLUDED.corner_goal_late,
		  updated_at          = NOW()
	`
	_, err := r.db.ExecContext(ctx, q, w.MatchID,
		w.Handicap.Early, w.Handicap.Late, w.HalfHandicap.Early, w.HalfHandicap.Late,
		w.Goal.Early, w.Goal.Late, w.HalfGoal.Early, w.HalfGoal.Late,
		w.Corner.Early, w.Corner.Late, w.CornerGoal.Early, w.CornerGoal.Late,
	)
	return err
}

func (r *PostgresTrends) Get(ctx context.Context, matchID int64) (model.TrendWindow, error) {
	var w model.TrendWindow
	err := r.db.QueryRowContext(ctx, `
		SELECT match_id, handicap_early, handicap_late, half_handicap_early, half_handicap_late,
		       goal_early, goal_late, half_goal_early, half_goal_late,
		       corner_early, corner_late, corner_goal_early, corner_goal_late, updated_at
		FROM titan007_odds WHERE match_id=$1`, matchID).Scan(&w.MatchID,
		&w.Handicap.Early, &w.Handicap.Late, &w.HalfHandicap.Early, &w.HalfHandicap.Late,
		&w.Goal.Early, &w.Goal.Late, &w.HalfGoal.Early, &w.HalfGoal.Late,
		&w.Corner.Early, &w.Corner.Late, &w.CornerGoal.Early, &w.CornerGoal.Late, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return w, ErrNotFound
	}
	return w, err
}
