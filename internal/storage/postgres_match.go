package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/surebet-promoter/internal/model"
)

type PostgresMatches struct{ db *sql.DB }

func NewPostgresMatches(db *sql.DB) *PostgresMatches { return &PostgresMatches{db: db} }

const matchColumns = `
	id, COALESCE(crown_id,''), COALESCE(titan007_id,''), COALESCE(fotmob_id,''),
	titan007_swap, fotmob_swap,
	COALESCE(titan007_home_id,''), COALESCE(titan007_away_id,''),
	COALESCE(fotmob_home_id,''), COALESCE(fotmob_away_id,''), league, home_team, away_team, match_time, status,
	home_score, away_score, home_score_half, away_score_half, home_corner, away_corner, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (model.Match, error) {
	var m model.Match
	var hs, as, hh, ah, hc, ac sql.NullInt64
	err := row.Scan(&m.ID, &m.CrownID, &m.Titan007ID, &m.FotmobID,
		&m.Titan007Swap, &m.FotmobSwap,
		&m.Titan007HomeID, &m.Titan007AwayID, &m.FotmobHomeID, &m.FotmobAwayID, &m.League, &m.HomeTeam, &m.AwayTeam, &m.MatchTime, &m.Status,
		&hs, &as, &hh, &ah, &hc, &ac, &m.CreatedAt)
	if err != nil {
		return model.Match{}, err
	}
	if hs.Valid && as.Valid {
		m.Score = &model.ScoreRecord{
			HomeScore: int(hs.Int64), AwayScore: int(as.Int64),
			HomeScoreHalf: int(hh.Int64), AwayScoreHalf: int(ah.Int64),
			HomeCorner: int(hc.Int64), AwayCorner: int(ac.Int64),
		}
	}
	return m, nil
}

// UpsertByCrownID usa ON CONFLICT para que descoberta e estágio 1 possam
// criar a mesma partida ao mesmo tempo sem duplicar
func (r *PostgresMatches) UpsertByCrownID(ctx context.Context, m model.Match) (int64, error) {
	const q = `
		INSERT INTO matches (crown_id, league, home_team, away_team, match_time)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (crown_id) DO UPDATE SET
		  league     = COALESCE(NULLIF(EXCLUDED.league,''), matches.league),
		  home_team  = COALESCE(NULLIF(EXCLUDED.home_team,''), matches.home_team),
		  away_team  = COALESCE(NULLIF(EXCLUDED.away_team,''), matches.away_team),
		  match_time = EXCLUDED.match_time,
		  updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, q, m.CrownID, m.League, m.HomeTeam, m.AwayTeam, m.MatchTime).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert match %s: %w", m.CrownID, err)
	}
	return id, nil
}

func (r *PostgresMatches) Get(ctx context.Context, id int64) (model.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

func (r *PostgresMatches) GetByCrownID(ctx context.Context, crownID string) (model.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE crown_id=$1`, crownID))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// Swap e ids de time só são gravados junto com o id: depois de vinculado não muda mais
func (r *PostgresMatches) LinkTitan007(ctx context.Context, id int64, l ExternalLink) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE matches SET titan007_id=$2, titan007_swap=$3,
		  titan007_home_id=NULLIF($4,''), titan007_away_id=NULLIF($5,''), updated_at=NOW()
		WHERE id=$1 AND titan007_id IS NULL`, id, l.MatchID, l.Swap, l.HomeTeamID, l.AwayTeamID)
	return err
}

func (r *PostgresMatches) LinkFotmob(ctx context.Context, id int64, l ExternalLink) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE matches SET fotmob_id=$2, fotmob_swap=$3,
		  fotmob_home_id=NULLIF($4,''), fotmob_away_id=NULLIF($5,''), updated_at=NOW()
		WHERE id=$1 AND fotmob_id IS NULL`, id, l.MatchID, l.Swap, l.HomeTeamID, l.AwayTeamID)
	return err
}

// teamIDQuery: id mais recente do time na fonte, jogando em casa ou fora.
// %s é o prefixo da coluna (titan007, fotmob).
const teamIDQuery = `
	SELECT id FROM (
	  SELECT %[1]s_home_id AS id, updated_at FROM matches WHERE home_team=$1 AND %[1]s_home_id IS NOT NULL
	  UNION ALL
	  SELECT %[1]s_away_id AS id, updated_at FROM matches WHERE away_team=$1 AND %[1]s_away_id IS NOT NULL
	) t ORDER BY updated_at DESC LIMIT 1`

func (r *PostgresMatches) KnownTeamIDs(ctx context.Context, source, home, away string) (string, string, error) {
	if source != SourceTitan007 && source != SourceFotmob {
		return "", "", fmt.Errorf("unknown source %q", source)
	}
	q := fmt.Sprintf(teamIDQuery, source)
	lookup := func(team string) (string, error) {
		var id string
		err := r.db.QueryRowContext(ctx, q, team).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return id, err
	}
	h, err := lookup(home)
	if err != nil {
		return "", "", fmt.Errorf("known %s id for %s: %w", source, home, err)
	}
	a, err := lookup(away)
	if err != nil {
		return "", "", fmt.Errorf("known %s id for %s: %w", source, away, err)
	}
	return h, a, nil
}

func (r *PostgresMatches) ListWithOpenOdds(ctx context.Context, from, to time.Time) ([]model.Match, error) {
	return r.list(ctx, `
		SELECT `+matchColumns+` FROM matches m
		WHERE match_time >= $1 AND match_time < $2
		  AND EXISTS (SELECT 1 FROM odds o WHERE o.match_id = m.id AND o.status IN ('','ready'))
		ORDER BY match_time`, from, to)
}

func (r *PostgresMatches) ListKickoffBetween(ctx context.Context, from, to time.Time) ([]model.Match, error) {
	return r.list(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE match_time >= $1 AND match_time < $2
		ORDER BY match_time`, from, to)
}

func (r *PostgresMatches) ListToSettle(ctx context.Context, before time.Time) ([]model.Match, error) {
	return r.list(ctx, `
		SELECT `+matchColumns+` FROM matches m
		WHERE match_time < $1
		  AND EXISTS (SELECT 1 FROM promoted_odds p WHERE p.match_id = m.id AND p.result IS NULL)
		ORDER BY match_time`, before)
}

func (r *PostgresMatches) SaveScore(ctx context.Context, id int64, s model.ScoreRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE matches SET
		  home_score=$2, away_score=$3, home_score_half=$4, away_score_half=$5,
		  home_corner=$6, away_corner=$7, status='final', updated_at=NOW()
		WHERE id=$1`,
		id, s.HomeScore, s.AwayScore, s.HomeScoreHalf, s.AwayScoreHalf, s.HomeCorner, s.AwayCorner)
	return err
}

func (r *PostgresMatches) list(ctx context.Context, q string, args ...any) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
