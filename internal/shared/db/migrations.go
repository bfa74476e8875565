package db

// schemaSQL contém todas as tabelas do promoter.
// odds_unresolved_tuple garante no máximo uma Odd não resolvida por (partida, mercado).
const schemaSQL = `
CREATE TABLE IF NOT EXISTS matches (
    id              BIGSERIAL PRIMARY KEY,
    crown_id        TEXT UNIQUE,
    titan007_id     TEXT UNIQUE,
    fotmob_id       TEXT UNIQUE,
    titan007_swap   BOOLEAN NOT NULL DEFAULT FALSE,
    fotmob_swap     BOOLEAN NOT NULL DEFAULT FALSE,
    titan007_home_id TEXT,
    titan007_away_id TEXT,
    fotmob_home_id  TEXT,
    fotmob_away_id  TEXT,
    league          TEXT NOT NULL DEFAULT '',
    home_team       TEXT NOT NULL DEFAULT '',
    away_team       TEXT NOT NULL DEFAULT '',
    match_time      TIMESTAMPTZ NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    home_score      INTEGER,
    away_score      INTEGER,
    home_score_half INTEGER,
    away_score_half INTEGER,
    home_corner     INTEGER,
    away_corner     INTEGER,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_matches_time ON matches(match_time);
ALTER TABLE matches ADD COLUMN IF NOT EXISTS titan007_home_id TEXT;
ALTER TABLE matches ADD COLUMN IF NOT EXISTS titan007_away_id TEXT;
ALTER TABLE matches ADD COLUMN IF NOT EXISTS fotmob_home_id TEXT;
ALTER TABLE matches ADD COLUMN IF NOT EXISTS fotmob_away_id TEXT;

CREATE TABLE IF NOT EXISTS odds (
    id               BIGSERIAL PRIMARY KEY,
    match_id         BIGINT NOT NULL REFERENCES matches(id),
    variety          TEXT NOT NULL,
    period           TEXT NOT NULL,
    type             TEXT NOT NULL,
    condition        NUMERIC(6,2) NOT NULL,
    surebet_value    NUMERIC(8,3) NOT NULL,
    crown_value      NUMERIC(8,3),
    crown_value2     NUMERIC(8,3),
    crown_condition2 NUMERIC(6,2),
    status           TEXT NOT NULL DEFAULT '',
    ready_at         TIMESTAMPTZ,
    final_at         TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS odds_unresolved_tuple
    ON odds(match_id, variety, period, type, condition)
    WHERE status IN ('', 'ready');
CREATE INDEX IF NOT EXISTS idx_odds_status ON odds(status, match_id);

CREATE TABLE IF NOT EXISTS crown_odds (
    id          BIGSERIAL PRIMARY KEY,
    match_id    BIGINT NOT NULL REFERENCES matches(id),
    variety     TEXT NOT NULL,
    period      TEXT NOT NULL,
    kind        TEXT NOT NULL,
    condition   NUMERIC(6,2) NOT NULL,
    value0      NUMERIC(8,3) NOT NULL,
    value1      NUMERIC(8,3) NOT NULL,
    is_ignored  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_crown_odds_series ON crown_odds(match_id, variety, period, kind, created_at);

CREATE TABLE IF NOT EXISTS promoted_odds (
    id                 BIGSERIAL PRIMARY KEY,
    odd_id             BIGINT UNIQUE REFERENCES odds(id),
    match_id           BIGINT NOT NULL REFERENCES matches(id),
    channel            INTEGER NOT NULL DEFAULT 1,
    variety            TEXT NOT NULL,
    period             TEXT NOT NULL,
    kind               TEXT NOT NULL,
    type               TEXT NOT NULL,
    condition          NUMERIC(6,2) NOT NULL,
    value              NUMERIC(8,3),
    back               BOOLEAN NOT NULL DEFAULT FALSE,
    rule               TEXT NOT NULL DEFAULT '',
    is_valid           BOOLEAN NOT NULL DEFAULT FALSE,
    is_skip            BOOLEAN NOT NULL DEFAULT FALSE,
    start_crown_odd_id BIGINT REFERENCES crown_odds(id),
    end_crown_odd_id   BIGINT REFERENCES crown_odds(id),
    result             TEXT,
    score              TEXT,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    settled_at         TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS promoted_steam_bucket
    ON promoted_odds(match_id, variety, period, kind)
    WHERE channel = 2;
CREATE INDEX IF NOT EXISTS idx_promoted_created ON promoted_odds(created_at);

CREATE TABLE IF NOT EXISTS titan007_odds (
    match_id            BIGINT PRIMARY KEY REFERENCES matches(id),
    handicap_early      NUMERIC(6,2),
    handicap_late       NUMERIC(6,2),
    half_handicap_early NUMERIC(6,2),
    half_handicap_late  NUMERIC(6,2),
    goal_early          NUMERIC(6,2),
    goal_late           NUMERIC(6,2),
    half_goal_early     NUMERIC(6,2),
    half_goal_late      NUMERIC(6,2),
    corner_early        NUMERIC(6,2),
    corner_late         NUMERIC(6,2),
    corner_goal_early   NUMERIC(6,2),
    corner_goal_late    NUMERIC(6,2),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS consumed_messages (
    consumer    TEXT NOT NULL,
    message_id  TEXT NOT NULL,
    consumed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (consumer, message_id)
);

CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
