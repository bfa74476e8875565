// Package storage define um repositório por entidade e as implementações
// Postgres usadas pelos serviços.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
)

var ErrNotFound = errors.New("not found")

// Fontes externas vinculadas às partidas
const (
	SourceTitan007 = "titan007"
	SourceFotmob   = "fotmob"
)

// ExternalLink é o resultado do matcher para uma fonte
type ExternalLink struct {
	MatchID    string
	HomeTeamID string
	AwayTeamID string
	Swap       bool
}

type MatchRepo interface {
	// UpsertByCrownID cria a partida ou atualiza nomes e horário; devolve o id
	UpsertByCrownID(ctx context.Context, m model.Match) (int64, error)
	Get(ctx context.Context, id int64) (model.Match, error)
	GetByCrownID(ctx context.Context, crownID string) (model.Match, error)
	// LinkTitan007/LinkFotmob só gravam se o id da fonte ainda não existe
	LinkTitan007(ctx context.Context, id int64, l ExternalLink) error
	LinkFotmob(ctx context.Context, id int64, l ExternalLink) error
	// KnownTeamIDs devolve os ids de time gravados em vínculos anteriores da
	// fonte para os nomes locais; vazio quando o time nunca foi vinculado
	KnownTeamIDs(ctx context.Context, source, home, away string) (homeID, awayID string, err error)
	// ListWithOpenOdds: partidas com odds unset/ready e início em [from, to)
	ListWithOpenOdds(ctx context.Context, from, to time.Time) ([]model.Match, error)
	ListKickoffBetween(ctx context.Context, from, to time.Time) ([]model.Match, error)
	// ListToSettle: partidas pendentes iniciadas antes de before com promoções sem resultado
	ListToSettle(ctx context.Context, before time.Time) ([]model.Match, error)
	SaveScore(ctx context.Context, id int64, s model.ScoreRecord) error
}

type OddRepo interface {
	// Upsert é idempotente: a mesma tupla não resolvida nunca gera duas linhas.
	// created=false quando a linha já existia (surebet_value é atualizado).
	Upsert(ctx context.Context, o model.Odd) (out model.Odd, created bool, err error)
	Get(ctx context.Context, id int64) (model.Odd, error)
	ListByMatch(ctx context.Context, matchID int64, statuses ...string) ([]model.Odd, error)
	// ListUnset: odds sem decisão de partidas que ainda não começaram
	ListUnset(ctx context.Context, now time.Time, limit int) ([]model.Odd, error)
	MarkReady(ctx context.Context, id int64, crownValue decimal.Decimal, at time.Time) (bool, error)
	// Finish move a odd de from para to guardando a segunda leitura da crown.
	// Devolve false se a odd não estava mais em from.
	Finish(ctx context.Context, id int64, from, to string, f FinalRead) (bool, error)
}

// FinalRead é a leitura da crown no estágio 2
type FinalRead struct {
	Value     decimal.NullDecimal
	Condition decimal.NullDecimal
	At        time.Time
}

type PromotedRepo interface {
	// Create grava uma vez por odd (canal 1) ou por bucket (canal 2).
	// created=false quando já existia.
	Create(ctx context.Context, p *model.PromotedOdd) (created bool, err error)
	Get(ctx context.Context, id int64) (model.PromotedOdd, error)
	ListByMatch(ctx context.Context, matchID int64) ([]model.PromotedOdd, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.PromotedOdd, error)
	// CountNonSkipSince conta decisões do canal surebet não marcadas como skip
	CountNonSkipSince(ctx context.Context, since time.Time) (int, error)
	ExistsSteam(ctx context.Context, matchID int64, variety, period, kind string) (bool, error)
	ListUnsettled(ctx context.Context, matchID int64) ([]model.PromotedOdd, error)
	Settle(ctx context.Context, id int64, result, score string, at time.Time) error
}

// Bucket identifica uma série de snapshots
type Bucket struct {
	MatchID int64
	Variety string
	Period  string
	Kind    string
}

type SnapshotRepo interface {
	Latest(ctx context.Context, b Bucket) (model.CrownOdd, error)
	Append(ctx context.Context, c *model.CrownOdd) error
	// IgnoreBefore marca como ignorados os snapshots do bucket anteriores a id
	IgnoreBefore(ctx context.Context, b Bucket, id int64) error
	Series(ctx context.Context, b Bucket, since time.Time) ([]model.CrownOdd, error)
}

type TrendRepo interface {
	Upsert(ctx context.Context, w model.TrendWindow) error
	Get(ctx context.Context, matchID int64) (model.TrendWindow, error)
}

// MessageRepo registra mensagens já consumidas, por consumidor
type MessageRepo interface {
	// Claim devolve false quando a mensagem já foi vista (redelivery)
	Claim(ctx context.Context, consumer, messageID string) (bool, error)
}

type SettingRepo interface {
	All(ctx context.Context) ([]model.Setting, error)
	Put(ctx context.Context, key, value string) error
}

// BucketOf monta o bucket de um snapshot
func BucketOf(c model.CrownOdd) Bucket {
	return Bucket{MatchID: c.MatchID, Variety: c.Variety, Period: c.Period, Kind: c.Kind}
}
