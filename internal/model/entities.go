package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status de uma Match
const (
	MatchPending = "pending"
	MatchFinal   = "final"
)

// Status de uma Odd: "" → ready → promoted|ignored ; "" → final
const (
	OddUnset    = ""
	OddReady    = "ready"
	OddPromoted = "promoted"
	OddIgnored  = "ignored"
	OddFinal    = "final"
)

// Canal de origem de uma PromotedOdd
const (
	ChannelSurebet = 1
	ChannelSteam   = 2
)

type Match struct {
	ID           int64
	CrownID      string
	Titan007ID   string
	FotmobID     string
	Titan007Swap bool
	FotmobSwap   bool
	// ids dos times na fonte, orientados pela partida local
	Titan007HomeID string
	Titan007AwayID string
	FotmobHomeID   string
	FotmobAwayID   string
	League       string
	HomeTeam     string
	AwayTeam     string
	MatchTime    time.Time
	Status       string
	Score        *ScoreRecord
	CreatedAt    time.Time
}

// Started indica se a partida já começou em now
func (m Match) Started(now time.Time) bool { return !now.Before(m.MatchTime) }

type Odd struct {
	ID              int64
	MatchID         int64
	Variety         string
	Period          string
	Type            string
	Condition       decimal.Decimal
	SurebetValue    decimal.Decimal
	CrownValue      decimal.NullDecimal
	CrownValue2     decimal.NullDecimal
	CrownCondition2 decimal.NullDecimal
	Status          string
	ReadyAt         *time.Time
	FinalAt         *time.Time
	CreatedAt       time.Time
}

type PromotedOdd struct {
	ID              int64
	OddID           *int64 // nil quando veio do steam
	MatchID         int64
	Channel         int
	Variety         string
	Period          string
	Kind            string
	Type            string
	Condition       decimal.Decimal
	Value           decimal.NullDecimal
	Back            bool
	Rule            string
	IsValid         bool
	IsSkip          bool
	StartCrownOddID *int64
	EndCrownOddID   *int64
	Result          string
	Score           string
	CreatedAt       time.Time
	SettledAt       *time.Time
}

// CrownOdd é um snapshot da linha corrente da crown para um mercado.
// Value0 é o preço da casa (ou over), Value1 o de fora (ou under).
type CrownOdd struct {
	ID        int64
	MatchID   int64
	Variety   string
	Period    string
	Kind      string
	Condition decimal.Decimal
	Value0    decimal.Decimal
	Value1    decimal.Decimal
	IsIgnored bool
	CreatedAt time.Time
}

// SameQuote compara linha e preços: snapshots iguais não são gravados
func (c CrownOdd) SameQuote(o CrownOdd) bool {
	return c.Condition.Equal(o.Condition) && c.Value0.Equal(o.Value0) && c.Value1.Equal(o.Value1)
}

// Line é uma linha (inicial ou final) de um bucket do titan007
type Line struct {
	Early decimal.NullDecimal
	Late  decimal.NullDecimal
}

// Moved indica que a linha inicial e a final existem e diferem
func (l Line) Moved() bool {
	return l.Early.Valid && l.Late.Valid && !l.Early.Decimal.Equal(l.Late.Decimal)
}

// TrendWindow guarda a linha inicial e final do titan007 para os seis buckets
type TrendWindow struct {
	MatchID      int64
	Handicap     Line
	HalfHandicap Line
	Goal         Line
	HalfGoal     Line
	Corner       Line
	CornerGoal   Line
	UpdatedAt    time.Time
}

// Bucket retorna a linha do mercado (variety, period, kind).
// Escanteios do primeiro tempo não têm bucket.
func (w TrendWindow) Bucket(variety, period, kind string) (Line, bool) {
	switch {
	case variety == VarietyGoal && period == PeriodFull && kind == KindHandicap:
		return w.Handicap, true
	case variety == VarietyGoal && period == PeriodHalf && kind == KindHandicap:
		return w.HalfHandicap, true
	case variety == VarietyGoal && period == PeriodFull && kind == KindGoal:
		return w.Goal, true
	case variety == VarietyGoal && period == PeriodHalf && kind == KindGoal:
		return w.HalfGoal, true
	case variety == VarietyCorner && period == PeriodFull && kind == KindHandicap:
		return w.Corner, true
	case variety == VarietyCorner && period == PeriodFull && kind == KindGoal:
		return w.CornerGoal, true
	}
	return Line{}, false
}

// ScoreRecord é o placar final já orientado pela partida local
type ScoreRecord struct {
	HomeScore     int
	AwayScore     int
	HomeScoreHalf int
	AwayScoreHalf int
	HomeCorner    int
	AwayCorner    int
}

// Swapped devolve o placar com casa e fora trocados
func (s ScoreRecord) Swapped() ScoreRecord {
	return ScoreRecord{
		HomeScore: s.AwayScore, AwayScore: s.HomeScore,
		HomeScoreHalf: s.AwayScoreHalf, AwayScoreHalf: s.HomeScoreHalf,
		HomeCorner: s.AwayCorner, AwayCorner: s.HomeCorner,
	}
}

// For retorna (casa, fora) para a variety e o period
func (s ScoreRecord) For(variety, period string) (int, int) {
	if variety == VarietyCorner {
		return s.HomeCorner, s.AwayCorner
	}
	if period == PeriodHalf {
		return s.HomeScoreHalf, s.AwayScoreHalf
	}
	return s.HomeScore, s.AwayScore
}

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// MarketLine é uma linha da crown já convertida para odds decimais
type MarketLine struct {
	Variety   string
	Period    string
	Type      string
	Condition decimal.Decimal
	Value     decimal.Decimal
}

// Fixture é um jogo listado pela crown
type Fixture struct {
	CrownID   string
	League    string
	HomeTeam  string
	AwayTeam  string
	MatchTime time.Time
}
