// Package ingest lê o feed websocket do surebet e publica cada sinal no Kafka.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/oddsconv"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// FeedItem é uma oportunidade como chega do feed, com a linha em texto
// ("-0.5/1", "O2.5") e a odd decimal do surebet.
type FeedItem struct {
	MatchID   string          `json:"match_id"`
	League    string          `json:"league"`
	Home      string          `json:"home"`
	Away      string          `json:"away"`
	StartTime time.Time       `json:"start_time"`
	Variety   string          `json:"variety"`
	Period    string          `json:"period"`
	Type      string          `json:"type"`
	Line      string          `json:"line"`
	Odds      decimal.Decimal `json:"odds"`
}

// decodeFrame aceita um item ou um lote de itens por frame
func decodeFrame(frame []byte) ([]FeedItem, error) {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 {
		return nil, nil
	}
	if frame[0] == '[' {
		var items []FeedItem
		err := json.Unmarshal(frame, &items)
		return items, err
	}
	var it FeedItem
	if err := json.Unmarshal(frame, &it); err != nil {
		return nil, err
	}
	return []FeedItem{it}, nil
}

// ToSignal normaliza a linha e monta o evento validado
func (it FeedItem) ToSignal(receivedAt time.Time) (events.SurebetSignal, error) {
	if !model.ValidVariety(it.Variety) || !model.ValidPeriod(it.Period) || !model.ValidType(it.Type) {
		return events.SurebetSignal{}, fmt.Errorf("%w: market %s/%s/%s", events.ErrInvalidSignal, it.Variety, it.Period, it.Type)
	}

	var cond decimal.Decimal
	var err error
	switch model.KindOf(it.Type) {
	case model.KindHandicap:
		cond, err = oddsconv.NormalizeHandicapLine(it.Line, false)
	case model.KindGoal:
		cond, err = oddsconv.NormalizeGoalLine(it.Line)
	}
	if err != nil {
		return events.SurebetSignal{}, fmt.Errorf("%w: line %q", events.ErrInvalidSignal, it.Line)
	}

	sig := events.SurebetSignal{
		MessageID:       uuid.NewString(),
		MatchExternalID: it.MatchID,
		Market:          events.Market{Variety: it.Variety, Period: it.Period, Type: it.Type, Condition: cond},
		SignalValue:     it.Odds,
		MatchTime:       it.StartTime,
		League:          it.League,
		HomeTeam:        it.Home,
		AwayTeam:        it.Away,
		ReceivedAt:      receivedAt,
	}
	if err := sig.Validate(); err != nil {
		return events.SurebetSignal{}, err
	}
	return sig, nil
}
