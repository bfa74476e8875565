package events

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Market identifica uma linha de aposta: (variety, period, type, condition)
type Market struct {
	Variety   string          `json:"variety"` // "goal" | "corner"
	Period    string          `json:"period"`  // "full" | "half"
	Type      string          `json:"type"`    // "ah1" | "ah2" | "over" | "under" | "draw"
	Condition decimal.Decimal `json:"condition"`
}

// Evento publicado no tópico "surebet_signals" pelo signal-ingest
type SurebetSignal struct {
	MessageID       string          `json:"message_id"`
	MatchExternalID string          `json:"match_external_id"` // id do jogo na crown
	Market          Market          `json:"market"`
	SignalValue     decimal.Decimal `json:"signal_value"` // odd decimal cotada pelo surebet
	MatchTime       time.Time       `json:"match_time"`
	League          string          `json:"league,omitempty"`
	HomeTeam        string          `json:"home_team,omitempty"`
	AwayTeam        string          `json:"away_team,omitempty"`
	ReceivedAt      time.Time       `json:"received_at"`
}

var ErrInvalidSignal = errors.New("invalid surebet signal")

// Validate rejeita payloads que nunca vão produzir decisão (mensagem envenenada)
func (s SurebetSignal) Validate() error {
	if s.MatchExternalID == "" || s.MatchTime.IsZero() {
		return ErrInvalidSignal
	}
	if s.Market.Variety == "" || s.Market.Period == "" || s.Market.Type == "" {
		return ErrInvalidSignal
	}
	if !s.SignalValue.IsPositive() {
		return ErrInvalidSignal
	}
	return nil
}
