package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromotedBroadcast é o payload do Redis Pub/Sub lido pelo hub websocket da API
type PromotedBroadcast struct {
	PromotedOddID int64           `json:"promoted_odd_id"`
	MatchID       int64           `json:"match_id"`
	Channel       int             `json:"channel"`
	League        string          `json:"league,omitempty"`
	HomeTeam      string          `json:"home_team"`
	AwayTeam      string          `json:"away_team"`
	MatchTime     time.Time       `json:"match_time"`
	Variety       string          `json:"variety"`
	Period        string          `json:"period"`
	Type          string          `json:"type"`
	Condition     decimal.Decimal `json:"condition"`
	Value         decimal.Decimal `json:"value"`
	Rule          string          `json:"rule"`
	Ts            time.Time       `json:"ts"`
}
