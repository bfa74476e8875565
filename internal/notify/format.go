// Package notify entrega as recomendações visíveis no Telegram e no Redis Pub/Sub.
package notify

import (
	"fmt"
	"strings"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/oddsconv"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

var typeLabel = map[string]string{
	model.TypeAH1:   "Home",
	model.TypeAH2:   "Away",
	model.TypeOver:  "Over",
	model.TypeUnder: "Under",
	model.TypeDraw:  "Draw",
}

func marketLabel(variety, period string) string {
	parts := []string{}
	if variety == model.VarietyCorner {
		parts = append(parts, "Corners")
	}
	if period == model.PeriodHalf {
		parts = append(parts, "1st half")
	} else {
		parts = append(parts, "Full time")
	}
	return strings.Join(parts, " ")
}

// FormatMessage monta o texto Markdown do Telegram
func FormatMessage(p model.PromotedOdd, m model.Match) string {
	var b strings.Builder
	source := "surebet"
	if p.Channel == model.ChannelSteam {
		source = "steam"
	}
	fmt.Fprintf(&b, "*%s vs %s*\n", m.HomeTeam, m.AwayTeam)
	if m.League != "" {
		fmt.Fprintf(&b, "%s\n", m.League)
	}
	fmt.Fprintf(&b, "Kickoff: %s UTC\n", m.MatchTime.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%s: *%s %s*", marketLabel(p.Variety, p.Period), typeLabel[p.Type], oddsconv.FormatCondition(p.Condition))
	if p.Value.Valid {
		fmt.Fprintf(&b, " @ %s", p.Value.Decimal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n_%s / %s_", source, p.Rule)
	return b.String()
}

// BroadcastOf monta o payload do Pub/Sub
func BroadcastOf(p model.PromotedOdd, m model.Match) events.PromotedBroadcast {
	return events.PromotedBroadcast{
		PromotedOddID: p.ID,
		MatchID:       m.ID,
		Channel:       p.Channel,
		League:        m.League,
		HomeTeam:      m.HomeTeam,
		AwayTeam:      m.AwayTeam,
		MatchTime:     m.MatchTime,
		Variety:       p.Variety,
		Period:        p.Period,
		Type:          p.Type,
		Condition:     p.Condition,
		Value:         p.Value.Decimal,
		Rule:          p.Rule,
		Ts:            p.CreatedAt,
	}
}
