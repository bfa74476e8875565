package crown

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleDocument() RawMarketDocument {
	return RawMarketDocument{
		GID: "5001",
		Games: []RawGame{
			{
				GID: "5001", Strong: "H", Ratio: "0.5/1", IorRH: "0.85", IorRC: "1.05",
				RatioO: "O2.5/3", IorOUC: "0.9", IorOUH: "0.98",
			},
			{GID: "5002", PType: "角球数", Strong: "C", Ratio: "1", IorRH: "0.9", IorRC: "0.9"},
			{GID: "5003", PType: "罚牌数", Strong: "H", Ratio: "0.5", IorRH: "0.9", IorRC: "0.9"},
		},
	}
}

func TestParseDocument(t *testing.T) {
	lines := ParseDocument(sampleDocument())

	want := []model.MarketLine{
		{Variety: model.VarietyGoal, Period: model.PeriodFull, Type: model.TypeAH1, Condition: dec("-0.75"), Value: dec("1.85")},
		{Variety: model.VarietyGoal, Period: model.PeriodFull, Type: model.TypeAH2, Condition: dec("0.75"), Value: dec("2.05")},
		{Variety: model.VarietyGoal, Period: model.PeriodFull, Type: model.TypeOver, Condition: dec("2.75"), Value: dec("1.90")},
		{Variety: model.VarietyGoal, Period: model.PeriodFull, Type: model.TypeUnder, Condition: dec("2.75"), Value: dec("1.98")},
		{Variety: model.VarietyCorner, Period: model.PeriodFull, Type: model.TypeAH1, Condition: dec("1"), Value: dec("1.90")},
		{Variety: model.VarietyCorner, Period: model.PeriodFull, Type: model.TypeAH2, Condition: dec("-1"), Value: dec("1.90")},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i, w := range want {
		g := lines[i]
		if g.Variety != w.Variety || g.Period != w.Period || g.Type != w.Type ||
			!g.Condition.Equal(w.Condition) || !g.Value.Equal(w.Value) {
			t.Errorf("line %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestFindLine_ExactCondition(t *testing.T) {
	lines := ParseDocument(sampleDocument())
	if _, ok := FindLine(lines, model.VarietyGoal, model.PeriodFull, model.TypeAH1, dec("-0.750")); !ok {
		t.Error("equal condition with different scale not found")
	}
	if _, ok := FindLine(lines, model.VarietyGoal, model.PeriodFull, model.TypeAH1, dec("-0.5")); ok {
		t.Error("neighbour line returned for an absent condition")
	}
}

func TestParseFixtures(t *testing.T) {
	now := time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC)
	raw := []RawFixture{
		{GID: "1", League: " Serie A ", TeamH: "Santos", TeamC: "Bahia", Datetime: "12-31 07:30p"},
		{GID: "2", TeamH: "A", TeamC: "B", Datetime: "01-01 01:00a"},
		{GID: "3", TeamH: "C", TeamC: "D", Datetime: "garbage"},
	}
	got := ParseFixtures(raw, now, -4)
	if len(got) != 2 {
		t.Fatalf("got %d fixtures: %+v", len(got), got)
	}
	if want := time.Date(2026, 12, 31, 23, 30, 0, 0, time.UTC); !got[0].MatchTime.Equal(want) || got[0].League != "Serie A" {
		t.Errorf("fixture 1 = %+v", got[0])
	}
	// virada de ano
	if want := time.Date(2027, 1, 1, 5, 0, 0, 0, time.UTC); !got[1].MatchTime.Equal(want) {
		t.Errorf("fixture 2 time = %v, want %v", got[1].MatchTime, want)
	}
}
