package promotion

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/settings"
)

func decision(id int64, typ, cond string) Decision {
	return Decision{OddID: id, MatchID: 1, Variety: model.VarietyGoal, Period: model.PeriodFull, Type: typ, Condition: dec(cond)}
}

func ids(ds []Decision) []int64 {
	var out []int64
	for _, d := range ds {
		out = append(out, d.OddID)
	}
	return out
}

func TestResolve_LaterSignalWinsOppositeDirections(t *testing.T) {
	a := decision(5, model.TypeAH1, "-0.5")
	b := decision(9, model.TypeAH2, "0.5")

	for _, in := range [][]Decision{{a, b}, {b, a}} {
		kept, dropped := Resolve(in)
		if len(kept) != 1 || kept[0].OddID != 9 {
			t.Errorf("kept = %v, want [9]", ids(kept))
		}
		if len(dropped) != 1 || dropped[0].OddID != 5 {
			t.Errorf("dropped = %v, want [5]", ids(dropped))
		}
	}
}

func TestResolve_EasiestLinePerType(t *testing.T) {
	tests := []struct {
		name string
		in   []Decision
		want int64
	}{
		{"ah1 largest", []Decision{decision(1, model.TypeAH1, "-0.5"), decision(2, model.TypeAH1, "-0.25")}, 2},
		{"ah2 largest", []Decision{decision(3, model.TypeAH2, "0.75"), decision(4, model.TypeAH2, "0.25")}, 3},
		{"under largest", []Decision{decision(5, model.TypeUnder, "2.5"), decision(6, model.TypeUnder, "2.75")}, 6},
		{"over smallest", []Decision{decision(8, model.TypeOver, "2.75"), decision(7, model.TypeOver, "2.5")}, 7},
		{"tie goes to later", []Decision{decision(10, model.TypeOver, "2.5"), decision(9, model.TypeOver, "2.50")}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, _ := Resolve(tt.in)
			if len(kept) != 1 || kept[0].OddID != tt.want {
				t.Errorf("kept = %v, want [%d]", ids(kept), tt.want)
			}
		})
	}
}

func TestResolve_IndependentBuckets(t *testing.T) {
	in := []Decision{
		decision(1, model.TypeAH1, "-0.5"),
		decision(2, model.TypeOver, "2.5"),
		{OddID: 3, Variety: model.VarietyCorner, Period: model.PeriodFull, Type: model.TypeAH2, Condition: dec("1")},
	}
	kept, dropped := Resolve(in)
	if len(kept) != 3 || len(dropped) != 0 {
		t.Errorf("kept = %v dropped = %v", ids(kept), ids(dropped))
	}
}

func TestConflictsWithPromoted(t *testing.T) {
	d := decision(4, model.TypeAH1, "-0.5")
	existing := []model.PromotedOdd{
		{Channel: model.ChannelSurebet, Variety: "goal", Period: "full", Kind: model.KindGoal},
		{Channel: model.ChannelSurebet, Variety: "goal", Period: "full", Kind: model.KindHandicap, IsSkip: true},
		{Channel: model.ChannelSteam, Variety: "goal", Period: "full", Kind: model.KindHandicap},
	}
	if conflictsWithPromoted(d, existing) {
		t.Error("skip and steam records must not block")
	}
	existing = append(existing, model.PromotedOdd{Channel: model.ChannelSurebet, Variety: "goal", Period: "full", Kind: model.KindHandicap})
	if !conflictsWithPromoted(d, existing) {
		t.Error("earlier handicap promotion should block")
	}
}

func TestVisible_Ratios(t *testing.T) {
	tests := []struct {
		ratio settings.FilterRatio
		want  int
	}{
		{"1/4", 25},
		{"1/2", 50},
		{"3/4", 75},
		{"1/1", 100},
	}
	for _, tt := range tests {
		n := 0
		for i := 0; i < 100; i++ {
			if Visible(tt.ratio, i) {
				n++
				if tt.ratio == "1/4" && i%4 != 0 {
					t.Errorf("1/4 showed position %d", i)
				}
			}
		}
		if n != tt.want {
			t.Errorf("%s: %d visible, want %d", tt.ratio, n, tt.want)
		}
	}
}

func TestApplyBack(t *testing.T) {
	tests := []struct {
		typ, cond    string
		back         bool
		wantTyp, cnd string
	}{
		{model.TypeAH1, "-0.75", true, model.TypeAH2, "0.75"},
		{model.TypeAH2, "0.25", true, model.TypeAH1, "-0.25"},
		{model.TypeOver, "2.5", true, model.TypeUnder, "2.5"},
		{model.TypeUnder, "3", true, model.TypeOver, "3"},
		{model.TypeAH1, "-0.75", false, model.TypeAH1, "-0.75"},
	}
	for _, tt := range tests {
		typ, cond := ApplyBack(tt.typ, dec(tt.cond), tt.back)
		if typ != tt.wantTyp || !cond.Equal(dec(tt.cnd)) {
			t.Errorf("ApplyBack(%s %s %v) = %s %s", tt.typ, tt.cond, tt.back, typ, cond)
		}
	}
}

func TestResolveBack_Precedence(t *testing.T) {
	th := settings.Defaults()
	th.Reverse = true
	th.CornerReverse = false
	th.ReverseRules = []settings.ReverseRule{
		{Variety: model.VarietyGoal, Type: model.TypeOver, Comparator: ">=", Condition: dec("3"), Back: false},
	}

	if !ResolveBack(th, model.VarietyGoal, model.PeriodFull, model.TypeAH1, dec("-0.5")) {
		t.Error("global reverse not applied")
	}
	if ResolveBack(th, model.VarietyCorner, model.PeriodFull, model.TypeAH1, dec("-0.5")) {
		t.Error("corner flag should override global")
	}
	if ResolveBack(th, model.VarietyGoal, model.PeriodFull, model.TypeOver, dec("3.25")) {
		t.Error("rule table should override flags")
	}
	if !ResolveBack(th, model.VarietyGoal, model.PeriodFull, model.TypeOver, dec("2.5")) {
		t.Error("rule should not match below its condition")
	}
}

func TestTrendBack(t *testing.T) {
	moved := func(early, late string) model.Line {
		return model.Line{Early: decimal.NewNullDecimal(dec(early)), Late: decimal.NewNullDecimal(dec(late))}
	}
	tests := []struct {
		line     model.Line
		typ      string
		wantBack bool
		wantOK   bool
	}{
		{moved("-0.5", "-0.75"), model.TypeAH1, true, true},
		{moved("-0.5", "-0.75"), model.TypeAH2, false, true},
		{moved("-0.5", "-0.25"), model.TypeAH2, true, true},
		{moved("2.5", "2.75"), model.TypeOver, true, true},
		{moved("2.5", "2.25"), model.TypeUnder, true, true},
		{moved("2.5", "2.5"), model.TypeOver, false, false},
		{model.Line{Early: decimal.NewNullDecimal(dec("1"))}, model.TypeAH1, false, false},
	}
	for i, tt := range tests {
		back, ok := TrendBack(tt.line, tt.typ)
		if back != tt.wantBack || ok != tt.wantOK {
			t.Errorf("case %d: TrendBack = (%v, %v), want (%v, %v)", i, back, ok, tt.wantBack, tt.wantOK)
		}
	}
}

func TestAdjacentLine(t *testing.T) {
	lines := []model.MarketLine{
		line("goal", "full", "ah1", "-1", "1.70"),
		line("goal", "full", "ah1", "0", "2.20"),
		line("goal", "full", "ah1", "-0.25", "2.00"),
		line("goal", "full", "over", "2.25", "1.80"),
		line("goal", "full", "over", "3", "2.30"),
		line("goal", "full", "over", "2", "1.60"),
	}

	got, ok := AdjacentLine(lines, "goal", "full", "ah1", dec("-0.5"))
	if !ok || !got.Condition.Equal(dec("-0.25")) {
		t.Errorf("ah1 adjacent = %v %v, want -0.25", got.Condition, ok)
	}
	got, ok = AdjacentLine(lines, "goal", "full", "over", dec("2.5"))
	if !ok || !got.Condition.Equal(dec("2.25")) {
		t.Errorf("over adjacent = %v %v, want 2.25", got.Condition, ok)
	}
	if _, ok := AdjacentLine(lines, "goal", "full", "ah1", dec("0")); ok {
		t.Error("no line beyond 0 for ah1")
	}
}
