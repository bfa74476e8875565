// Package promotion implementa o pipeline de promoção de odds:
// estágio 1 (ready), estágio 2 (final), resolução de conflitos e amostragem.
package promotion

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/oddsconv"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/storage"
)

// Regras que produziram uma decisão
const (
	RuleTrend    = "trend"
	RuleExact    = "exact"
	RuleAdjacent = "adjacent"
	RuleSkip     = "skip"
	RuleConflict = "conflict"
)

// Decision é o resultado do estágio 2 para uma odd aceita.
// Type e Condition já estão na direção final (depois do back).
type Decision struct {
	OddID     int64
	MatchID   int64
	Variety   string
	Period    string
	Type      string
	Condition decimal.Decimal
	Value     decimal.NullDecimal
	Back      bool
	Rule      string
	Read      storage.FinalRead
}

func (d Decision) Kind() string { return model.KindOf(d.Type) }

// ApplyBack inverte a direção: ah1 ↔ ah2 com linha negada, over ↔ under na mesma linha
func ApplyBack(typ string, condition decimal.Decimal, back bool) (string, decimal.Decimal) {
	if !back {
		return typ, condition
	}
	switch typ {
	case model.TypeAH1, model.TypeAH2:
		return model.Opposite(typ), oddsconv.NegateCondition(condition)
	case model.TypeOver, model.TypeUnder:
		return model.Opposite(typ), condition
	}
	return typ, condition
}

// ResolveBack decide o back fora do caminho de tendência:
// tabela de regras, depois flag de escanteio, depois flag global.
func ResolveBack(th settings.Thresholds, variety, period, typ string, condition decimal.Decimal) bool {
	for _, r := range th.ReverseRules {
		if r.Matches(variety, period, typ, condition) {
			return r.Back
		}
	}
	if variety == model.VarietyCorner {
		return th.CornerReverse
	}
	return th.Reverse
}

// TrendBack deriva o back da linha do titan007. ok=false quando a linha não mudou.
// Handicap negativo = casa dá: linha descendo puxa para a casa e inverte ah1;
// subindo inverte ah2. Gols subindo invertem over; descendo invertem under.
func TrendBack(line model.Line, typ string) (back bool, ok bool) {
	if !line.Moved() {
		return false, false
	}
	early, late := line.Early.Decimal, line.Late.Decimal
	switch typ {
	case model.TypeAH1:
		return late.LessThan(early), true
	case model.TypeAH2:
		return late.GreaterThan(early), true
	case model.TypeOver:
		return late.GreaterThan(early), true
	case model.TypeUnder:
		return late.LessThan(early), true
	}
	return false, false
}

// AdjacentLine escolhe a linha vizinha quando a condição exata sumiu:
// crescente para ah1/under, decrescente para os demais, a primeira
// estritamente além da condição original.
func AdjacentLine(lines []model.MarketLine, variety, period, typ string, condition decimal.Decimal) (model.MarketLine, bool) {
	var same []model.MarketLine
	for _, l := range lines {
		if l.Variety == variety && l.Period == period && l.Type == typ {
			same = append(same, l)
		}
	}
	ascending := typ == model.TypeAH1 || typ == model.TypeUnder
	sort.SliceStable(same, func(i, j int) bool {
		if ascending {
			return same[i].Condition.LessThan(same[j].Condition)
		}
		return same[i].Condition.GreaterThan(same[j].Condition)
	})
	for _, l := range same {
		if ascending && l.Condition.GreaterThan(condition) {
			return l, true
		}
		if !ascending && l.Condition.LessThan(condition) {
			return l, true
		}
	}
	return model.MarketLine{}, false
}
