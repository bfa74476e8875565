package promotion

import (
	"sort"

	"github.com/radieske/surebet-promoter/internal/model"
)

type groupKey struct {
	variety, period, key string
}

// Resolve aplica as regras de conflito de uma partida e separa as decisões
// que sobrevivem das descartadas:
//  1. direções opostas no mesmo (variety, period, kind): fica a direção da
//     decisão de maior odd id (sinal mais recente);
//  2. várias no mesmo (variety, period, type): fica só a linha mais fácil
//     (maior condição para ah1/ah2/under, menor para over; empate → maior id).
//
// O resultado não depende da ordem de entrada.
func Resolve(in []Decision) (kept, dropped []Decision) {
	ds := append([]Decision(nil), in...)
	sort.Slice(ds, func(i, j int) bool { return ds[i].OddID < ds[j].OddID })

	// 1. direção vencedora por kind
	winner := map[groupKey]Decision{}
	for _, d := range ds {
		k := groupKey{d.Variety, d.Period, d.Kind()}
		if cur, ok := winner[k]; !ok || d.OddID > cur.OddID {
			winner[k] = d
		}
	}
	var directed []Decision
	for _, d := range ds {
		if w := winner[groupKey{d.Variety, d.Period, d.Kind()}]; w.Type == d.Type {
			directed = append(directed, d)
		} else {
			dropped = append(dropped, d)
		}
	}

	// 2. linha mais fácil por type
	best := map[groupKey]Decision{}
	for _, d := range directed {
		k := groupKey{d.Variety, d.Period, d.Type}
		if cur, ok := best[k]; !ok || easier(d, cur) {
			best[k] = d
		}
	}
	for _, d := range directed {
		if best[groupKey{d.Variety, d.Period, d.Type}].OddID == d.OddID {
			kept = append(kept, d)
		} else {
			dropped = append(dropped, d)
		}
	}

	sort.Slice(dropped, func(i, j int) bool { return dropped[i].OddID < dropped[j].OddID })
	return kept, dropped
}

func easier(a, b Decision) bool {
	if a.Condition.Equal(b.Condition) {
		return a.OddID > b.OddID
	}
	if a.Type == model.TypeOver {
		return a.Condition.LessThan(b.Condition)
	}
	return a.Condition.GreaterThan(b.Condition)
}

// conflictsWithPromoted: já existe recomendação visível ou filtrada para o
// mesmo mercado da partida (qualquer direção)
func conflictsWithPromoted(d Decision, existing []model.PromotedOdd) bool {
	for _, p := range existing {
		if p.Channel != model.ChannelSurebet || p.IsSkip {
			continue
		}
		// registro da própria odd: retomada de uma promoção interrompida
		if p.OddID != nil && *p.OddID == d.OddID {
			continue
		}
		if p.Variety == d.Variety && p.Period == d.Period && p.Kind == d.Kind() {
			return true
		}
	}
	return false
}
