// Package steam detecta queda contínua de preço numa série de snapshots da
// crown e promove a aposta no lado que está caindo.
package steam

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/oddsconv"
	"github.com/radieske/surebet-promoter/internal/settings"
)

type side int

const (
	none side = iota
	homeDown
	awayDown
)

type Params struct {
	MinDuration time.Duration
	MinDrop     decimal.Decimal
	MaxAnomaly  decimal.Decimal
	MinValue    decimal.Decimal
}

func ParamsFrom(th settings.Thresholds) Params {
	return Params{
		MinDuration: th.SteamMinDuration.Std(),
		MinDrop:     th.SteamMinDrop,
		MaxAnomaly:  th.SteamMaxAnomaly,
		MinValue:    th.SteamMinValue,
	}
}

// Trigger descreve a aposta derivada de uma sequência de queda
type Trigger struct {
	Type      string
	Condition decimal.Decimal
	Value     decimal.Decimal
	Drop      decimal.Decimal
	Start     model.CrownOdd
	End       model.CrownOdd
}

func price(c model.CrownOdd, s side) decimal.Decimal {
	if s == awayDown {
		return c.Value1
	}
	return c.Value0
}

// direction do passo prev→cur; com os dois lados caindo vence a queda maior
func direction(prev, cur model.CrownOdd) side {
	home := prev.Value0.Sub(cur.Value0)
	away := prev.Value1.Sub(cur.Value1)
	switch {
	case home.IsPositive() && home.GreaterThanOrEqual(away):
		return homeDown
	case away.IsPositive():
		return awayDown
	}
	return none
}

// Detect percorre a série em ordem cronológica. A série deve ser de um único
// bucket e já limitada à janela máxima (steam_max_duration).
func Detect(series []model.CrownOdd, p Params) (Trigger, bool) {
	if len(series) < 2 {
		return Trigger{}, false
	}
	start, dir := 0, none
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		d := direction(prev, cur)
		// subida do lado da sequência ou queda do outro lado é reversão:
		// a sequência recomeça no ponto anterior
		rose := dir != none && price(cur, dir).GreaterThan(price(prev, dir))
		if rose || (d != none && d != dir) {
			start, dir = i-1, d
		}
		if dir == none {
			continue
		}

		// queda grande demais dentro de min_duration é pico isolado
		if anomaly(series[start:i+1], dir, p) {
			start, dir = i, none
			continue
		}

		drop := price(series[start], dir).Sub(price(cur, dir))
		if drop.GreaterThanOrEqual(p.MinDrop) && price(cur, dir).GreaterThanOrEqual(p.MinValue) {
			return trigger(series[start], cur, dir, drop), true
		}
	}
	return Trigger{}, false
}

// anomaly compara o ponto atual (último) com o snapshot mais antigo da
// sequência que ainda está dentro de min_duration
func anomaly(streak []model.CrownOdd, dir side, p Params) bool {
	if p.MinDuration <= 0 || !p.MaxAnomaly.IsPositive() {
		return false
	}
	cur := streak[len(streak)-1]
	from := cur.CreatedAt.Add(-p.MinDuration)
	for _, c := range streak[:len(streak)-1] {
		if c.CreatedAt.Before(from) {
			continue
		}
		return price(c, dir).Sub(price(cur, dir)).GreaterThanOrEqual(p.MaxAnomaly)
	}
	return false
}

func trigger(start, end model.CrownOdd, dir side, drop decimal.Decimal) Trigger {
	t := Trigger{Start: start, End: end, Drop: drop, Value: price(end, dir), Condition: end.Condition}
	switch {
	case end.Kind == model.KindHandicap && dir == homeDown:
		t.Type = model.TypeAH1
	case end.Kind == model.KindHandicap:
		t.Type = model.TypeAH2
		t.Condition = oddsconv.NegateCondition(end.Condition)
	case dir == homeDown:
		t.Type = model.TypeOver
	default:
		t.Type = model.TypeUnder
	}
	return t
}
