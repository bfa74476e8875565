// Package settlement apura as recomendações depois do fim da partida.
package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/oddsconv"
)

type Result string

const (
	Win      Result = "win"
	HalfWin  Result = "half_win"
	Push     Result = "push"
	HalfLose Result = "half_lose"
	Lose     Result = "lose"
)

// Settle apura uma aposta contra o placar (casa, fora) do mercado.
// Linhas de quarto são divididas em duas metades apuradas separadamente.
func Settle(typ string, condition decimal.Decimal, home, away int) Result {
	if typ == model.TypeDraw {
		if home == away {
			return Win
		}
		return Lose
	}
	parts := oddsconv.SplitQuarter(condition)
	if len(parts) == 1 {
		return single(typ, parts[0], home, away)
	}
	return combine(single(typ, parts[0], home, away), single(typ, parts[1], home, away))
}

func single(typ string, line decimal.Decimal, home, away int) Result {
	h, a := decimal.NewFromInt(int64(home)), decimal.NewFromInt(int64(away))
	var margin decimal.Decimal
	switch typ {
	case model.TypeAH1:
		margin = h.Sub(a).Add(line)
	case model.TypeAH2:
		margin = a.Sub(h).Add(line)
	case model.TypeOver:
		margin = h.Add(a).Sub(line)
	case model.TypeUnder:
		margin = line.Sub(h.Add(a))
	default:
		return Push
	}
	switch margin.Sign() {
	case 1:
		return Win
	case -1:
		return Lose
	}
	return Push
}

func combine(a, b Result) Result {
	switch {
	case a == b:
		return a
	case a == Win || b == Win:
		return HalfWin
	}
	return HalfLose
}
