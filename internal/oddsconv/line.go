package oddsconv

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeHandicapLine lê linhas como "0.5", "0.5/1" ou "0 / 0.5".
// Linha dividida vira a média das duas metades. Quando a casa é o lado
// forte o sinal é invertido: positivo = casa recebe, negativo = casa dá.
func NormalizeHandicapLine(raw string, homeStrong bool) (decimal.Decimal, error) {
	d, err := averageLine(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if homeStrong {
		d = d.Neg()
	}
	return d, nil
}

// NormalizeGoalLine faz o mesmo para over/under, sem inversão de sinal.
// Aceita os prefixos "O", "U", "大" e "小".
func NormalizeGoalLine(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	for _, p := range []string{"O", "U", "o", "u", "大", "小"} {
		raw = strings.TrimPrefix(raw, p)
	}
	return averageLine(raw)
}

func averageLine(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrMarketClosed
	}

	negative := false
	switch raw[0] {
	case '-':
		negative = true
		raw = raw[1:]
	case '+':
		raw = raw[1:]
	}

	parts := strings.Split(raw, "/")
	if len(parts) > 2 {
		return decimal.Zero, ErrMarketClosed
	}
	sum := decimal.Zero
	for _, p := range parts {
		v, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil || v.IsNegative() {
			return decimal.Zero, ErrMarketClosed
		}
		sum = sum.Add(v)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(parts)))).Round(2)
	if negative {
		avg = avg.Neg()
	}
	return avg, nil
}

// SplitQuarter divide uma linha de quarto (.25/.75) nas duas metades
// vizinhas. Linhas inteiras ou de meio voltam como uma única linha.
func SplitQuarter(line decimal.Decimal) []decimal.Decimal {
	quarter := decimal.RequireFromString("0.25")
	frac := line.Abs().Mod(decimal.RequireFromString("0.5"))
	if !frac.Equal(quarter) {
		return []decimal.Decimal{line}
	}
	return []decimal.Decimal{line.Sub(quarter), line.Add(quarter)}
}

// NegateCondition espelha a linha para o lado oposto do handicap
func NegateCondition(d decimal.Decimal) decimal.Decimal {
	return d.Neg()
}

// FormatCondition: forma canônica com duas casas ("0.00", "-0.75")
func FormatCondition(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
