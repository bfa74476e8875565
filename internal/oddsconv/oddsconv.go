// Package oddsconv converte as cotações brutas da crown (handicap asiático,
// preços em milésimos) para linhas e odds decimais comparáveis entre fontes.
// Toda a aritmética é decimal; nada aqui usa float.
package oddsconv

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMarketClosed: cotação vazia, zerada ou ilegível. Não é odd zero.
var ErrMarketClosed = errors.New("market closed")

var (
	ten      = decimal.NewFromInt(10)
	eleven   = decimal.NewFromInt(11)
	thousand = decimal.NewFromInt(1000)
	twoK     = decimal.NewFromInt(2000)
	epsilon  = decimal.RequireFromString("0.0001")
)

// ConvertAsianToDecimalOdds converte o par de preços (casa, fora) em odds
// decimais com exatamente duas casas. Ex.: "150","850" → "1.15","1.85".
func ConvertAsianToDecimalOdds(homeRaw, awayRaw string) (string, string, error) {
	h, err := parseQuote(homeRaw)
	if err != nil {
		return "", "", err
	}
	a, err := parseQuote(awayRaw)
	if err != nil {
		return "", "", err
	}

	hkHome, hkAway := hongKong(h, a)
	return toDecimalOdds(hkHome), toDecimalOdds(hkAway), nil
}

// parseQuote trunca em milésimos e leva valores < 11 para a mesma unidade (×1000)
func parseQuote(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrMarketClosed
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrMarketClosed
	}
	d = d.Truncate(3)
	if d.LessThan(eleven) {
		d = d.Mul(thousand)
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrMarketClosed
	}
	return d, nil
}

// hongKong devolve o par no formato HK (milésimos, múltiplos de 10).
// Pares acima de 1000 passam pela transformação da margem.
func hongKong(h, c decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if h.LessThanOrEqual(thousand) && c.LessThanOrEqual(thousand) {
		return floor10(h), floor10(c)
	}

	line := twoK.Sub(h.Add(c))
	low, lowIsHome := h, true
	if h.GreaterThan(c) {
		low, lowIsHome = c, false
	}

	var now decimal.Decimal
	if twoK.Sub(line).Sub(low).GreaterThan(thousand) {
		now = low.Add(line).Neg()
	} else {
		now = twoK.Sub(line).Sub(low)
	}

	var high decimal.Decimal
	if now.IsNegative() {
		high = thousand.Div(now).Abs().Mul(thousand).Floor()
	} else {
		high = twoK.Sub(line).Sub(now)
	}

	if lowIsHome {
		return floor10(low), floor10(high)
	}
	return floor10(high), floor10(low)
}

func floor10(d decimal.Decimal) decimal.Decimal {
	return d.Div(ten).Add(epsilon).Floor().Mul(ten)
}

func toDecimalOdds(hk decimal.Decimal) string {
	return hk.Add(thousand).Div(thousand).Round(2).StringFixed(2)
}
