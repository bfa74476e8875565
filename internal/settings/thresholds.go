package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Duration aceita "5m", "90s" em JSON
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Comparator é ">=", "<=", ">", "<" ou "="
type Comparator string

func (c *Comparator) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch Comparator(s) {
	case ">=", "<=", ">", "<", "=":
		*c = Comparator(s)
		return nil
	}
	return fmt.Errorf("invalid comparator %q", s)
}

// Holds avalia a <c> b
func (c Comparator) Holds(a, b decimal.Decimal) bool {
	switch c {
	case ">=":
		return a.GreaterThanOrEqual(b)
	case "<=":
		return a.LessThanOrEqual(b)
	case ">":
		return a.GreaterThan(b)
	case "<":
		return a.LessThan(b)
	case "=":
		return a.Equal(b)
	}
	return false
}

// ReverseRule inverte (ou não) a aposta de um mercado específico.
// Campos vazios casam com qualquer valor.
type ReverseRule struct {
	Variety    string          `json:"variety"`
	Period     string          `json:"period"`
	Type       string          `json:"type"`
	Comparator Comparator      `json:"comparator"`
	Condition  decimal.Decimal `json:"condition"`
	Back       bool            `json:"back"`
}

func (r ReverseRule) Matches(variety, period, typ string, condition decimal.Decimal) bool {
	if r.Variety != "" && r.Variety != variety {
		return false
	}
	if r.Period != "" && r.Period != period {
		return false
	}
	if r.Type != "" && r.Type != typ {
		return false
	}
	if r.Comparator == "" {
		return true
	}
	return r.Comparator.Holds(condition, r.Condition)
}

// FilterRatio: "1/4", "1/2", "3/4" ou "1/1"
type FilterRatio string

func (f *FilterRatio) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch FilterRatio(s) {
	case "1/4", "1/2", "3/4", "1/1":
		*f = FilterRatio(s)
		return nil
	}
	return fmt.Errorf("invalid filter ratio %q", s)
}

type Thresholds struct {
	ReadyMinDelta decimal.Decimal

	FinalWindow         Duration
	FinalThreshold      decimal.Decimal
	FinalComparator     Comparator
	PromoteAdjacentLine bool
	Reverse             bool
	CornerReverse       bool
	ReverseRules        []ReverseRule
	FilterRatio         FilterRatio
	Titan007Enabled     bool

	SteamEnabled     bool
	SteamMaxDuration Duration
	SteamMinDuration Duration
	SteamMinDrop     decimal.Decimal
	SteamMaxAnomaly  decimal.Decimal
	SteamMinValue    decimal.Decimal
	SteamMatchWindow Duration
}

func Defaults() Thresholds {
	return Thresholds{
		ReadyMinDelta:    decimal.RequireFromString("0.05"),
		FinalWindow:      Duration(5 * time.Minute),
		FinalThreshold:   decimal.Zero,
		FinalComparator:  ">=",
		FilterRatio:      "1/1",
		Titan007Enabled:  true,
		SteamEnabled:     true,
		SteamMaxDuration: Duration(30 * time.Minute),
		SteamMinDuration: Duration(3 * time.Minute),
		SteamMinDrop:     decimal.RequireFromString("0.15"),
		SteamMaxAnomaly:  decimal.RequireFromString("0.30"),
		SteamMinValue:    decimal.RequireFromString("1.70"),
		SteamMatchWindow: Duration(2 * time.Hour),
	}
}

// fields liga cada chave da tabela ao campo correspondente
func fields(t *Thresholds) map[string]any {
	return map[string]any{
		"ready_min_delta":       &t.ReadyMinDelta,
		"final_window":          &t.FinalWindow,
		"final_threshold":       &t.FinalThreshold,
		"final_comparator":      &t.FinalComparator,
		"promote_adjacent_line": &t.PromoteAdjacentLine,
		"reverse":               &t.Reverse,
		"corner_reverse":        &t.CornerReverse,
		"reverse_rules":         &t.ReverseRules,
		"filter_ratio":          &t.FilterRatio,
		"titan007_enabled":      &t.Titan007Enabled,
		"steam_enabled":         &t.SteamEnabled,
		"steam_max_duration":    &t.SteamMaxDuration,
		"steam_min_duration":    &t.SteamMinDuration,
		"steam_min_drop":        &t.SteamMinDrop,
		"steam_max_anomaly":     &t.SteamMaxAnomaly,
		"steam_min_value":       &t.SteamMinValue,
		"steam_match_window":    &t.SteamMatchWindow,
	}
}

// Keys lista as chaves conhecidas (settings-seed e API)
func Keys() []string {
	var t Thresholds
	out := make([]string, 0, 17)
	for k := range fields(&t) {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
