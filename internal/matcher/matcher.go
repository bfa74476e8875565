// Package matcher encontra, numa lista de jogos de uma fonte externa
// (titan007, fotmob), o jogo que corresponde a uma partida local.
package matcher

import (
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Script define a normalização de nomes da fonte
type Script int

const (
	Latin Script = iota // remove tudo que não é letra
	CJK                 // remove trechos entre parênteses e espaços
)

const DefaultWindow = 15 * time.Minute

// Local é a partida já conhecida, com ids externos quando existirem
type Local struct {
	Kickoff time.Time
	Home    string
	Away    string
	HomeID  string
	AwayID  string
}

type Team struct {
	ID    string
	Short string
	Long  string
}

type Candidate struct {
	ID      string
	Kickoff time.Time
	Home    Team
	Away    Team
	State   string
}

// Result traz os ids externos já orientados pela partida local
type Result struct {
	MatchID    string
	HomeTeamID string
	AwayTeamID string
	State      string
	Swap       bool
}

type Matcher struct {
	Script Script
	Window time.Duration
}

func New(script Script) Matcher {
	return Matcher{Script: script, Window: DefaultWindow}
}

type tier func(m Matcher, local Local, home, away Team) bool

// Ordem estrita: exato, fuzzy no nome longo, fuzzy no nome curto.
var tiers = []tier{exactTier, longTier, shortTier}

// Match devolve o primeiro candidato que casar, tier a tier, primeiro na
// ordem casa/fora da fonte e depois com casa/fora invertidos (Swap=true).
// Dentro de um tier vence o primeiro candidato na ordem da lista.
func (m Matcher) Match(local Local, candidates []Candidate) (Result, bool) {
	window := m.Window
	if window <= 0 {
		window = DefaultWindow
	}

	inWindow := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if absDuration(c.Kickoff.Sub(local.Kickoff)) <= window {
			inWindow = append(inWindow, c)
		}
	}

	for _, swap := range []bool{false, true} {
		for _, t := range tiers {
			for _, c := range inWindow {
				home, away := c.Home, c.Away
				if swap {
					home, away = away, home
				}
				if t(m, local, home, away) {
					return Result{
						MatchID:    c.ID,
						HomeTeamID: home.ID,
						AwayTeamID: away.ID,
						State:      c.State,
						Swap:       swap,
					}, true
				}
			}
		}
	}
	return Result{}, false
}

// exactTier: id já gravado ou nome normalizado igual ao curto ou ao longo
func exactTier(m Matcher, local Local, home, away Team) bool {
	if local.HomeID != "" && local.HomeID == home.ID {
		return true
	}
	if local.AwayID != "" && local.AwayID == away.ID {
		return true
	}
	return m.sameName(local.Home, home) || m.sameName(local.Away, away)
}

func longTier(m Matcher, local Local, home, away Team) bool {
	return m.close(local.Home, home.Long) || m.close(local.Away, away.Long)
}

func shortTier(m Matcher, local Local, home, away Team) bool {
	return m.close(local.Home, home.Short) || m.close(local.Away, away.Short)
}

func (m Matcher) sameName(name string, t Team) bool {
	n := m.Normalize(name)
	if n == "" {
		return false
	}
	return n == m.Normalize(t.Short) || n == m.Normalize(t.Long)
}

func (m Matcher) close(a, b string) bool {
	na, nb := m.Normalize(a), m.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return levenshtein.ComputeDistance(na, nb) <= Tolerance(na, nb)
}

// Tolerance = clamp(floor(min(len)/3), 1, 2), contando runas
func Tolerance(a, b string) int {
	n := min(len([]rune(a)), len([]rune(b)))
	return max(1, min(n/3, 2))
}

// Normalize aplica a regra de nomes do Script
func (m Matcher) Normalize(s string) string {
	if m.Script == CJK {
		return normalizeCJK(s)
	}
	return normalizeLatin(s)
}

func normalizeLatin(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func normalizeCJK(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(' || r == '（':
			depth++
		case r == ')' || r == '）':
			if depth > 0 {
				depth--
			}
		case depth > 0 || unicode.IsSpace(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
