// Package model contém as entidades do promoter. Sem dependência de
// banco: os repositórios em internal/storage fazem o mapeamento.
package model

// Variety: mercado de gols ou de escanteios
const (
	VarietyGoal   = "goal"
	VarietyCorner = "corner"
)

// Period: tempo inteiro ou primeiro tempo
const (
	PeriodFull = "full"
	PeriodHalf = "half"
)

// Type de uma linha. ah1/ah2 = handicap asiático casa/fora.
const (
	TypeAH1   = "ah1"
	TypeAH2   = "ah2"
	TypeOver  = "over"
	TypeUnder = "under"
	TypeDraw  = "draw"
)

// Kind agrupa os dois lados de um mesmo mercado
const (
	KindHandicap = "handicap"
	KindGoal     = "goal"
	KindDraw     = "draw"
)

// KindOf retorna o mercado de um type (ah1 e ah2 são ambos handicap)
func KindOf(typ string) string {
	switch typ {
	case TypeAH1, TypeAH2:
		return KindHandicap
	case TypeOver, TypeUnder:
		return KindGoal
	default:
		return KindDraw
	}
}

// Opposite retorna o outro lado do mercado; draw não tem oposto
func Opposite(typ string) string {
	switch typ {
	case TypeAH1:
		return TypeAH2
	case TypeAH2:
		return TypeAH1
	case TypeOver:
		return TypeUnder
	case TypeUnder:
		return TypeOver
	}
	return typ
}

func ValidVariety(v string) bool { return v == VarietyGoal || v == VarietyCorner }

func ValidPeriod(p string) bool { return p == PeriodFull || p == PeriodHalf }

func ValidType(t string) bool {
	switch t {
	case TypeAH1, TypeAH2, TypeOver, TypeUnder, TypeDraw:
		return true
	}
	return false
}
