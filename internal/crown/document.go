package crown

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/oddsconv"
)

// RawMarketDocument é o JSON devolvido pela página de odds de uma partida.
// Cada game é um conjunto de linhas (principal, alternativas, escanteios).
type RawMarketDocument struct {
	GID   string    `json:"gid"`
	Games []RawGame `json:"games"`
}

type RawGame struct {
	GID     string `json:"gid"`
	PType   string `json:"ptype"`
	Strong  string `json:"strong"`
	HStrong string `json:"hstrong"`
	Ratio   string `json:"ratio"`
	HRatio  string `json:"hratio"`
	IorRH   string `json:"ior_RH"`
	IorRC   string `json:"ior_RC"`
	IorHRH  string `json:"ior_HRH"`
	IorHRC  string `json:"ior_HRC"`
	RatioO  string `json:"ratio_o"`
	RatioHO string `json:"ratio_ho"`
	IorOUC  string `json:"ior_OUC"`
	IorOUH  string `json:"ior_OUH"`
	IorHOUC string `json:"ior_HOUC"`
	IorHOUH string `json:"ior_HOUH"`
}

type RawFixture struct {
	GID      string `json:"gid"`
	League   string `json:"league"`
	TeamH    string `json:"team_h"`
	TeamC    string `json:"team_c"`
	Datetime string `json:"datetime"` // "10-14 07:30p", no fuso da crown
}

const cornerPType = "角球数"

// Quote é um mercado completo: Home/Away são os preços da casa/fora no
// handicap, ou over/under no mercado de gols.
type Quote struct {
	Variety   string
	Period    string
	Kind      string
	Condition decimal.Decimal
	Home      decimal.Decimal
	Away      decimal.Decimal
}

// ParseQuotes converte os games do documento, na ordem em que aparecem.
// Mercados fechados ou ilegíveis são pulados.
func ParseQuotes(doc RawMarketDocument) []Quote {
	var out []Quote
	for _, g := range doc.Games {
		variety := model.VarietyGoal
		if strings.Contains(g.PType, cornerPType) {
			variety = model.VarietyCorner
		} else if g.PType != "" {
			// outros sub-mercados (cartões, bookings) não são acompanhados
			continue
		}
		markets := []struct {
			period, kind, line, strong, home, away string
		}{
			{model.PeriodFull, model.KindHandicap, g.Ratio, g.Strong, g.IorRH, g.IorRC},
			{model.PeriodHalf, model.KindHandicap, g.HRatio, g.HStrong, g.IorHRH, g.IorHRC},
			{model.PeriodFull, model.KindGoal, g.RatioO, "", g.IorOUC, g.IorOUH},
			{model.PeriodHalf, model.KindGoal, g.RatioHO, "", g.IorHOUC, g.IorHOUH},
		}
		for _, m := range markets {
			q, ok := parseQuote(variety, m.period, m.kind, m.line, m.strong, m.home, m.away)
			if ok {
				out = append(out, q)
			}
		}
	}
	return out
}

func parseQuote(variety, period, kind, line, strong, homeRaw, awayRaw string) (Quote, bool) {
	var cond decimal.Decimal
	var err error
	if kind == model.KindHandicap {
		cond, err = oddsconv.NormalizeHandicapLine(line, strong == "H")
	} else {
		cond, err = oddsconv.NormalizeGoalLine(line)
	}
	if err != nil {
		return Quote{}, false
	}
	h, a, err := oddsconv.ConvertAsianToDecimalOdds(homeRaw, awayRaw)
	if err != nil {
		return Quote{}, false
	}
	return Quote{
		Variety:   variety,
		Period:    period,
		Kind:      kind,
		Condition: cond,
		Home:      decimal.RequireFromString(h),
		Away:      decimal.RequireFromString(a),
	}, true
}

// Lines abre a cotação nas duas linhas apostáveis:
// handicap → ah1 (linha, preço casa) e ah2 (linha negada, preço fora);
// gols → over e under na mesma linha.
func (q Quote) Lines() [2]model.MarketLine {
	if q.Kind == model.KindHandicap {
		return [2]model.MarketLine{
			{Variety: q.Variety, Period: q.Period, Type: model.TypeAH1, Condition: q.Condition, Value: q.Home},
			{Variety: q.Variety, Period: q.Period, Type: model.TypeAH2, Condition: oddsconv.NegateCondition(q.Condition), Value: q.Away},
		}
	}
	return [2]model.MarketLine{
		{Variety: q.Variety, Period: q.Period, Type: model.TypeOver, Condition: q.Condition, Value: q.Home},
		{Variety: q.Variety, Period: q.Period, Type: model.TypeUnder, Condition: q.Condition, Value: q.Away},
	}
}

func ParseDocument(doc RawMarketDocument) []model.MarketLine {
	var out []model.MarketLine
	for _, q := range ParseQuotes(doc) {
		l := q.Lines()
		out = append(out, l[0], l[1])
	}
	return out
}

// FindLine procura a tupla exata, com igualdade de condição
func FindLine(lines []model.MarketLine, variety, period, typ string, condition decimal.Decimal) (model.MarketLine, bool) {
	for _, l := range lines {
		if l.Variety == variety && l.Period == period && l.Type == typ && l.Condition.Equal(condition) {
			return l, true
		}
	}
	return model.MarketLine{}, false
}

// ParseFixtures converte a listagem; jogos com horário ilegível são pulados
func ParseFixtures(raw []RawFixture, now time.Time, tzHour int) []model.Fixture {
	loc := time.FixedZone("crown", tzHour*3600)
	out := make([]model.Fixture, 0, len(raw))
	for _, f := range raw {
		t, ok := parseCrownTime(f.Datetime, now.In(loc), loc)
		if !ok || f.GID == "" {
			continue
		}
		out = append(out, model.Fixture{
			CrownID:   f.GID,
			League:    strings.TrimSpace(f.League),
			HomeTeam:  strings.TrimSpace(f.TeamH),
			AwayTeam:  strings.TrimSpace(f.TeamC),
			MatchTime: t.UTC(),
		})
	}
	return out
}

// parseCrownTime lê "MM-DD hh:mma|p". O ano vem de now; datas mais de seis
// meses no passado pertencem ao ano seguinte (virada de ano).
func parseCrownTime(s string, now time.Time, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return time.Time{}, false
	}
	suffix := strings.ToLower(s[len(s)-1:])
	if suffix != "a" && suffix != "p" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("01-02 03:04PM", s[:len(s)-1]+strings.ToUpper(suffix)+"M", loc)
	if err != nil {
		return time.Time{}, false
	}
	t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	if now.Sub(t) > 183*24*time.Hour {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}
