// Package titan007 lê a agenda e a tendência de linhas (inicial x final)
// do titan007. Cada Client tem o seu próprio rate limiter.
package titan007

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/matcher"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/oddsconv"
	"github.com/radieske/surebet-promoter/internal/shared/httpclient"
	"github.com/radieske/surebet-promoter/internal/shared/workqueue"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	limiter *workqueue.RateLimiter
}

func New(base string, timeout, interval time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    httpclient.New(timeout),
		limiter: workqueue.NewRateLimiter(interval),
	}
}

// Limiter expõe o limiter para o hook de métricas
func (c *Client) Limiter() *workqueue.RateLimiter { return c.limiter }

type team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Short string `json:"short"`
}

type scheduleEntry struct {
	ID    string    `json:"id"`
	Time  time.Time `json:"time"`
	Home  team      `json:"home"`
	Away  team      `json:"away"`
	State string    `json:"state"`
}

// FetchSchedule lista os jogos do dia como candidatos do matcher
func (c *Client) FetchSchedule(ctx context.Context, day time.Time) ([]matcher.Candidate, error) {
	u := fmt.Sprintf("%s/schedule?date=%s", c.BaseURL, url.QueryEscape(day.Format("2006-01-02")))
	entries, err := workqueue.Limit(ctx, c.limiter, func(ctx context.Context) ([]scheduleEntry, error) {
		var out []scheduleEntry
		return out, httpclient.GetJSON(ctx, c.HTTP, u, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("titan007 schedule: %w", err)
	}
	out := make([]matcher.Candidate, 0, len(entries))
	for _, e := range entries {
		out = append(out, matcher.Candidate{
			ID:      e.ID,
			Kickoff: e.Time,
			Home:    matcher.Team{ID: e.Home.ID, Short: e.Home.Short, Long: e.Home.Name},
			Away:    matcher.Team{ID: e.Away.ID, Short: e.Away.Short, Long: e.Away.Name},
			State:   e.State,
		})
	}
	return out, nil
}

type line struct {
	Early string `json:"early"`
	Late  string `json:"late"`
}

type trendDoc struct {
	Handicap     line `json:"handicap"`
	HalfHandicap line `json:"half_handicap"`
	Goal         line `json:"goal"`
	HalfGoal     line `json:"half_goal"`
	Corner       line `json:"corner"`
	CornerGoal   line `json:"corner_goal"`
}

// FetchTrendWindow devolve as linhas inicial e final de cada bucket, já na
// convenção local (negativo = casa dá handicap) e orientadas pelo swap.
func (c *Client) FetchTrendWindow(ctx context.Context, id string, swap bool) (model.TrendWindow, error) {
	u := fmt.Sprintf("%s/odds/%s", c.BaseURL, url.PathEscape(id))
	doc, err := workqueue.Limit(ctx, c.limiter, func(ctx context.Context) (trendDoc, error) {
		var out trendDoc
		return out, httpclient.GetJSON(ctx, c.HTTP, u, &out)
	})
	if err != nil {
		return model.TrendWindow{}, fmt.Errorf("titan007 odds %s: %w", id, err)
	}
	return model.TrendWindow{
		Handicap:     handicapLine(doc.Handicap, swap),
		HalfHandicap: handicapLine(doc.HalfHandicap, swap),
		Goal:         goalLine(doc.Goal),
		HalfGoal:     goalLine(doc.HalfGoal),
		Corner:       handicapLine(doc.Corner, swap),
		CornerGoal:   goalLine(doc.CornerGoal),
	}, nil
}

// titan007 publica o handicap com positivo = casa dá; invertemos o sinal.
// Com swap a casa deles é o visitante local, então o sinal volta.
func handicapLine(l line, swap bool) model.Line {
	out := model.Line{Early: parse(l.Early), Late: parse(l.Late)}
	if swap {
		return out
	}
	out.Early.Decimal = out.Early.Decimal.Neg()
	out.Late.Decimal = out.Late.Decimal.Neg()
	return out
}

func goalLine(l line) model.Line {
	return model.Line{Early: parse(l.Early), Late: parse(l.Late)}
}

// parse aceita linha dividida ("0.5/1" vira 0.75); vazio ou ilegível = sem linha
func parse(s string) decimal.NullDecimal {
	d, err := oddsconv.NormalizeGoalLine(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
