// Package fotmob lê a agenda e os placares finais do fotmob
package fotmob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/surebet-promoter/internal/matcher"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/shared/httpclient"
	"github.com/radieske/surebet-promoter/internal/shared/workqueue"
)

// ErrNotFinished: o jogo ainda não tem placar final
var ErrNotFinished = errors.New("match not finished")

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

func (c *Client) Limiter() *workqueue.RateLimiter { return c.limiter }

type team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type status struct {
	UTCTime   time.Time `json:"utcTime"`
	Started   bool      `json:"started"`
	Finished  bool      `json:"finished"`
	Cancelled bool      `json:"cancelled"`
}

type matchesDoc struct {
	Leagues []struct {
		Matches []struct {
			ID     int    `json:"id"`
			Home   team   `json:"home"`
			Away   team   `json:"away"`
			Status status `json:"status"`
		} `json:"matches"`
	} `json:"leagues"`
}

// FetchMatches lista os jogos do dia como candidatos do matcher
func (c *Client) FetchMatches(ctx context.Context, day time.Time) ([]matcher.Candidate, error) {
	u := fmt.Sprintf("%s/matches?date=%s", c.BaseURL, url.QueryEscape(day.Format("20060102")))
	doc, err := workqueue.Limit(ctx, c.limiter, func(ctx context.Context) (matchesDoc, error) {
		var out matchesDoc
		return out, httpclient.GetJSON(ctx, c.HTTP, u, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("fotmob matches: %w", err)
	}
	var out []matcher.Candidate
	for _, l := range doc.Leagues {
		for _, m := range l.Matches {
			out = append(out, matcher.Candidate{
				ID:      strconv.Itoa(m.ID),
				Kickoff: m.Status.UTCTime,
				Home:    matcher.Team{ID: strconv.Itoa(m.Home.ID), Short: m.Home.ShortName, Long: m.Home.Name},
				Away:    matcher.Team{ID: strconv.Itoa(m.Away.ID), Short: m.Away.ShortName, Long: m.Away.Name},
				State:   stateOf(m.Status),
			})
		}
	}
	return out, nil
}

func stateOf(s status) string {
	switch {
	case s.Cancelled:
		return "cancelled"
	case s.Finished:
		return "finished"
	case s.Started:
		return "started"
	}
	return "notstarted"
}

type detailsDoc struct {
	Header struct {
		Status struct {
			Finished bool   `json:"finished"`
			ScoreStr string `json:"scoreStr"`
			Halfs    struct {
				FirstHalf string `json:"firstHalfScore"`
			} `json:"halfs"`
		} `json:"status"`
	} `json:"header"`
	Content struct {
		Stats struct {
			Periods struct {
				All struct {
					Stats []struct {
						Stats []struct {
							Key   string `json:"key"`
							Stats []any  `json:"stats"`
						} `json:"stats"`
					} `json:"stats"`
				} `json:"All"`
			} `json:"Periods"`
		} `json:"stats"`
	} `json:"content"`
}

// FetchFinalScore devolve o placar orientado pela partida local
func (c *Client) FetchFinalScore(ctx context.Context, id string, swap bool) (model.ScoreRecord, error) {
	u := fmt.Sprintf("%s/matchDetails?matchId=%s", c.BaseURL, url.QueryEscape(id))
	doc, err := workqueue.Limit(ctx, c.limiter, func(ctx context.Context) (detailsDoc, error) {
		var out detailsDoc
		return out, httpclient.GetJSON(ctx, c.HTTP, u, &out)
	})
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("fotmob details %s: %w", id, err)
	}
	if !doc.Header.Status.Finished {
		return model.ScoreRecord{}, ErrNotFinished
	}

	var s model.ScoreRecord
	if s.HomeScore, s.AwayScore, err = parseScore(doc.Header.Status.ScoreStr); err != nil {
		return model.ScoreRecord{}, err
	}
	if s.HomeScoreHalf, s.AwayScoreHalf, err = parseScore(doc.Header.Status.Halfs.FirstHalf); err != nil {
		return model.ScoreRecord{}, err
	}
	for _, group := range doc.Content.Stats.Periods.All.Stats {
		for _, st := range group.Stats {
			if st.Key == "corners" && len(st.Stats) == 2 {
				s.HomeCorner, s.AwayCorner = toInt(st.Stats[0]), toInt(st.Stats[1])
			}
		}
	}
	if swap {
		s = s.Swapped()
	}
	return s, nil
}

// parseScore lê "2 - 1"
func parseScore(s string) (int, int, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid score %q", s)
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	a, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("invalid score %q", s)
	}
	return h, a, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
