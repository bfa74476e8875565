// Package httpapi expõe a listagem das recomendações e a edição dos settings.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/storage"
)

// SettingsStore é a parte do settings.Store usada pela API
type SettingsStore interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type API struct {
	Log      *zap.Logger
	Matches  storage.MatchRepo
	Promoted storage.PromotedRepo
	Settings SettingsStore
	// Location define o dia de ?date=
	Location *time.Location
	// WS é montado em /ws quando não nulo
	WS http.HandlerFunc
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/v1/promoted", a.listPromoted)
	r.Get("/v1/matches/{id}/promoted", a.matchPromoted)
	r.Get("/v1/settings", a.listSettings)
	// PUT grava e invalida o cache
	r.Put("/v1/settings/{key}", a.putSetting)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// PromotedView é uma recomendação com os dados da partida
type PromotedView struct {
	ID        int64           `json:"id"`
	MatchID   int64           `json:"match_id"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	League    string          `json:"league,omitempty"`
	MatchTime time.Time       `json:"match_time"`
	Channel   int             `json:"channel"`
	Variety   string          `json:"variety"`
	Period    string          `json:"period"`
	Type      string          `json:"type"`
	Condition decimal.Decimal `json:"condition"`
	Value     *string         `json:"value,omitempty"`
	Back      bool            `json:"back"`
	Rule      string          `json:"rule"`
	Visible   bool            `json:"visible"`
	Skip      bool            `json:"skip"`
	Result    string          `json:"result,omitempty"`
	Score     string          `json:"score,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *API) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.UTC
}

// listPromoted: ?date=2006-01-02 (default hoje); ?all=1 inclui filtradas e skip
func (a *API) listPromoted(w http.ResponseWriter, r *http.Request) {
	loc := a.location()
	day := time.Now().In(loc)
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := time.ParseInLocation("2006-01-02", q, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		day = d
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	ps, err := a.Promoted.ListBetween(r.Context(), from, from.AddDate(0, 0, 1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writePromoted(w, r, ps, r.URL.Query().Get("all") == "1")
}

func (a *API) matchPromoted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid match id"))
		return
	}
	if _, err := a.Matches.Get(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ps, err := a.Promoted.ListByMatch(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writePromoted(w, r, ps, true)
}

func (a *API) writePromoted(w http.ResponseWriter, r *http.Request, ps []model.PromotedOdd, all bool) {
	matches := map[int64]model.Match{}
	out := make([]PromotedView, 0, len(ps))
	for _, p := range ps {
		if !all && (!p.IsValid || p.IsSkip) {
			continue
		}
		m, ok := matches[p.MatchID]
		if !ok {
			var err error
			m, err = a.Matches.Get(r.Context(), p.MatchID)
			if err != nil {
				a.Log.Warn("load match for promoted view failed", zap.Int64("match_id", p.MatchID), zap.Error(err))
			}
			matches[p.MatchID] = m
		}
		out = append(out, viewOf(p, m))
	}
	writeJSON(w, http.StatusOK, out)
}

func viewOf(p model.PromotedOdd, m model.Match) PromotedView {
	v := PromotedView{
		ID: p.ID, MatchID: p.MatchID, HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam, League: m.League,
		MatchTime: m.MatchTime, Channel: p.Channel, Variety: p.Variety, Period: p.Period, Type: p.Type,
		Condition: p.Condition, Back: p.Back, Rule: p.Rule, Visible: p.IsValid, Skip: p.IsSkip,
		Result: p.Result, Score: p.Score, CreatedAt: p.CreatedAt,
	}
	if p.Value.Valid {
		s := p.Value.Decimal.StringFixed(2)
		v.Value = &s
	}
	return v
}

func (a *API) listSettings(w http.ResponseWriter, r *http.Request) {
	m, err := a.Settings.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"values": m, "keys": settings.Keys()})
}

// putSetting: o corpo é o valor JSON cru, ex. `"0.08"` ou `true`
func (a *API) putSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = a.Settings.Set(r.Context(), key, string(body))
	switch {
	case err == nil:
	case errors.Is(err, settings.ErrUnknownKey):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, settings.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err)
		return
	default:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.Log.Info("setting updated", zap.String("key", key))
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": string(body)})
}
