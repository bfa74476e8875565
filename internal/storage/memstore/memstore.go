// Package memstore implementa os repositórios de storage em memória.
// Usado nos testes dos pipelines e no modo local sem Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
)

type Store struct {
	mu sync.Mutex

	nextID    int64
	matches   map[int64]*model.Match
	odds      map[int64]*model.Odd
	promoted  map[int64]*model.PromotedOdd
	snapshots map[int64]*model.CrownOdd
	trends    map[int64]model.TrendWindow
	settings  map[string]model.Setting
	messages  map[string]bool

	// Now permite fixar o relógio dos created_at
	Now func() time.Time

	Matches   *Matches
	Odds      *Odds
	Promoted  *Promoted
	Snapshots *Snapshots
	Trends    *Trends
	Settings  *Settings
	Messages  *Messages
}

func New() *Store {
	s := &Store{
		matches:   map[int64]*model.Match{},
		odds:      map[int64]*model.Odd{},
		promoted:  map[int64]*model.PromotedOdd{},
		snapshots: map[int64]*model.CrownOdd{},
		trends:    map[int64]model.TrendWindow{},
		settings:  map[string]model.Setting{},
		messages:  map[string]bool{},
		Now:       time.Now,
	}
	s.Matches = &Matches{s}
	s.Odds = &Odds{s}
	s.Promoted = &Promoted{s}
	s.Snapshots = &Snapshots{s}
	s.Trends = &Trends{s}
	s.Settings = &Settings{s}
	s.Messages = &Messages{s}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Matches -------------------------------------------------------------

type Matches struct{ s *Store }

var _ storage.MatchRepo = (*Matches)(nil)

func (r *Matches) UpsertByCrownID(_ context.Context, m model.Match) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.matches {
		if cur.CrownID == m.CrownID {
			if m.League != "" {
				cur.League = m.League
			}
			if m.HomeTeam != "" {
				cur.HomeTeam = m.HomeTeam
			}
			if m.AwayTeam != "" {
				cur.AwayTeam = m.AwayTeam
			}
			cur.MatchTime = m.MatchTime
			return cur.ID, nil
		}
	}
	m.ID = r.s.id()
	if m.Status == "" {
		m.Status = model.MatchPending
	}
	m.CreatedAt = r.s.Now()
	r.s.matches[m.ID] = &m
	return m.ID, nil
}

func (r *Matches) Get(_ context.Context, id int64) (model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return model.Match{}, storage.ErrNotFound
	}
	return *m, nil
}

func (r *Matches) GetByCrownID(_ context.Context, crownID string) (model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.matches {
		if m.CrownID == crownID {
			return *m, nil
		}
	}
	return model.Match{}, storage.ErrNotFound
}

func (r *Matches) LinkTitan007(_ context.Context, id int64, l storage.ExternalLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.matches[id]; ok && m.Titan007ID == "" {
		m.Titan007ID, m.Titan007Swap = l.MatchID, l.Swap
		m.Titan007HomeID, m.Titan007AwayID = l.HomeTeamID, l.AwayTeamID
	}
	return nil
}

func (r *Matches) LinkFotmob(_ context.Context, id int64, l storage.ExternalLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.matches[id]; ok && m.FotmobID == "" {
		m.FotmobID, m.FotmobSwap = l.MatchID, l.Swap
		m.FotmobHomeID, m.FotmobAwayID = l.HomeTeamID, l.AwayTeamID
	}
	return nil
}

// KnownTeamIDs procura do id mais alto para o mais baixo (vínculo mais recente)
func (r *Matches) KnownTeamIDs(_ context.Context, source, home, away string) (string, string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := sortedIDs(r.s.matches)
	lookup := func(team string) string {
		for i := len(ids) - 1; i >= 0; i-- {
			m := r.s.matches[ids[i]]
			h, a := m.Titan007HomeID, m.Titan007AwayID
			if source == storage.SourceFotmob {
				h, a = m.FotmobHomeID, m.FotmobAwayID
			}
			switch {
			case m.HomeTeam == team && h != "":
				return h
			case m.AwayTeam == team && a != "":
				return a
			}
		}
		return ""
	}
	return lookup(home), lookup(away), nil
}

func (r *Matches) ListWithOpenOdds(_ context.Context, from, to time.Time) ([]model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	open := map[int64]bool{}
	for _, o := range r.s.odds {
		if o.Status == model.OddUnset || o.Status == model.OddReady {
			open[o.MatchID] = true
		}
	}
	return r.filter(func(m *model.Match) bool {
		return open[m.ID] && inRange(m.MatchTime, from, to)
	}), nil
}

func (r *Matches) ListKickoffBetween(_ context.Context, from, to time.Time) ([]model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(m *model.Match) bool { return inRange(m.MatchTime, from, to) }), nil
}

func (r *Matches) ListToSettle(_ context.Context, before time.Time) ([]model.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pending := map[int64]bool{}
	for _, p := range r.s.promoted {
		if p.Result == "" {
			pending[p.MatchID] = true
		}
	}
	return r.filter(func(m *model.Match) bool {
		return pending[m.ID] && m.MatchTime.Before(before)
	}), nil
}

func (r *Matches) SaveScore(_ context.Context, id int64, sc model.ScoreRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.matches[id]; ok {
		m.Score = &sc
		m.Status = model.MatchFinal
	}
	return nil
}

func (r *Matches) filter(keep func(*model.Match) bool) []model.Match {
	var out []model.Match
	for _, id := range sortedIDs(r.s.matches) {
		if m := r.s.matches[id]; keep(m) {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchTime.Before(out[j].MatchTime) })
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// Odds ----------------------------------------------------------------

type Odds struct{ s *Store }

var _ storage.OddRepo = (*Odds)(nil)

func (r *Odds) Upsert(_ context.Context, o model.Odd) (model.Odd, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range sortedIDs(r.s.odds) {
		cur := r.s.odds[id]
		if cur.Status != model.OddUnset && cur.Status != model.OddReady {
			continue
		}
		if cur.MatchID == o.MatchID && cur.Variety == o.Variety && cur.Period == o.Period &&
			cur.Type == o.Type && cur.Condition.Equal(o.Condition) {
			cur.SurebetValue = o.SurebetValue
			return *cur, false, nil
		}
	}
	o.ID = r.s.id()
	o.Status = model.OddUnset
	o.CreatedAt = r.s.Now()
	r.s.odds[o.ID] = &o
	return o, true, nil
}

func (r *Odds) Get(_ context.Context, id int64) (model.Odd, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.odds[id]
	if !ok {
		return model.Odd{}, storage.ErrNotFound
	}
	return *o, nil
}

func (r *Odds) ListByMatch(_ context.Context, matchID int64, statuses ...string) ([]model.Odd, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Odd
	for _, id := range sortedIDs(r.s.odds) {
		o := r.s.odds[id]
		if o.MatchID != matchID {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, o.Status) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *Odds) ListUnset(_ context.Context, now time.Time, limit int) ([]model.Odd, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Odd
	for _, id := range sortedIDs(r.s.odds) {
		o := r.s.odds[id]
		m, ok := r.s.matches[o.MatchID]
		if o.Status != model.OddUnset || !ok || !m.MatchTime.After(now) {
			continue
		}
		out = append(out, *o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *Odds) MarkReady(_ context.Context, id int64, crownValue decimal.Decimal, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.odds[id]
	if !ok || o.Status != model.OddUnset {
		return false, nil
	}
	o.Status = model.OddReady
	o.CrownValue = decimal.NewNullDecimal(crownValue)
	o.ReadyAt = &at
	return true, nil
}

func (r *Odds) Finish(_ context.Context, id int64, from, to string, f storage.FinalRead) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.odds[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.CrownValue2 = f.Value
	o.CrownCondition2 = f.Condition
	at := f.At
	o.FinalAt = &at
	return true, nil
}

// Promoted ------------------------------------------------------------

type Promoted struct{ s *Store }

var _ storage.PromotedRepo = (*Promoted)(nil)

func (r *Promoted) Create(_ context.Context, p *model.PromotedOdd) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.promoted {
		if p.OddID != nil && cur.OddID != nil && *cur.OddID == *p.OddID {
			return false, nil
		}
		if p.Channel == model.ChannelSteam && cur.Channel == model.ChannelSteam &&
			cur.MatchID == p.MatchID && cur.Variety == p.Variety && cur.Period == p.Period && cur.Kind == p.Kind {
			return false, nil
		}
	}
	p.ID = r.s.id()
	p.CreatedAt = r.s.Now()
	cp := *p
	r.s.promoted[p.ID] = &cp
	return true, nil
}

func (r *Promoted) Get(_ context.Context, id int64) (model.PromotedOdd, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.promoted[id]
	if !ok {
		return model.PromotedOdd{}, storage.ErrNotFound
	}
	return *p, nil
}

func (r *Promoted) ListByMatch(_ context.Context, matchID int64) ([]model.PromotedOdd, error) {
	return r.filter(func(p *model.PromotedOdd) bool { return p.MatchID == matchID }), nil
}

func (r *Promoted) ListBetween(_ context.Context, from, to time.Time) ([]model.PromotedOdd, error) {
	return r.filter(func(p *model.PromotedOdd) bool { return inRange(p.CreatedAt, from, to) }), nil
}

func (r *Promoted) CountNonSkipSince(_ context.Context, since time.Time) (int, error) {
	n := len(r.filter(func(p *model.PromotedOdd) bool {
		return p.Channel == model.ChannelSurebet && !p.IsSkip && !p.CreatedAt.Before(since)
	}))
	return n, nil
}

func (r *Promoted) ExistsSteam(_ context.Context, matchID int64, variety, period, kind string) (bool, error) {
	n := len(r.filter(func(p *model.PromotedOdd) bool {
		return p.Channel == model.ChannelSteam && p.MatchID == matchID &&
			p.Variety == variety && p.Period == period && p.Kind == kind
	}))
	return n > 0, nil
}

func (r *Promoted) ListUnsettled(_ context.Context, matchID int64) ([]model.PromotedOdd, error) {
	return r.filter(func(p *model.PromotedOdd) bool { return p.MatchID == matchID && p.Result == "" }), nil
}

func (r *Promoted) Settle(_ context.Context, id int64, result, score string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.promoted[id]; ok && p.Result == "" {
		p.Result, p.Score, p.SettledAt = result, score, &at
	}
	return nil
}

func (r *Promoted) filter(keep func(*model.PromotedOdd) bool) []model.PromotedOdd {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.PromotedOdd
	for _, id := range sortedIDs(r.s.promoted) {
		if p := r.s.promoted[id]; keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

// Snapshots -----------------------------------------------------------

type Snapshots struct{ s *Store }

var _ storage.SnapshotRepo = (*Snapshots)(nil)

func (r *Snapshots) Latest(_ context.Context, b storage.Bucket) (model.CrownOdd, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := sortedIDs(r.s.snapshots)
	for i := len(ids) - 1; i >= 0; i-- {
		c := r.s.snapshots[ids[i]]
		if storage.BucketOf(*c) == b && !c.IsIgnored {
			return *c, nil
		}
	}
	return model.CrownOdd{}, storage.ErrNotFound
}

func (r *Snapshots) Append(_ context.Context, c *model.CrownOdd) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.Now()
	}
	cp := *c
	r.s.snapshots[c.ID] = &cp
	return nil
}

func (r *Snapshots) IgnoreBefore(_ context.Context, b storage.Bucket, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.snapshots {
		if storage.BucketOf(*c) == b && c.ID < id {
			c.IsIgnored = true
		}
	}
	return nil
}

func (r *Snapshots) Series(_ context.Context, b storage.Bucket, since time.Time) ([]model.CrownOdd, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CrownOdd
	for _, id := range sortedIDs(r.s.snapshots) {
		c := r.s.snapshots[id]
		if storage.BucketOf(*c) == b && !c.IsIgnored && !c.CreatedAt.Before(since) {
			out = append(out, *c)
		}
	}
	return out, nil
}

// Trends --------------------------------------------------------------

type Trends struct{ s *Store }

var _ storage.TrendRepo = (*Trends)(nil)

func (r *Trends) Upsert(_ context.Context, w model.TrendWindow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w.UpdatedAt = r.s.Now()
	r.s.trends[w.MatchID] = w
	return nil
}

func (r *Trends) Get(_ context.Context, matchID int64) (model.TrendWindow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.trends[matchID]
	if !ok {
		return model.TrendWindow{}, storage.ErrNotFound
	}
	return w, nil
}

// Settings ------------------------------------------------------------

type Settings struct{ s *Store }

var _ storage.SettingRepo = (*Settings)(nil)

func (r *Settings) All(_ context.Context) ([]model.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Setting, 0, len(r.s.settings))
	for _, v := range r.s.settings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *Settings) Put(_ context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings[key] = model.Setting{Key: key, Value: value, UpdatedAt: r.s.Now()}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type Messages struct{ s *Store }

func (r *Messages) Claim(_ context.Context, consumer, messageID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := consumer + "/" + messageID
	if r.s.messages[key] {
		return false, nil
	}
	r.s.messages[key] = true
	return true, nil
}
