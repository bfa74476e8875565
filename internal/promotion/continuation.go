package promotion

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/matcher"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// TrendSource é a parte do cliente titan007 usada aqui
type TrendSource interface {
	FetchSchedule(ctx context.Context, day time.Time) ([]matcher.Candidate, error)
	FetchTrendWindow(ctx context.Context, id string, swap bool) (model.TrendWindow, error)
}

// FixtureSource é a parte do cliente fotmob usada aqui
type FixtureSource interface {
	FetchMatches(ctx context.Context, day time.Time) ([]matcher.Candidate, error)
}

// Os horários de agenda do titan007 seguem Pequim
var titan007Zone = time.FixedZone("UTC+8", 8*3600)

// ContinuationHandler vincula a partida ready às fontes externas e grava a
// janela de tendência do titan007.
type ContinuationHandler struct {
	Log      *zap.Logger
	Matches  storage.MatchRepo
	Trends   storage.TrendRepo
	Titan007 TrendSource
	Fotmob   FixtureSource

	OnLinked func(source string)
}

// Handle processa uma continuação. Partida não encontrada na fonte não é
// erro: a próxima odd ready da partida tenta de novo.
func (h *ContinuationHandler) Handle(ctx context.Context, c events.StageContinuation) error {
	m, err := h.Matches.GetByCrownID(ctx, c.MatchExternalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.Log.Warn("continuation for unknown match", zap.String("crown_id", c.MatchExternalID))
			return nil
		}
		return err
	}

	switch c.NextQueue {
	case events.NextQueueTitan007:
		if h.Titan007 == nil {
			return nil
		}
		if err := h.linkTitan007(ctx, &m); err != nil {
			return err
		}
		if m.Titan007ID == "" {
			return nil
		}
		return h.RefreshTrend(ctx, m)
	case events.NextQueueFotmob:
		if h.Fotmob == nil {
			return nil
		}
		return h.linkFotmob(ctx, &m)
	default:
		h.Log.Warn("unknown continuation queue", zap.String("next_queue", c.NextQueue))
		return nil
	}
}

func (h *ContinuationHandler) linkTitan007(ctx context.Context, m *model.Match) error {
	if m.Titan007ID != "" {
		return nil
	}
	cands, err := h.Titan007.FetchSchedule(ctx, m.MatchTime.In(titan007Zone))
	if err != nil {
		return err
	}
	local, err := h.localOf(ctx, storage.SourceTitan007, *m)
	if err != nil {
		return err
	}
	res, ok := matcher.New(matcher.CJK).Match(local, cands)
	if !ok {
		h.Log.Info("no titan007 match found",
			zap.Int64("match_id", m.ID), zap.String("home", m.HomeTeam), zap.String("away", m.AwayTeam))
		return nil
	}
	if err := h.Matches.LinkTitan007(ctx, m.ID, linkOf(res)); err != nil {
		return err
	}
	m.Titan007ID, m.Titan007Swap = res.MatchID, res.Swap
	m.Titan007HomeID, m.Titan007AwayID = res.HomeTeamID, res.AwayTeamID
	h.Log.Info("match linked to titan007",
		zap.Int64("match_id", m.ID), zap.String("titan007_id", res.MatchID), zap.Bool("swap", res.Swap))
	if h.OnLinked != nil {
		h.OnLinked(events.NextQueueTitan007)
	}
	return nil
}

func (h *ContinuationHandler) linkFotmob(ctx context.Context, m *model.Match) error {
	if m.FotmobID != "" {
		return nil
	}
	cands, err := h.Fotmob.FetchMatches(ctx, m.MatchTime.UTC())
	if err != nil {
		return err
	}
	local, err := h.localOf(ctx, storage.SourceFotmob, *m)
	if err != nil {
		return err
	}
	res, ok := matcher.New(matcher.Latin).Match(local, cands)
	if !ok {
		h.Log.Info("no fotmob match found",
			zap.Int64("match_id", m.ID), zap.String("home", m.HomeTeam), zap.String("away", m.AwayTeam))
		return nil
	}
	if err := h.Matches.LinkFotmob(ctx, m.ID, linkOf(res)); err != nil {
		return err
	}
	h.Log.Info("match linked to fotmob",
		zap.Int64("match_id", m.ID), zap.String("fotmob_id", res.MatchID), zap.Bool("swap", res.Swap))
	if h.OnLinked != nil {
		h.OnLinked(events.NextQueueFotmob)
	}
	return nil
}

// RefreshTrend relê a janela do titan007 de uma partida já vinculada
func (h *ContinuationHandler) RefreshTrend(ctx context.Context, m model.Match) error {
	if m.Titan007ID == "" || h.Titan007 == nil {
		return nil
	}
	w, err := h.Titan007.FetchTrendWindow(ctx, m.Titan007ID, m.Titan007Swap)
	if err != nil {
		return err
	}
	w.MatchID = m.ID
	return h.Trends.Upsert(ctx, w)
}

// localOf monta a partida local com os ids de time já vistos na fonte, para
// que times renomeados ainda casem pelo id
func (h *ContinuationHandler) localOf(ctx context.Context, source string, m model.Match) (matcher.Local, error) {
	homeID, awayID, err := h.Matches.KnownTeamIDs(ctx, source, m.HomeTeam, m.AwayTeam)
	if err != nil {
		return matcher.Local{}, err
	}
	return matcher.Local{Kickoff: m.MatchTime, Home: m.HomeTeam, Away: m.AwayTeam, HomeID: homeID, AwayID: awayID}, nil
}

func linkOf(r matcher.Result) storage.ExternalLink {
	return storage.ExternalLink{MatchID: r.MatchID, HomeTeamID: r.HomeTeamID, AwayTeamID: r.AwayTeamID, Swap: r.Swap}
}
