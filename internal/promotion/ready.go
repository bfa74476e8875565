package promotion

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/crown"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// ReadyChecker é o estágio 1: compara o sinal do surebet com a crown e
// marca a odd como ready quando a diferença atinge ready_min_delta.
type ReadyChecker struct {
	Log       *zap.Logger
	Matches   storage.MatchRepo
	Odds      storage.OddRepo
	Crown     Crown
	Settings  ThresholdSource
	Publisher Publisher
	Guard     *FailureGuard

	// Messages descarta redeliveries pelo MessageID; nil desliga
	Messages storage.MessageRepo

	Now func() time.Time

	OnReady func()
}

const readyConsumer = "ready"

func (r *ReadyChecker) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Handle processa um sinal. Sinais repetidos (novo MessageID) atualizam a
// mesma odd; a redelivery de um MessageID já visto é ignorada.
// Devolve ErrSessionReset quando o teto de falhas foi atingido.
func (r *ReadyChecker) Handle(ctx context.Context, sig events.SurebetSignal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	log := r.Log.With(zap.String("crown_id", sig.MatchExternalID))

	if r.Messages != nil && sig.MessageID != "" {
		fresh, err := r.Messages.Claim(ctx, readyConsumer, sig.MessageID)
		if err != nil {
			return err
		}
		if !fresh {
			log.Debug("redelivered signal dropped", zap.String("message_id", sig.MessageID))
			return nil
		}
	}

	if !sig.MatchTime.After(r.now()) {
		log.Debug("signal for a started match dropped")
		return nil
	}

	matchID, err := r.Matches.UpsertByCrownID(ctx, model.Match{
		CrownID:   sig.MatchExternalID,
		League:    sig.League,
		HomeTeam:  sig.HomeTeam,
		AwayTeam:  sig.AwayTeam,
		MatchTime: sig.MatchTime,
	})
	if err != nil {
		return err
	}

	odd, created, err := r.Odds.Upsert(ctx, model.Odd{
		MatchID:      matchID,
		Variety:      sig.Market.Variety,
		Period:       sig.Market.Period,
		Type:         sig.Market.Type,
		Condition:    sig.Market.Condition,
		SurebetValue: sig.SignalValue,
	})
	if err != nil {
		return err
	}
	if odd.Status != model.OddUnset {
		log.Debug("odd already resolved in stage 1", zap.Int64("odd_id", odd.ID), zap.String("status", odd.Status))
		return nil
	}
	if !created {
		log.Debug("repeated signal updated existing odd", zap.Int64("odd_id", odd.ID))
	}

	return r.Check(ctx, sig.MatchExternalID, odd)
}

// Check faz o scrape e a comparação de uma odd unset. Também é usado pelo
// ReadySweeper para as odds que ficaram sem decisão.
func (r *ReadyChecker) Check(ctx context.Context, crownID string, odd model.Odd) error {
	log := r.Log.With(zap.String("crown_id", crownID), zap.Int64("odd_id", odd.ID))

	th, err := r.Settings.Snapshot(ctx)
	if err != nil {
		return err
	}

	lines, err := r.Crown.Lines(ctx, crownID)
	if err != nil {
		if r.Guard != nil && r.Guard.Fail() {
			return fmt.Errorf("%w: %v", ErrSessionReset, err)
		}
		return fmt.Errorf("%w: %v", ErrScrape, err)
	}
	if r.Guard != nil {
		r.Guard.OK()
	}

	line, ok := crown.FindLine(lines, odd.Variety, odd.Period, odd.Type, odd.Condition)
	if !ok {
		log.Debug("market line not on crown yet")
		return nil
	}

	delta := line.Value.Sub(odd.SurebetValue)
	if delta.LessThan(th.ReadyMinDelta) {
		log.Debug("delta below minimum",
			zap.String("delta", delta.String()), zap.String("min", th.ReadyMinDelta.String()))
		return nil
	}

	marked, err := r.Odds.MarkReady(ctx, odd.ID, line.Value, r.now())
	if err != nil {
		return err
	}
	if !marked {
		return nil
	}
	log.Info("odd ready", zap.String("crown_value", line.Value.String()), zap.String("delta", delta.String()))
	if r.OnReady != nil {
		r.OnReady()
	}

	for _, next := range []string{events.NextQueueTitan007, events.NextQueueFotmob} {
		err := r.Publisher.PublishContinuation(ctx, events.StageContinuation{
			MessageID:       uuid.NewString(),
			MatchExternalID: crownID,
			NextQueue:       next,
			Extra:           map[string]string{"match_id": strconv.FormatInt(odd.MatchID, 10)},
		})
		if err != nil {
			// a continuação é refeita na próxima odd ready da partida
			log.Warn("publish continuation failed", zap.String("next_queue", next), zap.Error(err))
		}
	}
	return nil
}

// ReadySweeper repassa periodicamente as odds unset de partidas que ainda
// não começaram (falhas de scrape ou delta insuficiente no primeiro sinal).
type ReadySweeper struct {
	Log      *zap.Logger
	Matches  storage.MatchRepo
	Odds     storage.OddRepo
	Checker  *ReadyChecker
	Interval time.Duration
	Batch    int
}

func (s *ReadySweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep faz uma passada; erros de item são logados e a passada continua
func (s *ReadySweeper) Sweep(ctx context.Context) {
	batch := s.Batch
	if batch <= 0 {
		batch = 200
	}
	odds, err := s.Odds.ListUnset(ctx, s.Checker.now(), batch)
	if err != nil {
		s.Log.Warn("list unset odds failed", zap.Error(err))
		return
	}
	crownIDs := map[int64]string{}
	for _, o := range odds {
		if ctx.Err() != nil {
			return
		}
		id, ok := crownIDs[o.MatchID]
		if !ok {
			m, err := s.Matches.Get(ctx, o.MatchID)
			if err != nil {
				s.Log.Warn("load match failed", zap.Int64("match_id", o.MatchID), zap.Error(err))
				continue
			}
			id = m.CrownID
			crownIDs[o.MatchID] = id
		}
		if err := s.Checker.Check(ctx, id, o); err != nil {
			s.Log.Warn("ready recheck failed", zap.Int64("odd_id", o.ID), zap.Error(err))
		}
	}
}
