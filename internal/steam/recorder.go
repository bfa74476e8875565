package steam

import (
	"context"
	"errors"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
)

// Recorder grava snapshots só quando o mercado mudou
type Recorder struct {
	Snapshots storage.SnapshotRepo
}

// Append devolve true quando o snapshot foi gravado. Mudança de linha invalida
// a série anterior do bucket.
func (r *Recorder) Append(ctx context.Context, c *model.CrownOdd) (bool, error) {
	b := storage.BucketOf(*c)
	last, err := r.Snapshots.Latest(ctx, b)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return true, r.Snapshots.Append(ctx, c)
	case err != nil:
		return false, err
	}
	if last.SameQuote(*c) {
		return false, nil
	}
	if err := r.Snapshots.Append(ctx, c); err != nil {
		return false, err
	}
	if !last.Condition.Equal(c.Condition) {
		if err := r.Snapshots.IgnoreBefore(ctx, b, c.ID); err != nil {
			return true, err
		}
	}
	return true, nil
}
