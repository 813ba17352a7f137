package cron

import (
	"context"
	"time"

	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/dateutil"
	"github.com/venuelab/backend/pkg/xcontext"
)

// ReconcileEmittedCronJob realigns each prize's emitted counter with the
// number of tokens actually minted for it. The counter is monotonic, so the
// job only ever raises it; a counter above the token count is left alone and
// reported. It also lifts any stock that drifted below zero back to zero,
// without ever lowering a stock.
type ReconcileEmittedCronJob struct {
	prizeRepo repository.PrizeRepository
}

func NewReconcileEmittedCronJob(prizeRepo repository.PrizeRepository) *ReconcileEmittedCronJob {
	return &ReconcileEmittedCronJob{prizeRepo: prizeRepo}
}

func (job *ReconcileEmittedCronJob) Do(ctx context.Context) {
	clamped, err := job.prizeRepo.ClampNegativeStock(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot clamp negative stocks: %v", err)
		return
	}

	if clamped > 0 {
		xcontext.Logger(ctx).Warnf("Lifted %d negative stocks back to zero", clamped)
	}

	counts, err := job.prizeRepo.CountTokensByPrize(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count tokens by prize: %v", err)
		return
	}

	prizes, err := job.prizeRepo.GetAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get all prizes: %v", err)
		return
	}

	emitted := map[string]int64{}
	for _, count := range counts {
		emitted[count.PrizeID] = count.Total
	}

	for i := range prizes {
		prize := &prizes[i]
		total := emitted[prize.ID]
		if int64(prize.EmittedTotal) == total {
			continue
		}

		if int64(prize.EmittedTotal) > total {
			xcontext.Logger(ctx).Warnf(
				"Prize %s counter %d is above its %d tokens, probably purged batches",
				prize.ID, prize.EmittedTotal, total)
			continue
		}

		xcontext.Logger(ctx).Warnf("Prize %s counter drifted from %d to %d",
			prize.ID, prize.EmittedTotal, total)
		err := job.prizeRepo.SetEmittedTotal(ctx, prize.ID, int(total))
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot reconcile prize %s: %v", prize.ID, err)
			continue
		}
	}
}

func (job *ReconcileEmittedCronJob) RunNow() bool {
	return true
}

func (job *ReconcileEmittedCronJob) Next() time.Time {
	return dateutil.NextDay(time.Now())
}
