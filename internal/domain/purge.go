package domain

import (
	"context"

	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/xcontext"
)

type PurgeDomain interface {
	PurgeBatches(context.Context, *model.PurgeBatchesRequest) (*model.PurgeBatchesResponse, error)
}

type purgeDomain struct {
	batchRepo          repository.BatchRepository
	tokenRepo          repository.TokenRepository
	rouletteRepo       repository.RouletteRepository
	prizeRepo          repository.PrizeRepository
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewPurgeDomain(
	batchRepo repository.BatchRepository,
	tokenRepo repository.TokenRepository,
	rouletteRepo repository.RouletteRepository,
	prizeRepo repository.PrizeRepository,
	globalRoleVerifier *common.GlobalRoleVerifier,
) *purgeDomain {
	return &purgeDomain{
		batchRepo:          batchRepo,
		tokenRepo:          tokenRepo,
		rouletteRepo:       rouletteRepo,
		prizeRepo:          prizeRepo,
		globalRoleVerifier: globalRoleVerifier,
	}
}

// PurgeBatches removes batches with their tokens, roulette sessions, and
// spins. With CascadePrizes it then sweeps prizes no token references
// anymore. With DryRun the response carries the counts of what would go,
// and nothing is touched. Prizes are only counted on a real purge, after
// the cascade.
func (d *purgeDomain) PurgeBatches(
	ctx context.Context, req *model.PurgeBatchesRequest,
) (*model.PurgeBatchesResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	batches, err := d.batchRepo.GetByIDs(ctx, req.BatchIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get batches: %v", err)
		return nil, errorx.Unknown
	}

	if len(batches) == 0 {
		return nil, errorx.New(errorx.NotFound, "Not found any batch to purge")
	}

	batchIDs := make([]string, 0, len(batches))
	for i := range batches {
		batchIDs = append(batchIDs, batches[i].ID)
	}

	sessions, err := d.rouletteRepo.GetSessionsByBatchIDs(ctx, batchIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get roulette sessions: %v", err)
		return nil, errorx.Unknown
	}

	tokenCount, err := d.tokenRepo.CountByBatchIDs(ctx, batchIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count tokens: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.PurgeBatchesResponse{
		Batches:  int64(len(batches)),
		Tokens:   tokenCount,
		Sessions: int64(len(sessions)),
	}

	if req.DryRun {
		return resp, nil
	}

	sessionIDs := make([]string, 0, len(sessions))
	for i := range sessions {
		sessionIDs = append(sessionIDs, sessions[i].ID)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.rouletteRepo.DeleteBySessionIDs(ctx, sessionIDs); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete roulette sessions: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.tokenRepo.DeleteByBatchIDs(ctx, batchIDs); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete tokens: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.batchRepo.Delete(ctx, batchIDs); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete batches: %v", err)
		return nil, errorx.Unknown
	}

	var orphanIDs []string
	if req.CascadePrizes {
		orphans, err := d.prizeRepo.GetUnreferenced(ctx)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get unreferenced prizes: %v", err)
			return nil, errorx.Unknown
		}

		for i := range orphans {
			orphanIDs = append(orphanIDs, orphans[i].ID)
		}

		if err := d.prizeRepo.Delete(ctx, orphanIDs); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot delete unreferenced prizes: %v", err)
			return nil, errorx.Unknown
		}
	}

	xcontext.WithCommitDBTransaction(ctx)

	resp.Prizes = int64(len(orphanIDs))
	xcontext.Logger(ctx).Infof("Purged %d batches, %d tokens, %d sessions, %d prizes by %s",
		resp.Batches, resp.Tokens, resp.Sessions, resp.Prizes, xcontext.RequestUserID(ctx))
	return resp, nil
}
