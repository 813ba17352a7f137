package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/testutil"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_purgeDomain_PurgeBatches(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := NewPurgeDomain(e.batchRepo, e.tokenRepo, e.rouletteRepo, e.prizeRepo, e.verifier)

	orphanPrize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	sharedPrize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	freshPrize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, e.prizeRepo.SetEmittedTotal(ctx, orphanPrize.ID, 2))
	require.NoError(t, e.prizeRepo.SetEmittedTotal(ctx, sharedPrize.ID, 2))

	doomed, doomedTokens := sampleBatchWithTokens(t, ctx,
		[]string{orphanPrize.ID, orphanPrize.ID, sharedPrize.ID})
	survivor, survivorTokens := sampleBatchWithTokens(t, ctx, []string{sharedPrize.ID})

	session := &entity.RouletteSession{
		Base:     entity.Base{ID: uuid.NewString()},
		BatchID:  doomed.ID,
		Mode:     entity.RouletteModeByToken,
		MaxSpins: 3,
	}
	require.NoError(t, e.rouletteRepo.CreateSession(ctx, session))

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)
	staffCtx := xcontext.WithRequestUserID(ctx, e.staff.ID)

	_, err = d.PurgeBatches(staffCtx, &model.PurgeBatchesRequest{BatchIDs: []string{doomed.ID}})
	requireErrorxCode(t, err, errorx.PermissionDenied)

	_, err = d.PurgeBatches(adminCtx, &model.PurgeBatchesRequest{BatchIDs: []string{"no-such-batch"}})
	requireErrorxCode(t, err, errorx.NotFound)

	// A dry run reports the counts without touching anything.
	resp, err := d.PurgeBatches(adminCtx, &model.PurgeBatchesRequest{
		BatchIDs: []string{doomed.ID},
		DryRun:   true,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.Batches)
	require.EqualValues(t, 3, resp.Tokens)
	require.EqualValues(t, 1, resp.Sessions)
	require.EqualValues(t, 0, resp.Prizes)

	_, err = e.tokenRepo.GetByID(ctx, doomedTokens[0].ID)
	require.NoError(t, err)
	_, err = e.rouletteRepo.GetSessionByID(ctx, session.ID)
	require.NoError(t, err)

	resp, err = d.PurgeBatches(adminCtx, &model.PurgeBatchesRequest{
		BatchIDs:      []string{doomed.ID},
		CascadePrizes: true,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.Batches)
	require.EqualValues(t, 3, resp.Tokens)
	require.EqualValues(t, 1, resp.Sessions)
	require.EqualValues(t, 1, resp.Prizes)

	for _, token := range doomedTokens {
		_, err = e.tokenRepo.GetByID(ctx, token.ID)
		require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	}
	_, err = e.rouletteRepo.GetSessionByID(ctx, session.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, err = e.batchRepo.GetByID(ctx, doomed.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	// The orphaned prize goes with its last tokens; the prize still backing
	// the surviving batch and the prize that never generated both stay.
	_, err = e.prizeRepo.GetByID(ctx, orphanPrize.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, err = e.prizeRepo.GetByID(ctx, sharedPrize.ID)
	require.NoError(t, err)
	_, err = e.prizeRepo.GetByID(ctx, freshPrize.ID)
	require.NoError(t, err)

	_, err = e.batchRepo.GetByID(ctx, survivor.ID)
	require.NoError(t, err)
	_, err = e.tokenRepo.GetByID(ctx, survivorTokens[0].ID)
	require.NoError(t, err)
}

func Test_purgeDomain_PurgeBatches_NoCascade(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := NewPurgeDomain(e.batchRepo, e.tokenRepo, e.rouletteRepo, e.prizeRepo, e.verifier)

	prize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, e.prizeRepo.SetEmittedTotal(ctx, prize.ID, 1))
	batch, _ := sampleBatchWithTokens(t, ctx, []string{prize.ID})

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)
	resp, err := d.PurgeBatches(adminCtx, &model.PurgeBatchesRequest{BatchIDs: []string{batch.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 0, resp.Prizes)

	// Without the cascade flag the now-unreferenced prize survives.
	_, err = e.prizeRepo.GetByID(ctx, prize.ID)
	require.NoError(t, err)
}
