package cron

import (
	"database/sql"
	"testing"
	"time"

	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/testutil"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_ReconcileEmittedCronJob(t *testing.T) {
	ctx := testutil.MockContext()
	prizeRepo := repository.NewPrizeRepository()
	job := NewReconcileEmittedCronJob(prizeRepo)

	drifted, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	overcounted, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, prizeRepo.SetEmittedTotal(ctx, overcounted.ID, 7))

	batch, err := testutil.SampleBatch(ctx, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := testutil.SampleToken(ctx, &entity.Token{BatchID: batch.ID, PrizeID: drifted.ID})
		require.NoError(t, err)
	}

	job.Do(ctx)

	// The counter behind its token count is raised to match.
	reloaded, err := prizeRepo.GetByID(ctx, drifted.ID)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.EmittedTotal)

	// A counter above its token count stays, purged batches are not drift.
	reloaded, err = prizeRepo.GetByID(ctx, overcounted.ID)
	require.NoError(t, err)
	require.Equal(t, 7, reloaded.EmittedTotal)
}

func Test_ReconcileEmittedCronJob_ClampsNegativeStock(t *testing.T) {
	ctx := testutil.MockContext()
	prizeRepo := repository.NewPrizeRepository()
	job := NewReconcileEmittedCronJob(prizeRepo)

	drifted, err := testutil.SamplePrize(ctx, &entity.Prize{
		Stock: sql.NullInt64{Int64: 5, Valid: true},
	})
	require.NoError(t, err)
	healthy, err := testutil.SamplePrize(ctx, &entity.Prize{
		Stock: sql.NullInt64{Int64: 2, Valid: true},
	})
	require.NoError(t, err)

	err = xcontext.DB(ctx).Model(&entity.Prize{}).
		Where("id=?", drifted.ID).
		Update("stock", -3).Error
	require.NoError(t, err)

	job.Do(ctx)

	// A stock that drifted below zero is lifted back to zero.
	reloaded, err := prizeRepo.GetByID(ctx, drifted.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, reloaded.Stock.Int64)

	// A non-negative stock is never rewritten.
	reloaded, err = prizeRepo.GetByID(ctx, healthy.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, reloaded.Stock.Int64)
}

func Test_AvailabilityStateCronJob(t *testing.T) {
	ctx := testutil.MockContext()
	systemConfigRepo := repository.NewSystemConfigRepository()
	redisClient := testutil.NewMockRedisClient()

	job := NewAvailabilityStateCronJob(systemConfigRepo, redisClient, 0, 0, time.UTC)
	job.Do(ctx)

	var state availabilityState
	require.NoError(t, redisClient.GetObj(ctx, common.RedisKeyAvailability(), &state))
	require.True(t, state.Enabled)
	require.NotEmpty(t, state.ValidTill)

	require.NoError(t, systemConfigRepo.SetTokensEnabled(ctx, false, "test"))
	job.Do(ctx)

	require.NoError(t, redisClient.GetObj(ctx, common.RedisKeyAvailability(), &state))
	require.False(t, state.Enabled)
}

func Test_AvailabilityStateCronJob_EnforcesSchedule(t *testing.T) {
	ctx := testutil.MockContext()
	systemConfigRepo := repository.NewSystemConfigRepository()
	redisClient := testutil.NewMockRedisClient()

	config, err := systemConfigRepo.Get(ctx)
	require.NoError(t, err)
	require.True(t, config.TokensEnabled)

	// A window starting two hours from now never covers the current hour, so
	// the venue is closed by schedule.
	now := time.Now().UTC()
	openHour := (now.Hour() + 2) % 24
	closeHour := (now.Hour() + 3) % 24
	job := NewAvailabilityStateCronJob(systemConfigRepo, redisClient, openHour, closeHour, time.UTC)
	job.Do(ctx)

	// Closing by schedule also turns the stored manual flag off.
	config, err = systemConfigRepo.Get(ctx)
	require.NoError(t, err)
	require.False(t, config.TokensEnabled)

	var state availabilityState
	require.NoError(t, redisClient.GetObj(ctx, common.RedisKeyAvailability(), &state))
	require.False(t, state.Enabled)
}
