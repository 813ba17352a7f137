package cron

import (
	"context"
	"time"

	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/dateutil"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/venuelab/backend/pkg/xredis"
)

// AvailabilityStateCronJob enforces the schedule and publishes the engine
// availability to redis at every open and close boundary, so lobby displays
// can follow the state without polling the API. Outside the scheduled hours
// it also flips the stored manual flag off, keeping the persisted state
// consistent with what redemption reports. It reschedules itself onto the
// next boundary in the venue timezone after each run, which keeps it aligned
// across DST changes.
type AvailabilityStateCronJob struct {
	systemConfigRepo repository.SystemConfigRepository
	redisClient      xredis.Client

	openHour  int
	closeHour int
	location  *time.Location
}

type availabilityState struct {
	Enabled   bool   `json:"enabled"`
	ValidTill string `json:"valid_till"`
}

func NewAvailabilityStateCronJob(
	systemConfigRepo repository.SystemConfigRepository,
	redisClient xredis.Client,
	openHour, closeHour int,
	location *time.Location,
) *AvailabilityStateCronJob {
	return &AvailabilityStateCronJob{
		systemConfigRepo: systemConfigRepo,
		redisClient:      redisClient,
		openHour:         openHour,
		closeHour:        closeHour,
		location:         location,
	}
}

func (job *AvailabilityStateCronJob) Do(ctx context.Context) {
	systemConfig, err := job.systemConfigRepo.Get(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get system config: %v", err)
		return
	}

	now := time.Now().In(job.location)
	scheduled := true
	if job.openHour != job.closeHour {
		scheduled = dateutil.InHourWindow(now, job.openHour, job.closeHour)
	}

	if !scheduled && systemConfig.TokensEnabled {
		err := job.systemConfigRepo.SetTokensEnabled(ctx, false, "scheduler")
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot enforce the schedule: %v", err)
			return
		}

		xcontext.Logger(ctx).Infof("Schedule closed the venue, manual flag turned off")
		systemConfig.TokensEnabled = false
	}

	state := availabilityState{
		Enabled:   systemConfig.TokensEnabled && scheduled,
		ValidTill: job.Next().Format(time.RFC3339),
	}

	xcontext.Logger(ctx).Infof("Availability is now %t", state.Enabled)
	if job.redisClient != nil {
		err := job.redisClient.SetObj(ctx, common.RedisKeyAvailability(), state, 0)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot publish availability state: %v", err)
		}
	}
}

func (job *AvailabilityStateCronJob) RunNow() bool {
	return true
}

func (job *AvailabilityStateCronJob) Next() time.Time {
	now := time.Now().In(job.location)
	if job.openHour == job.closeHour {
		return dateutil.NextDay(now)
	}

	return dateutil.NextHourBoundary(now, job.openHour, job.closeHour)
}
