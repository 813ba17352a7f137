package main

import (
	"time"

	"github.com/urfave/cli/v2"
	"github.com/venuelab/backend/internal/domain/cron"
	"github.com/venuelab/backend/pkg/xcontext"
)

func (s *srv) startCron(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadRepos()

	cfg := xcontext.Configs(s.ctx).Prize
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Start(
		s.ctx,
		cron.NewReconcileEmittedCronJob(s.prizeRepo),
		cron.NewAvailabilityStateCronJob(s.systemConfigRepo, s.redisClient,
			cfg.OpenHour, cfg.CloseHour, location),
	)

	return nil
}
