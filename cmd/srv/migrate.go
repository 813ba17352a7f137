package main

import (
	"github.com/urfave/cli/v2"
	"github.com/venuelab/backend/pkg/xcontext"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	return nil
}
