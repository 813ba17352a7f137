package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
	"github.com/venuelab/backend/internal/middleware"
	"github.com/venuelab/backend/pkg/router"
	"github.com/venuelab/backend/pkg/xcontext"
)

func (s *srv) startApi(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadStorage()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx)
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.ApiServer.Host, cfg.ApiServer.Port),
		Handler: s.router.Handler(),
	}

	s.logger.Infof("Starting server on port %s", cfg.ApiServer.Port)
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}
	s.logger.Infof("Server stopped")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(xcontext.DB(s.ctx), xcontext.Configs(s.ctx), s.logger)
	s.router.AddCloser(middleware.Logger())
	s.router.Before(middleware.AllowCors())
	s.router.Before(middleware.HandleAuth())

	// Public API: reached by scanning a printed token, no account needed.
	{
		router.GET(s.router, "/getAvailability", s.availabilityDomain.Get)
		router.GET(s.router, "/getRouletteSession", s.rouletteDomain.GetSession)
		router.POST(s.router, "/redeemToken", s.redemptionDomain.RedeemToken)
		router.POST(s.router, "/revealToken", s.redemptionDomain.RevealToken)
		router.POST(s.router, "/redeemReusableToken", s.reusableDomain.RedeemToken)
	}

	// Staff API.
	staffRouter := s.router.Branch()
	staffRouter.Before(middleware.Authenticate())
	{
		router.GET(staffRouter, "/getToken", s.redemptionDomain.GetToken)
		router.GET(staffRouter, "/getPrizes", s.prizeDomain.GetAll)
		router.POST(staffRouter, "/deliverToken", s.redemptionDomain.DeliverToken)
		router.POST(staffRouter, "/deliverReusableToken", s.reusableDomain.DeliverToken)
		router.POST(staffRouter, "/createRouletteSession", s.rouletteDomain.CreateSession)
		router.POST(staffRouter, "/spinRoulette", s.rouletteDomain.Spin)
	}

	// Admin API.
	adminRouter := s.router.Branch()
	adminRouter.Before(middleware.Authenticate())
	adminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		router.POST(adminRouter, "/generateBatch", s.generatorDomain.GenerateBatch)
		router.POST(adminRouter, "/purgeBatches", s.purgeDomain.PurgeBatches)
		router.POST(adminRouter, "/revertTokenDelivery", s.redemptionDomain.RevertDelivery)
		router.POST(adminRouter, "/createReusableToken", s.reusableDomain.CreateToken)
		router.POST(adminRouter, "/toggleAvailability", s.availabilityDomain.Toggle)
		router.POST(adminRouter, "/createPrize", s.prizeDomain.Create)
		router.POST(adminRouter, "/restockPrize", s.prizeDomain.Restock)
		router.POST(adminRouter, "/setPrizeActive", s.prizeDomain.SetActive)
	}
}
