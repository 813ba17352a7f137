package main

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/urfave/cli/v2"
	"github.com/venuelab/backend/config"
	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/domain"
	"github.com/venuelab/backend/internal/domain/prizecache"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/migration"
	"github.com/venuelab/backend/pkg/crypto"
	"github.com/venuelab/backend/pkg/enum"
	"github.com/venuelab/backend/pkg/logger"
	"github.com/venuelab/backend/pkg/router"
	"github.com/venuelab/backend/pkg/signer"
	"github.com/venuelab/backend/pkg/storage"
	"github.com/venuelab/backend/pkg/weighted"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/venuelab/backend/pkg/xredis"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	logger logger.Logger

	userRepo          repository.UserRepository
	prizeRepo         repository.PrizeRepository
	batchRepo         repository.BatchRepository
	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	rouletteRepo      repository.RouletteRepository
	systemConfigRepo  repository.SystemConfigRepository

	prizeCache         prizecache.Cache
	globalRoleVerifier *common.GlobalRoleVerifier
	tokenSigner        *signer.Signer

	availabilityDomain domain.AvailabilityDomain
	redemptionDomain   domain.RedemptionDomain
	generatorDomain    domain.GeneratorDomain
	reusableDomain     domain.ReusableDomain
	rouletteDomain     domain.RouletteDomain
	prizeDomain        domain.PrizeDomain
	purgeDomain        domain.PurgeDomain

	redisClient xredis.Client
	storage     storage.Storage
	router      *router.Router
	server      *http.Server
}

func (s *srv) loadConfig(cctx *cli.Context) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
}

func (s *srv) loadLogger() {
	level := logger.INFO
	if xcontext.Configs(s.ctx).Env == "local" {
		level = logger.DEBUG
	}

	s.logger = logger.NewLogger(level)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx)
	db, err := gorm.Open(mysql.Open(cfg.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.AutoMigrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadStorage() {
	s.storage = storage.NewS3Storage(xcontext.Configs(s.ctx).Storage)
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.prizeRepo = repository.NewPrizeRepository()
	s.batchRepo = repository.NewBatchRepository()
	s.tokenRepo = repository.NewTokenRepository()
	s.reusableTokenRepo = repository.NewReusableTokenRepository()
	s.rouletteRepo = repository.NewRouletteRepository()
	s.systemConfigRepo = repository.NewSystemConfigRepository()
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx).Prize

	mode, err := enum.ToEnum[entity.RedemptionMode](cfg.RedemptionMode)
	if err != nil {
		panic(err)
	}

	snowflakeNode, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	s.prizeCache = prizecache.New(s.redisClient)
	s.globalRoleVerifier = common.NewGlobalRoleVerifier(s.userRepo)
	s.tokenSigner = signer.New(cfg.SignatureSecret)
	randomSource := weighted.SourceFunc(crypto.RandFloat64)

	s.availabilityDomain = domain.NewAvailabilityDomain(s.systemConfigRepo, s.globalRoleVerifier)
	s.redemptionDomain = domain.NewRedemptionDomain(s.tokenRepo, s.prizeRepo, s.prizeCache,
		s.availabilityDomain, s.globalRoleVerifier, s.tokenSigner, mode)
	s.generatorDomain = domain.NewGeneratorDomain(s.batchRepo, s.prizeRepo, s.tokenRepo,
		s.globalRoleVerifier, s.prizeCache, s.tokenSigner, s.storage, snowflakeNode)
	s.reusableDomain = domain.NewReusableDomain(s.reusableTokenRepo, s.prizeRepo, s.prizeCache,
		s.availabilityDomain, s.globalRoleVerifier, s.tokenSigner)
	s.rouletteDomain = domain.NewRouletteDomain(s.rouletteRepo, s.tokenRepo, s.batchRepo,
		s.prizeRepo, s.prizeCache, s.availabilityDomain, s.globalRoleVerifier, randomSource)
	s.prizeDomain = domain.NewPrizeDomain(s.prizeRepo, s.prizeCache, s.globalRoleVerifier)
	s.purgeDomain = domain.NewPurgeDomain(s.batchRepo, s.tokenRepo, s.rouletteRepo,
		s.prizeRepo, s.globalRoleVerifier)
}
