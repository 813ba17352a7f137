package domain

import (
	"context"
	"database/sql"

	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/domain/prizecache"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/signer"
	"github.com/venuelab/backend/pkg/testutil"
	"github.com/venuelab/backend/pkg/xcontext"
)

// cyclicSource replays a fixed list of draws, which makes every weighted
// pick in a test predictable.
type cyclicSource struct {
	values []float64
	next   int
}

func (s *cyclicSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func nullInt64(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

type testEngine struct {
	userRepo          repository.UserRepository
	prizeRepo         repository.PrizeRepository
	batchRepo         repository.BatchRepository
	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	rouletteRepo      repository.RouletteRepository
	systemConfigRepo  repository.SystemConfigRepository

	cache        prizecache.Cache
	verifier     *common.GlobalRoleVerifier
	signer       *signer.Signer
	availability AvailabilityDomain

	admin entity.User
	staff entity.User
}

func newTestEngine(ctx context.Context) *testEngine {
	e := &testEngine{
		userRepo:          repository.NewUserRepository(),
		prizeRepo:         repository.NewPrizeRepository(),
		batchRepo:         repository.NewBatchRepository(),
		tokenRepo:         repository.NewTokenRepository(),
		reusableTokenRepo: repository.NewReusableTokenRepository(),
		rouletteRepo:      repository.NewRouletteRepository(),
		systemConfigRepo:  repository.NewSystemConfigRepository(),
	}

	e.cache = prizecache.New(nil)
	e.verifier = common.NewGlobalRoleVerifier(e.userRepo)
	e.signer = signer.New(xcontext.Configs(ctx).Prize.SignatureSecret)
	e.availability = NewAvailabilityDomain(e.systemConfigRepo, e.verifier)

	var err error
	e.admin, err = testutil.SampleUser(ctx, &entity.User{Role: entity.RoleAdmin})
	if err != nil {
		panic(err)
	}

	e.staff, err = testutil.SampleUser(ctx, &entity.User{Role: entity.RoleStaff})
	if err != nil {
		panic(err)
	}

	return e
}
