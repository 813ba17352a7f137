package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/domain/prizecache"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/enum"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/weighted"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const defaultRouletteMaxPoolSize = 12

type RouletteDomain interface {
	CreateSession(context.Context, *model.CreateRouletteSessionRequest) (*model.CreateRouletteSessionResponse, error)
	Spin(context.Context, *model.SpinRouletteRequest) (*model.SpinRouletteResponse, error)
	GetSession(context.Context, *model.GetRouletteSessionRequest) (*model.GetRouletteSessionResponse, error)
}

type rouletteDomain struct {
	rouletteRepo       repository.RouletteRepository
	tokenRepo          repository.TokenRepository
	batchRepo          repository.BatchRepository
	prizeRepo          repository.PrizeRepository
	prizeCache         prizecache.Cache
	availability       AvailabilityDomain
	globalRoleVerifier *common.GlobalRoleVerifier
	randomSource       weighted.Source
}

func NewRouletteDomain(
	rouletteRepo repository.RouletteRepository,
	tokenRepo repository.TokenRepository,
	batchRepo repository.BatchRepository,
	prizeRepo repository.PrizeRepository,
	prizeCache prizecache.Cache,
	availability AvailabilityDomain,
	globalRoleVerifier *common.GlobalRoleVerifier,
	randomSource weighted.Source,
) *rouletteDomain {
	return &rouletteDomain{
		rouletteRepo:       rouletteRepo,
		tokenRepo:          tokenRepo,
		batchRepo:          batchRepo,
		prizeRepo:          prizeRepo,
		prizeCache:         prizeCache,
		availability:       availability,
		globalRoleVerifier: globalRoleVerifier,
		randomSource:       randomSource,
	}
}

func (d *rouletteDomain) CreateSession(
	ctx context.Context, req *model.CreateRouletteSessionRequest,
) (*model.CreateRouletteSessionResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalStaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	mode, err := enum.ToEnum[entity.RouletteMode](req.Mode)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid roulette mode %s", req.Mode)
	}

	if _, err := d.batchRepo.GetByID(ctx, req.BatchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found batch")
		}

		xcontext.Logger(ctx).Errorf("Cannot get batch: %v", err)
		return nil, errorx.Unknown
	}

	pool, err := d.tokenRepo.GetEligibleByBatchID(ctx, req.BatchID, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get eligible tokens: %v", err)
		return nil, errorx.Unknown
	}

	if len(pool) == 0 {
		return nil, errorx.New(errorx.NotEligible, "Batch has no eligible tokens")
	}

	maxSpins := req.MaxSpins
	switch mode {
	case entity.RouletteModeByToken:
		// The wheel shows the whole pool at once, so the pool is capped at
		// what fits on it. The session must drain the pool exactly.
		maxPoolSize := xcontext.Configs(ctx).Prize.RouletteMaxPoolSize
		if maxPoolSize <= 0 {
			maxPoolSize = defaultRouletteMaxPoolSize
		}

		if len(pool) > maxPoolSize {
			return nil, errorx.New(errorx.NotEligible,
				"Batch has %d eligible tokens, at most %d fit on the wheel", len(pool), maxPoolSize)
		}

		maxSpins = len(pool)

	case entity.RouletteModeProbability:
		if maxSpins <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Max spins must be a positive number")
		}

		if maxSpins > len(pool) {
			return nil, errorx.New(errorx.NotEligible,
				"Batch has only %d eligible tokens", len(pool))
		}
	}

	session := &entity.RouletteSession{
		Base:     entity.Base{ID: uuid.NewString()},
		BatchID:  req.BatchID,
		Mode:     mode,
		MaxSpins: maxSpins,
	}

	if err := d.rouletteRepo.CreateSession(ctx, session); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create roulette session: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateRouletteSessionResponse{
		Session: model.ConvertRouletteSession(session),
	}, nil
}

// Spin consumes one eligible token of the session batch and assigns it a
// prize. In by_token mode the prize is the one minted into the drawn token,
// so a full session hands out exactly the batch composition. In probability
// mode tokens are consumed in order and the prize is drawn from the weighted
// catalog.
func (d *rouletteDomain) Spin(
	ctx context.Context, req *model.SpinRouletteRequest,
) (*model.SpinRouletteResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalStaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if err := d.availability.CheckEnabled(ctx); err != nil {
		return nil, err
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	session, err := d.rouletteRepo.GetSessionByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found session")
		}

		xcontext.Logger(ctx).Errorf("Cannot get roulette session: %v", err)
		return nil, errorx.Unknown
	}

	if session.Finished || session.SpinCount >= session.MaxSpins {
		return nil, errorx.New(errorx.SessionFinished, "Session is already finished")
	}

	err = d.rouletteRepo.AdvanceSession(ctx, session.ID, session.SpinCount)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.RaceCondition, "Another spin is in progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot advance roulette session: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()
	pool, err := d.tokenRepo.GetEligibleByBatchID(ctx, session.BatchID, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get eligible tokens: %v", err)
		return nil, errorx.Unknown
	}

	if len(pool) == 0 {
		xcontext.Logger(ctx).Errorf(
			"Session %s has %d spins left but an empty pool", session.ID, session.MaxSpins-session.SpinCount)
		return nil, errorx.New(errorx.SessionFinished, "Session has no tokens left")
	}

	var token *entity.Token
	var prizeID string
	switch session.Mode {
	case entity.RouletteModeByToken:
		items := make([]weighted.Item, 0, len(pool))
		for i := range pool {
			items = append(items, weighted.Item{ID: pool[i].ID, Weight: 1})
		}

		pickedID, err := weighted.Pick(items, d.randomSource)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot draw a token: %v", err)
			return nil, errorx.Unknown
		}

		for i := range pool {
			if pool[i].ID == pickedID {
				token = &pool[i]
				break
			}
		}
		prizeID = token.PrizeID

	case entity.RouletteModeProbability:
		token = &pool[0]

		prizes, err := d.prizeRepo.GetAll(ctx)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
			return nil, errorx.Unknown
		}

		items := make([]weighted.Item, 0, len(prizes))
		for i := range prizes {
			if prizes[i].Active && prizes[i].Weight > 0 {
				items = append(items, weighted.Item{ID: prizes[i].ID, Weight: prizes[i].Weight})
			}
		}

		prizeID, err = weighted.Pick(items, d.randomSource)
		if err != nil {
			if errors.Is(err, weighted.ErrNoItems) {
				return nil, errorx.New(errorx.Unavailable, "No weighted prize to draw from")
			}

			xcontext.Logger(ctx).Errorf("Cannot draw a prize: %v", err)
			return nil, errorx.Unknown
		}

	default:
		xcontext.Logger(ctx).Errorf("Session %s has invalid mode %s", session.ID, session.Mode)
		return nil, errorx.Unknown
	}

	if err := d.tokenRepo.Reveal(ctx, token.ID, prizeID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.RaceCondition, "Token was consumed by another request")
		}

		xcontext.Logger(ctx).Errorf("Cannot reveal drawn token: %v", err)
		return nil, errorx.Unknown
	}

	spin := &entity.RouletteSpin{
		Base:      entity.Base{ID: uuid.NewString()},
		SessionID: session.ID,
		TokenID:   token.ID,
		PrizeID:   prizeID,
		Ordinal:   session.SpinCount + 1,
	}

	if err := d.rouletteRepo.CreateSpin(ctx, spin); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create spin: %v", err)
		return nil, errorx.Unknown
	}

	finished := spin.Ordinal >= session.MaxSpins
	if finished {
		if err := d.rouletteRepo.SetFinished(ctx, session.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot finish session: %v", err)
			return nil, errorx.Unknown
		}
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	prize, err := d.getPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}

	return &model.SpinRouletteResponse{
		Spin:     model.ConvertRouletteSpin(spin),
		Prize:    model.ConvertPrize(prize),
		Finished: finished,
	}, nil
}

func (d *rouletteDomain) getPrize(ctx context.Context, prizeID string) (*entity.Prize, error) {
	if prize, ok := d.prizeCache.Get(ctx, prizeID); ok {
		return prize, nil
	}

	prize, err := d.prizeRepo.GetByID(ctx, prizeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found prize")
		}

		xcontext.Logger(ctx).Errorf("Cannot get prize: %v", err)
		return nil, errorx.Unknown
	}

	d.prizeCache.Set(ctx, prize)
	return prize, nil
}

func (d *rouletteDomain) GetSession(
	ctx context.Context, req *model.GetRouletteSessionRequest,
) (*model.GetRouletteSessionResponse, error) {
	session, err := d.rouletteRepo.GetSessionByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found session")
		}

		xcontext.Logger(ctx).Errorf("Cannot get roulette session: %v", err)
		return nil, errorx.Unknown
	}

	spins, err := d.rouletteRepo.GetSpinsBySessionID(ctx, session.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get session spins: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetRouletteSessionResponse{
		Session: model.ConvertRouletteSession(session),
		Spins:   model.ConvertRouletteSpins(spins),
	}, nil
}
