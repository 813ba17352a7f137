package domain

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/domain/prizecache"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type PrizeDomain interface {
	Create(context.Context, *model.CreatePrizeRequest) (*model.CreatePrizeResponse, error)
	GetAll(context.Context, *model.GetPrizesRequest) (*model.GetPrizesResponse, error)
	Restock(context.Context, *model.RestockPrizeRequest) (*model.RestockPrizeResponse, error)
	SetActive(context.Context, *model.SetPrizeActiveRequest) (*model.SetPrizeActiveResponse, error)
}

type prizeDomain struct {
	prizeRepo          repository.PrizeRepository
	prizeCache         prizecache.Cache
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewPrizeDomain(
	prizeRepo repository.PrizeRepository,
	prizeCache prizecache.Cache,
	globalRoleVerifier *common.GlobalRoleVerifier,
) *prizeDomain {
	return &prizeDomain{
		prizeRepo:          prizeRepo,
		prizeCache:         prizeCache,
		globalRoleVerifier: globalRoleVerifier,
	}
}

func (d *prizeDomain) Create(
	ctx context.Context, req *model.CreatePrizeRequest,
) (*model.CreatePrizeResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if req.Label == "" {
		return nil, errorx.New(errorx.BadRequest, "Label must not be empty")
	}

	if req.Stock != nil && *req.Stock < 0 {
		return nil, errorx.New(errorx.BadRequest, "Stock must not be negative")
	}

	weight := req.Weight
	if weight == 0 {
		weight = 1
	}
	if weight < 0 {
		return nil, errorx.New(errorx.BadRequest, "Weight must be a positive number")
	}

	prize := &entity.Prize{
		Base:   entity.Base{ID: uuid.NewString()},
		Label:  req.Label,
		Color:  req.Color,
		Active: true,
		Weight: weight,
	}

	if req.Stock != nil {
		prize.Stock = sql.NullInt64{Int64: int64(*req.Stock), Valid: true}
	}

	if err := d.prizeRepo.Create(ctx, prize); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create prize: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreatePrizeResponse{Prize: model.ConvertPrize(prize)}, nil
}

func (d *prizeDomain) GetAll(
	ctx context.Context, req *model.GetPrizesRequest,
) (*model.GetPrizesResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalStaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	prizes, err := d.prizeRepo.GetAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetPrizesResponse{Prizes: model.ConvertPrizes(prizes)}, nil
}

func (d *prizeDomain) Restock(
	ctx context.Context, req *model.RestockPrizeRequest,
) (*model.RestockPrizeResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if req.Delta <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Restock delta must be a positive number")
	}

	if err := d.prizeRepo.Restock(ctx, req.PrizeID, req.Delta); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found prize with a counted stock")
		}

		xcontext.Logger(ctx).Errorf("Cannot restock prize: %v", err)
		return nil, errorx.Unknown
	}

	d.prizeCache.Invalidate(ctx, req.PrizeID)

	prize, err := d.prizeRepo.GetByID(ctx, req.PrizeID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload prize: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RestockPrizeResponse{Prize: model.ConvertPrize(prize)}, nil
}

func (d *prizeDomain) SetActive(
	ctx context.Context, req *model.SetPrizeActiveRequest,
) (*model.SetPrizeActiveResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if err := d.prizeRepo.SetActive(ctx, req.PrizeID, req.Active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found prize")
		}

		xcontext.Logger(ctx).Errorf("Cannot update prize: %v", err)
		return nil, errorx.Unknown
	}

	d.prizeCache.Invalidate(ctx, req.PrizeID)
	return &model.SetPrizeActiveResponse{}, nil
}
