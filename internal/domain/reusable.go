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
	"github.com/venuelab/backend/pkg/dateutil"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/signer"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ReusableDomain interface {
	CreateToken(context.Context, *model.CreateReusableTokenRequest) (*model.CreateReusableTokenResponse, error)
	RedeemToken(context.Context, *model.RedeemReusableTokenRequest) (*model.RedeemReusableTokenResponse, error)
	DeliverToken(context.Context, *model.DeliverReusableTokenRequest) (*model.DeliverReusableTokenResponse, error)
}

type reusableDomain struct {
	reusableTokenRepo  repository.ReusableTokenRepository
	prizeRepo          repository.PrizeRepository
	prizeCache         prizecache.Cache
	availability       AvailabilityDomain
	globalRoleVerifier *common.GlobalRoleVerifier
	tokenSigner        *signer.Signer
}

func NewReusableDomain(
	reusableTokenRepo repository.ReusableTokenRepository,
	prizeRepo repository.PrizeRepository,
	prizeCache prizecache.Cache,
	availability AvailabilityDomain,
	globalRoleVerifier *common.GlobalRoleVerifier,
	tokenSigner *signer.Signer,
) *reusableDomain {
	return &reusableDomain{
		reusableTokenRepo:  reusableTokenRepo,
		prizeRepo:          prizeRepo,
		prizeCache:         prizeCache,
		availability:       availability,
		globalRoleVerifier: globalRoleVerifier,
		tokenSigner:        tokenSigner,
	}
}

func (d *reusableDomain) getPrize(ctx context.Context, prizeID string) (*entity.Prize, error) {
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

func (d *reusableDomain) CreateToken(
	ctx context.Context, req *model.CreateReusableTokenRequest,
) (*model.CreateReusableTokenResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if req.MaxUses <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Max uses must be a positive number")
	}

	if (req.StartHour == nil) != (req.EndHour == nil) {
		return nil, errorx.New(errorx.BadRequest, "Both window hours must be given together")
	}

	if req.StartHour != nil {
		if *req.StartHour < 0 || *req.StartHour > 23 || *req.EndHour < 0 || *req.EndHour > 23 {
			return nil, errorx.New(errorx.BadRequest, "Window hours must be between 0 and 23")
		}
	}

	cfg := xcontext.Configs(ctx).Prize
	expirationDays := req.ExpirationDays
	if expirationDays <= 0 {
		expirationDays = cfg.DefaultExpirationDays
	}
	if expirationDays <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Expiration days must be a positive number")
	}

	if _, err := d.getPrize(ctx, req.PrizeID); err != nil {
		return nil, err
	}

	signatureVersion := cfg.SignatureVersion
	if signatureVersion == 0 {
		signatureVersion = signer.LatestVersion
	}

	tokenID := entity.ReusableTokenPrefix + uuid.NewString()
	expiresAt := time.Now().AddDate(0, 0, expirationDays)
	signature, err := d.tokenSigner.Sign(tokenID, req.PrizeID, expiresAt, signatureVersion)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sign reusable token: %v", err)
		return nil, errorx.Unknown
	}

	token := &entity.ReusableToken{
		Base:             entity.Base{ID: tokenID},
		PrizeID:          req.PrizeID,
		MaxUses:          req.MaxUses,
		ExpiresAt:        expiresAt,
		Signature:        signature,
		SignatureVersion: signatureVersion,
	}

	if req.StartHour != nil {
		token.StartHour.Int64, token.StartHour.Valid = int64(*req.StartHour), true
		token.EndHour.Int64, token.EndHour.Valid = int64(*req.EndHour), true
	}

	if err := d.reusableTokenRepo.Create(ctx, token); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create reusable token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateReusableTokenResponse{
		Token: model.ConvertReusableToken(token, reusableTokenURL(ctx, token)),
	}, nil
}

// RedeemToken counts one use of a reusable token. Checks run in a fixed
// order so a token that fails several of them always reports the same error:
// existence, inactive, expiry, daily window, then the usage cap.
func (d *reusableDomain) RedeemToken(
	ctx context.Context, req *model.RedeemReusableTokenRequest,
) (*model.RedeemReusableTokenResponse, error) {
	if !entity.IsReusableTokenID(req.TokenID) {
		return nil, errorx.New(errorx.BadRequest, "Not a reusable token id")
	}

	token, err := d.reusableTokenRepo.GetByID(ctx, req.TokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found token")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reusable token: %v", err)
		return nil, errorx.Unknown
	}

	if token.Disabled {
		return nil, errorx.New(errorx.Inactive, "Token is inactive")
	}

	now := venueNow(ctx)
	if now.After(token.ExpiresAt) {
		return nil, errorx.New(errorx.TokenExpired, "Token is expired")
	}

	ok := d.tokenSigner.Verify(
		token.ID, token.PrizeID, token.ExpiresAt, token.SignatureVersion, req.Signature)
	if !ok {
		return nil, errorx.New(errorx.PermissionDenied, "Invalid token signature")
	}

	if token.StartHour.Valid {
		if !dateutil.InHourWindow(now, int(token.StartHour.Int64), int(token.EndHour.Int64)) {
			return nil, errorx.New(errorx.OutsideTimeWindow,
				"Token is only valid between %02d:00 and %02d:00",
				token.StartHour.Int64, token.EndHour.Int64)
		}
	}

	if token.UsedCount >= token.MaxUses {
		return nil, errorx.New(errorx.UsageLimitReached, "Token has no uses left")
	}

	if err := d.availability.CheckEnabled(ctx); err != nil {
		return nil, err
	}

	if err := d.reusableTokenRepo.IncrementUsage(ctx, token.ID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.UsageLimitReached, "Token has no uses left")
		}

		xcontext.Logger(ctx).Errorf("Cannot increment token usage: %v", err)
		return nil, errorx.Unknown
	}

	token, err = d.reusableTokenRepo.GetByID(ctx, token.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload reusable token: %v", err)
		return nil, errorx.Unknown
	}

	prize, err := d.getPrize(ctx, token.PrizeID)
	if err != nil {
		return nil, err
	}

	return &model.RedeemReusableTokenResponse{
		Token: model.ConvertReusableToken(token, reusableTokenURL(ctx, token)),
		Prize: model.ConvertPrize(prize),
	}, nil
}

func (d *reusableDomain) DeliverToken(
	ctx context.Context, req *model.DeliverReusableTokenRequest,
) (*model.DeliverReusableTokenResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalStaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	token, err := d.reusableTokenRepo.GetByID(ctx, req.TokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found token")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reusable token: %v", err)
		return nil, errorx.Unknown
	}

	if token.DeliveredAt.Valid {
		return nil, errorx.New(errorx.AlreadyDelivered, "Token is already delivered")
	}

	// Delivery without a prior digital redemption counts a use itself, so
	// handing over the reward always consumes from the same cap.
	if !token.RedeemedAt.Valid {
		if err := d.reusableTokenRepo.IncrementUsage(ctx, token.ID, time.Now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.UsageLimitReached, "Token has no uses left")
			}

			xcontext.Logger(ctx).Errorf("Cannot increment token usage: %v", err)
			return nil, errorx.Unknown
		}
	}

	userID := xcontext.RequestUserID(ctx)
	err = d.reusableTokenRepo.MarkDelivered(ctx, token.ID, userID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.AlreadyDelivered, "Token was delivered by another request")
		}

		xcontext.Logger(ctx).Errorf("Cannot mark reusable token as delivered: %v", err)
		return nil, errorx.Unknown
	}

	token, err = d.reusableTokenRepo.GetByID(ctx, token.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload reusable token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.DeliverReusableTokenResponse{
		Token: model.ConvertReusableToken(token, reusableTokenURL(ctx, token)),
	}, nil
}
