package domain

import (
	"context"
	"errors"
	"time"

	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/domain/prizecache"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/signer"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type RedemptionDomain interface {
	RedeemToken(context.Context, *model.RedeemTokenRequest) (*model.RedeemTokenResponse, error)
	RevealToken(context.Context, *model.RevealTokenRequest) (*model.RevealTokenResponse, error)
	DeliverToken(context.Context, *model.DeliverTokenRequest) (*model.DeliverTokenResponse, error)
	RevertDelivery(context.Context, *model.RevertTokenDeliveryRequest) (*model.RevertTokenDeliveryResponse, error)
	GetToken(context.Context, *model.GetTokenRequest) (*model.GetTokenResponse, error)
}

type redemptionDomain struct {
	tokenRepo          repository.TokenRepository
	prizeRepo          repository.PrizeRepository
	prizeCache         prizecache.Cache
	availability       AvailabilityDomain
	globalRoleVerifier *common.GlobalRoleVerifier
	tokenSigner        *signer.Signer
	mode               entity.RedemptionMode
}

func NewRedemptionDomain(
	tokenRepo repository.TokenRepository,
	prizeRepo repository.PrizeRepository,
	prizeCache prizecache.Cache,
	availability AvailabilityDomain,
	globalRoleVerifier *common.GlobalRoleVerifier,
	tokenSigner *signer.Signer,
	mode entity.RedemptionMode,
) *redemptionDomain {
	return &redemptionDomain{
		tokenRepo:          tokenRepo,
		prizeRepo:          prizeRepo,
		prizeCache:         prizeCache,
		availability:       availability,
		globalRoleVerifier: globalRoleVerifier,
		tokenSigner:        tokenSigner,
		mode:               mode,
	}
}

// loadToken fetches a single-use token and runs the checks shared by every
// flow: existence, the disabled flag, and expiry.
func (d *redemptionDomain) loadToken(ctx context.Context, tokenID string) (*entity.Token, error) {
	if entity.IsReusableTokenID(tokenID) {
		return nil, errorx.New(errorx.BadRequest, "Reusable tokens use their own endpoint")
	}

	token, err := d.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found token")
		}

		xcontext.Logger(ctx).Errorf("Cannot get token: %v", err)
		return nil, errorx.Unknown
	}

	if token.Disabled {
		return nil, errorx.New(errorx.Inactive, "Token is inactive")
	}

	if time.Now().After(token.ExpiresAt) {
		return nil, errorx.New(errorx.TokenExpired, "Token is expired")
	}

	return token, nil
}

func (d *redemptionDomain) verifySignature(token *entity.Token, signature string) error {
	ok := d.tokenSigner.Verify(
		token.ID, token.PrizeID, token.ExpiresAt, token.SignatureVersion, signature)
	if !ok {
		return errorx.New(errorx.PermissionDenied, "Invalid token signature")
	}

	return nil
}

// getPrize reads a prize through the catalog cache. Stock never comes from
// here; the cache only feeds display fields.
func (d *redemptionDomain) getPrize(ctx context.Context, prizeID string) (*entity.Prize, error) {
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

// effectivePrizeID is the prize the customer actually gets: the reveal-time
// assignment when one exists, otherwise the mint-time prize.
func effectivePrizeID(token *entity.Token) string {
	if token.AssignedPrizeID.Valid {
		return token.AssignedPrizeID.String
	}

	return token.PrizeID
}

func (d *redemptionDomain) RedeemToken(
	ctx context.Context, req *model.RedeemTokenRequest,
) (*model.RedeemTokenResponse, error) {
	if d.mode != entity.RedemptionSinglePhase {
		return nil, errorx.New(errorx.FeatureDisabled,
			"Direct redemption is disabled, use reveal and deliver")
	}

	token, err := d.loadToken(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	if err := d.verifySignature(token, req.Signature); err != nil {
		return nil, err
	}

	if token.RedeemedAt.Valid {
		return nil, errorx.New(errorx.AlreadyRedeemed, "Token is already redeemed")
	}

	if err := d.availability.CheckEnabled(ctx); err != nil {
		return nil, err
	}

	if err := d.tokenRepo.RedeemDirect(ctx, token.ID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.RaceCondition, "Token was redeemed by another request")
		}

		xcontext.Logger(ctx).Errorf("Cannot redeem token: %v", err)
		return nil, errorx.Unknown
	}

	token, err = d.tokenRepo.GetByID(ctx, token.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload token: %v", err)
		return nil, errorx.Unknown
	}

	prize, err := d.getPrize(ctx, effectivePrizeID(token))
	if err != nil {
		return nil, err
	}

	return &model.RedeemTokenResponse{
		Token: model.ConvertToken(token, tokenURL(ctx, token)),
		Prize: model.ConvertPrize(prize),
	}, nil
}

func (d *redemptionDomain) RevealToken(
	ctx context.Context, req *model.RevealTokenRequest,
) (*model.RevealTokenResponse, error) {
	if d.mode != entity.RedemptionTwoPhase {
		return nil, errorx.New(errorx.FeatureDisabled,
			"Reveal is disabled, use direct redemption")
	}

	token, err := d.loadToken(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	if err := d.verifySignature(token, req.Signature); err != nil {
		return nil, err
	}

	if token.RevealedAt.Valid {
		return nil, errorx.New(errorx.AlreadyRevealed, "Token is already revealed")
	}

	// Staff can reassign the prize at reveal time; the reveal pins either
	// the requested prize or the mint-time one.
	assignedPrizeID := token.PrizeID
	if req.PrizeID != "" {
		assignedPrizeID = req.PrizeID
	}

	prize, err := d.getPrize(ctx, assignedPrizeID)
	if err != nil {
		return nil, err
	}

	if !prize.Active {
		return nil, errorx.New(errorx.Inactive, "Prize is inactive")
	}

	if err := d.availability.CheckEnabled(ctx); err != nil {
		return nil, err
	}

	err = d.tokenRepo.Reveal(ctx, token.ID, assignedPrizeID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.RaceCondition, "Token was revealed by another request")
		}

		xcontext.Logger(ctx).Errorf("Cannot reveal token: %v", err)
		return nil, errorx.Unknown
	}

	token, err = d.tokenRepo.GetByID(ctx, token.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RevealTokenResponse{
		Token: model.ConvertToken(token, tokenURL(ctx, token)),
		Prize: model.ConvertPrize(prize),
	}, nil
}

func (d *redemptionDomain) DeliverToken(
	ctx context.Context, req *model.DeliverTokenRequest,
) (*model.DeliverTokenResponse, error) {
	if d.mode != entity.RedemptionTwoPhase {
		return nil, errorx.New(errorx.FeatureDisabled,
			"Delivery is disabled, use direct redemption")
	}

	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalStaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	token, err := d.loadToken(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	if !token.RevealedAt.Valid {
		return nil, errorx.New(errorx.NotRevealed, "Token is not revealed yet")
	}

	if token.DeliveredAt.Valid {
		return nil, errorx.New(errorx.AlreadyDelivered, "Token is already delivered")
	}

	if err := d.availability.CheckEnabled(ctx); err != nil {
		return nil, err
	}

	if err := d.tokenRepo.Deliver(ctx, token.ID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.AlreadyDelivered, "Token was delivered by another request")
		}

		xcontext.Logger(ctx).Errorf("Cannot deliver token: %v", err)
		return nil, errorx.Unknown
	}

	token, err = d.tokenRepo.GetByID(ctx, token.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload token: %v", err)
		return nil, errorx.Unknown
	}

	prize, err := d.getPrize(ctx, effectivePrizeID(token))
	if err != nil {
		return nil, err
	}

	return &model.DeliverTokenResponse{
		Token: model.ConvertToken(token, tokenURL(ctx, token)),
		Prize: model.ConvertPrize(prize),
	}, nil
}

func (d *redemptionDomain) RevertDelivery(
	ctx context.Context, req *model.RevertTokenDeliveryRequest,
) (*model.RevertTokenDeliveryResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	token, err := d.tokenRepo.GetByID(ctx, req.TokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found token")
		}

		xcontext.Logger(ctx).Errorf("Cannot get token: %v", err)
		return nil, errorx.Unknown
	}

	if !token.DeliveredAt.Valid {
		return nil, errorx.New(errorx.NotDelivered, "Token is not delivered yet")
	}

	if err := d.tokenRepo.RevertDelivery(ctx, token.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.RaceCondition, "Token delivery changed concurrently")
		}

		xcontext.Logger(ctx).Errorf("Cannot revert token delivery: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("Delivery of token %s reverted by %s",
		token.ID, xcontext.RequestUserID(ctx))

	token, err = d.tokenRepo.GetByID(ctx, token.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RevertTokenDeliveryResponse{
		Token: model.ConvertToken(token, tokenURL(ctx, token)),
	}, nil
}

func (d *redemptionDomain) GetToken(
	ctx context.Context, req *model.GetTokenRequest,
) (*model.GetTokenResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalStaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	token, err := d.tokenRepo.GetByID(ctx, req.TokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found token")
		}

		xcontext.Logger(ctx).Errorf("Cannot get token: %v", err)
		return nil, errorx.Unknown
	}

	prize, err := d.getPrize(ctx, effectivePrizeID(token))
	if err != nil {
		return nil, err
	}

	return &model.GetTokenResponse{
		Token: model.ConvertToken(token, tokenURL(ctx, token)),
		Prize: model.ConvertPrize(prize),
	}, nil
}
