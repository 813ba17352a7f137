package repository

import (
	"context"
	"time"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ReusableTokenRepository interface {
	Create(ctx context.Context, token *entity.ReusableToken) error
	GetByID(ctx context.Context, tokenID string) (*entity.ReusableToken, error)
	IncrementUsage(ctx context.Context, tokenID string, now time.Time) error
	MarkDelivered(ctx context.Context, tokenID, userID string, now time.Time) error
	GetByPrizeIDs(ctx context.Context, prizeIDs []string) ([]entity.ReusableToken, error)
}

type reusableTokenRepository struct{}

func NewReusableTokenRepository() *reusableTokenRepository {
	return &reusableTokenRepository{}
}

func (r *reusableTokenRepository) Create(ctx context.Context, token *entity.ReusableToken) error {
	return xcontext.DB(ctx).Create(token).Error
}

func (r *reusableTokenRepository) GetByID(
	ctx context.Context, tokenID string,
) (*entity.ReusableToken, error) {
	var result entity.ReusableToken
	if err := xcontext.DB(ctx).Take(&result, "id=?", tokenID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// IncrementUsage counts one redemption. The used_count < max_uses guard makes
// the cap safe under concurrent redemptions of the same token; losing the race
// at the cap reports gorm.ErrRecordNotFound.
func (r *reusableTokenRepository) IncrementUsage(
	ctx context.Context, tokenID string, now time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.ReusableToken{}).
		Where("id=? AND disabled=? AND used_count < max_uses", tokenID, false).
		Updates(map[string]any{
			"used_count":  gorm.Expr("used_count+1"),
			"redeemed_at": now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// MarkDelivered records the handover once. A second delivery of the same
// token reports gorm.ErrRecordNotFound instead of overwriting the first
// attribution.
func (r *reusableTokenRepository) MarkDelivered(
	ctx context.Context, tokenID, userID string, now time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.ReusableToken{}).
		Where("id=? AND delivered_at IS NULL", tokenID).
		Updates(map[string]any{
			"delivered_at":         now,
			"delivered_by_user_id": userID,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *reusableTokenRepository) GetByPrizeIDs(
	ctx context.Context, prizeIDs []string,
) ([]entity.ReusableToken, error) {
	if len(prizeIDs) == 0 {
		return nil, nil
	}

	var result []entity.ReusableToken
	err := xcontext.DB(ctx).Find(&result, "prize_id IN (?)", prizeIDs).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
