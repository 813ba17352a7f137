package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type TokenRepository interface {
	BulkCreate(ctx context.Context, tokens []*entity.Token) error
	GetByID(ctx context.Context, tokenID string) (*entity.Token, error)
	GetByBatchID(ctx context.Context, batchID string) ([]entity.Token, error)
	GetEligibleByBatchID(ctx context.Context, batchID string, now time.Time) ([]entity.Token, error)
	Reveal(ctx context.Context, tokenID, assignedPrizeID string, now time.Time) error
	Deliver(ctx context.Context, tokenID string, now time.Time) error
	RedeemDirect(ctx context.Context, tokenID string, now time.Time) error
	RevertDelivery(ctx context.Context, tokenID string) error
	CountByBatchIDs(ctx context.Context, batchIDs []string) (int64, error)
	DeleteByBatchIDs(ctx context.Context, batchIDs []string) error
}

type tokenRepository struct{}

func NewTokenRepository() *tokenRepository {
	return &tokenRepository{}
}

func (r *tokenRepository) BulkCreate(ctx context.Context, tokens []*entity.Token) error {
	if len(tokens) == 0 {
		return nil
	}

	return xcontext.DB(ctx).CreateInBatches(tokens, 200).Error
}

func (r *tokenRepository) GetByID(ctx context.Context, tokenID string) (*entity.Token, error) {
	var result entity.Token
	if err := xcontext.DB(ctx).Take(&result, "id=?", tokenID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *tokenRepository) GetByBatchID(ctx context.Context, batchID string) ([]entity.Token, error) {
	var result []entity.Token
	err := xcontext.DB(ctx).Order("created_at ASC, id ASC").
		Find(&result, "batch_id=?", batchID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetEligibleByBatchID returns the batch tokens that can still be consumed
// by a roulette spin: enabled, unexpired, and never revealed. Ordering is
// fixed so the by_token drain is deterministic.
func (r *tokenRepository) GetEligibleByBatchID(
	ctx context.Context, batchID string, now time.Time,
) ([]entity.Token, error) {
	var result []entity.Token
	err := xcontext.DB(ctx).
		Where("batch_id=? AND disabled=? AND revealed_at IS NULL AND expires_at > ?",
			batchID, false, now).
		Order("created_at ASC, id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Reveal stamps revealed_at exactly once. The guard makes a second reveal
// (or a reveal racing a concurrent one) report gorm.ErrRecordNotFound
// instead of overwriting the first.
func (r *tokenRepository) Reveal(
	ctx context.Context, tokenID, assignedPrizeID string, now time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("id=? AND disabled=? AND revealed_at IS NULL", tokenID, false).
		Updates(map[string]any{
			"revealed_at":       now,
			"assigned_prize_id": assignedPrizeID,
			"delivered_at":      nil,
			"redeemed_at":       nil,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Deliver finalizes a revealed token. Exactly one of two concurrent calls
// can pass the delivered_at IS NULL guard.
func (r *tokenRepository) Deliver(ctx context.Context, tokenID string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("id=? AND revealed_at IS NOT NULL AND delivered_at IS NULL", tokenID).
		Updates(map[string]any{
			"delivered_at": now,
			"redeemed_at":  now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// RedeemDirect is the single-phase path: it backfills revealed_at when the
// token was never revealed.
func (r *tokenRepository) RedeemDirect(ctx context.Context, tokenID string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("id=? AND disabled=? AND redeemed_at IS NULL", tokenID, false).
		Updates(map[string]any{
			"revealed_at":  gorm.Expr("COALESCE(revealed_at, ?)", now),
			"delivered_at": now,
			"redeemed_at":  now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// RevertDelivery clears the delivery attribution but keeps the reveal and
// the assigned prize, returning the token to "revealed, not delivered".
func (r *tokenRepository) RevertDelivery(ctx context.Context, tokenID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("id=? AND revealed_at IS NOT NULL AND delivered_at IS NOT NULL", tokenID).
		Updates(map[string]any{
			"delivered_at": sql.NullTime{},
			"redeemed_at":  sql.NullTime{},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *tokenRepository) CountByBatchIDs(ctx context.Context, batchIDs []string) (int64, error) {
	if len(batchIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("batch_id IN (?)", batchIDs).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *tokenRepository) DeleteByBatchIDs(ctx context.Context, batchIDs []string) error {
	if len(batchIDs) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Delete(&entity.Token{}, "batch_id IN (?)", batchIDs).Error
}
