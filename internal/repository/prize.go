package repository

import (
	"context"
	"time"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// PrizeTokenCount is the typed aggregate row of the reconciliation query.
type PrizeTokenCount struct {
	PrizeID string
	Total   int64
}

type PrizeRepository interface {
	Create(ctx context.Context, prize *entity.Prize) error
	GetByID(ctx context.Context, prizeID string) (*entity.Prize, error)
	GetAll(ctx context.Context) ([]entity.Prize, error)
	GetGenerable(ctx context.Context) ([]entity.Prize, error)
	ClaimStock(ctx context.Context, prizeID string, expectedStock int, now time.Time) error
	Restock(ctx context.Context, prizeID string, delta int) error
	SetActive(ctx context.Context, prizeID string, active bool) error
	CountTokensByPrize(ctx context.Context) ([]PrizeTokenCount, error)
	SetEmittedTotal(ctx context.Context, prizeID string, emittedTotal int) error
	ClampNegativeStock(ctx context.Context) (int64, error)
	GetUnreferenced(ctx context.Context) ([]entity.Prize, error)
	Delete(ctx context.Context, prizeIDs []string) error
}

type prizeRepository struct{}

func NewPrizeRepository() *prizeRepository {
	return &prizeRepository{}
}

func (r *prizeRepository) Create(ctx context.Context, prize *entity.Prize) error {
	return xcontext.DB(ctx).Create(prize).Error
}

func (r *prizeRepository) GetByID(ctx context.Context, prizeID string) (*entity.Prize, error) {
	var result entity.Prize
	if err := xcontext.DB(ctx).Take(&result, "id=?", prizeID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *prizeRepository) GetAll(ctx context.Context) ([]entity.Prize, error) {
	var result []entity.Prize
	if err := xcontext.DB(ctx).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// GetGenerable returns the active prizes with a known, positive stock. These
// are the only prizes batch generation mints tokens for.
func (r *prizeRepository) GetGenerable(ctx context.Context) ([]entity.Prize, error) {
	var result []entity.Prize
	err := xcontext.DB(ctx).
		Find(&result, "active=? AND stock IS NOT NULL AND stock > 0", true).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ClaimStock consumes the whole expected stock of a prize. The update only
// applies while the stock still equals the value the caller read in the same
// transaction; losing that race reports gorm.ErrRecordNotFound so the caller
// can surface it as a generation conflict.
func (r *prizeRepository) ClaimStock(
	ctx context.Context, prizeID string, expectedStock int, now time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Prize{}).
		Where("id=? AND stock=?", prizeID, expectedStock).
		Updates(map[string]any{
			"stock":           0,
			"emitted_total":   gorm.Expr("emitted_total+?", expectedStock),
			"last_emitted_at": now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *prizeRepository) Restock(ctx context.Context, prizeID string, delta int) error {
	tx := xcontext.DB(ctx).Model(&entity.Prize{}).
		Where("id=? AND stock IS NOT NULL", prizeID).
		Update("stock", gorm.Expr("stock+?", delta))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *prizeRepository) SetActive(ctx context.Context, prizeID string, active bool) error {
	tx := xcontext.DB(ctx).Model(&entity.Prize{}).
		Where("id=?", prizeID).
		Update("active", active)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *prizeRepository) CountTokensByPrize(ctx context.Context) ([]PrizeTokenCount, error) {
	var result []PrizeTokenCount
	err := xcontext.DB(ctx).Model(&entity.Token{}).
		Select("prize_id, COUNT(*) as total").
		Group("prize_id").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SetEmittedTotal is reserved for the reconciliation job; it never lowers
// the counter.
func (r *prizeRepository) SetEmittedTotal(ctx context.Context, prizeID string, emittedTotal int) error {
	return xcontext.DB(ctx).Model(&entity.Prize{}).
		Where("id=? AND emitted_total < ?", prizeID, emittedTotal).
		Update("emitted_total", emittedTotal).Error
}

// ClampNegativeStock lifts every tracked stock that drifted below zero back
// to zero and reports how many rows it touched. Non-negative stock is never
// rewritten, so a stock claimed by a concurrent generation stays untouched.
func (r *prizeRepository) ClampNegativeStock(ctx context.Context) (int64, error) {
	tx := xcontext.DB(ctx).Model(&entity.Prize{}).
		Where("stock IS NOT NULL AND stock < 0").
		Update("stock", 0)
	if tx.Error != nil {
		return 0, tx.Error
	}

	return tx.RowsAffected, nil
}

// GetUnreferenced returns prizes that already emitted tokens but are no
// longer referenced by any. Prizes that never generated are not orphans.
func (r *prizeRepository) GetUnreferenced(ctx context.Context) ([]entity.Prize, error) {
	var result []entity.Prize
	err := xcontext.DB(ctx).
		Where("emitted_total > 0").
		Where("id NOT IN (?)", xcontext.DB(ctx).Model(&entity.Token{}).Select("prize_id")).
		Where("id NOT IN (?)", xcontext.DB(ctx).Model(&entity.ReusableToken{}).Select("prize_id")).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *prizeRepository) Delete(ctx context.Context, prizeIDs []string) error {
	if len(prizeIDs) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Delete(&entity.Prize{}, "id IN (?)", prizeIDs).Error
}
