package repository

import (
	"context"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
)

type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, batchID string) (*entity.Batch, error)
	GetByIDs(ctx context.Context, batchIDs []string) ([]entity.Batch, error)
	Delete(ctx context.Context, batchIDs []string) error
}

type batchRepository struct{}

func NewBatchRepository() *batchRepository {
	return &batchRepository{}
}

func (r *batchRepository) Create(ctx context.Context, batch *entity.Batch) error {
	return xcontext.DB(ctx).Create(batch).Error
}

func (r *batchRepository) GetByID(ctx context.Context, batchID string) (*entity.Batch, error) {
	var result entity.Batch
	if err := xcontext.DB(ctx).Take(&result, "id=?", batchID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *batchRepository) GetByIDs(ctx context.Context, batchIDs []string) ([]entity.Batch, error) {
	var result []entity.Batch
	if err := xcontext.DB(ctx).Find(&result, "id IN (?)", batchIDs).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *batchRepository) Delete(ctx context.Context, batchIDs []string) error {
	if len(batchIDs) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Delete(&entity.Batch{}, "id IN (?)", batchIDs).Error
}
