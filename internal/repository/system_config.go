package repository

import (
	"context"
	"errors"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type SystemConfigRepository interface {
	Get(ctx context.Context) (*entity.SystemConfig, error)
	SetTokensEnabled(ctx context.Context, enabled bool, updatedBy string) error
}

type systemConfigRepository struct{}

func NewSystemConfigRepository() *systemConfigRepository {
	return &systemConfigRepository{}
}

// Get returns the single config row, creating the default (enabled) one on
// first access.
func (r *systemConfigRepository) Get(ctx context.Context) (*entity.SystemConfig, error) {
	var result entity.SystemConfig
	err := xcontext.DB(ctx).Take(&result, "id=?", entity.SystemConfigID).Error
	if err == nil {
		return &result, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	result = entity.SystemConfig{
		Base:          entity.Base{ID: entity.SystemConfigID},
		TokensEnabled: true,
	}
	if err := xcontext.DB(ctx).Create(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// SetTokensEnabled updates the manual flag. Get creates the singleton row
// lazily, so a toggle on a fresh store works too.
func (r *systemConfigRepository) SetTokensEnabled(
	ctx context.Context, enabled bool, updatedBy string,
) error {
	if _, err := r.Get(ctx); err != nil {
		return err
	}

	return xcontext.DB(ctx).Model(&entity.SystemConfig{}).
		Where("id=?", entity.SystemConfigID).
		Updates(map[string]any{
			"tokens_enabled": enabled,
			"updated_by":     updatedBy,
		}).Error
}
