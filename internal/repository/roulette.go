package repository

import (
	"context"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type RouletteRepository interface {
	CreateSession(ctx context.Context, session *entity.RouletteSession) error
	GetSessionByID(ctx context.Context, sessionID string) (*entity.RouletteSession, error)
	GetSessionsByBatchIDs(ctx context.Context, batchIDs []string) ([]entity.RouletteSession, error)
	AdvanceSession(ctx context.Context, sessionID string, expectedSpinCount int) error
	SetFinished(ctx context.Context, sessionID string) error
	CreateSpin(ctx context.Context, spin *entity.RouletteSpin) error
	GetSpinsBySessionID(ctx context.Context, sessionID string) ([]entity.RouletteSpin, error)
	DeleteBySessionIDs(ctx context.Context, sessionIDs []string) error
}

type rouletteRepository struct{}

func NewRouletteRepository() *rouletteRepository {
	return &rouletteRepository{}
}

func (r *rouletteRepository) CreateSession(
	ctx context.Context, session *entity.RouletteSession,
) error {
	return xcontext.DB(ctx).Create(session).Error
}

func (r *rouletteRepository) GetSessionByID(
	ctx context.Context, sessionID string,
) (*entity.RouletteSession, error) {
	var result entity.RouletteSession
	if err := xcontext.DB(ctx).Take(&result, "id=?", sessionID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rouletteRepository) GetSessionsByBatchIDs(
	ctx context.Context, batchIDs []string,
) ([]entity.RouletteSession, error) {
	if len(batchIDs) == 0 {
		return nil, nil
	}

	var result []entity.RouletteSession
	err := xcontext.DB(ctx).Find(&result, "batch_id IN (?)", batchIDs).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AdvanceSession claims exactly one spin slot. Two concurrent spins read the
// same spin_count but only one passes the guard; the loser gets
// gorm.ErrRecordNotFound and must retry or give up.
func (r *rouletteRepository) AdvanceSession(
	ctx context.Context, sessionID string, expectedSpinCount int,
) error {
	tx := xcontext.DB(ctx).Model(&entity.RouletteSession{}).
		Where("id=? AND finished=? AND spin_count=? AND spin_count < max_spins",
			sessionID, false, expectedSpinCount).
		Update("spin_count", gorm.Expr("spin_count+1"))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rouletteRepository) SetFinished(ctx context.Context, sessionID string) error {
	tx := xcontext.DB(ctx).Model(&entity.RouletteSession{}).
		Where("id=?", sessionID).
		Update("finished", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rouletteRepository) CreateSpin(ctx context.Context, spin *entity.RouletteSpin) error {
	return xcontext.DB(ctx).Create(spin).Error
}

func (r *rouletteRepository) GetSpinsBySessionID(
	ctx context.Context, sessionID string,
) ([]entity.RouletteSpin, error) {
	var result []entity.RouletteSpin
	err := xcontext.DB(ctx).Order("ordinal ASC").
		Find(&result, "session_id=?", sessionID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rouletteRepository) DeleteBySessionIDs(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	err := xcontext.DB(ctx).
		Delete(&entity.RouletteSpin{}, "session_id IN (?)", sessionIDs).Error
	if err != nil {
		return err
	}

	return xcontext.DB(ctx).
		Delete(&entity.RouletteSession{}, "id IN (?)", sessionIDs).Error
}
