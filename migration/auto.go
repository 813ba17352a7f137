package migration

import (
	"context"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
)

// When this migrator is called, no need to call other migrators.
func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.Prize{},
		&entity.Batch{},
		&entity.Token{},
		&entity.ReusableToken{},
		&entity.RouletteSession{},
		&entity.RouletteSpin{},
		&entity.SystemConfig{},
	)
}
