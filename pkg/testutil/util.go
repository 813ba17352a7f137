package testutil

import (
	"context"
	"time"

	"github.com/venuelab/backend/config"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/migration"
	"github.com/venuelab/backend/pkg/authenticator"
	"github.com/venuelab/backend/pkg/logger"
	"github.com/venuelab/backend/pkg/session"
	"github.com/venuelab/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
		},
		Session: config.SessionConfigs{
			Secret: "session-secret",
			Name:   "session",
		},
		Prize: config.PrizeConfigs{
			SignatureSecret:       "signature-secret",
			SignatureVersion:      2,
			RedemptionMode:        "single_phase",
			Timezone:              "UTC",
			DefaultExpirationDays: 30,
			PublicBaseURL:         "http://localhost:8080",
			RouletteMaxPoolSize:   12,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithTokenEngine(ctx, authenticator.NewTokenEngine[model.AccessToken](cfg.Auth.TokenSecret))
	ctx = xcontext.WithSessionStore(ctx, session.NewCookieStore(cfg.Session.Name, []byte(cfg.Session.Secret)))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
