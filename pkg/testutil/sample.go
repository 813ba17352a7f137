package testutil

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/signer"
	"github.com/venuelab/backend/pkg/xcontext"
)

// SampleUser creates a staff user with randomized fields. Non-zero fields of
// init overwrite the sample before it is persisted.
func SampleUser(ctx context.Context, init *entity.User) (entity.User, error) {
	sample := &entity.User{
		Base: entity.Base{ID: uuid.NewString()},
		Name: uuid.NewString(),
		Role: entity.RoleStaff,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewUserRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func SamplePrize(ctx context.Context, init *entity.Prize) (entity.Prize, error) {
	sample := &entity.Prize{
		Base:   entity.Base{ID: uuid.NewString()},
		Label:  uuid.NewString(),
		Color:  "#ff9900",
		Active: true,
		Weight: 1,
		Stock:  sql.NullInt64{Int64: 5, Valid: true},
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewPrizeRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func SampleBatch(ctx context.Context, init *entity.Batch) (entity.Batch, error) {
	sample := &entity.Batch{
		Base:        entity.Base{ID: uuid.NewString()},
		BatchNo:     time.Now().UnixNano(),
		Description: uuid.NewString(),
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewBatchRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

// SampleToken creates a token with a valid signature under the configured
// secret, expiring in a week unless overwritten.
func SampleToken(ctx context.Context, init *entity.Token) (entity.Token, error) {
	sample := &entity.Token{
		Base:             entity.Base{ID: uuid.NewString()},
		ExpiresAt:        time.Now().Add(7 * 24 * time.Hour),
		SignatureVersion: signer.LatestVersion,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if sample.Signature == "" {
		s := signer.New(xcontext.Configs(ctx).Prize.SignatureSecret)
		signature, err := s.Sign(sample.ID, sample.PrizeID, sample.ExpiresAt, sample.SignatureVersion)
		if err != nil {
			return *sample, err
		}
		sample.Signature = signature
	}

	err := repository.NewTokenRepository().BulkCreate(ctx, []*entity.Token{sample})
	if err != nil {
		return *sample, err
	}
	return *sample, nil
}

func SampleReusableToken(ctx context.Context, init *entity.ReusableToken) (entity.ReusableToken, error) {
	sample := &entity.ReusableToken{
		Base:             entity.Base{ID: entity.ReusableTokenPrefix + uuid.NewString()},
		MaxUses:          3,
		ExpiresAt:        time.Now().Add(7 * 24 * time.Hour),
		SignatureVersion: signer.LatestVersion,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if sample.Signature == "" {
		s := signer.New(xcontext.Configs(ctx).Prize.SignatureSecret)
		signature, err := s.Sign(sample.ID, sample.PrizeID, sample.ExpiresAt, sample.SignatureVersion)
		if err != nil {
			return *sample, err
		}
		sample.Signature = signature
	}

	if err := repository.NewReusableTokenRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if overwriteField.Interface() != reflect.Zero(overwriteField.Type()).Interface() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
