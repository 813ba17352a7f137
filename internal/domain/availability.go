package domain

import (
	"context"
	"time"

	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/dateutil"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/xcontext"
)

type AvailabilityDomain interface {
	Get(context.Context, *model.GetAvailabilityRequest) (*model.GetAvailabilityResponse, error)
	Toggle(context.Context, *model.ToggleAvailabilityRequest) (*model.ToggleAvailabilityResponse, error)

	// CheckEnabled is the gate the redemption flows call before mutating
	// any token. It returns an Unavailable error when the engine is off.
	CheckEnabled(ctx context.Context) error
}

type availabilityDomain struct {
	systemConfigRepo   repository.SystemConfigRepository
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewAvailabilityDomain(
	systemConfigRepo repository.SystemConfigRepository,
	globalRoleVerifier *common.GlobalRoleVerifier,
) *availabilityDomain {
	return &availabilityDomain{
		systemConfigRepo:   systemConfigRepo,
		globalRoleVerifier: globalRoleVerifier,
	}
}

// venueNow returns the current time in the venue timezone. A missing or
// invalid timezone falls back to UTC.
func venueNow(ctx context.Context) time.Time {
	cfg := xcontext.Configs(ctx).Prize
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Invalid venue timezone %q: %v", cfg.Timezone, err)
		location = time.UTC
	}

	return time.Now().In(location)
}

// scheduleEnabled evaluates the daily open window at t. Equal open and close
// hours mean the venue never closes.
func scheduleEnabled(ctx context.Context, t time.Time) bool {
	cfg := xcontext.Configs(ctx).Prize
	if cfg.OpenHour == cfg.CloseHour {
		return true
	}

	return dateutil.InHourWindow(t, cfg.OpenHour, cfg.CloseHour)
}

func (d *availabilityDomain) Get(
	ctx context.Context, req *model.GetAvailabilityRequest,
) (*model.GetAvailabilityResponse, error) {
	systemConfig, err := d.systemConfigRepo.Get(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get system config: %v", err)
		return nil, errorx.Unknown
	}

	cfg := xcontext.Configs(ctx).Prize
	now := venueNow(ctx)
	scheduled := scheduleEnabled(ctx, now)

	var nextToggle string
	if cfg.OpenHour != cfg.CloseHour {
		boundary := dateutil.NextHourBoundary(now, cfg.OpenHour, cfg.CloseHour)
		nextToggle = boundary.Format(model.DefaultTimeLayout)
	}

	return &model.GetAvailabilityResponse{
		Enabled:         systemConfig.TokensEnabled && scheduled,
		ManualEnabled:   systemConfig.TokensEnabled,
		ScheduleEnabled: scheduled,
		NextToggleTime:  nextToggle,
		OpenHour:        cfg.OpenHour,
		CloseHour:       cfg.CloseHour,
		Timezone:        cfg.Timezone,
	}, nil
}

func (d *availabilityDomain) Toggle(
	ctx context.Context, req *model.ToggleAvailabilityRequest,
) (*model.ToggleAvailabilityResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	userID := xcontext.RequestUserID(ctx)
	err := d.systemConfigRepo.SetTokensEnabled(ctx, req.Enabled, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update system config: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("Availability toggled to %t by %s", req.Enabled, userID)
	return &model.ToggleAvailabilityResponse{}, nil
}

func (d *availabilityDomain) CheckEnabled(ctx context.Context) error {
	systemConfig, err := d.systemConfigRepo.Get(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get system config: %v", err)
		return errorx.Unknown
	}

	if !systemConfig.TokensEnabled {
		return errorx.New(errorx.Unavailable, "Token redemption is currently disabled")
	}

	if !scheduleEnabled(ctx, venueNow(ctx)) {
		return errorx.New(errorx.Unavailable, "Token redemption is closed at this hour")
	}

	return nil
}
