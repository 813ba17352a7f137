package domain

import (
	"testing"
	"time"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/testutil"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestReusable(e *testEngine) *reusableDomain {
	return NewReusableDomain(e.reusableTokenRepo, e.prizeRepo, e.cache,
		e.availability, e.verifier, e.signer)
}

func Test_reusableDomain_CreateToken(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestReusable(e)

	prize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)
	staffCtx := xcontext.WithRequestUserID(ctx, e.staff.ID)

	_, err = d.CreateToken(staffCtx, &model.CreateReusableTokenRequest{
		PrizeID: prize.ID,
		MaxUses: 3,
	})
	requireErrorxCode(t, err, errorx.PermissionDenied)

	_, err = d.CreateToken(adminCtx, &model.CreateReusableTokenRequest{
		PrizeID: prize.ID,
		MaxUses: 0,
	})
	requireErrorxCode(t, err, errorx.BadRequest)

	start := 9
	_, err = d.CreateToken(adminCtx, &model.CreateReusableTokenRequest{
		PrizeID:   prize.ID,
		MaxUses:   3,
		StartHour: &start,
	})
	requireErrorxCode(t, err, errorx.BadRequest)

	resp, err := d.CreateToken(adminCtx, &model.CreateReusableTokenRequest{
		PrizeID: prize.ID,
		MaxUses: 3,
	})
	require.NoError(t, err)
	require.True(t, entity.IsReusableTokenID(resp.Token.ID))
	require.Equal(t, 3, resp.Token.RemainingUses)
	require.Contains(t, resp.Token.URL, resp.Token.ID)
}

func Test_reusableDomain_RedeemToken_UsageCap(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestReusable(e)

	prize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	token, err := testutil.SampleReusableToken(ctx, &entity.ReusableToken{
		PrizeID: prize.ID,
		MaxUses: 3,
	})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		resp, err := d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
			TokenID:   token.ID,
			Signature: token.Signature,
		})
		require.NoError(t, err)
		require.Equal(t, i, resp.Token.UsedCount)
		require.Equal(t, 3-i, resp.Token.RemainingUses)
	}

	// The cap is exact: use number four is rejected.
	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
		TokenID:   token.ID,
		Signature: token.Signature,
	})
	requireErrorxCode(t, err, errorx.UsageLimitReached)
}

func Test_reusableDomain_RedeemToken_Checks(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestReusable(e)

	prize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)

	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{TokenID: "plain-id"})
	requireErrorxCode(t, err, errorx.BadRequest)

	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
		TokenID: entity.ReusableTokenPrefix + "missing",
	})
	requireErrorxCode(t, err, errorx.NotFound)

	expired, err := testutil.SampleReusableToken(ctx, &entity.ReusableToken{
		PrizeID:   prize.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
		TokenID:   expired.ID,
		Signature: expired.Signature,
	})
	requireErrorxCode(t, err, errorx.TokenExpired)

	token, err := testutil.SampleReusableToken(ctx, &entity.ReusableToken{PrizeID: prize.ID})
	require.NoError(t, err)
	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
		TokenID:   token.ID,
		Signature: "forged-signature",
	})
	requireErrorxCode(t, err, errorx.PermissionDenied)
}

func Test_reusableDomain_RedeemToken_DailyWindow(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestReusable(e)

	prize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)

	// A window starting two hours from now never covers the current hour.
	now := time.Now().UTC()
	closedStart := (now.Hour() + 2) % 24
	closedEnd := (now.Hour() + 3) % 24
	closed, err := testutil.SampleReusableToken(ctx, &entity.ReusableToken{
		PrizeID:   prize.ID,
		StartHour: nullInt64(closedStart),
		EndHour:   nullInt64(closedEnd),
	})
	require.NoError(t, err)

	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
		TokenID:   closed.ID,
		Signature: closed.Signature,
	})
	requireErrorxCode(t, err, errorx.OutsideTimeWindow)

	// A window starting at the current hour covers it.
	open, err := testutil.SampleReusableToken(ctx, &entity.ReusableToken{
		PrizeID:   prize.ID,
		StartHour: nullInt64(now.Hour()),
		EndHour:   nullInt64((now.Hour() + 1) % 24),
	})
	require.NoError(t, err)

	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
		TokenID:   open.ID,
		Signature: open.Signature,
	})
	require.NoError(t, err)
}

func Test_reusableDomain_DeliverToken(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestReusable(e)

	prize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	token, err := testutil.SampleReusableToken(ctx, &entity.ReusableToken{PrizeID: prize.ID})
	require.NoError(t, err)

	staffCtx := xcontext.WithRequestUserID(ctx, e.staff.ID)

	_, err = d.RedeemToken(ctx, &model.RedeemReusableTokenRequest{
		TokenID:   token.ID,
		Signature: token.Signature,
	})
	require.NoError(t, err)

	resp, err := d.DeliverToken(staffCtx, &model.DeliverReusableTokenRequest{TokenID: token.ID})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token.DeliveredAt)
	require.Equal(t, 1, resp.Token.UsedCount)

	stored, err := e.reusableTokenRepo.GetByID(ctx, token.ID)
	require.NoError(t, err)
	require.Equal(t, e.staff.ID, stored.DeliveredByUserID.String)

	// A second delivery must not overwrite the first attribution.
	_, err = d.DeliverToken(staffCtx, &model.DeliverReusableTokenRequest{TokenID: token.ID})
	requireErrorxCode(t, err, errorx.AlreadyDelivered)
}

func Test_reusableDomain_DeliverToken_WithoutPriorRedemption(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestReusable(e)

	prize, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	token, err := testutil.SampleReusableToken(ctx, &entity.ReusableToken{PrizeID: prize.ID})
	require.NoError(t, err)

	staffCtx := xcontext.WithRequestUserID(ctx, e.staff.ID)

	// Handing over without a digital redemption counts a use itself.
	resp, err := d.DeliverToken(staffCtx, &model.DeliverReusableTokenRequest{TokenID: token.ID})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Token.UsedCount)
	require.NotEmpty(t, resp.Token.RedeemedAt)
	require.NotEmpty(t, resp.Token.DeliveredAt)
}
