package domain

import (
	"testing"

	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/testutil"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_prizeDomain_CreateAndGetAll(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := NewPrizeDomain(e.prizeRepo, e.cache, e.verifier)

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)
	staffCtx := xcontext.WithRequestUserID(ctx, e.staff.ID)

	_, err := d.Create(staffCtx, &model.CreatePrizeRequest{Label: "Free Drink"})
	requireErrorxCode(t, err, errorx.PermissionDenied)

	_, err = d.Create(adminCtx, &model.CreatePrizeRequest{})
	requireErrorxCode(t, err, errorx.BadRequest)

	negative := -1
	_, err = d.Create(adminCtx, &model.CreatePrizeRequest{Label: "Free Drink", Stock: &negative})
	requireErrorxCode(t, err, errorx.BadRequest)

	stock := 10
	created, err := d.Create(adminCtx, &model.CreatePrizeRequest{
		Label: "Free Drink",
		Color: "#00ccff",
		Stock: &stock,
	})
	require.NoError(t, err)
	require.True(t, created.Prize.Active)
	require.EqualValues(t, 1, created.Prize.Weight)
	require.NotNil(t, created.Prize.Stock)
	require.Equal(t, 10, *created.Prize.Stock)

	// An uncounted stock stays unlimited.
	unlimited, err := d.Create(adminCtx, &model.CreatePrizeRequest{Label: "Sticker"})
	require.NoError(t, err)
	require.Nil(t, unlimited.Prize.Stock)

	_, err = d.GetAll(ctx, &model.GetPrizesRequest{})
	requireErrorxCode(t, err, errorx.PermissionDenied)

	all, err := d.GetAll(staffCtx, &model.GetPrizesRequest{})
	require.NoError(t, err)
	require.Len(t, all.Prizes, 2)
}

func Test_prizeDomain_RestockAndSetActive(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := NewPrizeDomain(e.prizeRepo, e.cache, e.verifier)

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)

	stock := 2
	created, err := d.Create(adminCtx, &model.CreatePrizeRequest{Label: "Free Drink", Stock: &stock})
	require.NoError(t, err)
	unlimited, err := d.Create(adminCtx, &model.CreatePrizeRequest{Label: "Sticker"})
	require.NoError(t, err)

	_, err = d.Restock(adminCtx, &model.RestockPrizeRequest{PrizeID: created.Prize.ID, Delta: 0})
	requireErrorxCode(t, err, errorx.BadRequest)

	// Restocking only applies to counted stocks.
	_, err = d.Restock(adminCtx, &model.RestockPrizeRequest{PrizeID: unlimited.Prize.ID, Delta: 3})
	requireErrorxCode(t, err, errorx.NotFound)

	restocked, err := d.Restock(adminCtx, &model.RestockPrizeRequest{PrizeID: created.Prize.ID, Delta: 3})
	require.NoError(t, err)
	require.Equal(t, 5, *restocked.Prize.Stock)

	_, err = d.SetActive(adminCtx, &model.SetPrizeActiveRequest{PrizeID: "no-such-prize", Active: false})
	requireErrorxCode(t, err, errorx.NotFound)

	_, err = d.SetActive(adminCtx, &model.SetPrizeActiveRequest{PrizeID: created.Prize.ID, Active: false})
	require.NoError(t, err)

	reloaded, err := e.prizeRepo.GetByID(ctx, created.Prize.ID)
	require.NoError(t, err)
	require.False(t, reloaded.Active)
}
