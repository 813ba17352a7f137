package domain

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/storage"
	"github.com/venuelab/backend/pkg/testutil"
	"github.com/venuelab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, e *testEngine, s storage.Storage) *generatorDomain {
	t.Helper()
	if s == nil {
		s = &testutil.MockStorage{}
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewGeneratorDomain(e.batchRepo, e.prizeRepo, e.tokenRepo,
		e.verifier, e.cache, e.signer, s, node)
}

func Test_generatorDomain_GenerateBatch(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestGenerator(t, e, nil)

	prizeA, err := testutil.SamplePrize(ctx, &entity.Prize{
		Stock: sql.NullInt64{Int64: 3, Valid: true},
	})
	require.NoError(t, err)
	prizeB, err := testutil.SamplePrize(ctx, &entity.Prize{
		Stock: sql.NullInt64{Int64: 2, Valid: true},
	})
	require.NoError(t, err)

	// Inactive prizes must not generate.
	inactive, err := testutil.SamplePrize(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, e.prizeRepo.SetActive(ctx, inactive.ID, false))

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)

	_, err = d.GenerateBatch(ctx, &model.GenerateBatchRequest{})
	requireErrorxCode(t, err, errorx.PermissionDenied)

	resp, err := d.GenerateBatch(adminCtx, &model.GenerateBatchRequest{Description: "friday run"})
	require.NoError(t, err)
	require.Len(t, resp.Tokens, 5)
	require.NotZero(t, resp.Batch.BatchNo)

	perPrize := map[string]int{}
	for _, token := range resp.Tokens {
		perPrize[token.PrizeID]++
		require.NotEmpty(t, token.Signature)
		require.Contains(t, token.URL, token.ID)

		// Every minted signature must verify against the stored fields.
		stored, err := e.tokenRepo.GetByID(ctx, token.ID)
		require.NoError(t, err)
		require.True(t, e.signer.Verify(stored.ID, stored.PrizeID, stored.ExpiresAt,
			stored.SignatureVersion, stored.Signature))
	}
	require.Equal(t, 3, perPrize[prizeA.ID])
	require.Equal(t, 2, perPrize[prizeB.ID])

	// Generation consumes the whole stock and raises the emitted counter.
	reloadedA, err := e.prizeRepo.GetByID(ctx, prizeA.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, reloadedA.Stock.Int64)
	require.Equal(t, 3, reloadedA.EmittedTotal)
	require.True(t, reloadedA.LastEmittedAt.Valid)

	// With all stock consumed there is nothing left to generate.
	_, err = d.GenerateBatch(adminCtx, &model.GenerateBatchRequest{})
	requireErrorxCode(t, err, errorx.Unavailable)
}

// racingPrizeRepo claims the stock it reports, simulating a concurrent
// generation winning the race between the read and the claim.
type racingPrizeRepo struct {
	repository.PrizeRepository
	raced bool
}

func (r *racingPrizeRepo) GetGenerable(ctx context.Context) ([]entity.Prize, error) {
	prizes, err := r.PrizeRepository.GetGenerable(ctx)
	if err != nil || r.raced {
		return prizes, err
	}

	r.raced = true
	for i := range prizes {
		err := r.PrizeRepository.ClaimStock(ctx, prizes[i].ID, int(prizes[i].Stock.Int64), time.Now())
		if err != nil {
			return nil, err
		}
	}

	return prizes, nil
}

func Test_generatorDomain_GenerateBatch_RaceLosesCleanly(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)

	racing := &racingPrizeRepo{PrizeRepository: e.prizeRepo}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	d := NewGeneratorDomain(e.batchRepo, racing, e.tokenRepo,
		e.verifier, e.cache, e.signer, &testutil.MockStorage{}, node)

	prize, err := testutil.SamplePrize(ctx, &entity.Prize{
		Stock: sql.NullInt64{Int64: 4, Valid: true},
	})
	require.NoError(t, err)

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)
	_, err = d.GenerateBatch(adminCtx, &model.GenerateBatchRequest{})
	requireErrorxCode(t, err, errorx.RaceCondition)

	// The losing generation must leave nothing behind: the rollback undoes
	// its batch, its tokens, and the stock it claimed inside the transaction.
	counts, err := e.prizeRepo.CountTokensByPrize(ctx)
	require.NoError(t, err)
	require.Empty(t, counts)

	reloaded, err := e.prizeRepo.GetByID(ctx, prize.ID)
	require.NoError(t, err)
	require.EqualValues(t, 4, reloaded.Stock.Int64)
	require.Equal(t, 0, reloaded.EmittedTotal)
}

func Test_generatorDomain_GenerateBatch_ExportsArchive(t *testing.T) {
	ctx := testutil.MockContext()
	cfg := xcontext.Configs(ctx)
	cfg.Prize.ExportBucket = "exports"
	ctx = xcontext.WithConfigs(ctx, cfg)

	e := newTestEngine(ctx)

	var uploaded *storage.UploadObject
	mockStorage := &testutil.MockStorage{
		UploadFunc: func(ctx context.Context, obj *storage.UploadObject) (*storage.UploadResponse, error) {
			uploaded = obj
			return &storage.UploadResponse{Url: "https://exports/" + obj.FileName}, nil
		},
	}
	d := newTestGenerator(t, e, mockStorage)

	prize, err := testutil.SamplePrize(ctx, &entity.Prize{
		Stock: sql.NullInt64{Int64: 2, Valid: true},
	})
	require.NoError(t, err)

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)
	resp, err := d.GenerateBatch(adminCtx, &model.GenerateBatchRequest{IncludeQRCodes: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ArchiveURL)

	require.NotNil(t, uploaded)
	require.Equal(t, "exports", uploaded.Bucket)
	require.Equal(t, "application/zip", uploaded.Mime)

	reader, err := zip.NewReader(bytes.NewReader(uploaded.Data), int64(len(uploaded.Data)))
	require.NoError(t, err)

	files := map[string]*zip.File{}
	for _, file := range reader.File {
		files[file.Name] = file
	}
	require.Contains(t, files, "manifest.json")
	require.Contains(t, files, "tokens.csv")
	require.Len(t, reader.File, 4)

	// The manifest carries the batch identity and per-prize totals.
	manifestReader, err := files["manifest.json"].Open()
	require.NoError(t, err)
	defer manifestReader.Close()

	var manifest batchManifest
	require.NoError(t, json.NewDecoder(manifestReader).Decode(&manifest))
	require.Equal(t, resp.Batch.ID, manifest.BatchID)
	require.Equal(t, resp.Batch.BatchNo, manifest.BatchNo)
	require.Equal(t, 2, manifest.TotalTokens)
	require.Len(t, manifest.Prizes, 1)
	require.Equal(t, prize.ID, manifest.Prizes[0].PrizeID)
	require.Equal(t, 2, manifest.Prizes[0].Tokens)

	// Every CSV row carries the full token state. Freshly minted tokens have
	// empty lifecycle timestamps and are not disabled.
	csvReader, err := files["tokens.csv"].Open()
	require.NoError(t, err)
	defer csvReader.Close()

	records, err := csv.NewReader(csvReader).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{
		"token_id", "batch_id", "prize_id", "url", "expires_at", "signature",
		"revealed_at", "delivered_at", "redeemed_at", "disabled",
	}, records[0])

	for _, record := range records[1:] {
		require.Equal(t, resp.Batch.ID, record[1])
		require.Equal(t, prize.ID, record[2])
		require.NotEmpty(t, record[4])
		require.NotEmpty(t, record[5])
		require.Empty(t, record[6])
		require.Empty(t, record[7])
		require.Empty(t, record[8])
		require.Equal(t, "false", record[9])
	}
}

func Test_generatorDomain_GenerateBatch_AfterRestock(t *testing.T) {
	ctx := testutil.MockContext()
	e := newTestEngine(ctx)
	d := newTestGenerator(t, e, nil)

	prize, err := testutil.SamplePrize(ctx, &entity.Prize{
		Stock: sql.NullInt64{Int64: 4, Valid: true},
	})
	require.NoError(t, err)

	adminCtx := xcontext.WithRequestUserID(ctx, e.admin.ID)
	resp, err := d.GenerateBatch(adminCtx, &model.GenerateBatchRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Tokens, 4)

	// Restocking after a full generation only offers the new units. The next
	// run mints exactly those and the emitted counter keeps the running sum.
	require.NoError(t, e.prizeRepo.Restock(ctx, prize.ID, 2))

	resp, err = d.GenerateBatch(adminCtx, &model.GenerateBatchRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Tokens, 2)

	reloaded, err := e.prizeRepo.GetByID(ctx, prize.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, reloaded.Stock.Int64)
	require.Equal(t, 6, reloaded.EmittedTotal)

	counts, err := e.prizeRepo.CountTokensByPrize(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.EqualValues(t, 6, counts[0].Total)
}
