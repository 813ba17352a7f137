package domain

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"github.com/venuelab/backend/internal/common"
	"github.com/venuelab/backend/internal/domain/prizecache"
	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/internal/repository"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/signer"
	"github.com/venuelab/backend/pkg/storage"
	"github.com/venuelab/backend/pkg/xcontext"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type GeneratorDomain interface {
	GenerateBatch(context.Context, *model.GenerateBatchRequest) (*model.GenerateBatchResponse, error)
}

type generatorDomain struct {
	batchRepo          repository.BatchRepository
	prizeRepo          repository.PrizeRepository
	tokenRepo          repository.TokenRepository
	globalRoleVerifier *common.GlobalRoleVerifier
	prizeCache         prizecache.Cache
	tokenSigner        *signer.Signer
	storage            storage.Storage
	snowflakeNode      *snowflake.Node
}

func NewGeneratorDomain(
	batchRepo repository.BatchRepository,
	prizeRepo repository.PrizeRepository,
	tokenRepo repository.TokenRepository,
	globalRoleVerifier *common.GlobalRoleVerifier,
	prizeCache prizecache.Cache,
	tokenSigner *signer.Signer,
	s storage.Storage,
	snowflakeNode *snowflake.Node,
) *generatorDomain {
	return &generatorDomain{
		batchRepo:          batchRepo,
		prizeRepo:          prizeRepo,
		tokenRepo:          tokenRepo,
		globalRoleVerifier: globalRoleVerifier,
		prizeCache:         prizeCache,
		tokenSigner:        tokenSigner,
		storage:            s,
		snowflakeNode:      snowflakeNode,
	}
}

// GenerateBatch mints one token per unit of claimed stock across all
// generable prizes, atomically. Two generations racing over the same stock
// cannot both win: the losing one observes a stock mismatch and the whole
// transaction rolls back, leaving no partial batch behind.
func (d *generatorDomain) GenerateBatch(
	ctx context.Context, req *model.GenerateBatchRequest,
) (*model.GenerateBatchResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	cfg := xcontext.Configs(ctx).Prize
	expirationDays := req.ExpirationDays
	if expirationDays <= 0 {
		expirationDays = cfg.DefaultExpirationDays
	}
	if expirationDays <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Expiration days must be a positive number")
	}

	signatureVersion := cfg.SignatureVersion
	if signatureVersion == 0 {
		signatureVersion = signer.LatestVersion
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, expirationDays)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	prizes, err := d.prizeRepo.GetGenerable(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get generable prizes: %v", err)
		return nil, errorx.Unknown
	}

	if len(prizes) == 0 {
		return nil, errorx.New(errorx.Unavailable, "No prize stock to generate from")
	}

	batch := &entity.Batch{
		Base:        entity.Base{ID: uuid.NewString()},
		BatchNo:     d.snowflakeNode.Generate().Int64(),
		Description: req.Description,
	}

	if err := d.batchRepo.Create(ctx, batch); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create batch: %v", err)
		return nil, errorx.Unknown
	}

	var tokens []*entity.Token
	for i := range prizes {
		prize := &prizes[i]
		expectedStock := int(prize.Stock.Int64)

		err := d.prizeRepo.ClaimStock(ctx, prize.ID, expectedStock, now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.RaceCondition,
					"Another generation is consuming the stock of %s", prize.Label)
			}

			xcontext.Logger(ctx).Errorf("Cannot claim prize stock: %v", err)
			return nil, errorx.Unknown
		}

		for j := 0; j < expectedStock; j++ {
			tokenID := uuid.NewString()
			signature, err := d.tokenSigner.Sign(tokenID, prize.ID, expiresAt, signatureVersion)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot sign token: %v", err)
				return nil, errorx.Unknown
			}

			tokens = append(tokens, &entity.Token{
				Base:             entity.Base{ID: tokenID},
				BatchID:          batch.ID,
				PrizeID:          prize.ID,
				ExpiresAt:        expiresAt,
				Signature:        signature,
				SignatureVersion: signatureVersion,
			})
		}
	}

	if err := d.tokenRepo.BulkCreate(ctx, tokens); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create tokens: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	for i := range prizes {
		d.prizeCache.Invalidate(ctx, prizes[i].ID)
	}

	archiveURL, err := d.exportBatch(ctx, batch, tokens, req.IncludeQRCodes)
	if err != nil {
		// The batch is already committed; a failed export is reported but
		// does not undo the generation.
		xcontext.Logger(ctx).Errorf("Cannot export batch %d: %v", batch.BatchNo, err)
	}

	modelTokens := make([]model.Token, 0, len(tokens))
	for _, token := range tokens {
		modelTokens = append(modelTokens, model.ConvertToken(token, tokenURL(ctx, token)))
	}

	xcontext.Logger(ctx).Infof("Generated batch %d with %d tokens", batch.BatchNo, len(tokens))
	return &model.GenerateBatchResponse{
		Batch:      model.ConvertBatch(batch),
		Tokens:     modelTokens,
		ArchiveURL: archiveURL,
	}, nil
}

type manifestPrize struct {
	PrizeID string `json:"prize_id"`
	Tokens  int    `json:"tokens"`
}

type batchManifest struct {
	BatchID     string          `json:"batch_id"`
	BatchNo     int64           `json:"batch_no"`
	GeneratedAt string          `json:"generated_at"`
	TotalTokens int             `json:"total_tokens"`
	Prizes      []manifestPrize `json:"prizes"`
}

func nullTimeString(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}

	return t.Time.Format(model.DefaultTimeLayout)
}

// exportBatch packs the minted tokens into a zip archive with a JSON
// manifest of per-prize counts, a printable CSV carrying the full token
// state, and optionally one QR PNG per token, then uploads it to the
// export bucket.
func (d *generatorDomain) exportBatch(
	ctx context.Context, batch *entity.Batch, tokens []*entity.Token, includeQRCodes bool,
) (string, error) {
	bucket := xcontext.Configs(ctx).Prize.ExportBucket
	if bucket == "" {
		return "", nil
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	manifest := batchManifest{
		BatchID:     batch.ID,
		BatchNo:     batch.BatchNo,
		GeneratedAt: time.Now().Format(model.DefaultTimeLayout),
		TotalTokens: len(tokens),
	}

	countByPrize := map[string]int{}
	for _, token := range tokens {
		if _, ok := countByPrize[token.PrizeID]; !ok {
			manifest.Prizes = append(manifest.Prizes, manifestPrize{PrizeID: token.PrizeID})
		}
		countByPrize[token.PrizeID]++
	}
	for i := range manifest.Prizes {
		manifest.Prizes[i].Tokens = countByPrize[manifest.Prizes[i].PrizeID]
	}

	manifestFile, err := archive.Create("manifest.json")
	if err != nil {
		return "", err
	}
	if err := json.NewEncoder(manifestFile).Encode(manifest); err != nil {
		return "", err
	}

	csvFile, err := archive.Create("tokens.csv")
	if err != nil {
		return "", err
	}
	csvWriter := csv.NewWriter(csvFile)
	header := []string{
		"token_id", "batch_id", "prize_id", "url", "expires_at", "signature",
		"revealed_at", "delivered_at", "redeemed_at", "disabled",
	}
	if err := csvWriter.Write(header); err != nil {
		return "", err
	}
	for _, token := range tokens {
		err := csvWriter.Write([]string{
			token.ID,
			token.BatchID,
			token.PrizeID,
			tokenURL(ctx, token),
			token.ExpiresAt.Format(model.DefaultTimeLayout),
			token.Signature,
			nullTimeString(token.RevealedAt),
			nullTimeString(token.DeliveredAt),
			nullTimeString(token.RedeemedAt),
			strconv.FormatBool(token.Disabled),
		})
		if err != nil {
			return "", err
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return "", err
	}

	if includeQRCodes {
		pngs := make([][]byte, len(tokens))
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(8)
		for i := range tokens {
			i := i
			group.Go(func() error {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}

				png, err := qrcode.Encode(tokenURL(ctx, tokens[i]), qrcode.Medium, 512)
				if err != nil {
					return fmt.Errorf("encode qr of %s: %w", tokens[i].ID, err)
				}

				pngs[i] = png
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return "", err
		}

		for i, png := range pngs {
			qrFile, err := archive.Create("qr/" + tokens[i].ID + ".png")
			if err != nil {
				return "", err
			}
			if _, err := qrFile.Write(png); err != nil {
				return "", err
			}
		}
	}

	if err := archive.Close(); err != nil {
		return "", err
	}

	resp, err := d.storage.Upload(ctx, &storage.UploadObject{
		Bucket:   bucket,
		Prefix:   "batches",
		FileName: "batch-" + strconv.FormatInt(batch.BatchNo, 10) + ".zip",
		Mime:     "application/zip",
		Data:     buf.Bytes(),
	})
	if err != nil {
		return "", err
	}

	return resp.Url, nil
}
