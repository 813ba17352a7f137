package model

import (
	"database/sql"
	"time"

	"github.com/venuelab/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}

	return t.Time.Format(DefaultTimeLayout)
}

func ConvertPrize(prize *entity.Prize) Prize {
	if prize == nil {
		return Prize{}
	}

	var stock *int
	if prize.Stock.Valid {
		value := int(prize.Stock.Int64)
		stock = &value
	}

	return Prize{
		ID:            prize.ID,
		Label:         prize.Label,
		Color:         prize.Color,
		Active:        prize.Active,
		Weight:        prize.Weight,
		Stock:         stock,
		EmittedTotal:  prize.EmittedTotal,
		LastEmittedAt: formatNullTime(prize.LastEmittedAt),
	}
}

func ConvertPrizes(prizes []entity.Prize) []Prize {
	modelPrizes := []Prize{}
	for i := range prizes {
		modelPrizes = append(modelPrizes, ConvertPrize(&prizes[i]))
	}
	return modelPrizes
}

func ConvertBatch(batch *entity.Batch) Batch {
	if batch == nil {
		return Batch{}
	}

	return Batch{
		ID:          batch.ID,
		BatchNo:     batch.BatchNo,
		Description: batch.Description,
		CreatedAt:   batch.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertToken(token *entity.Token, url string) Token {
	if token == nil {
		return Token{}
	}

	return Token{
		ID:               token.ID,
		BatchID:          token.BatchID,
		PrizeID:          token.PrizeID,
		AssignedPrizeID:  token.AssignedPrizeID.String,
		ExpiresAt:        token.ExpiresAt.Format(DefaultTimeLayout),
		Signature:        token.Signature,
		SignatureVersion: token.SignatureVersion,
		Disabled:         token.Disabled,
		RevealedAt:       formatNullTime(token.RevealedAt),
		DeliveredAt:      formatNullTime(token.DeliveredAt),
		RedeemedAt:       formatNullTime(token.RedeemedAt),
		URL:              url,
	}
}

func ConvertReusableToken(token *entity.ReusableToken, url string) ReusableToken {
	if token == nil {
		return ReusableToken{}
	}

	var startHour, endHour *int
	if token.StartHour.Valid {
		value := int(token.StartHour.Int64)
		startHour = &value
	}
	if token.EndHour.Valid {
		value := int(token.EndHour.Int64)
		endHour = &value
	}

	return ReusableToken{
		ID:            token.ID,
		PrizeID:       token.PrizeID,
		MaxUses:       token.MaxUses,
		UsedCount:     token.UsedCount,
		RemainingUses: token.MaxUses - token.UsedCount,
		ExpiresAt:     token.ExpiresAt.Format(DefaultTimeLayout),
		StartHour:     startHour,
		EndHour:       endHour,
		Disabled:      token.Disabled,
		RedeemedAt:    formatNullTime(token.RedeemedAt),
		DeliveredAt:   formatNullTime(token.DeliveredAt),
		URL:           url,
	}
}

func ConvertRouletteSession(session *entity.RouletteSession) RouletteSession {
	if session == nil {
		return RouletteSession{}
	}

	return RouletteSession{
		ID:        session.ID,
		BatchID:   session.BatchID,
		Mode:      string(session.Mode),
		MaxSpins:  session.MaxSpins,
		SpinCount: session.SpinCount,
		Finished:  session.Finished,
	}
}

func ConvertRouletteSpin(spin *entity.RouletteSpin) RouletteSpin {
	if spin == nil {
		return RouletteSpin{}
	}

	return RouletteSpin{
		ID:      spin.ID,
		TokenID: spin.TokenID,
		PrizeID: spin.PrizeID,
		Ordinal: spin.Ordinal,
	}
}

func ConvertRouletteSpins(spins []entity.RouletteSpin) []RouletteSpin {
	modelSpins := []RouletteSpin{}
	for i := range spins {
		modelSpins = append(modelSpins, ConvertRouletteSpin(&spins[i]))
	}
	return modelSpins
}
