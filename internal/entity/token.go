package entity

import (
	"database/sql"
	"time"
)

// Token is a single-use signed reward credential. Its ID doubles as the path
// segment of the public redemption URL, so it must be unguessable.
//
// PrizeID is fixed at mint time and covered by the signature.
// AssignedPrizeID is set at reveal time and may differ in two-phase flows.
type Token struct {
	Base

	BatchID string
	Batch   Batch `gorm:"foreignKey:BatchID"`

	PrizeID string
	Prize   Prize `gorm:"foreignKey:PrizeID"`

	AssignedPrizeID sql.NullString

	ExpiresAt        time.Time
	Signature        string
	SignatureVersion int
	Disabled         bool

	RevealedAt  sql.NullTime
	DeliveredAt sql.NullTime
	RedeemedAt  sql.NullTime
}
