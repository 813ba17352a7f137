package entity

import (
	"database/sql"
	"strings"
	"time"
)

// ReusableTokenPrefix distinguishes reusable ids from single-use ids at
// lookup time; both share the same URL namespace.
const ReusableTokenPrefix = "rt_"

// ReusableToken is a multi-use reward credential. UsedCount grows
// monotonically and never exceeds MaxUses. StartHour/EndHour, when set,
// bound redemption to a daily window evaluated in the venue timezone.
type ReusableToken struct {
	Base

	PrizeID string
	Prize   Prize `gorm:"foreignKey:PrizeID"`

	MaxUses   int
	UsedCount int

	ExpiresAt        time.Time
	Signature        string
	SignatureVersion int

	StartHour sql.NullInt64
	EndHour   sql.NullInt64
	Disabled  bool

	RedeemedAt        sql.NullTime
	DeliveredAt       sql.NullTime
	DeliveredByUserID sql.NullString
}

func IsReusableTokenID(id string) bool {
	return strings.HasPrefix(id, ReusableTokenPrefix)
}
