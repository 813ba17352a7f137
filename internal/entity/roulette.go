package entity

import "github.com/venuelab/backend/pkg/enum"

type RouletteMode string

var (
	RouletteModeByToken     = enum.New(RouletteMode("by_token"))
	RouletteModeProbability = enum.New(RouletteMode("probability"))
)

// RouletteSession is a bounded sequence of spins against one batch. In
// by_token mode MaxSpins equals the eligible pool size at creation, and the
// session must finish exactly when the pool is drained.
type RouletteSession struct {
	Base

	BatchID string
	Batch   Batch `gorm:"foreignKey:BatchID"`

	Mode      RouletteMode
	MaxSpins  int
	SpinCount int
	Finished  bool
}

// RouletteSpin consumes exactly one token; the unique index enforces that a
// token is never spun twice across sessions.
type RouletteSpin struct {
	Base

	SessionID string
	Session   RouletteSession `gorm:"foreignKey:SessionID"`

	TokenID string `gorm:"uniqueIndex"`
	Token   Token  `gorm:"foreignKey:TokenID"`

	PrizeID string
	Ordinal int
}
