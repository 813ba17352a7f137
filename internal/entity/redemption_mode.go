package entity

import "github.com/venuelab/backend/pkg/enum"

// RedemptionMode selects how a token is consumed. It is fixed per deployment
// and never switches at runtime.
type RedemptionMode string

var (
	// RedemptionSinglePhase collapses reveal and delivery into one call.
	RedemptionSinglePhase = enum.New(RedemptionMode("single_phase"))

	// RedemptionTwoPhase splits the customer reveal from the staff delivery.
	RedemptionTwoPhase = enum.New(RedemptionMode("two_phase"))
)
