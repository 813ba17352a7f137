package entity

// SystemConfigID is the primary key of the single system config row.
const SystemConfigID = "system"

// SystemConfig holds the manual engine toggle. The observed engine state is
// always the intersection of TokensEnabled and the computed schedule.
type SystemConfig struct {
	Base

	TokensEnabled bool
	UpdatedBy     string
}
