package entity

import "database/sql"

// Prize is a catalog entry. Stock is nullable: a NULL stock means unlimited
// and is never decremented. EmittedTotal only ever grows; the reconciliation
// job may rewrite it but never backward. Weight drives the probability
// roulette mode and is relative, not a percentage.
type Prize struct {
	Base

	Label  string
	Color  string
	Active bool
	Weight float64

	Stock         sql.NullInt64
	EmittedTotal  int
	LastEmittedAt sql.NullTime
}
