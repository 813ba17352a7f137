package entity

// Batch groups the tokens minted by one generation run. It is immutable once
// created; the only mutation is purging it together with its tokens.
type Batch struct {
	Base

	BatchNo     int64 `gorm:"uniqueIndex"`
	Description string
}
