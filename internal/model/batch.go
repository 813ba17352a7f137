package model

type Batch struct {
	ID          string `json:"id"`
	BatchNo     int64  `json:"batch_no"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type GenerateBatchRequest struct {
	Description    string `json:"description"`
	ExpirationDays int    `json:"expiration_days"`
	IncludeQRCodes bool   `json:"include_qr_codes"`
}

type GenerateBatchResponse struct {
	Batch      Batch   `json:"batch"`
	Tokens     []Token `json:"tokens"`
	ArchiveURL string  `json:"archive_url,omitempty"`
}

type PurgeBatchesRequest struct {
	BatchIDs      []string `json:"batch_ids"`
	DryRun        bool     `json:"dry_run"`
	CascadePrizes bool     `json:"cascade_prizes"`
}

type PurgeBatchesResponse struct {
	Batches  int64 `json:"batches"`
	Tokens   int64 `json:"tokens"`
	Sessions int64 `json:"sessions"`
	Prizes   int64 `json:"prizes"`
}
