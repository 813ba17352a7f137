package model

type Token struct {
	ID               string `json:"id"`
	BatchID          string `json:"batch_id"`
	PrizeID          string `json:"prize_id"`
	AssignedPrizeID  string `json:"assigned_prize_id,omitempty"`
	ExpiresAt        string `json:"expires_at"`
	Signature        string `json:"signature"`
	SignatureVersion int    `json:"signature_version"`
	Disabled         bool   `json:"disabled"`
	RevealedAt       string `json:"revealed_at,omitempty"`
	DeliveredAt      string `json:"delivered_at,omitempty"`
	RedeemedAt       string `json:"redeemed_at,omitempty"`
	URL              string `json:"url,omitempty"`
}

type RedeemTokenRequest struct {
	TokenID   string `json:"token_id"`
	Signature string `json:"signature"`
	Version   int    `json:"version"`
}

type RedeemTokenResponse struct {
	Token Token `json:"token"`
	Prize Prize `json:"prize"`
}

type RevealTokenRequest struct {
	TokenID   string `json:"token_id"`
	Signature string `json:"signature"`
	Version   int    `json:"version"`

	// PrizeID optionally reassigns the prize at reveal time. Empty keeps
	// the mint-time prize.
	PrizeID string `json:"prize_id"`
}

type RevealTokenResponse struct {
	Token Token `json:"token"`
	Prize Prize `json:"prize"`
}

type DeliverTokenRequest struct {
	TokenID string `json:"token_id"`
}

type DeliverTokenResponse struct {
	Token Token `json:"token"`
	Prize Prize `json:"prize"`
}

type RevertTokenDeliveryRequest struct {
	TokenID string `json:"token_id"`
}

type RevertTokenDeliveryResponse struct {
	Token Token `json:"token"`
}

type GetTokenRequest struct {
	TokenID string `json:"token_id"`
}

type GetTokenResponse struct {
	Token Token `json:"token"`
	Prize Prize `json:"prize"`
}
