package model

type ReusableToken struct {
	ID            string `json:"id"`
	PrizeID       string `json:"prize_id"`
	MaxUses       int    `json:"max_uses"`
	UsedCount     int    `json:"used_count"`
	RemainingUses int    `json:"remaining_uses"`
	ExpiresAt     string `json:"expires_at"`
	StartHour     *int   `json:"start_hour"`
	EndHour       *int   `json:"end_hour"`
	Disabled      bool   `json:"disabled"`
	RedeemedAt    string `json:"redeemed_at,omitempty"`
	DeliveredAt   string `json:"delivered_at,omitempty"`
	URL           string `json:"url,omitempty"`
}

type CreateReusableTokenRequest struct {
	PrizeID        string `json:"prize_id"`
	MaxUses        int    `json:"max_uses"`
	ExpirationDays int    `json:"expiration_days"`
	StartHour      *int   `json:"start_hour"`
	EndHour        *int   `json:"end_hour"`
}

type CreateReusableTokenResponse struct {
	Token ReusableToken `json:"token"`
}

type RedeemReusableTokenRequest struct {
	TokenID   string `json:"token_id"`
	Signature string `json:"signature"`
	Version   int    `json:"version"`
}

type RedeemReusableTokenResponse struct {
	Token ReusableToken `json:"token"`
	Prize Prize         `json:"prize"`
}

type DeliverReusableTokenRequest struct {
	TokenID string `json:"token_id"`
}

type DeliverReusableTokenResponse struct {
	Token ReusableToken `json:"token"`
}
