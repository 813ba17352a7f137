package model

type RouletteSession struct {
	ID        string `json:"id"`
	BatchID   string `json:"batch_id"`
	Mode      string `json:"mode"`
	MaxSpins  int    `json:"max_spins"`
	SpinCount int    `json:"spin_count"`
	Finished  bool   `json:"finished"`
}

type RouletteSpin struct {
	ID      string `json:"id"`
	TokenID string `json:"token_id"`
	PrizeID string `json:"prize_id"`
	Ordinal int    `json:"ordinal"`
}

type CreateRouletteSessionRequest struct {
	BatchID  string `json:"batch_id"`
	Mode     string `json:"mode"`
	MaxSpins int    `json:"max_spins"`
}

type CreateRouletteSessionResponse struct {
	Session RouletteSession `json:"session"`
}

type SpinRouletteRequest struct {
	SessionID string `json:"session_id"`
}

type SpinRouletteResponse struct {
	Spin     RouletteSpin `json:"spin"`
	Prize    Prize        `json:"prize"`
	Finished bool         `json:"finished"`
}

type GetRouletteSessionRequest struct {
	SessionID string `json:"session_id"`
}

type GetRouletteSessionResponse struct {
	Session RouletteSession `json:"session"`
	Spins   []RouletteSpin  `json:"spins"`
}
