package model

type Prize struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	Color         string  `json:"color"`
	Active        bool    `json:"active"`
	Weight        float64 `json:"weight"`
	Stock         *int    `json:"stock"`
	EmittedTotal  int     `json:"emitted_total"`
	LastEmittedAt string  `json:"last_emitted_at,omitempty"`
}

type CreatePrizeRequest struct {
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
	Stock  *int    `json:"stock"`
}

type CreatePrizeResponse struct {
	Prize Prize `json:"prize"`
}

type GetPrizesRequest struct{}

type GetPrizesResponse struct {
	Prizes []Prize `json:"prizes"`
}

type RestockPrizeRequest struct {
	PrizeID string `json:"prize_id"`
	Delta   int    `json:"delta"`
}

type RestockPrizeResponse struct {
	Prize Prize `json:"prize"`
}

type SetPrizeActiveRequest struct {
	PrizeID string `json:"prize_id"`
	Active  bool   `json:"active"`
}

type SetPrizeActiveResponse struct{}
