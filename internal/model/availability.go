package model

type GetAvailabilityRequest struct{}

type GetAvailabilityResponse struct {
	Enabled         bool   `json:"enabled"`
	ManualEnabled   bool   `json:"manual_enabled"`
	ScheduleEnabled bool   `json:"schedule_enabled"`
	NextToggleTime  string `json:"next_toggle_time"`
	OpenHour        int    `json:"open_hour"`
	CloseHour       int    `json:"close_hour"`
	Timezone        string `json:"timezone"`
}

type ToggleAvailabilityRequest struct {
	Enabled bool `json:"enabled"`
}

type ToggleAvailabilityResponse struct{}
