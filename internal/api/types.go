package api

import (
	"github.com/sitewatch/sitewatch/usecase"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// StatusResponse is returned by GET /status and describes the edge
// pipeline's current state.
type StatusResponse struct {
	CompanyID   string           `json:"company_id"`
	DeviceID    string           `json:"device_id"`
	Busy        bool             `json:"busy"`
	LastTrigger *usecase.Outcome `json:"last_trigger,omitempty"`
}
