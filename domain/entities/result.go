package entities

import (
	"errors"
	"fmt"
)

// Priority bounds for a valid analysis. Values outside this range (including
// the model's "invalid image" zero) are a parse failure, never clamped.
const (
	MinPriority = 1
	MaxPriority = 5
)

// Analysis is the structured safety assessment extracted from the model
// output. All four fields are mandatory.
type Analysis struct {
	Priority      int    `json:"priority"`
	Summary       string `json:"summary"`
	Description   string `json:"description"`
	OSHAReference string `json:"oshaReference"`
}

// Validate enforces the four-field contract and the priority range.
func (a Analysis) Validate() error {
	if a.Priority < MinPriority || a.Priority > MaxPriority {
		return fmt.Errorf("priority %d outside [%d,%d]", a.Priority, MinPriority, MaxPriority)
	}
	if a.Summary == "" {
		return errors.New("summary is required")
	}
	if a.Description == "" {
		return errors.New("description is required")
	}
	if a.OSHAReference == "" {
		return errors.New("oshaReference is required")
	}
	return nil
}

// TokenUsage reports the model invocation cost.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Requester identifies the device whose frame produced a result, plus the
// capture timestamp taken from the stored object.
type Requester struct {
	CompanyID string `json:"companyId"`
	DeviceID  string `json:"deviceId"`
	Timestamp string `json:"timestamp"`
}

// ResultMessage is the wire form published to the per-device result topic.
// Consumers must not assume durability beyond delivery.
type ResultMessage struct {
	Analysis      Analysis   `json:"analysis"`
	TokenUsage    TokenUsage `json:"token_usage"`
	Requester     Requester  `json:"requester"`
	PromptVersion string     `json:"promptVersion,omitempty"`
}

// Validate checks every section the downstream consumers rely on. The
// dispatcher re-validates before publishing so a malformed message is dropped
// there rather than delivered.
func (m ResultMessage) Validate() error {
	if err := m.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if m.TokenUsage.TotalTokens != m.TokenUsage.InputTokens+m.TokenUsage.OutputTokens {
		return fmt.Errorf("token usage total %d does not add up", m.TokenUsage.TotalTokens)
	}
	if m.Requester.CompanyID == "" || m.Requester.DeviceID == "" {
		return errors.New("requester identity is required")
	}
	if m.Requester.Timestamp == "" {
		return errors.New("requester timestamp is required")
	}
	return nil
}

// Identity returns the scoping identity embedded in the requester block.
func (m ResultMessage) Identity() DeviceIdentity {
	return DeviceIdentity{CompanyID: m.Requester.CompanyID, DeviceID: m.Requester.DeviceID}
}
