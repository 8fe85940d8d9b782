package entities

import "testing"

func validResultMessage() ResultMessage {
	return ResultMessage{
		Analysis: Analysis{
			Priority:      2,
			Summary:       "Stacked pallets near exit",
			Description:   "Pallets partially block the marked egress route",
			OSHAReference: "OSHA 1910.37",
		},
		TokenUsage: TokenUsage{InputTokens: 1807, OutputTokens: 181, TotalTokens: 1988},
		Requester:  Requester{CompanyID: "acme", DeviceID: "dev-1", Timestamp: "2025-01-01T00:00:00Z"},
	}
}

func TestResultMessageValidate(t *testing.T) {
	if err := validResultMessage().Validate(); err != nil {
		t.Errorf("valid message should not error, got: %v", err)
	}

	t.Run("priority out of range", func(t *testing.T) {
		msg := validResultMessage()
		msg.Analysis.Priority = 6
		if err := msg.Validate(); err == nil {
			t.Error("priority 6 should fail validation")
		}
	})

	t.Run("token usage mismatch", func(t *testing.T) {
		msg := validResultMessage()
		msg.TokenUsage.TotalTokens = 42
		if err := msg.Validate(); err == nil {
			t.Error("inconsistent token total should fail validation")
		}
	})

	t.Run("missing requester identity", func(t *testing.T) {
		msg := validResultMessage()
		msg.Requester.DeviceID = ""
		if err := msg.Validate(); err == nil {
			t.Error("missing device id should fail validation")
		}
	})

	t.Run("missing timestamp", func(t *testing.T) {
		msg := validResultMessage()
		msg.Requester.Timestamp = ""
		if err := msg.Validate(); err == nil {
			t.Error("missing timestamp should fail validation")
		}
	})
}

func TestResultMessageIdentity(t *testing.T) {
	identity := validResultMessage().Identity()
	if identity.CompanyID != "acme" || identity.DeviceID != "dev-1" {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestDecodeTrigger(t *testing.T) {
	trigger, err := DecodeTrigger([]byte(`{"ts":"2025-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("valid trigger should decode, got: %v", err)
	}
	if trigger.CorrelationID() != "2025-01-01T00:00:00Z" {
		t.Errorf("unexpected correlation id: %s", trigger.CorrelationID())
	}

	if _, err := DecodeTrigger([]byte("not json")); err == nil {
		t.Error("malformed trigger should fail to decode")
	}

	trigger, err = DecodeTrigger([]byte(`{"requestId":"req-7","ts":"2025-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("trigger with request id should decode, got: %v", err)
	}
	if trigger.CorrelationID() != "req-7" {
		t.Error("request id should win over timestamp for correlation")
	}

	trigger, err = DecodeTrigger([]byte(`{}`))
	if err != nil {
		t.Fatalf("empty trigger should decode, got: %v", err)
	}
	if trigger.CorrelationID() == "" {
		t.Error("correlation id should never be empty")
	}
}
