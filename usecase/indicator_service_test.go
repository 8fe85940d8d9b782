package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/adapters/mqtt"
	"github.com/sitewatch/sitewatch/domain/entities"
)

type fakeDriver struct {
	priorities []int
}

func (d *fakeDriver) Show(priority int) error {
	d.priorities = append(d.priorities, priority)
	return nil
}

func TestIndicatorHandlesResult(t *testing.T) {
	driver := &fakeDriver{}
	messenger := mqtt.NewMockMessenger()
	service := NewIndicatorService(testIdentity(), messenger, driver, zap.NewNop())

	if err := service.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	payload, _ := json.Marshal(resultMessage(3))
	if !messenger.Deliver("client/acme/dev-1/result", payload) {
		t.Fatal("listener did not subscribe to its result topic")
	}
	if len(driver.priorities) != 1 || driver.priorities[0] != 3 {
		t.Errorf("driver should be shown priority 3, got %v", driver.priorities)
	}
}

func TestIndicatorSurvivesMalformedPayload(t *testing.T) {
	driver := &fakeDriver{}
	service := NewIndicatorService(testIdentity(), mqtt.NewMockMessenger(), driver, zap.NewNop())

	// Must not panic and must not drive the indicator.
	service.HandleResult("client/acme/dev-1/result", []byte("not json"))
	if len(driver.priorities) != 0 {
		t.Error("malformed payloads must not reach the driver")
	}
}

func TestIndicatorOutOfRangePriorityMapsToUnknown(t *testing.T) {
	if entities.IndicatorForPriority(9) != entities.IndicatorUnknown {
		t.Error("out-of-range priorities map to the unknown state")
	}

	driver := &fakeDriver{}
	service := NewIndicatorService(testIdentity(), mqtt.NewMockMessenger(), driver, zap.NewNop())

	msg := resultMessage(2)
	msg.Analysis.Priority = 9
	payload, _ := json.Marshal(msg)

	// The listener still drives the indicator; the mapping itself is total.
	service.HandleResult("client/acme/dev-1/result", payload)
	if len(driver.priorities) != 1 || driver.priorities[0] != 9 {
		t.Errorf("driver should still be invoked, got %v", driver.priorities)
	}
}
