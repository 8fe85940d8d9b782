package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/adapters/vision"
	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/internal/config"
)

type fakeFetcher struct {
	object *entities.StorageObject
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, bucket, key string) (*entities.StorageObject, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	obj := *f.object
	obj.Bucket = bucket
	obj.Key = key
	return &obj, nil
}

type fakeForwarder struct {
	err      error
	calls    int
	messages []*entities.ResultMessage
}

func (f *fakeForwarder) Forward(ctx context.Context, msg *entities.ResultMessage) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func analyzerConfig() config.AnalyzerConfig {
	return config.AnalyzerConfig{
		ModelInvokeRetries: 2,
		ForwardRetries:     1,
		Retry:              config.RetryConfig{BackoffBase: time.Millisecond, BackoffCap: 5 * time.Millisecond},
	}
}

const validModelOutput = `{"priority":3,"summary":"Blocked exit","description":"Pallets in front of the fire door","oshaReference":"OSHA 1910.37"}`

func storedFrame() *entities.StorageObject {
	return &entities.StorageObject{
		Data:         []byte("jpeg-bytes"),
		LastModified: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleObjectCreatedHappyPath(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	model := &vision.MockModel{
		Text:  validModelOutput,
		Usage: entities.TokenUsage{InputTokens: 1807, OutputTokens: 181, TotalTokens: 1988},
	}
	forwarder := &fakeForwarder{}
	service := NewAnalysisService(fetcher, model, forwarder, "osha-v1", analyzerConfig(), zap.NewNop())

	err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/abc.jpg")
	if err != nil {
		t.Fatalf("analysis should succeed, got: %v", err)
	}

	if len(forwarder.messages) != 1 {
		t.Fatalf("expected one forwarded result, got %d", len(forwarder.messages))
	}
	msg := forwarder.messages[0]
	if msg.Requester.CompanyID != "acme" || msg.Requester.DeviceID != "dev-1" {
		t.Errorf("requester identity not taken from the key: %+v", msg.Requester)
	}
	if msg.Requester.Timestamp != "2025-01-01T00:00:00Z" {
		t.Errorf("requester timestamp should come from the stored object, got %s", msg.Requester.Timestamp)
	}
	if msg.Analysis.Priority != 3 {
		t.Errorf("unexpected priority: %d", msg.Analysis.Priority)
	}
	if msg.TokenUsage.TotalTokens != 1988 {
		t.Errorf("token usage not propagated: %+v", msg.TokenUsage)
	}
	if msg.PromptVersion != "osha-v1" {
		t.Errorf("prompt version not recorded: %q", msg.PromptVersion)
	}
	if len(model.Images) != 1 || string(model.Images[0]) != "jpeg-bytes" {
		t.Error("model should receive the fetched frame bytes")
	}
}

func TestHandleObjectCreatedSkipsNonJPG(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	service := NewAnalysisService(fetcher, &vision.MockModel{}, &fakeForwarder{}, "osha-v1", analyzerConfig(), zap.NewNop())

	if err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/readme.txt"); err != nil {
		t.Fatalf("non-jpg objects are skipped, not failed: %v", err)
	}
	if fetcher.calls != 0 {
		t.Error("skipped objects must not be fetched")
	}
}

func TestHandleObjectCreatedBadKeyIsTerminal(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	service := NewAnalysisService(fetcher, &vision.MockModel{}, &fakeForwarder{}, "osha-v1", analyzerConfig(), zap.NewNop())

	if err := service.HandleObjectCreated(context.Background(), "frames", "random/path/file.jpg"); err == nil {
		t.Fatal("a key outside the device scheme should fail")
	}
	if fetcher.calls != 0 {
		t.Error("bad keys must not be fetched")
	}
}

func TestHandleObjectCreatedFetchFailureIsTerminal(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("access denied")}
	model := &vision.MockModel{Text: validModelOutput}
	forwarder := &fakeForwarder{}
	service := NewAnalysisService(fetcher, model, forwarder, "osha-v1", analyzerConfig(), zap.NewNop())

	if err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/abc.jpg"); err == nil {
		t.Fatal("fetch failure should be terminal")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch must not be retried, got %d calls", fetcher.calls)
	}
	if model.Calls != 0 || forwarder.calls != 0 {
		t.Error("no downstream work after a fetch failure")
	}
}

func TestHandleObjectCreatedRetriesTransientInvoke(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	model := &vision.MockModel{
		Text: validModelOutput,
		Errs: []error{errors.New("throttled"), nil},
	}
	forwarder := &fakeForwarder{}
	service := NewAnalysisService(fetcher, model, forwarder, "osha-v1", analyzerConfig(), zap.NewNop())

	if err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/abc.jpg"); err != nil {
		t.Fatalf("throttle then success should succeed, got: %v", err)
	}
	if model.Calls != 2 {
		t.Errorf("expected 2 invocation attempts, got %d", model.Calls)
	}
	if forwarder.calls != 1 {
		t.Errorf("expected one forward, got %d", forwarder.calls)
	}
}

func TestHandleObjectCreatedInvokeExhaustion(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	model := &vision.MockModel{
		Errs: []error{errors.New("timeout"), errors.New("timeout"), errors.New("timeout")},
	}
	forwarder := &fakeForwarder{}
	service := NewAnalysisService(fetcher, model, forwarder, "osha-v1", analyzerConfig(), zap.NewNop())

	if err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/abc.jpg"); err == nil {
		t.Fatal("invoke exhaustion should fail")
	}
	if model.Calls != 3 {
		t.Errorf("expected 1 initial + 2 retries = 3 attempts, got %d", model.Calls)
	}
	if forwarder.calls != 0 {
		t.Error("no result may be forwarded after invoke exhaustion")
	}
}

func TestHandleObjectCreatedParseFailureNotRetried(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	model := &vision.MockModel{Text: "I am sorry, I cannot analyze this image."}
	forwarder := &fakeForwarder{}
	service := NewAnalysisService(fetcher, model, forwarder, "osha-v1", analyzerConfig(), zap.NewNop())

	err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/abc.jpg")
	var parseErr *entities.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected a parse failure, got: %v", err)
	}
	if model.Calls != 1 {
		t.Errorf("parse failures must not retry the model, got %d calls", model.Calls)
	}
	if forwarder.calls != 0 {
		t.Error("no result may be published after a parse failure")
	}
}

func TestHandleObjectCreatedOutOfRangePriority(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	model := &vision.MockModel{Text: `{"priority":7,"summary":"s","description":"d","oshaReference":"r"}`}
	forwarder := &fakeForwarder{}
	service := NewAnalysisService(fetcher, model, forwarder, "osha-v1", analyzerConfig(), zap.NewNop())

	err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/abc.jpg")
	var parseErr *entities.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("priority 7 must be a parse failure, never clamped, got: %v", err)
	}
	if forwarder.calls != 0 {
		t.Error("no result may be forwarded for an out-of-range priority")
	}
}

func TestHandleObjectCreatedForwardExhaustionLosesResult(t *testing.T) {
	fetcher := &fakeFetcher{object: storedFrame()}
	model := &vision.MockModel{Text: validModelOutput}
	forwarder := &fakeForwarder{err: errors.New("dispatcher unavailable")}
	service := NewAnalysisService(fetcher, model, forwarder, "osha-v1", analyzerConfig(), zap.NewNop())

	if err := service.HandleObjectCreated(context.Background(), "frames", "company/acme/device/dev-1/abc.jpg"); err == nil {
		t.Fatal("forward exhaustion should surface an error")
	}
	if forwarder.calls != 2 {
		t.Errorf("expected 1 initial + 1 retry = 2 forward attempts, got %d", forwarder.calls)
	}
}
