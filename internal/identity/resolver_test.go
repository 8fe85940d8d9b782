package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/iot"
	"go.uber.org/zap"
)

type fakeDescriber struct {
	attributes map[string]string
	err        error
	calls      int
}

func (f *fakeDescriber) DescribeThing(ctx context.Context, params *iot.DescribeThingInput, optFns ...func(*iot.Options)) (*iot.DescribeThingOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &iot.DescribeThingOutput{Attributes: f.attributes}, nil
}

func TestResolveExplicitIdentityWins(t *testing.T) {
	describer := &fakeDescriber{}
	resolver := NewResolver(describer, zap.NewNop())

	identity, err := resolver.Resolve(context.Background(), "acme", "dev-1", "thing-9")
	if err != nil {
		t.Fatalf("explicit identity should resolve, got: %v", err)
	}
	if identity.CompanyID != "acme" || identity.DeviceID != "dev-1" {
		t.Errorf("unexpected identity: %+v", identity)
	}
	if describer.calls != 0 {
		t.Error("registry must not be consulted when identity is explicit")
	}
}

func TestResolveFromThingAttributes(t *testing.T) {
	describer := &fakeDescriber{attributes: map[string]string{
		"companyId": "globex",
		"deviceId":  "device-001",
	}}
	resolver := NewResolver(describer, zap.NewNop())

	identity, err := resolver.Resolve(context.Background(), "", "", "globex-thing")
	if err != nil {
		t.Fatalf("thing attributes should resolve, got: %v", err)
	}
	if identity.CompanyID != "globex" || identity.DeviceID != "device-001" {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestResolveMissingAttributesIsFatal(t *testing.T) {
	describer := &fakeDescriber{attributes: map[string]string{"companyId": "globex"}}
	resolver := NewResolver(describer, zap.NewNop())

	if _, err := resolver.Resolve(context.Background(), "", "", "globex-thing"); err == nil {
		t.Error("missing deviceId attribute should be an error")
	}
}

func TestResolveNoSources(t *testing.T) {
	resolver := NewResolver(nil, zap.NewNop())
	if _, err := resolver.Resolve(context.Background(), "", "", ""); err == nil {
		t.Error("no identity sources should be an error")
	}
}

func TestResolveRegistryFailure(t *testing.T) {
	describer := &fakeDescriber{err: errors.New("access denied")}
	resolver := NewResolver(describer, zap.NewNop())

	if _, err := resolver.Resolve(context.Background(), "", "", "thing-1"); err == nil {
		t.Error("registry failure should surface as an error")
	}
}
