// Package identity resolves the immutable company/device scoping pair at
// startup, either from explicit configuration or from the platform's thing
// registry.
package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iot"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
)

const (
	attributeCompanyID = "companyId"
	attributeDeviceID  = "deviceId"
)

// ThingDescriber is the slice of the IoT control plane the resolver needs.
type ThingDescriber interface {
	DescribeThing(ctx context.Context, params *iot.DescribeThingInput, optFns ...func(*iot.Options)) (*iot.DescribeThingOutput, error)
}

// Resolver derives a DeviceIdentity once at startup. Explicit company/device
// ids win; otherwise the thing's registry attributes are consulted. A missing
// identity is a fatal startup condition for the caller.
type Resolver struct {
	iot    ThingDescriber
	logger *zap.Logger
}

// NewResolver creates an identity resolver. The IoT client may be nil when
// identities are always supplied explicitly.
func NewResolver(client ThingDescriber, logger *zap.Logger) *Resolver {
	return &Resolver{iot: client, logger: logger}
}

// Resolve returns the device identity for this process.
func (r *Resolver) Resolve(ctx context.Context, companyID, deviceID, thingName string) (entities.DeviceIdentity, error) {
	if companyID != "" && deviceID != "" {
		identity := entities.DeviceIdentity{CompanyID: companyID, DeviceID: deviceID}
		r.logger.Info("resolved identity from configuration",
			zap.String("companyId", identity.CompanyID),
			zap.String("deviceId", identity.DeviceID))
		return identity, nil
	}

	if thingName == "" {
		return entities.DeviceIdentity{}, fmt.Errorf("no explicit identity and no thing name configured")
	}
	if r.iot == nil {
		return entities.DeviceIdentity{}, fmt.Errorf("thing %s: no registry client available", thingName)
	}

	out, err := r.iot.DescribeThing(ctx, &iot.DescribeThingInput{ThingName: aws.String(thingName)})
	if err != nil {
		return entities.DeviceIdentity{}, fmt.Errorf("describe thing %s: %w", thingName, err)
	}

	identity := entities.DeviceIdentity{
		CompanyID: out.Attributes[attributeCompanyID],
		DeviceID:  out.Attributes[attributeDeviceID],
	}
	if err := identity.Validate(); err != nil {
		return entities.DeviceIdentity{}, fmt.Errorf("thing %s attributes: %w", thingName, err)
	}

	r.logger.Info("resolved identity from thing attributes",
		zap.String("thingName", thingName),
		zap.String("companyId", identity.CompanyID),
		zap.String("deviceId", identity.DeviceID))
	return identity, nil
}
