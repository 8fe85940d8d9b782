package entities

import (
	"errors"
	"fmt"
	"strings"
)

// DeviceIdentity scopes every topic name and storage key to one company/device
// pair. It is resolved once at startup and never changes for the process
// lifetime.
type DeviceIdentity struct {
	CompanyID string `json:"companyId"`
	DeviceID  string `json:"deviceId"`
}

// Validate checks that both scoping identifiers are present.
func (d DeviceIdentity) Validate() error {
	if d.CompanyID == "" {
		return errors.New("company id is required")
	}
	if d.DeviceID == "" {
		return errors.New("device id is required")
	}
	return nil
}

// CommandTopic is the per-device trigger topic.
func (d DeviceIdentity) CommandTopic() string {
	return fmt.Sprintf("client/%s/%s/cmd", d.CompanyID, d.DeviceID)
}

// ResultTopic is the per-device analysis result topic.
func (d DeviceIdentity) ResultTopic() string {
	return fmt.Sprintf("client/%s/%s/result", d.CompanyID, d.DeviceID)
}

// StatusTopic carries short trigger acknowledgements (accepted/busy/failed).
func (d DeviceIdentity) StatusTopic() string {
	return fmt.Sprintf("client/%s/%s/status", d.CompanyID, d.DeviceID)
}

// AlertTopic is the secondary channel used for priority escalation.
func (d DeviceIdentity) AlertTopic() string {
	return fmt.Sprintf("client/%s/%s/alert", d.CompanyID, d.DeviceID)
}

// StorageKeyPrefix is the multi-tenant isolation boundary: no two devices
// share a prefix.
func (d DeviceIdentity) StorageKeyPrefix() string {
	return fmt.Sprintf("company/%s/device/%s/", d.CompanyID, d.DeviceID)
}

// ObjectKey builds the full storage key for a captured frame.
func (d DeviceIdentity) ObjectKey(id string) string {
	return d.StorageKeyPrefix() + id + ".jpg"
}

// IdentityFromKey recovers the device identity embedded in a storage key of
// the form company/{companyId}/device/{deviceId}/{id}.jpg.
func IdentityFromKey(key string) (DeviceIdentity, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 5 || parts[0] != "company" || parts[2] != "device" {
		return DeviceIdentity{}, fmt.Errorf("unexpected key structure: %q", key)
	}
	identity := DeviceIdentity{CompanyID: parts[1], DeviceID: parts[3]}
	if err := identity.Validate(); err != nil {
		return DeviceIdentity{}, fmt.Errorf("key %q: %w", key, err)
	}
	return identity, nil
}
