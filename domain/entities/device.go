package entities

import (
	"errors"
	"strings"
	"time"
)

// Device represents a registered offline device and its OTP credential
type Device struct {
	ID           string    `json:"id" bson:"_id" db:"id"`
	SerialNumber string    `json:"serial_number" bson:"serial_number" db:"serial_number"`
	Model        string    `json:"model" bson:"model" db:"model"`
	Name         string    `json:"name" bson:"name" db:"name"`
	OwnerOrg     string    `json:"owner_org" bson:"owner_org" db:"owner_org"`
	Remark       string    `json:"remark,omitempty" bson:"remark,omitempty" db:"remark"`
	Secret       string    `json:"secret" bson:"secret" db:"secret"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// NormalizeSerial canonicalizes a serial number for storage and lookup.
// Serial numbers are compared case- and whitespace-insensitively.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

func (d *Device) Validate() error {
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	if d.Model == "" {
		return errors.New("model is required")
	}
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.OwnerOrg == "" {
		return errors.New("owner organization is required")
	}
	return nil
}

// Has2FA reports whether the device has a provisioned shared secret.
func (d *Device) Has2FA() bool {
	return d.Secret != ""
}

type remarkKind int

const (
	remarkUnchanged remarkKind = iota
	remarkCleared
	remarkSet
)

// RemarkPatch captures the three-way update semantics of the remark field:
// leave it alone, clear it, or set it to a trimmed non-empty value.
type RemarkPatch struct {
	kind  remarkKind
	value string
}

func RemarkUnchanged() RemarkPatch {
	return RemarkPatch{}
}

func RemarkCleared() RemarkPatch {
	return RemarkPatch{kind: remarkCleared}
}

// RemarkSet trims the value; a whitespace-only value clears the remark.
func RemarkSet(value string) RemarkPatch {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return RemarkCleared()
	}
	return RemarkPatch{kind: remarkSet, value: trimmed}
}

// Apply resolves the patch against the current remark value.
func (p RemarkPatch) Apply(current string) string {
	switch p.kind {
	case remarkCleared:
		return ""
	case remarkSet:
		return p.value
	default:
		return current
	}
}

// DeviceUpdate describes a partial update to a device's descriptive fields.
// Empty or whitespace-only values for Name, Model and OwnerOrg keep the
// previous value. SerialNumber and Secret are immutable through updates.
type DeviceUpdate struct {
	Name     string
	Model    string
	OwnerOrg string
	Remark   RemarkPatch
}

// ApplyTo mutates the device in place per the partial-update rules.
func (u DeviceUpdate) ApplyTo(d *Device) {
	if v := strings.TrimSpace(u.Name); v != "" {
		d.Name = v
	}
	if v := strings.TrimSpace(u.Model); v != "" {
		d.Model = v
	}
	if v := strings.TrimSpace(u.OwnerOrg); v != "" {
		d.OwnerOrg = v
	}
	d.Remark = u.Remark.Apply(d.Remark)
}
