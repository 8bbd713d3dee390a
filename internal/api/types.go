package api

import "encoding/json"

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response payload
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Role    string `json:"role"`
}

// ProfileResponse represents the profile response payload
type ProfileResponse struct {
	Success bool        `json:"success"`
	User    ProfileUser `json:"user"`
}

type ProfileUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AckResponse is the bare success acknowledgement
type AckResponse struct {
	Success bool `json:"success"`
}

// DeviceCreateRequest represents the device registration payload
type DeviceCreateRequest struct {
	DeviceSN    string `json:"device_sn"`
	DeviceModel string `json:"device_model"`
	DeviceName  string `json:"device_name"`
	OwnerOrg    string `json:"owner_org"`
	Remark      string `json:"remark,omitempty"`
}

// OptionalString distinguishes an omitted JSON field from an explicit null
// and from a string value.
type OptionalString struct {
	Present bool
	Value   *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// DeviceUpdateRequest represents the partial-update payload. Remark carries
// three-way semantics: omitted = unchanged, null = cleared, string = set.
type DeviceUpdateRequest struct {
	DeviceName  string         `json:"device_name"`
	DeviceModel string         `json:"device_model"`
	OwnerOrg    string         `json:"owner_org"`
	Remark      OptionalString `json:"remark"`
}

// DeviceItem is the full device projection for authorized operators
type DeviceItem struct {
	DeviceID     string `json:"device_id"`
	DeviceSN     string `json:"device_sn"`
	DeviceModel  string `json:"device_model"`
	DeviceName   string `json:"device_name"`
	OwnerOrg     string `json:"owner_org"`
	Remark       string `json:"remark,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	SecretMasked string `json:"secret_masked"`
	OTPAuthURL   string `json:"otpauth_url"`
}

// DeviceListResponse represents the device listing payload
type DeviceListResponse struct {
	Success bool         `json:"success"`
	Devices []DeviceItem `json:"devices"`
}

// DeviceDetailResponse represents a single device payload
type DeviceDetailResponse struct {
	Success bool       `json:"success"`
	Device  DeviceItem `json:"device"`
}

// DeviceResetResponse carries the new enrollment material after a secret reset
type DeviceResetResponse struct {
	Success      bool   `json:"success"`
	SecretMasked string `json:"secret_masked"`
	OTPAuthURL   string `json:"otpauth_url"`
}

// PublicDeviceItem is the reduced projection exposed without authentication
type PublicDeviceItem struct {
	DeviceID    string `json:"device_id"`
	DeviceSN    string `json:"device_sn"`
	DeviceModel string `json:"device_model"`
	DeviceName  string `json:"device_name"`
	OwnerOrg    string `json:"owner_org"`
	Has2FA      bool   `json:"has_2fa"`
}

// PublicDeviceListResponse represents the public listing payload
type PublicDeviceListResponse struct {
	Success bool               `json:"success"`
	Devices []PublicDeviceItem `json:"devices"`
}

// PublicDeviceDetail adds enrollment material to the reduced projection
type PublicDeviceDetail struct {
	PublicDeviceItem
	SecretMasked string `json:"secret_masked"`
	OTPAuthURL   string `json:"otpauth_url"`
}

// PublicDeviceDetailResponse represents the public detail payload
type PublicDeviceDetailResponse struct {
	Success bool               `json:"success"`
	Device  PublicDeviceDetail `json:"device"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
