package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/open2fa/console/domain/entities"
	"github.com/open2fa/console/internal/otp"
)

// AdminDevice is the full projection returned to authorized operators.
// The raw secret never leaves the core; only the mask and the enrollment
// descriptor do.
type AdminDevice struct {
	DeviceID     string
	SerialNumber string
	Model        string
	Name         string
	OwnerOrg     string
	Remark       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	SecretMasked string
	OTPAuthURL   string
}

// PublicDevice is the reduced projection for unauthenticated listings.
type PublicDevice struct {
	DeviceID     string
	SerialNumber string
	Model        string
	Name         string
	OwnerOrg     string
	Has2FA       bool
}

// PublicDeviceDetail augments the reduced projection with enrollment
// material for the provisioning flow.
type PublicDeviceDetail struct {
	PublicDevice
	SecretMasked string
	OTPAuthURL   string
}

// Profile identifies the user bound to a session token.
type Profile struct {
	UserID   string
	Username string
	Role     entities.Role
}

// ResetResult carries the outcome of a secret rotation.
type ResetResult struct {
	SecretMasked string
	OTPAuthURL   string
}

// Console is the access-gated operation surface: it composes the session
// manager (authorization), the device registry (data) and the secret
// provisioner (enrollment material), and maps every failure to the typed
// taxonomy in domain/entities. Public lookups bypass authorization by
// design; device provisioning, not identity, is their trust boundary.
type Console struct {
	sessions *Sessions
	registry *Registry
	logger   *zap.Logger
}

func NewConsole(sessions *Sessions, registry *Registry, logger *zap.Logger) *Console {
	return &Console{
		sessions: sessions,
		registry: registry,
		logger:   logger,
	}
}

// Login authenticates and returns a fresh session token with the role.
func (c *Console) Login(ctx context.Context, username, password string) (string, entities.Role, error) {
	return c.sessions.Login(ctx, username, password)
}

// Profile resolves a token to the bound user's identity.
func (c *Console) Profile(token string) (Profile, error) {
	user, err := c.sessions.Resolve(token)
	if err != nil {
		return Profile{}, err
	}
	return Profile{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// Logout revokes the token. Idempotent, never fails.
func (c *Console) Logout(ctx context.Context, token string) {
	c.sessions.Logout(ctx, token)
}

// RestoreSession re-validates a persisted token; see Sessions.RestoreSession.
func (c *Console) RestoreSession(ctx context.Context, token string) (Profile, bool) {
	user, ok := c.sessions.RestoreSession(ctx, token)
	if !ok {
		return Profile{}, false
	}
	return Profile{UserID: user.ID, Username: user.Username, Role: user.Role}, true
}

// ListDevices returns the full projection of all devices, admin only.
func (c *Console) ListDevices(token string, filters DeviceFilters) ([]AdminDevice, error) {
	if _, err := c.sessions.Authorize(token, entities.RoleAdmin); err != nil {
		return nil, err
	}
	devices := c.registry.List(filters)
	result := make([]AdminDevice, 0, len(devices))
	for _, d := range devices {
		result = append(result, toAdminDevice(d))
	}
	return result, nil
}

// GetDevice returns the full projection of one device, admin only.
func (c *Console) GetDevice(token, deviceID string) (AdminDevice, error) {
	if _, err := c.sessions.Authorize(token, entities.RoleAdmin); err != nil {
		return AdminDevice{}, err
	}
	d, err := c.registry.Get(deviceID)
	if err != nil {
		return AdminDevice{}, err
	}
	return toAdminDevice(d), nil
}

// CreateDevice registers a device with a freshly provisioned secret, admin only.
func (c *Console) CreateDevice(ctx context.Context, token string, input CreateDevice) (AdminDevice, error) {
	if _, err := c.sessions.Authorize(token, entities.RoleAdmin); err != nil {
		return AdminDevice{}, err
	}
	d, err := c.registry.Create(ctx, input)
	if err != nil {
		return AdminDevice{}, err
	}
	return toAdminDevice(d), nil
}

// UpdateDevice applies a partial update to descriptive fields, admin only.
func (c *Console) UpdateDevice(ctx context.Context, token, deviceID string, patch entities.DeviceUpdate) error {
	if _, err := c.sessions.Authorize(token, entities.RoleAdmin); err != nil {
		return err
	}
	_, err := c.registry.Update(ctx, deviceID, patch)
	return err
}

// ResetDevice rotates the device secret and returns the new enrollment
// material, admin only.
func (c *Console) ResetDevice(ctx context.Context, token, deviceID string) (ResetResult, error) {
	if _, err := c.sessions.Authorize(token, entities.RoleAdmin); err != nil {
		return ResetResult{}, err
	}
	d, err := c.registry.ResetSecret(ctx, deviceID)
	if err != nil {
		return ResetResult{}, err
	}
	return ResetResult{
		SecretMasked: otp.MaskSecret(d.Secret),
		OTPAuthURL:   enrollmentURL(d),
	}, nil
}

// PublicListDevices returns the reduced projection of all devices without
// authentication. No secret material is exposed here.
func (c *Console) PublicListDevices() []PublicDevice {
	devices := c.registry.List(DeviceFilters{})
	result := make([]PublicDevice, 0, len(devices))
	for _, d := range devices {
		result = append(result, toPublicDevice(d))
	}
	return result
}

// PublicGetDeviceBySN looks a device up by serial number for the
// unauthenticated provisioning flow.
func (c *Console) PublicGetDeviceBySN(serial string) (PublicDeviceDetail, error) {
	d, ok := c.registry.FindBySerial(serial)
	if !ok {
		return PublicDeviceDetail{}, entities.ErrNotFound
	}
	return toPublicDetail(d), nil
}

// PublicGetDevice2FA returns enrollment material for a device id without
// authentication.
func (c *Console) PublicGetDevice2FA(deviceID string) (PublicDeviceDetail, error) {
	d, err := c.registry.Get(deviceID)
	if err != nil {
		return PublicDeviceDetail{}, err
	}
	return toPublicDetail(d), nil
}

func enrollmentURL(d *entities.Device) string {
	return otp.BuildEnrollmentURI(otp.Enrollment{
		AccountName: d.SerialNumber,
		Secret:      d.Secret,
	})
}

func toAdminDevice(d *entities.Device) AdminDevice {
	return AdminDevice{
		DeviceID:     d.ID,
		SerialNumber: d.SerialNumber,
		Model:        d.Model,
		Name:         d.Name,
		OwnerOrg:     d.OwnerOrg,
		Remark:       d.Remark,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		SecretMasked: otp.MaskSecret(d.Secret),
		OTPAuthURL:   enrollmentURL(d),
	}
}

func toPublicDevice(d *entities.Device) PublicDevice {
	return PublicDevice{
		DeviceID:     d.ID,
		SerialNumber: d.SerialNumber,
		Model:        d.Model,
		Name:         d.Name,
		OwnerOrg:     d.OwnerOrg,
		Has2FA:       d.Has2FA(),
	}
}

func toPublicDetail(d *entities.Device) PublicDeviceDetail {
	return PublicDeviceDetail{
		PublicDevice: toPublicDevice(d),
		SecretMasked: otp.MaskSecret(d.Secret),
		OTPAuthURL:   enrollmentURL(d),
	}
}
