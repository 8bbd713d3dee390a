package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/open2fa/console/domain/entities"
	"github.com/open2fa/console/internal/otp"
	"github.com/open2fa/console/repository"
)

// CreateDevice carries the caller-supplied fields for device registration.
// The secret is always generated internally, never caller-supplied.
type CreateDevice struct {
	SerialNumber string
	Model        string
	Name         string
	OwnerOrg     string
	Remark       string
}

// DeviceFilters narrows a listing by case-insensitive substring match.
// All set filters are ANDed together.
type DeviceFilters struct {
	SerialNumber string
	Model        string
	OwnerOrg     string
}

// Registry owns the authoritative device collection. The in-memory slice
// (most recently created first) is the source of truth during a process
// lifetime; every mutation writes a full snapshot through to the store.
// A single mutex covers each whole read-modify-write sequence so the
// uniqueness and timestamp-ordering invariants hold under parallel callers.
type Registry struct {
	mu      sync.Mutex
	devices []*entities.Device
	store   repository.SnapshotStore
	secrets *otp.Provisioner
	logger  *zap.Logger
}

// NewRegistry loads the device snapshot from the store. A missing, empty or
// unreadable snapshot is recovered by seeding the default dataset; that is a
// recovery path, not an error, so it is logged and never propagated.
func NewRegistry(ctx context.Context, store repository.SnapshotStore, secrets *otp.Provisioner, logger *zap.Logger) *Registry {
	r := &Registry{
		store:   store,
		secrets: secrets,
		logger:  logger,
	}
	r.devices = r.load(ctx)
	return r
}

func (r *Registry) load(ctx context.Context) []*entities.Device {
	raw, err := r.store.Read(ctx, repository.DeviceSlot)
	if err != nil {
		r.logger.Warn("failed to read device snapshot, seeding defaults", zap.Error(err))
		return defaultDevices()
	}
	if len(raw) == 0 {
		r.logger.Info("no device snapshot found, seeding defaults")
		return defaultDevices()
	}
	var devices []*entities.Device
	if err := json.Unmarshal(raw, &devices); err != nil {
		r.logger.Warn("corrupt device snapshot, seeding defaults", zap.Error(err))
		return defaultDevices()
	}
	if len(devices) == 0 {
		return defaultDevices()
	}
	r.logger.Info("device snapshot restored", zap.Int("count", len(devices)))
	return devices
}

// persist writes the full collection through to the snapshot slot. The
// in-memory collection stays authoritative, so a failed write is logged
// and does not fail the in-flight operation.
func (r *Registry) persist(ctx context.Context) {
	raw, err := json.Marshal(r.devices)
	if err != nil {
		r.logger.Error("failed to encode device snapshot", zap.Error(err))
		return
	}
	if err := r.store.Write(ctx, repository.DeviceSlot, raw); err != nil {
		r.logger.Error("failed to persist device snapshot", zap.Error(err))
	}
}

// List returns copies of all devices matching the filters, newest first.
func (r *Registry) List(filters DeviceFilters) []*entities.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	sn := entities.NormalizeSerial(filters.SerialNumber)
	model := strings.ToLower(strings.TrimSpace(filters.Model))
	owner := strings.ToLower(strings.TrimSpace(filters.OwnerOrg))

	result := make([]*entities.Device, 0, len(r.devices))
	for _, d := range r.devices {
		if sn != "" && !strings.Contains(d.SerialNumber, sn) {
			continue
		}
		if model != "" && !strings.Contains(strings.ToLower(d.Model), model) {
			continue
		}
		if owner != "" && !strings.Contains(strings.ToLower(d.OwnerOrg), owner) {
			continue
		}
		deviceCopy := *d
		result = append(result, &deviceCopy)
	}
	return result
}

// Get returns a copy of the device with the given id.
func (r *Registry) Get(id string) (*entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.findByID(id)
	if d == nil {
		return nil, entities.ErrNotFound
	}
	deviceCopy := *d
	return &deviceCopy, nil
}

// FindBySerial looks a device up by normalized serial number. Used by the
// public, unauthenticated lookup flows.
func (r *Registry) FindBySerial(serial string) (*entities.Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := entities.NormalizeSerial(serial)
	for _, d := range r.devices {
		if d.SerialNumber == normalized {
			deviceCopy := *d
			return &deviceCopy, true
		}
	}
	return nil, false
}

// Create registers a new device. The serial number is normalized and must be
// unique across the registry; duplicates are rejected, never overwritten.
func (r *Registry) Create(ctx context.Context, input CreateDevice) (*entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := entities.NormalizeSerial(input.SerialNumber)
	for _, d := range r.devices {
		if d.SerialNumber == normalized {
			return nil, entities.ErrConflict
		}
	}

	now := time.Now()
	device := &entities.Device{
		ID:           uuid.New().String(),
		SerialNumber: normalized,
		Model:        strings.TrimSpace(input.Model),
		Name:         strings.TrimSpace(input.Name),
		OwnerOrg:     strings.TrimSpace(input.OwnerOrg),
		Remark:       strings.TrimSpace(input.Remark),
		Secret:       r.secrets.GenerateSecret(otp.DefaultSecretLength),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := device.Validate(); err != nil {
		return nil, err
	}

	// Newest first
	r.devices = append([]*entities.Device{device}, r.devices...)
	r.persist(ctx)

	r.logger.Info("device created",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	deviceCopy := *device
	return &deviceCopy, nil
}

// Update applies a partial update to the device's descriptive fields.
// SerialNumber and Secret are immutable here.
func (r *Registry) Update(ctx context.Context, id string, patch entities.DeviceUpdate) (*entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.findByID(id)
	if d == nil {
		return nil, entities.ErrNotFound
	}

	patch.ApplyTo(d)
	d.UpdatedAt = time.Now()
	r.persist(ctx)

	deviceCopy := *d
	return &deviceCopy, nil
}

// ResetSecret replaces the device's shared secret with a freshly generated
// one. The old secret becomes permanently unrecoverable.
func (r *Registry) ResetSecret(ctx context.Context, id string) (*entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.findByID(id)
	if d == nil {
		return nil, entities.ErrNotFound
	}

	d.Secret = r.secrets.GenerateSecret(otp.DefaultSecretLength)
	d.UpdatedAt = time.Now()
	r.persist(ctx)

	r.logger.Info("device secret reset", zap.String("device_id", d.ID))

	deviceCopy := *d
	return &deviceCopy, nil
}

// findByID must be called with the mutex held.
func (r *Registry) findByID(id string) *entities.Device {
	for _, d := range r.devices {
		if d.ID == id {
			return d
		}
	}
	return nil
}
