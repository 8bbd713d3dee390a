package repository

import "context"

// Slot names for the two durable snapshots the console maintains.
const (
	DeviceSlot  = "open2fa:devices"
	SessionSlot = "open2fa:sessions"
)

// SnapshotStore persists opaque snapshots under named slots. Implementations
// back the registry and session manager; the in-memory collections remain the
// source of truth during a process lifetime, the store is written through
// after every successful mutation.
type SnapshotStore interface {
	// Read returns the current snapshot for a slot, or (nil, nil) when the
	// slot has never been written.
	Read(ctx context.Context, slot string) ([]byte, error)
	// Write replaces the snapshot for a slot.
	Write(ctx context.Context, slot string, data []byte) error
}
