package adapters

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/open2fa/console/repository"
)

func TestMemorySnapshotStore(t *testing.T) {
	store := NewMemorySnapshotStore()
	exerciseSnapshotStore(t, store)
}

func TestSQLiteSnapshotStore(t *testing.T) {
	logger := zap.NewNop()
	store, err := NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "slots.db"), logger)
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer store.Close()

	exerciseSnapshotStore(t, store)

	t.Run("SurvivesReopen", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "reopen.db")

		first, err := NewSQLiteSnapshotStore(path, logger)
		if err != nil {
			t.Fatalf("failed to open sqlite store: %v", err)
		}
		if err := first.Write(ctx, repository.DeviceSlot, []byte("snapshot-v1")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		first.Close()

		second, err := NewSQLiteSnapshotStore(path, logger)
		if err != nil {
			t.Fatalf("failed to reopen sqlite store: %v", err)
		}
		defer second.Close()

		data, err := second.Read(ctx, repository.DeviceSlot)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if string(data) != "snapshot-v1" {
			t.Errorf("expected snapshot to survive reopen, got %q", data)
		}
	})
}

func exerciseSnapshotStore(t *testing.T, store repository.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissingSlotReadsNil", func(t *testing.T) {
		data, err := store.Read(ctx, "never-written")
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if data != nil {
			t.Errorf("expected nil for missing slot, got %q", data)
		}
	})

	t.Run("WriteThenRead", func(t *testing.T) {
		payload := []byte(`[{"id":"device-1"}]`)
		if err := store.Write(ctx, repository.DeviceSlot, payload); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		data, err := store.Read(ctx, repository.DeviceSlot)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !bytes.Equal(data, payload) {
			t.Errorf("Read = %q, want %q", data, payload)
		}
	})

	t.Run("WriteReplaces", func(t *testing.T) {
		if err := store.Write(ctx, repository.SessionSlot, []byte("v1")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := store.Write(ctx, repository.SessionSlot, []byte("v2")); err != nil {
			t.Fatalf("second Write failed: %v", err)
		}
		data, err := store.Read(ctx, repository.SessionSlot)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if string(data) != "v2" {
			t.Errorf("expected latest snapshot, got %q", data)
		}
	})

	t.Run("SlotsAreIndependent", func(t *testing.T) {
		deviceData, err := store.Read(ctx, repository.DeviceSlot)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		sessionData, err := store.Read(ctx, repository.SessionSlot)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if bytes.Equal(deviceData, sessionData) {
			t.Error("slots must not alias each other")
		}
	})
}
