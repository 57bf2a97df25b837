package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/names-to-faces/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close() }()

	ctx := context.Background()

	t.Run("missing slot", func(t *testing.T) {
		if _, err := store.Get(ctx, storage.PeopleSlot); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put overwrites slot", func(t *testing.T) {
		if err := store.Put(ctx, storage.PeopleSlot, []byte(`[]`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Put(ctx, storage.PeopleSlot, []byte(`[{"name":"Bob","image":"b"}]`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		data, err := store.Get(ctx, storage.PeopleSlot)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(data) != `[{"name":"Bob","image":"b"}]` {
			t.Errorf("Unexpected slot data: %s", data)
		}
	})

	t.Run("secret lifecycle", func(t *testing.T) {
		if _, err := store.GetSecret(ctx, storage.PasswordSlot); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
		if err := store.SetSecret(ctx, storage.PasswordSlot, "secret123"); err != nil {
			t.Fatalf("SetSecret failed: %v", err)
		}
		got, err := store.GetSecret(ctx, storage.PasswordSlot)
		if err != nil {
			t.Fatalf("GetSecret failed: %v", err)
		}
		if got != "secret123" {
			t.Errorf("Expected secret123, got %q", got)
		}
		if err := store.DeleteSecret(ctx, storage.PasswordSlot); err != nil {
			t.Fatalf("DeleteSecret failed: %v", err)
		}
		if _, err := store.GetSecret(ctx, storage.PasswordSlot); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("data survives reopen", func(t *testing.T) {
		if err := store.Put(ctx, "other", []byte("x")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		store.Close()

		reopened, err := New(dbPath)
		if err != nil {
			t.Fatalf("Reopen failed: %v", err)
		}
		store = reopened

		data, err := reopened.Get(ctx, "other")
		if err != nil || string(data) != "x" {
			t.Errorf("Expected persisted slot, got %q, %v", data, err)
		}
	})
}
