package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "auth", "session.json"))
}

func TestFileStoreSaveLoadClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	if sess, err := store.Load(ctx); err != nil || sess != nil {
		t.Fatalf("Load() on empty store = %v, %v; want nil, nil", sess, err)
	}

	want := &Session{Access: "acc-1", Refresh: "ref-1"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got == nil || got.Access != want.Access || got.Refresh != want.Refresh {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}

	if err = store.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if got, err = store.Load(ctx); err != nil || got != nil {
		t.Fatalf("Load() after Clear() = %v, %v; want nil, nil", got, err)
	}
	// Clearing twice must not fail.
	if err = store.Clear(ctx); err != nil {
		t.Fatalf("second Clear() failed: %v", err)
	}
}

func TestFileStoreSaveReplacesWholeValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Save(ctx, &Session{Access: "old-access", Refresh: "old-refresh"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Save(ctx, &Session{Access: "new-access", Refresh: "new-refresh"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Access != "new-access" || got.Refresh != "new-refresh" {
		t.Fatalf("Load() = %+v, want replaced session", got)
	}
}

func TestFileStoreFilePermissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Save(ctx, &Session{Access: "a", Refresh: "r"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}
}

func TestIsLoggedIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	if IsLoggedIn(ctx, store) {
		t.Error("IsLoggedIn() = true on empty store")
	}

	if err := store.Save(ctx, &Session{Access: "acc", Refresh: "ref"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !IsLoggedIn(ctx, store) {
		t.Error("IsLoggedIn() = false after Save()")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if IsLoggedIn(ctx, store) {
		t.Error("IsLoggedIn() = true after Clear()")
	}

	// A stored session with an empty access token does not count as logged in.
	if err := store.Save(ctx, &Session{Access: "  ", Refresh: "ref"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if IsLoggedIn(ctx, store) {
		t.Error("IsLoggedIn() = true with blank access token")
	}
}
