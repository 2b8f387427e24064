package game

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"
)

// newTestWorld builds a world with default settings backed by a throwaway
// store.
func newTestWorld(t *testing.T) *World {
	t.Helper()
	return newTestWorldWithConfig(t, DefaultConfig())
}

func newTestWorldWithConfig(t *testing.T, cfg Config) *World {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "saves"))
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	accounts, err := NewAccountManager(filepath.Join(dir, "accounts.json"))
	if err != nil {
		t.Fatalf("NewAccountManager returned error: %v", err)
	}
	world, err := NewWorld(cfg, store, accounts)
	if err != nil {
		t.Fatalf("NewWorld returned error: %v", err)
	}
	return world
}

// seedTestCommander registers an account and creates a character on it.
func seedTestCommander(t *testing.T, w *World, name string) *Commander {
	t.Helper()
	account := name + "-owner"
	if !w.accounts.Exists(account) {
		if err := w.accounts.Register(account, "secret1"); err != nil {
			t.Fatalf("Register(%q) returned error: %v", account, err)
		}
	}
	if _, err := w.CreateCommander(account, name); err != nil {
		t.Fatalf("CreateCommander(%q) returned error: %v", name, err)
	}
	c, ok := w.commanders[foldName(name)]
	if !ok {
		t.Fatalf("commander %q missing after creation", name)
	}
	return c
}

// fixedTime pins the world clock for deterministic tests.
func fixedTime(w *World, at time.Time) {
	w.now = func() time.Time { return at }
}

func newTestRng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
