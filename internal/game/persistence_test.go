package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "saves"))
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	return store
}

func testSnapshot(epoch int) *UniverseSnapshot {
	now := time.Date(2026, time.February, 2, 8, 0, 0, 0, time.UTC)
	return &UniverseSnapshot{
		Epoch:      epoch,
		EpochStart: now,
		Planets:    defaultPlanets(now),
	}
}

func TestUniverseRoundTrip(t *testing.T) {
	store := newTestStore(t)
	snap := testSnapshot(3)
	snap.Planets[foldName("Rustbelt")].Owner = foldName("Vega")

	if err := store.SaveUniverse(snap); err != nil {
		t.Fatalf("SaveUniverse returned error: %v", err)
	}
	loaded, err := store.LoadUniverse()
	if err != nil {
		t.Fatalf("LoadUniverse returned error: %v", err)
	}
	if loaded == nil {
		t.Fatalf("LoadUniverse returned nil snapshot")
	}
	if loaded.Epoch != 3 {
		t.Fatalf("loaded epoch = %d, want 3", loaded.Epoch)
	}
	if len(loaded.Planets) != len(snap.Planets) {
		t.Fatalf("loaded %d planets, want %d", len(loaded.Planets), len(snap.Planets))
	}
	if loaded.Planets[foldName("Rustbelt")].Owner != foldName("Vega") {
		t.Fatalf("planet ownership lost on round trip")
	}
}

func TestLoadUniverseMissingFile(t *testing.T) {
	store := newTestStore(t)
	snap, err := store.LoadUniverse()
	if err != nil {
		t.Fatalf("LoadUniverse on empty store returned error: %v", err)
	}
	if snap != nil {
		t.Fatalf("LoadUniverse on empty store = %+v, want nil", snap)
	}
}

func TestLoadUniverseDetectsTampering(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveUniverse(testSnapshot(1)); err != nil {
		t.Fatalf("SaveUniverse returned error: %v", err)
	}
	path := store.universePath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot file: %v", err)
	}
	tampered := strings.Replace(string(data), `"epoch": 1`, `"epoch": 9`, 1)
	if tampered == string(data) {
		t.Fatalf("tamper target not found in snapshot file")
	}
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatalf("write tampered snapshot: %v", err)
	}

	if _, err := store.LoadUniverse(); err == nil {
		t.Fatalf("LoadUniverse accepted a tampered snapshot")
	}
}

func TestCommanderRoundTrip(t *testing.T) {
	store := newTestStore(t)
	cfg := DefaultConfig()
	now := time.Date(2026, time.April, 4, 4, 0, 0, 0, time.UTC)
	c := newCommander("Vega", "owner", startPlanetName, &cfg, now)
	c.Credits = 777
	c.addCargo("Medigel", 3)

	if err := store.SaveCommander(c); err != nil {
		t.Fatalf("SaveCommander returned error: %v", err)
	}
	loaded, err := store.LoadCommanders()
	if err != nil {
		t.Fatalf("LoadCommanders returned error: %v", err)
	}
	got, ok := loaded[foldName("Vega")]
	if !ok {
		t.Fatalf("commander missing after round trip")
	}
	if got.Credits != 777 || got.Cargo["Medigel"] != 3 {
		t.Fatalf("commander state lost: credits %d cargo %v", got.Credits, got.Cargo)
	}
}

func TestArchiveEpochRoundTrip(t *testing.T) {
	store := newTestStore(t)
	if err := store.ArchiveEpoch(2, testSnapshot(2)); err != nil {
		t.Fatalf("ArchiveEpoch returned error: %v", err)
	}
	snap, err := store.ReadEpochArchive(2)
	if err != nil {
		t.Fatalf("ReadEpochArchive returned error: %v", err)
	}
	if snap.Epoch != 2 {
		t.Fatalf("archived epoch = %d, want 2", snap.Epoch)
	}
	if len(snap.Planets) == 0 {
		t.Fatalf("archived snapshot lost its planets")
	}
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveUniverse(testSnapshot(1)); err != nil {
		t.Fatalf("SaveUniverse returned error: %v", err)
	}
	entries, err := os.ReadDir(store.root)
	if err != nil {
		t.Fatalf("read store root: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file %s left behind", entry.Name())
		}
	}
}
