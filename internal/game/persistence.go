package game

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// Store is the durable home of everything except account credentials.
// Every write is atomic (temp file + rename) so a crash mid-write leaves
// the previous snapshot intact.
type Store struct {
	mu   sync.Mutex
	root string
}

func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("store root is required")
	}
	for _, dir := range []string{root, filepath.Join(root, "commanders"), filepath.Join(root, "archive")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return &Store{root: root}, nil
}

func (s *Store) universePath() string {
	return filepath.Join(s.root, "universe.json")
}

func (s *Store) commanderPath(folded string) string {
	return filepath.Join(s.root, "commanders", folded+".json")
}

func (s *Store) archivePath(epoch int) string {
	return filepath.Join(s.root, "archive", fmt.Sprintf("epoch-%03d.json.lz4", epoch))
}

func (s *Store) writeAtomic(path string, payload any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// UniverseSnapshot is the shared-world portion of a checkpoint. Commander
// state saves separately, one file per character.
type UniverseSnapshot struct {
	Epoch      int                `json:"epoch"`
	EpochStart time.Time          `json:"epoch_start"`
	Planets    map[string]*Planet `json:"planets"`
	News       newsFeed           `json:"news"`
	Board      WinnerBoard        `json:"winner_board"`
}

type snapshotEnvelope struct {
	Checksum string          `json:"checksum"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func snapshotChecksum(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// SaveUniverse writes the snapshot wrapped in a checksum envelope.
func (s *Store) SaveUniverse(snap *UniverseSnapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode universe snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(s.universePath(), snapshotEnvelope{
		Checksum: snapshotChecksum(payload),
		Snapshot: payload,
	})
}

// LoadUniverse reads and verifies the last checkpoint. A missing file
// returns (nil, nil) so a first boot can seed a fresh universe.
func (s *Store) LoadUniverse() (*UniverseSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.universePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read universe snapshot: %w", err)
	}
	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode universe envelope: %w", err)
	}
	compact := new(bytes.Buffer)
	if err := json.Compact(compact, envelope.Snapshot); err != nil {
		return nil, fmt.Errorf("decode universe snapshot: %w", err)
	}
	indented := new(bytes.Buffer)
	if err := json.Indent(indented, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("decode universe snapshot: %w", err)
	}
	if got := snapshotChecksum(indented.Bytes()); envelope.Checksum != "" && got != envelope.Checksum {
		return nil, fmt.Errorf("universe snapshot checksum mismatch: got %s want %s", got, envelope.Checksum)
	}
	var snap UniverseSnapshot
	if err := json.Unmarshal(envelope.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("decode universe snapshot: %w", err)
	}
	return &snap, nil
}

// SaveCommander persists one character file.
func (s *Store) SaveCommander(c *Commander) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(s.commanderPath(foldName(c.Name)), c)
}

// DeleteCommander removes a character file, typically to unwind a
// registration whose roster update failed. A missing file is not an error.
func (s *Store) DeleteCommander(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.commanderPath(foldName(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete commander file: %w", err)
	}
	return nil
}

// LoadCommanders reads every character file under the store, keyed by
// folded name.
func (s *Store) LoadCommanders() (map[string]*Commander, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Join(s.root, "commanders")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*Commander{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read commanders directory: %w", err)
	}
	out := make(map[string]*Commander, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read commander file %s: %w", entry.Name(), err)
		}
		var commander Commander
		if err := json.Unmarshal(data, &commander); err != nil {
			return nil, fmt.Errorf("decode commander file %s: %w", entry.Name(), err)
		}
		if commander.Name == "" {
			continue
		}
		out[foldName(commander.Name)] = &commander
	}
	return out, nil
}

// ArchiveEpoch compresses the outgoing epoch's snapshot into the archive
// directory before a campaign reset wipes the live state.
func (s *Store) ArchiveEpoch(epoch int, snap *UniverseSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode epoch archive: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.archivePath(epoch)
	tmp, err := os.CreateTemp(filepath.Dir(path), "epoch-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp archive file: %w", err)
	}
	writer := lz4.NewWriter(tmp)
	if _, err := writer.Write(payload); err != nil {
		writer.Close()
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("compress epoch archive: %w", err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("finish epoch archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp archive file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace epoch archive: %w", err)
	}
	return nil
}

// ReadEpochArchive decompresses a stored epoch, mostly for tooling and
// tests.
func (s *Store) ReadEpochArchive(epoch int) (*UniverseSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.Open(s.archivePath(epoch))
	if err != nil {
		return nil, fmt.Errorf("open epoch archive: %w", err)
	}
	defer file.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(lz4.NewReader(file)); err != nil {
		return nil, fmt.Errorf("decompress epoch archive: %w", err)
	}
	var snap UniverseSnapshot
	if err := json.Unmarshal(buf.Bytes(), &snap); err != nil {
		return nil, fmt.Errorf("decode epoch archive: %w", err)
	}
	return &snap, nil
}
