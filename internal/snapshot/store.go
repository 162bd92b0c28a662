package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	snapshotsDir = "snapshots"
	objectsDir   = "objects"
	indexFile    = "index.json"
)

// ErrNotFound is returned when no snapshot matches a lookup.
var ErrNotFound = errors.New("snapshot not found")

// Store persists snapshots on disk. DOT inputs are stored once per content
// hash under objects/.
type Store struct {
	mu      sync.RWMutex
	rootDir string
	index   *SnapshotIndex
}

// NewStore creates or opens a snapshot store at the given directory.
func NewStore(rootDir string) (*Store, error) {
	s := &Store{rootDir: rootDir}

	for _, dir := range []string{
		filepath.Join(rootDir, snapshotsDir),
		filepath.Join(rootDir, objectsDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}

	if err := s.loadIndex(); err != nil {
		s.index = &SnapshotIndex{
			Snapshots: []SnapshotSummary{},
			UpdatedAt: time.Now(),
		}
	}

	return s, nil
}

// Save persists a snapshot and the DOT input it was computed from.
func (s *Store) Save(snap *Snapshot, input []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input != nil {
		if err := s.writeObject(snap.InputHash, input); err != nil {
			return fmt.Errorf("store input object: %w", err)
		}
	}

	snapDir := filepath.Join(s.rootDir, snapshotsDir, snap.ID)
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := s.writeSnapshot(snap); err != nil {
		return err
	}

	s.index.Snapshots = append(s.index.Snapshots, snap.Summary())
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Load retrieves a snapshot by ID.
func (s *Store) Load(id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

// LoadInput returns the DOT text stored for a snapshot.
func (s *Store) LoadInput(snap *Snapshot) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.readObject(snap.InputHash)
	if err != nil {
		return nil, fmt.Errorf("read input for %s: %w", snap.ID, err)
	}
	return data, nil
}

// List returns all snapshot summaries, newest first.
func (s *Store) List() []SnapshotSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]SnapshotSummary, len(s.index.Snapshots))
	copy(result, s.index.Snapshots)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}

// FindByVariant returns the newest snapshot for a variant.
func (s *Store) FindByVariant(variant string) (*Snapshot, error) {
	return s.find(func(sum SnapshotSummary) bool { return sum.Variant == variant }, "variant", variant)
}

// FindByTag returns the newest snapshot with the given tag.
func (s *Store) FindByTag(tag string) (*Snapshot, error) {
	return s.find(func(sum SnapshotSummary) bool { return sum.Tag == tag }, "tag", tag)
}

// Resolve looks a reference up as an ID, then a tag, then a variant.
func (s *Store) Resolve(ref string) (*Snapshot, error) {
	if snap, err := s.Load(ref); err == nil {
		return snap, nil
	}
	if snap, err := s.FindByTag(ref); err == nil {
		return snap, nil
	}
	return s.FindByVariant(ref)
}

func (s *Store) find(match func(SnapshotSummary) bool, kind, value string) (*Snapshot, error) {
	for _, sum := range s.List() {
		if match(sum) {
			return s.Load(sum.ID)
		}
	}
	return nil, fmt.Errorf("%s %q: %w", kind, value, ErrNotFound)
}

// Tag assigns a tag to a snapshot.
func (s *Store) Tag(id, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(id)
	if err != nil {
		return err
	}
	snap.Tag = tag
	if err := s.writeSnapshot(snap); err != nil {
		return err
	}

	for i, summary := range s.index.Snapshots {
		if summary.ID == id {
			s.index.Snapshots[i].Tag = tag
			break
		}
	}
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Delete removes a snapshot. Input objects are left in place since other
// snapshots may share them.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapDir := filepath.Join(s.rootDir, snapshotsDir, id)
	if err := os.RemoveAll(snapDir); err != nil {
		return fmt.Errorf("remove snapshot dir: %w", err)
	}

	filtered := s.index.Snapshots[:0]
	for _, summary := range s.index.Snapshots {
		if summary.ID != id {
			filtered = append(filtered, summary)
		}
	}
	s.index.Snapshots = filtered
	s.index.UpdatedAt = time.Now()

	return s.saveIndex()
}

func (s *Store) load(id string) (*Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("id %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return &snap, nil
}

func (s *Store) writeSnapshot(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath(snap.ID), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *Store) snapshotPath(id string) string {
	return filepath.Join(s.rootDir, snapshotsDir, id, "snapshot.json")
}

// writeObject stores content by its hash.
func (s *Store) writeObject(hash string, content []byte) error {
	dir := filepath.Join(s.rootDir, objectsDir, hash[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	objPath := filepath.Join(dir, hash[2:])
	if _, err := os.Stat(objPath); err == nil {
		return nil // already stored
	}
	return os.WriteFile(objPath, content, 0o644)
}

func (s *Store) readObject(hash string) ([]byte, error) {
	if len(hash) < 3 {
		return nil, fmt.Errorf("invalid object hash %q", hash)
	}
	return os.ReadFile(filepath.Join(s.rootDir, objectsDir, hash[:2], hash[2:]))
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if err != nil {
		return err
	}
	s.index = &SnapshotIndex{}
	return json.Unmarshal(data, s.index)
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.rootDir, indexFile), data, 0o644)
}
