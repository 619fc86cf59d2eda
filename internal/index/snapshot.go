// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// SnapshotVersion is the on-disk format version. Increment on breaking changes.
const SnapshotVersion = 1

// ErrSnapshotNotFound is returned when no snapshot file exists.
var ErrSnapshotNotFound = errors.New("index snapshot not found")

// Snapshot is the gob-encoded vector cache written after a build. Vectors are
// reused on the next build for every item whose embedding text is unchanged.
type Snapshot struct {
	Version    int
	ModelName  string
	Dimensions int
	CreatedAt  time.Time
	Entries    map[string]SnapshotEntry
}

// SnapshotEntry is the cached vector of one item.
type SnapshotEntry struct {
	TextHash string
	Vector   []float32
}

// Snapshot captures the current vectors of all keyed items.
func (ix *Index[T]) Snapshot() (*Snapshot, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.ready {
		return nil, ErrNotInitialized
	}
	s := &Snapshot{
		Version:    SnapshotVersion,
		ModelName:  ix.provider.ModelName(),
		Dimensions: ix.provider.Dimensions(),
		CreatedAt:  time.Now().UTC(),
		Entries:    make(map[string]SnapshotEntry, len(ix.items)),
	}
	for i, it := range ix.items {
		if k := it.Key(); k != "" {
			s.Entries[k] = SnapshotEntry{TextHash: textHash(it.EmbeddingText()), Vector: ix.vectors[i]}
		}
	}
	return s, nil
}

// Save writes the snapshot to path through a temp file and rename.
func (s *Snapshot) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by Save.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, s.Version, SnapshotVersion)
	}
	return &s, nil
}

// BuildCached builds the index reusing vectors from the snapshot at path,
// then rewrites the snapshot. A missing, stale, or incompatible snapshot
// only costs a full re-embedding. An empty path behaves like Build.
func (ix *Index[T]) BuildCached(ctx context.Context, items []T, path string) error {
	if path == "" {
		return ix.Build(ctx, items)
	}

	var cached map[string]SnapshotEntry
	snap, err := LoadSnapshot(path)
	switch {
	case err == nil && snap.ModelName == ix.provider.ModelName() && snap.Dimensions == ix.provider.Dimensions():
		cached = snap.Entries
	case err == nil:
		ix.log.Warn("index snapshot built with a different model, re-embedding",
			zap.String("path", path),
			zap.String("snapshot_model", snap.ModelName),
			zap.String("model", ix.provider.ModelName()))
	case errors.Is(err, ErrSnapshotNotFound):
	default:
		ix.log.Warn("ignoring unreadable index snapshot", zap.String("path", path), zap.Error(err))
	}

	if err := ix.build(ctx, items, cached); err != nil {
		return err
	}

	s, err := ix.Snapshot()
	if err != nil {
		return err
	}
	if err := s.Save(path); err != nil {
		return fmt.Errorf("saving index snapshot: %w", err)
	}
	return nil
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum[:])
}
