// Package state keeps the frames of every run in an embedded BadgerDB and
// checkpoints the database to object storage.
package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/gzip"

	"github.com/siqueiraa/FrameFlow/pkg/avro"
	"github.com/siqueiraa/FrameFlow/pkg/frame"
)

const (
	dirMode          = 0o755 // Default directory permissions
	maxPendingWrites = 256   // Batch size used when loading a checkpoint
	keySep           = ':'   // Separates the run ID from the frame index
)

// ErrNotFound is returned by Get for an unknown run or index.
var ErrNotFound = errors.New("frame not found")

// Uploader and Opener are satisfied by objstore.Client.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}

type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Store maps runID:index to an Avro-encoded frame.
type Store struct {
	db        *badger.DB
	path      string
	retention time.Duration
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithRetention expires frames d after they were written. Zero keeps them.
func WithRetention(d time.Duration) StoreOption {
	return func(s *Store) { s.retention = d }
}

// OpenStore opens or creates the database under path.
func OpenStore(path string, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(path, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create store path: %w", err)
	}
	bopts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	s := &Store{db: db, path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database directory.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

func runPrefix(runID string) []byte {
	return append([]byte(runID), keySep)
}

// Zero-padded so that byte order matches frame order.
func frameKey(runID string, index uint64) []byte {
	return fmt.Appendf(runPrefix(runID), "%020d", index)
}

// Put stores f under its run and index, replacing an earlier copy.
func (s *Store) Put(runID string, f *frame.Frame) error {
	data, err := avro.MarshalFrame(f)
	if err != nil {
		return err
	}
	e := badger.NewEntry(frameKey(runID, f.Index()), data)
	if s.retention > 0 {
		e = e.WithTTL(s.retention)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
}

// Get loads one frame.
func (s *Store) Get(runID string, index uint64) (*frame.Frame, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(frameKey(runID, index))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return avro.UnmarshalFrame(data)
}

// ForEach calls fn for every frame of runID in index order.
func (s *Store) ForEach(runID string, fn func(f *frame.Frame) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := runPrefix(runID)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var f *frame.Frame
			if err := it.Item().Value(func(v []byte) error {
				var err error
				f, err = avro.UnmarshalFrame(v)
				return err
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if err := fn(f); err != nil {
				return err
			}
		}
		return nil
	})
}

// StatsByRun counts stored frames per run.
func (s *Store) StatsByRun() (map[string]int, error) {
	stats := make(map[string]int)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if i := bytes.LastIndexByte(key, keySep); i >= 0 {
				stats[string(key[:i])]++
			}
		}
		return nil
	})
	return stats, err
}

// DropRun deletes every frame of runID.
func (s *Store) DropRun(runID string) error {
	return s.db.DropPrefix(runPrefix(runID))
}

// Empty reports whether the store holds no keys at all.
func (s *Store) Empty() (bool, error) {
	empty := true
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Rewind()
		empty = !it.Valid()
		return nil
	})
	return empty, err
}

// Checkpoint writes a gzip-compressed backup of the database and uploads it
// as name.
func (s *Store) Checkpoint(ctx context.Context, up Uploader, name string) (string, error) {
	tmp, err := os.CreateTemp("", "frameflow-checkpoint-*.gz")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	zw := gzip.NewWriter(tmp)
	if _, err := s.db.Backup(zw, 0); err != nil {
		return "", fmt.Errorf("backup store: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}

	location, err := up.Upload(ctx, tmp.Name(), name)
	if err != nil {
		return "", fmt.Errorf("upload checkpoint: %w", err)
	}
	log.Printf("[Checkpoint] Uploaded %s to %s", filepath.Base(s.path), location)
	return location, nil
}

// Restore loads the checkpoint called name into an empty store. It reports
// false when the store already has data or no checkpoint exists.
func (s *Store) Restore(ctx context.Context, src Opener, name string) (bool, error) {
	empty, err := s.Empty()
	if err != nil {
		return false, err
	}
	if !empty {
		log.Printf("[Checkpoint] Skipping restore of %s: store is not empty", name)
		return false, nil
	}

	rc, err := src.Open(ctx, name)
	if err != nil {
		log.Printf("[Checkpoint] No checkpoint found: %v", err)
		return false, nil
	}
	defer rc.Close()

	zr, err := gzip.NewReader(rc)
	if err != nil {
		return false, fmt.Errorf("read checkpoint %s: %w", name, err)
	}
	defer zr.Close()

	log.Printf("[Checkpoint] Restoring %s…", name)
	if err := s.db.Load(zr, maxPendingWrites); err != nil {
		return false, fmt.Errorf("load checkpoint %s: %w", name, err)
	}
	return true, nil
}
