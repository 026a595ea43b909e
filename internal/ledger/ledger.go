// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
)

// Errors returned by the ledger.
var (
	ErrClosed    = errors.New("ledger is closed")
	ErrNilRecord = errors.New("record cannot be nil")
)

// prefixFailed namespaces failure entries. The key suffix is the record ID
// as 8 big-endian bytes with the sign bit flipped, so key order is ID order.
const prefixFailed = "failed:"

// Entry is one record whose embedding succeeded but whose index write failed.
type Entry struct {
	Record       catalog.SourceRecord `json:"record"`
	Embedding    []float32            `json:"embedding"`
	ErrorMessage string               `json:"error_message"`
	Kind         faults.Kind          `json:"kind"`
	CreatedAt    time.Time            `json:"created_at"`
	RetryCount   int                  `json:"retry_count"`
	LastAttempt  time.Time            `json:"last_attempt"`
}

// HasEmbedding reports whether the entry can be retried without re-embedding.
func (e *Entry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// Ledger is a durable store of storage-stage failures backed by BadgerDB.
//
// Only one process may hold a ledger directory; Badger's directory lock makes
// a second Open fail. Within a process, mu serializes read-modify-write.
type Ledger struct {
	db     *badger.DB
	path   string
	mu     sync.Mutex
	closed atomic.Bool
	now    func() time.Time
}

// Open opens (or creates) the ledger at cfg.Path.
func Open(cfg config.LedgerConfig) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, errors.New("ledger path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	l := &Ledger{
		db:   db,
		path: cfg.Path,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if n, err := l.Count(context.Background()); err == nil {
		metrics.SetLedgerEntries(n)
		logging.Info().Str("path", cfg.Path).Int("entries", n).Bool("sync_writes", cfg.SyncWrites).Msg("Failure ledger opened")
	}
	return l, nil
}

// Path returns the ledger directory.
func (l *Ledger) Path() string {
	return l.path
}

func entryKey(id int64) []byte {
	key := make([]byte, len(prefixFailed)+8)
	copy(key, prefixFailed)
	binary.BigEndian.PutUint64(key[len(prefixFailed):], uint64(id)^(1<<63))
	return key
}

func (l *Ledger) checkOpen(ctx context.Context) error {
	if l.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// Record stores a failure for rec together with its embedding. A failure
// without an embedding has nothing worth retrying and is ignored; the return
// value reports whether an entry was written. A later failure for the same
// record replaces the earlier one.
func (l *Ledger) Record(ctx context.Context, rec *catalog.SourceRecord, embedding []float32, errMsg string, kind faults.Kind) (bool, error) {
	if err := l.checkOpen(ctx); err != nil {
		return false, err
	}
	if rec == nil {
		return false, ErrNilRecord
	}
	if len(embedding) == 0 {
		return false, nil
	}

	now := l.now()
	entry := Entry{
		Record:       *rec,
		Embedding:    append([]float32(nil), embedding...),
		ErrorMessage: errMsg,
		Kind:         kind,
		CreatedAt:    now,
		LastAttempt:  now,
	}

	l.mu.Lock()
	err := l.put(&entry)
	l.mu.Unlock()
	if err != nil {
		return false, err
	}

	logging.Warn().
		Int64("record_id", rec.ID).
		Str("kind", kind.String()).
		Str("error", errMsg).
		Msg("Recorded failed upsert in ledger")
	l.publishCount()
	return true, nil
}

func (l *Ledger) put(e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(e.Record.ID), data)
	}); err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}
	return nil
}

func (l *Ledger) remove(id int64) error {
	if err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(id))
	}); err != nil {
		return fmt.Errorf("delete from BadgerDB: %w", err)
	}
	return nil
}

// List returns a snapshot of all entries ordered by record ID. Mutating the
// returned entries does not affect the ledger.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	if err := l.checkOpen(ctx); err != nil {
		return nil, err
	}

	var entries []Entry
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixFailed)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				logging.Warn().Err(err).Msg("Skipping unreadable ledger entry")
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries without decoding them.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	if err := l.checkOpen(ctx); err != nil {
		return 0, err
	}

	n := 0
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixFailed)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.checkOpen(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.db.DropPrefix([]byte(prefixFailed)); err != nil {
		return fmt.Errorf("drop ledger entries: %w", err)
	}
	metrics.SetLedgerEntries(0)
	logging.Info().Str("path", l.path).Msg("Failure ledger cleared")
	return nil
}

// Close releases the database and its directory lock.
func (l *Ledger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}

func (l *Ledger) publishCount() {
	if n, err := l.Count(context.Background()); err == nil {
		metrics.SetLedgerEntries(n)
	}
}
