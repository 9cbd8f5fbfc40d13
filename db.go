// Package kvdb implements an embedded, single-process, persistent
// key-value store organized along log-structured lines: writes accumulate
// in an in-memory buffer, which is periodically frozen and flushed by a
// background worker into an immutable on-disk generation, while reads
// consult the buffer, any in-flight frozen buffer, and on-disk generations
// newest-to-oldest.
//
// # Concurrency
//
// Safe for concurrent use from any number of goroutines. Exactly one
// background goroutine performs flushes; [DB.Put] and [DB.Delete] may block
// briefly if a previous flush has not yet drained (see [DB.Close] for
// shutdown ordering).
package kvdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"kvdb/internal/generation"
	"kvdb/internal/lrucache"
	"kvdb/internal/membuffer"
	"kvdb/internal/memval"
)

// DB is an open handle to a store directory. Obtain one with [Open] and
// release it with [DB.Close].
type DB struct {
	dir  string
	opts Options

	mem atomic.Pointer[membuffer.Buffer]

	// mu + cond guard the hand-off protocol: handoff, flushPending.
	// See freeze and runWorker for the full protocol.
	mu           sync.Mutex
	cond         *sync.Cond
	handoff      *membuffer.Buffer
	flushPending bool

	genCount atomic.Uint64
	cache    *lrucache.Cache
	writer   *generation.Writer

	shutdownCh chan struct{}
	workerDone chan struct{}
	workerErr  error

	closed    atomic.Bool
	poisoned  atomic.Bool
	logger    Logger
}

// Open opens (or creates) a store rooted at dir.
//
// If dir exists and is a regular file, or is a directory without a
// METADATA file, Open fails with a [KindInvalidName] error. If dir does not
// exist, it is created when opts.CreateIfMissing is true (the default);
// otherwise Open fails the same way.
//
// A directory that was created by Open but closed again without ever
// accumulating a flush has no METADATA file yet - reopening such a
// directory fails with [KindInvalidName] too. This mirrors the store this
// package was ported from: METADATA is only ever written by a flush, never
// eagerly on creation.
func Open(dir string, opts ...Option) (*DB, error) {
	o := resolveOptions(opts)

	count, err := prepareDirectory(dir, o.CreateIfMissing)
	if err != nil {
		return nil, err
	}

	db := &DB{
		dir:        dir,
		opts:       o,
		cache:      lrucache.New(o.CacheSize),
		writer:     generation.NewWriter(dir, count),
		shutdownCh: make(chan struct{}),
		workerDone: make(chan struct{}),
		logger:     o.Logger,
	}
	db.cond = sync.NewCond(&db.mu)
	db.mem.Store(membuffer.New())
	db.genCount.Store(count)

	go db.runWorker()

	runtime.AddCleanup(db, warnUnclosed, o.Logger)

	return db, nil
}

// warnUnclosed is registered via runtime.AddCleanup so an engine dropped
// without an explicit Close at least leaves a trace instead of silently
// leaking its background goroutine. It intentionally does not attempt to
// run Close itself - a cleanup function runs with no guarantee about
// ordering relative to other goroutines still using db, so acting on it
// here would be unsafe; Close is the documented, explicit release path.
func warnUnclosed(logger Logger) {
	logger.Printf("kvdb: engine garbage collected without a prior Close; background flush goroutine may have leaked")
}

// prepareDirectory implements the §4.5 Open algorithm: validate dir, create
// it if missing and permitted, and return the generation count to resume
// from.
func prepareDirectory(dir string, createIfMissing bool) (uint64, error) {
	info, statErr := os.Stat(dir)

	switch {
	case statErr == nil && !info.IsDir():
		return 0, newError(KindInvalidName, dir, fmt.Errorf("%q is a file, not a directory", dir))

	case statErr == nil:
		exists, err := metadataExists(dir)
		if err != nil {
			return 0, newError(KindIO, dir, err)
		}

		if !exists {
			return 0, newError(KindInvalidName, dir, fmt.Errorf("directory %q has no METADATA file", dir))
		}

		count, err := readMetadata(dir)
		if err != nil {
			return 0, newError(KindCorruption, dir, err)
		}

		return count, nil

	case os.IsNotExist(statErr):
		if !createIfMissing {
			return 0, newError(KindInvalidName, dir, fmt.Errorf("%q does not exist", dir))
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, newError(KindIO, dir, err)
		}

		return 0, nil

	default:
		return 0, newError(KindIO, dir, statErr)
	}
}

// checkWritable reports the error a write should fail with, or nil if the
// engine is open and healthy.
func (db *DB) checkWritable() error {
	if db.closed.Load() {
		return ErrClosed
	}

	if db.poisoned.Load() {
		return newError(KindSyncPoison, db.dir, db.workerErr)
	}

	return nil
}

// Put inserts or replaces key with value. If the buffer's size estimate
// crosses the configured write-buffer threshold, Put blocks until the
// buffer has been handed off to the background flusher (not until the
// flush itself completes).
func (db *DB) Put(key, value []byte) error {
	if err := db.checkWritable(); err != nil {
		return err
	}

	buf := db.mem.Load()
	buf.Put(key, value)

	if buf.Size() >= db.opts.WriteBufferSize {
		return db.freeze()
	}

	return nil
}

// Delete records a tombstone for key, shadowing any earlier or later-read
// value for the same key in an older generation. Same blocking behavior as
// Put.
func (db *DB) Delete(key []byte) error {
	if err := db.checkWritable(); err != nil {
		return err
	}

	buf := db.mem.Load()
	buf.Delete(key)

	if buf.Size() >= db.opts.WriteBufferSize {
		return db.freeze()
	}

	return nil
}

// Get looks up key, searching the live buffer, any in-flight frozen buffer,
// then on-disk generations from newest to oldest. It returns (nil, nil) if
// key is absent or has been deleted (a tombstone); it never returns an
// "absent" result as an error. A non-nil error means a generation's files
// could not be read or parsed.
func (db *DB) Get(key []byte) ([]byte, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}

	if v, ok := db.mem.Load().Get(key); ok {
		return valueBytes(v), nil
	}

	db.mu.Lock()
	handoff := db.handoff
	db.mu.Unlock()

	if handoff != nil {
		if v, ok := handoff.Get(key); ok {
			return valueBytes(v), nil
		}
	}

	count := db.genCount.Load()
	for i := count; i > 0; i-- {
		id := i - 1

		reader, err := db.readerFor(id)
		if err != nil {
			return nil, err
		}

		v, ok, err := reader.Get(key)
		if err != nil {
			return nil, newError(KindIO, db.dir, err).withGeneration(id)
		}

		if ok {
			if v.IsTombstone() {
				return nil, nil
			}

			return v.Bytes, nil
		}
	}

	return nil, nil
}

// readerFor returns the generation reader for id, consulting and populating
// the bounded cache on miss.
func (db *DB) readerFor(id uint64) (*generation.Reader, error) {
	if cached, ok := db.cache.Get(id); ok {
		reader, ok := cached.(*generation.Reader)
		if !ok {
			return nil, newError(KindIO, db.dir, fmt.Errorf("cache entry %d has unexpected type", id)).withGeneration(id)
		}

		return reader, nil
	}

	reader, err := generation.Open(db.dir, id)
	if err != nil {
		return nil, classifyOpenError(db.dir, id, err)
	}

	db.cache.Put(id, reader)

	return reader, nil
}

// classifyOpenError maps a generation.Open failure onto the public error
// taxonomy: a corrupt index becomes KindCorruption, anything else is
// KindIO.
func classifyOpenError(dir string, id uint64, err error) error {
	kind := KindIO
	if errors.Is(err, generation.ErrCorruptIndex) {
		kind = KindCorruption
	}

	return newError(kind, dir, err).withGeneration(id)
}

// valueBytes extracts the []byte a MemBuffer lookup should surface to
// callers: nil for a tombstone, the payload otherwise.
func valueBytes(v memval.Value) []byte {
	if v.IsTombstone() {
		return nil
	}

	return v.Bytes
}

// freeze implements §4.5: wait for any in-flight flush to drain, then
// atomically swap in a fresh MemBuffer and hand the old one to the
// background worker. The whole critical section (including the condvar
// wait) runs under db.mu, which serializes concurrent freeze calls from
// multiple Put/Delete callers racing past the size threshold at once - see
// SPEC_FULL.md's resolution of the put-races-freeze Open Question.
func (db *DB) freeze() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.poisoned.Load() {
		return newError(KindSyncPoison, db.dir, db.workerErr)
	}

	current := db.mem.Load()
	if current.IsEmpty() {
		return nil
	}

	for db.flushPending {
		db.cond.Wait()

		if db.poisoned.Load() {
			return newError(KindSyncPoison, db.dir, db.workerErr)
		}
	}

	// current may have accumulated more writes while we waited; that's
	// fine, it is still the buffer every Put since our first load wrote
	// into, because db.mem only changes right here, below.
	db.mem.Store(membuffer.New())

	if db.handoff != nil {
		panic("kvdb: hand-off slot was not empty at freeze")
	}

	db.handoff = current
	db.flushPending = true
	db.cond.Signal()

	return nil
}

// Close flushes any pending writes and stops the background worker. Close
// is idempotent: the first call performs the shutdown sequence; subsequent
// calls return nil immediately. A panic recovered from the background
// worker is surfaced here as a [KindBackgroundFlush] error.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}

	if !db.mem.Load().IsEmpty() {
		_ = db.freeze() // best-effort: a poisoned engine still needs to shut the worker down
	}

	db.mu.Lock()
	for db.flushPending {
		db.cond.Wait()
	}
	db.mu.Unlock()

	close(db.shutdownCh)

	db.mu.Lock()
	db.flushPending = true
	db.cond.Signal()
	db.mu.Unlock()

	<-db.workerDone

	cacheErr := db.cache.Close()

	if db.workerErr != nil {
		return newError(KindBackgroundFlush, db.dir, db.workerErr)
	}

	if cacheErr != nil {
		return newError(KindIO, db.dir, cacheErr)
	}

	return nil
}

// Dir returns the directory this engine was opened against.
func (db *DB) Dir() string {
	return filepath.Clean(db.dir)
}

// GenerationCount returns the number of on-disk generations flushed so
// far.
func (db *DB) GenerationCount() uint64 {
	return db.genCount.Load()
}

// CacheLen returns the number of generation readers currently held open by
// the bounded LRU cache.
func (db *DB) CacheLen() int {
	return db.cache.Len()
}
