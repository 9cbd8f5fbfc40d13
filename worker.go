package kvdb

import (
	"fmt"

	"kvdb/internal/membuffer"
)

// runWorker is the single background goroutine that drains the hand-off
// slot into on-disk generations. It runs for the lifetime of its DB,
// started by Open and joined by Close via db.workerDone.
//
// Protocol, mirroring the condvar/boolean-flag hand-off this engine was
// ported from: the worker waits for flushPending, then - if a buffer was
// actually handed off - writes it out as a generation, advances METADATA,
// and bumps the generation count, before clearing flushPending and waking
// anyone blocked in freeze or Close. Close signals final shutdown by
// closing shutdownCh and then setting flushPending one last time with an
// empty hand-off slot, purely so the worker wakes up and observes the
// closed channel without having to also drain a buffer.
func (db *DB) runWorker() {
	defer func() {
		if r := recover(); r != nil {
			db.mu.Lock()
			db.workerErr = fmt.Errorf("background flush worker panicked: %v", r)
			db.poisoned.Store(true)
			db.handoff = nil
			db.flushPending = false
			db.cond.Broadcast()
			db.mu.Unlock()

			db.logger.Printf("kvdb: background flush worker recovered from panic: %v", r)
		}

		close(db.workerDone)
	}()

	for {
		db.mu.Lock()
		for !db.flushPending {
			db.cond.Wait()
		}

		buf := db.handoff
		db.mu.Unlock()

		if buf != nil {
			if err := db.flushGeneration(buf); err != nil {
				db.mu.Lock()
				db.workerErr = err
				db.poisoned.Store(true)
				db.handoff = nil
				db.flushPending = false
				db.cond.Broadcast()
				db.mu.Unlock()

				return
			}
		}

		db.mu.Lock()
		db.handoff = nil
		db.flushPending = false
		db.cond.Broadcast()
		db.mu.Unlock()

		select {
		case <-db.shutdownCh:
			if buf == nil {
				return
			}
		default:
		}
	}
}

// flushGeneration writes buf out as the next generation, advances
// METADATA, and bumps the in-memory generation count. Called with db.mu
// not held - the hand-off bookkeeping is locked separately by the caller,
// the I/O itself is not.
func (db *DB) flushGeneration(buf *membuffer.Buffer) error {
	buf.Each(func(e membuffer.Entry) {
		db.writer.Add(e.Key, e.Value)
	})

	id := db.writer.FileNo()

	if err := db.writer.Flush(); err != nil {
		return newError(KindIO, db.dir, err).withGeneration(id)
	}

	next := id + 1

	if err := writeMetadataAtomic(db.dir, next); err != nil {
		return newError(KindIO, db.dir, err).withGeneration(id)
	}

	db.genCount.Store(next)

	return nil
}
