package generation

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"kvdb/internal/memval"
)

// Writer accumulates one generation's index and data buffers in memory and
// flushes them to disk as an immutable "<id>.ix"/"<id>.dt" pair.
//
// A Writer is reused across flushes: [Writer.Flush] resets its buffers and
// advances to the next file id, ready to build the next generation.
type Writer struct {
	dir    string
	fileNo uint64

	index  []byte
	data   []byte
	offset uint64
}

// NewWriter returns a Writer that will produce its next generation under dir
// starting at fileNo.
func NewWriter(dir string, fileNo uint64) *Writer {
	return &Writer{dir: dir, fileNo: fileNo}
}

// Add appends one key/value entry to the in-progress generation.
//
// For a present value, the data offset recorded in the index points at the
// value's length prefix in the data file - not at the first payload byte -
// so [Reader.Get] must read the length before the bytes, exactly mirroring
// this encoding.
func (w *Writer) Add(key []byte, value memval.Value) {
	w.index = appendLengthPrefixed(w.index, key)

	switch value.Kind {
	case memval.Present:
		w.index = append(w.index, tagPresent)

		var offsetBuf [lengthPrefixSize]byte
		binary.BigEndian.PutUint64(offsetBuf[:], w.offset)
		w.index = append(w.index, offsetBuf[:]...)

		w.data = appendLengthPrefixed(w.data, value.Bytes)
		w.offset += lengthPrefixSize + uint64(len(value.Bytes))
	case memval.Tombstone:
		w.index = append(w.index, tagTombstone)
	}
}

// Flush writes the accumulated data and index buffers to "<id>.dt" and
// "<id>.ix" respectively, then resets the writer for the next generation.
//
// The data file is written before the index file so that, should the
// process die between the two writes, no index ever points into a data file
// it wasn't generated against; the pair only becomes observable to readers
// once the engine advances METADATA past this id.
func (w *Writer) Flush() error {
	dataPath := filepath.Join(w.dir, dataFileName(w.fileNo))
	if err := os.WriteFile(dataPath, w.data, 0o644); err != nil {
		return fmt.Errorf("write data file %q: %w", dataPath, err)
	}

	indexPath := filepath.Join(w.dir, indexFileName(w.fileNo))
	if err := os.WriteFile(indexPath, w.index, 0o644); err != nil {
		return fmt.Errorf("write index file %q: %w", indexPath, err)
	}

	w.index = nil
	w.data = nil
	w.offset = 0
	w.fileNo++

	return nil
}

// FileNo returns the id of the generation currently being built (the id that
// the next Flush will assign).
func (w *Writer) FileNo() uint64 {
	return w.fileNo
}
