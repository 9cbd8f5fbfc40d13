// Package generation implements the on-disk generation (index + data file
// pair) produced by one flush, and the reader that serves point lookups
// against it.
package generation

import (
	"encoding/binary"
	"fmt"
	"io"
)

// lengthPrefixSize is the width, in bytes, of every length/offset field in
// the index and data file formats.
const lengthPrefixSize = 8

// tag byte values for index entries. Any other byte is a corruption error.
const (
	tagPresent   byte = 0x00
	tagTombstone byte = 0x01
)

// appendLengthPrefixed appends an 8-byte big-endian length followed by data
// to dst, returning the grown slice.
func appendLengthPrefixed(dst []byte, data []byte) []byte {
	var length [lengthPrefixSize]byte

	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	dst = append(dst, length[:]...)
	dst = append(dst, data...)

	return dst
}

// readLengthPrefixed reads an 8-byte big-endian length followed by exactly
// that many bytes, looping on short reads.
func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var lengthBuf [lengthPrefixSize]byte

	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint64(lengthBuf[:])

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read %d value bytes: %w", length, err)
	}

	return buf, nil
}

// indexFileName returns the index file name for generation id, relative to
// the directory the generation lives in.
func indexFileName(id uint64) string {
	return fmt.Sprintf("%d.ix", id)
}

// dataFileName returns the data file name for generation id, relative to the
// directory the generation lives in.
func dataFileName(id uint64) string {
	return fmt.Sprintf("%d.dt", id)
}
