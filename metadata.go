package kvdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	natomic "github.com/natefinch/atomic"
)

// metadataFileName is the fixed name of the generation-count file, per §6.
const metadataFileName = "METADATA"

// metadataSize is the fixed width, in bytes, of the METADATA file: one
// big-endian uint64.
const metadataSize = 8

// readMetadata reads and decodes the METADATA file under dir. The caller is
// responsible for deciding whether a missing file is an error (it is, for
// an existing directory that is supposed to already have one; it is not,
// when the directory was just created).
func readMetadata(dir string) (uint64, error) {
	path := filepath.Join(dir, metadataFileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	if len(raw) != metadataSize {
		return 0, fmt.Errorf("%w: METADATA is %d bytes, want %d", ErrCorruption, len(raw), metadataSize)
	}

	return binary.BigEndian.Uint64(raw), nil
}

// writeMetadataAtomic rewrites the METADATA file under dir to hold count,
// via write-temp, fsync, rename so the single file that controls
// generation visibility is never observed torn; the directory itself is
// not fsync'd. This is the only fsync this store performs: generation
// bodies themselves are not fsync'd (see SPEC_FULL.md §4.2).
func writeMetadataAtomic(dir string, count uint64) error {
	var buf [metadataSize]byte

	binary.BigEndian.PutUint64(buf[:], count)

	path := filepath.Join(dir, metadataFileName)
	if err := natomic.WriteFile(path, bytes.NewReader(buf[:])); err != nil {
		return fmt.Errorf("rewrite METADATA: %w", err)
	}

	return nil
}

// metadataExists reports whether dir already has a METADATA file, without
// distinguishing other stat errors (the caller surfaces those separately).
func metadataExists(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, metadataFileName))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}
