// Package snapshot persists a retrieved inventory so passes can run without
// contacting the workspace.
//
// File format: [Magic:4][Version:1][Checksum:4][Length:4][Payload:N], where
// Payload is the snappy-compressed JSON inventory, Checksum is the CRC32
// (IEEE) of Payload and integers are big-endian.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
)

// FileName is the snapshot file inside the store directory.
const FileName = "inventory.json.sz"

const (
	magic      = "RDRS"
	version    = 1
	headerSize = 4 + 1 + 4 + 4
)

var (
	// ErrNoSnapshot is returned by Load when nothing has been saved yet.
	ErrNoSnapshot = errors.New("snapshot: no snapshot saved")

	// ErrCorrupt is returned for a file that fails header or checksum checks.
	ErrCorrupt = errors.New("snapshot: corrupt file")
)

// Store saves and loads the inventory snapshot of one directory.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{dir: dir, logger: logger.With(logging.Component("snapshot"))}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Save writes inv atomically: the file is replaced only after the new
// content is fully written and synced.
func (s *Store) Save(inv *factsheet.Inventory) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	payload := snappy.Encode(nil, data)

	header := make([]byte, headerSize)
	copy(header, magic)
	header[4] = version
	binary.BigEndian.PutUint32(header[5:9], crc32.ChecksumIEEE(payload))
	binary.BigEndian.PutUint32(header[9:13], uint32(len(payload)))

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("snapshot: replace: %w", err)
	}

	s.logger.Info("snapshot saved",
		logging.Path(s.Path()),
		logging.Int("applications", len(inv.Applications)),
		logging.Int("it_components", len(inv.ITComponents)),
		logging.Int("bytes_uncompressed", len(data)),
		logging.Int("bytes_compressed", len(payload)),
	)
	return nil
}

// Load reads the snapshot through a read-only memory map.
func (s *Store) Load() (*factsheet.Inventory, error) {
	r, err := mmap.Open(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("snapshot: open: %w", err)
	}
	defer r.Close()

	if r.Len() < headerSize {
		return nil, fmt.Errorf("%w: file shorter than header", ErrCorrupt)
	}
	header := make([]byte, headerSize)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if string(header[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, header[:4])
	}
	if header[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, header[4])
	}
	checksum := binary.BigEndian.Uint32(header[5:9])
	length := int(binary.BigEndian.Uint32(header[9:13]))
	if headerSize+length != r.Len() {
		return nil, fmt.Errorf("%w: payload length %d does not match file size %d", ErrCorrupt, length, r.Len())
	}

	payload := make([]byte, length)
	if _, err := r.ReadAt(payload, headerSize); err != nil {
		return nil, fmt.Errorf("snapshot: read payload: %w", err)
	}
	if crc32.ChecksumIEEE(payload) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	data, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	inv := factsheet.NewInventory()
	if err := json.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	s.logger.Debug("snapshot loaded",
		logging.Path(s.Path()),
		logging.Int("applications", len(inv.Applications)),
		logging.Int("it_components", len(inv.ITComponents)),
	)
	return inv, nil
}
