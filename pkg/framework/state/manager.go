// Package state persists parameter snapshots in a small binary container.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/justyntemme/plugcore/pkg/framework/plugin"
)

const (
	magic          = "PLUGCORE"
	currentVersion = 1
	// maxValues bounds a count field read from untrusted input.
	maxValues = 1 << 16
)

var (
	ErrInvalidFormat = errors.New("state: invalid format")
	ErrVersion       = errors.New("state: unsupported version")
	ErrWrongPlugin   = errors.New("state: saved by a different plugin")
)

// Snapshot is a decoded state file.
type Snapshot struct {
	Version  uint32
	Instance uuid.UUID // engine instance that saved it
	Plugin   uuid.UUID
	Values   map[uint32]float64
}

// Manager encodes snapshots for one plugin. Every manager gets its own
// instance id, written into each save.
type Manager struct {
	version  uint32
	plugin   uuid.UUID
	instance uuid.UUID
}

// NewManager creates a manager for the plugin described by info.
func NewManager(info plugin.Info) *Manager {
	return &Manager{
		version:  currentVersion,
		plugin:   info.UID(),
		instance: uuid.New(),
	}
}

// Instance returns the id written into saves.
func (m *Manager) Instance() uuid.UUID {
	return m.instance
}

// Save writes values, ordered by parameter id.
func (m *Manager) Save(w io.Writer, values map[uint32]float64) error {
	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, m.version)
	buf.Write(m.instance[:])
	buf.Write(m.plugin[:])

	ids := make([]uint32, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	binary.Write(&buf, binary.LittleEndian, uint32(len(ids)))
	for _, id := range ids {
		binary.Write(&buf, binary.LittleEndian, id)
		binary.Write(&buf, binary.LittleEndian, values[id])
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Load decodes a snapshot. Ids the current catalog does not know are kept;
// the caller's restore ignores them.
func (m *Manager) Load(r io.Reader) (*Snapshot, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if string(header) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, header)
	}

	s := &Snapshot{}
	if err := binary.Read(r, binary.LittleEndian, &s.Version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if s.Version == 0 || s.Version > m.version {
		return nil, fmt.Errorf("%w: %d, newest supported is %d", ErrVersion, s.Version, m.version)
	}
	if _, err := io.ReadFull(r, s.Instance[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if _, err := io.ReadFull(r, s.Plugin[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if s.Plugin != m.plugin {
		return nil, fmt.Errorf("%w: %s", ErrWrongPlugin, s.Plugin)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if count > maxValues {
		return nil, fmt.Errorf("%w: %d values", ErrInvalidFormat, count)
	}

	s.Values = make(map[uint32]float64, count)
	for i := uint32(0); i < count; i++ {
		var rec struct {
			ID    uint32
			Value float64
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: value %d: %v", ErrInvalidFormat, i, err)
		}
		s.Values[rec.ID] = rec.Value
	}
	return s, nil
}

// SaveFile writes values to path through a temporary file so a crash never
// leaves a truncated state behind.
func (m *Manager) SaveFile(path string, values map[uint32]float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Save(tmp, values); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot from path.
func (m *Manager) LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	defer f.Close()
	return m.Load(f)
}
