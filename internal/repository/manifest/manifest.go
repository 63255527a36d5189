package manifest

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

// DefaultChecksumFunction is used to fingerprint inputs and outputs.
const DefaultChecksumFunction crypto.Hash = crypto.SHA512

// defaultMapCapacity is the initial capacity of entry maps.
const defaultMapCapacity = 16

var errHashUnavailable = errors.New("hash function unavailable")

// Entry records one converted input.
type Entry struct {
	// ConfigName is the root name the input was converted with.
	ConfigName string `yaml:"config_name"`
	// Output is the main document written for the input.
	Output string `yaml:"output"`
	// Inputs maps every source file read, included ones too, to its checksum.
	Inputs map[string]string `yaml:"inputs"`
	// Outputs maps every document written to its checksum.
	Outputs map[string]string `yaml:"outputs"`
	// ConvertedAt is the time of the conversion.
	ConvertedAt time.Time `yaml:"converted_at"`
}

// Manifest maps an absolute input path to its entry. It is safe for concurrent use.
type Manifest struct {
	// Version is the converter version that produced the entries.
	Version string `yaml:"version"`
	// Entries maps absolute input paths to what was produced from them.
	Entries map[string]*Entry `yaml:"entries"`

	// mu guards Entries.
	mu sync.Mutex
}

// New creates an empty manifest for the given converter version.
func New(version string) *Manifest {
	return &Manifest{
		Version: version,
		Entries: make(map[string]*Entry, defaultMapCapacity),
	}
}

// Lookup returns the entry recorded for input.
func (m *Manifest) Lookup(input string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.Entries[input]

	return entry, ok
}

// Record stores the entry for input, replacing an older one.
func (m *Manifest) Record(input string, entry *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Entries == nil {
		m.Entries = make(map[string]*Entry, defaultMapCapacity)
	}

	m.Entries[input] = entry
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Entries)
}

// NewEntry fingerprints the given files.
func NewEntry(configName, output string, inputs, outputs []string) (*Entry, error) {
	entry := &Entry{
		ConfigName:  configName,
		Output:      output,
		Inputs:      make(map[string]string, len(inputs)),
		Outputs:     make(map[string]string, len(outputs)),
		ConvertedAt: time.Now().UTC(),
	}

	for _, set := range []struct {
		paths []string
		dest  map[string]string
	}{
		{inputs, entry.Inputs},
		{outputs, entry.Outputs},
	} {
		for _, path := range set.paths {
			checksum, err := FileChecksum(path)
			if err != nil {
				return nil, err
			}

			set.dest[path] = checksum
		}
	}

	return entry, nil
}

// IsCurrent reports whether every recorded file still has its recorded checksum.
func (e *Entry) IsCurrent() bool {
	for _, files := range []map[string]string{e.Inputs, e.Outputs} {
		for path, expected := range files {
			checksum, err := FileChecksum(path)
			if err != nil || checksum != expected {
				return false
			}
		}
	}

	return len(e.Inputs) > 0 && len(e.Outputs) > 0
}

// FileChecksum returns the base64-encoded checksum of the file at path.
func FileChecksum(path string) (string, error) {
	if !DefaultChecksumFunction.Available() {
		return "", fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := DefaultChecksumFunction.New()
	if _, err = io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("calculate checksum of %s: %w", path, err)
	}

	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}
