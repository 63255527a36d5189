package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultFilePermissions is used when writing the manifest.
const DefaultFilePermissions = 0o600

// Repository defines persistence operations for the manifest.
type Repository interface {
	Load(ctx context.Context) (*Manifest, error)
	Save(ctx context.Context, m *Manifest) error
}

// FileRepository persists the manifest to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// ErrNotFound is returned when the manifest file does not exist yet.
var ErrNotFound = errors.New("manifest not found")

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the manifest from disk.
func (r *FileRepository) Load(_ context.Context) (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	m := new(Manifest)
	if err = yaml.Unmarshal(contents, m); err != nil {
		return nil, fmt.Errorf("decode manifest file: %w", err)
	}

	if m.Entries == nil {
		m.Entries = make(map[string]*Entry, defaultMapCapacity)
	}

	return m, nil
}

// Save writes the manifest to disk.
func (r *FileRepository) Save(_ context.Context, m *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.mu.Lock()
	data, err := yaml.Marshal(m)
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(r.path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest file: %w", err)
	}

	return nil
}
