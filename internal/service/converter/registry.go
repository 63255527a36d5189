package converter

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
)

// Registry remembers the documents written by a series of conversions, so that
// a file included by several inputs is converted once and included files of
// different inputs never overwrite each other. It is safe for concurrent use.
type Registry struct {
	// mu guards the maps.
	mu sync.Mutex
	// converted maps an absolute input path to what converting it produced.
	converted map[string]*conversion
	// claimed holds absolute output paths already assigned.
	claimed map[string]bool
}

// conversion is what converting one file produced, its inclusions included.
type conversion struct {
	// output is the absolute path of the file's own document.
	output string
	// inputs lists every source file read, matching outputs.
	inputs []string
	// outputs lists every document written.
	outputs []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		converted: make(map[string]*conversion),
		claimed:   make(map[string]bool),
	}
}

// Reserve marks outputs as taken, so converted included files are never written there.
func (r *Registry) Reserve(outputs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, output := range outputs {
		absOutput, err := filepath.Abs(output)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", output, err)
		}

		r.claimed[absOutput] = true
	}

	return nil
}

// lookup returns the recorded conversion of absInput.
func (r *Registry) lookup(absInput string) (*conversion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.converted[absInput]

	return conv, ok
}

// record stores the conversion of absInput.
func (r *Registry) record(absInput string, conv *conversion) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.converted[absInput] = conv
}

// claimPath marks absOutput as taken.
func (r *Registry) claimPath(absOutput string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.claimed[absOutput] = true
}

// claim picks an unused output path for stem in dir, suffixing a counter on collisions.
func (r *Registry) claim(dir, stem string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	output := filepath.Join(absDir, stem+outputExtension)
	for i := 1; r.claimed[output]; i++ {
		output = filepath.Join(absDir, stem+"_"+strconv.Itoa(i)+outputExtension)
	}

	r.claimed[output] = true

	return output, nil
}

// add records a dependency once.
func (c *conversion) add(input, output string) {
	if slices.Contains(c.inputs, input) {
		return
	}

	c.inputs = append(c.inputs, input)
	c.outputs = append(c.outputs, output)
}
