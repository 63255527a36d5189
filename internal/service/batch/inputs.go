package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// InputExtension marks ALH configuration files inside scanned directories.
	InputExtension = ".alhConfig"
	// outputExtension replaces the input extension.
	outputExtension = ".xml"
)

var (
	// errNoInputs is returned when no file was found to convert.
	errNoInputs = errors.New("no input files")
	// errOutputCollision is returned when two inputs would write the same document.
	errOutputCollision = errors.New("inputs map to the same output")
)

// job is one file to convert.
type job struct {
	// input is the absolute source path.
	input string
	// configName names the document root.
	configName string
	// output is the absolute document path.
	output string
}

// collectJobs expands paths into jobs sorted by input. Outputs go next to their
// input unless outputDir is set.
func collectJobs(paths []string, outputDir string) ([]job, error) {
	var inputs []string

	for _, path := range paths {
		found, err := expand(path)
		if err != nil {
			return nil, err
		}

		inputs = append(inputs, found...)
	}

	if len(inputs) == 0 {
		return nil, errNoInputs
	}

	sort.Strings(inputs)

	var (
		jobs    = make([]job, 0, len(inputs))
		outputs = make(map[string]string, len(inputs))
	)

	for i, input := range inputs {
		if i > 0 && inputs[i-1] == input {
			continue
		}

		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

		dir := filepath.Dir(input)
		if outputDir != "" {
			dir = outputDir
		}

		output, err := filepath.Abs(filepath.Join(dir, stem+outputExtension))
		if err != nil {
			return nil, fmt.Errorf("resolve output of %s: %w", input, err)
		}

		if other, taken := outputs[output]; taken {
			return nil, fmt.Errorf("%s and %s: %w: %s", other, input, errOutputCollision, output)
		}

		outputs[output] = input
		jobs = append(jobs, job{input: input, configName: stem, output: output})
	}

	return jobs, nil
}

// expand returns the absolute path of a file, or the ALH files under a directory.
func expand(path string) ([]string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{absPath}, nil
	}

	var found []string

	err = filepath.WalkDir(absPath, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), InputExtension) {
			found = append(found, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return found, nil
}
