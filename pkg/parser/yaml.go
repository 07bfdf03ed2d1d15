package parser

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ParseYAMLFile opens a YAML file and unmarshals it into the out interface
func ParseYAMLFile(fs fs.FS, filename string, out interface{}, dir ...string) error {
	// Construct the full path of the YAML file
	fullPath := filename
	if len(dir) > 0 {
		fullPath = filepath.Join(dir[0], filename)
	}

	file, err := fs.Open(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fullPath, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fullPath, err)
	}

	if err := yaml.Unmarshal(content, out); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return nil
}
