// Package io writes run artifacts atomically so a rerun either fully
// replaces an output file or leaves the previous one intact.
package io

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteBytesAtomic writes data to path via temp file + rename.
func WriteBytesAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// WriteJSONAtomic marshals v with indentation and writes it atomically.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteBytesAtomic(path, append(data, '\n'))
}
