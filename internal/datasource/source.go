// Package datasource loads tree data from files. JSON, newline-delimited JSON,
// YAML and SQLite are supported; the format is chosen by file extension.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SourceType identifies the format of a data file
type SourceType string

const (
	// SourceTypeJSON is a JSON array of root nodes, or a single node
	SourceTypeJSON SourceType = "json"
	// SourceTypeJSONL has one root node per line
	SourceTypeJSONL SourceType = "jsonl"
	// SourceTypeYAML is a YAML sequence of root nodes, or a single node
	SourceTypeYAML SourceType = "yaml"
	// SourceTypeSQLite is a SQLite database with a nodes table
	SourceTypeSQLite SourceType = "sqlite"
)

// DataSource describes one data file
type DataSource struct {
	// Type is the format, derived from the extension
	Type SourceType `json:"type"`
	// Path is the absolute path to the file
	Path string `json:"path"`
	// ModTime is the last modification time of the file
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, %d bytes, mod=%s)",
		s.Path, s.Type, s.Size, s.ModTime.Format(time.RFC3339))
}

// DetectType maps a file extension to its SourceType
func DetectType(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SourceTypeJSON, nil
	case ".jsonl", ".ndjson":
		return SourceTypeJSONL, nil
	case ".yaml", ".yml":
		return SourceTypeYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	}
	return "", fmt.Errorf("unsupported data file %q: expected .json, .jsonl, .yaml, .yml, .db or .sqlite", path)
}

// Describe stats path and detects its type
func Describe(path string) (DataSource, error) {
	typ, err := DetectType(path)
	if err != nil {
		return DataSource{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataSource{}, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%s is a directory", path)
	}
	return DataSource{
		Type:    typ,
		Path:    abs,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}
