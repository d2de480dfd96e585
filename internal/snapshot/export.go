// Package snapshot serializes session snapshots for export.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tallr-app/tallr/internal/core"
)

// FormatVersion is the current export document version.
const FormatVersion = 1

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json or yaml)", s)
	}
}

// Document is the export envelope around a snapshot.
type Document struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Snapshot   *core.Snapshot `json:"snapshot"`
}

// Export writes the snapshot wrapped in a versioned envelope.
func Export(w io.Writer, snap *core.Snapshot, format Format) error {
	doc := Document{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Snapshot:   snap,
	}

	switch format {
	case FormatYAML:
		return exportYAML(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// exportYAML goes through JSON first so the YAML keys match the JSON field
// names of the persisted snapshot contract.
func exportYAML(w io.Writer, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree map[string]interface{}
	if err := dec.Decode(&tree); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalizeNumbers(tree)); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

// normalizeNumbers rewrites integral json.Number values as int64 so
// epoch timestamps encode as plain integers instead of floats.
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
