// Package source reads SourceRecords from JSON or YAML files.
//
// The expected document is a list of objects with id, info and description
// fields. Numeric ids are accepted and converted to their decimal string.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/vecload/core"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a source file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrInvalidSource indicates a source document that does not have the
// expected [{id, info, description}] shape.
var ErrInvalidSource = errors.New("invalid source document")

// rawRecord mirrors core.SourceRecord with a loosely typed id.
type rawRecord struct {
	ID          any            `json:"id" yaml:"id"`
	Info        map[string]any `json:"info" yaml:"info"`
	Description string         `json:"description" yaml:"description"`
}

// DetectFormat picks a format from the file extension. Anything other than
// .yaml or .yml is treated as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat parses "json" or "yaml". An empty string yields "".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown source format %q", core.ErrConfiguration, s)
	}
}

// ReadFile reads every record from the file at path. An empty format is
// detected from the extension.
func ReadFile(path string, format Format) ([]core.SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "" {
		format = DetectFormat(path)
	}
	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode reads every record from r.
func Decode(r io.Reader, format Format) ([]core.SourceRecord, error) {
	var raw []rawRecord
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown source format %q", core.ErrConfiguration, format)
	}

	records := make([]core.SourceRecord, 0, len(raw))
	for i, rr := range raw {
		id, err := normalizeID(rr.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidSource, i, err)
		}
		records = append(records, core.SourceRecord{
			ID:          id,
			Info:        normalizeInfo(rr.Info),
			Description: rr.Description,
		})
	}
	return records, nil
}

func normalizeID(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case uint64:
		return strconv.FormatUint(id, 10), nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported id type %T", v)
	}
}

// normalizeInfo turns json.Number values into float64 or int64 so Info
// holds plain Go values whatever the source format.
func normalizeInfo(info map[string]any) map[string]any {
	for k, v := range info {
		info[k] = normalizeValue(v)
	}
	return info
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		return normalizeInfo(val)
	case []any:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	default:
		return v
	}
}
