package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/stwalsh4118/fairshare/internal/models"
)

// Format is a catalog file encoding
type Format string

// Supported catalog formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const schemaURL = "fairshare-catalog.schema.json"

//go:embed schema.json
var schemaSource string

var documentSchema = jsonschema.MustCompileString(schemaURL, schemaSource)

// Document is a decoded catalog file
type Document struct {
	// TotalDuration is the timeline scale the file asks for; zero when absent
	TotalDuration int64
	Clips         []models.Clip
}

type documentJSON struct {
	TotalDuration int64      `json:"total_duration"`
	Clips         []clipJSON `json:"clips"`
}

type clipJSON struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	StartTime   int64               `json:"start_time"`
	Duration    int64               `json:"duration"`
	Attribution *models.Attribution `json:"attribution,omitempty"`
}

// ParseFormat maps a format name or file extension to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// LoadFile reads and decodes a catalog file, choosing the format by extension
func LoadFile(path string) (*Document, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Decode parses a catalog document. Every format is normalized to JSON and
// checked against the catalog schema before it is converted to clips.
func Decode(data []byte, format Format) (*Document, error) {
	normalized, err := normalize(data, format)
	if err != nil {
		return nil, err
	}

	var instance interface{}
	decoder := json.NewDecoder(bytes.NewReader(normalized))
	decoder.UseNumber()
	if err := decoder.Decode(&instance); err != nil {
		return nil, fmt.Errorf("decode normalized catalog: %w", err)
	}
	if err := documentSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	var raw documentJSON
	if err := json.Unmarshal(normalized, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog clips: %w", err)
	}

	doc := &Document{
		TotalDuration: raw.TotalDuration,
		Clips:         make([]models.Clip, 0, len(raw.Clips)),
	}
	for _, c := range raw.Clips {
		kind, err := models.ParseClipKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: clip %q: %v", ErrSchemaViolation, c.ID, err)
		}
		doc.Clips = append(doc.Clips, models.Clip{
			ID:          c.ID,
			Name:        c.Name,
			Kind:        kind,
			StartTime:   c.StartTime,
			Duration:    c.Duration,
			Attribution: c.Attribution,
		})
	}
	return doc, nil
}

// normalize converts a YAML or TOML document to JSON bytes
func normalize(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		out, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("normalize YAML: %w", err)
		}
		return out, nil
	case FormatTOML:
		generic := make(map[string]interface{})
		if _, err := toml.Decode(string(data), &generic); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		out, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("normalize TOML: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
