// Package services reads a beco-services.json document and extracts the
// fields the generator turns into resources.
//
// Expected shape:
//
//	{ "project_info": { "api_key": "<string>", "environment_id": "<string>" } }
//
// Other keys are allowed and ignored.
package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"becoconfig/internal/resources"
)

// Resource names emitted for the extracted fields.
const (
	ResourceAPIKey        = "be_apiKey"
	ResourceEnvironmentID = "be_environmentId"
)

// Validation failures, checked in this order by Extract.
var (
	ErrMalformedRoot        = errors.New("malformed root json")
	ErrMissingProjectInfo   = errors.New("missing project_info object")
	ErrMissingAPIKey        = errors.New("missing project_info/api_key object")
	ErrMissingEnvironmentID = errors.New("missing project_info/environment_id object")
)

// Document is a parsed services file.
type Document struct {
	Path string
	Root map[string]any
}

// Fields holds the values copied out of project_info.
type Fields struct {
	APIKey        string
	EnvironmentID string
}

// Load reads and parses the services file at path. The root must be a JSON
// object.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes data as a services document. path is only used in errors.
func Parse(path string, data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrMalformedRoot, path, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w in %s: trailing data after root value", ErrMalformedRoot, path)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w in %s: root is %s, not an object", ErrMalformedRoot, path, kind(root))
	}
	return &Document{Path: path, Root: obj}, nil
}

// Extract validates project_info and copies api_key and environment_id
// verbatim.
func Extract(doc *Document) (Fields, error) {
	info, ok := doc.Root["project_info"].(map[string]any)
	if !ok {
		return Fields{}, fmt.Errorf("%s: %w", doc.Path, ErrMissingProjectInfo)
	}

	apiKey, ok := info["api_key"].(string)
	if !ok {
		return Fields{}, fmt.Errorf("%s: %w", doc.Path, ErrMissingAPIKey)
	}

	envID, ok := info["environment_id"].(string)
	if !ok {
		return Fields{}, fmt.Errorf("%s: %w", doc.Path, ErrMissingEnvironmentID)
	}

	return Fields{APIKey: apiKey, EnvironmentID: envID}, nil
}

// Resources converts the fields into the generated resource set.
func (f Fields) Resources() *resources.Set {
	set := resources.NewSet()
	set.Put(resources.Entry{Name: ResourceAPIKey, Value: f.APIKey})
	set.Put(resources.Entry{Name: ResourceEnvironmentID, Value: f.EnvironmentID})
	return set
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
