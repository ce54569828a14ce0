// Package resources renders string resources into the values XML document
// consumed by the resource merger.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ValuesDir is the subdirectory of the output directory that holds the
// generated values file.
const ValuesDir = "values"

// Attr is a single extra attribute on a resource element.
type Attr struct {
	Name  string
	Value string
}

// Entry is one <string> resource.
type Entry struct {
	Name  string
	Value string
	// Attrs are rendered in order after translatable="false".
	Attrs []Attr
}

// Set holds entries keyed by name. Iteration through Names is always
// lexicographic, independent of insertion order.
type Set struct {
	entries map[string]Entry
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{entries: make(map[string]Entry)}
}

// Put adds or replaces the entry with e.Name.
func (s *Set) Put(e Entry) {
	s.entries[e.Name] = e
}

// Get returns the entry called name.
func (s *Set) Get(name string) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return len(s.entries)
}

// Names returns entry names in lexicographic order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Render produces the values document. Names, attribute values and element
// text are written as given; nothing is XML-escaped.
func Render(s *Set) []byte {
	var sb strings.Builder
	sb.Grow(256)

	sb.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	sb.WriteString("<resources>\n")
	for _, name := range s.Names() {
		e := s.entries[name]
		sb.WriteString(`    <string name="`)
		sb.WriteString(name)
		sb.WriteString(`" translatable="false"`)
		for _, a := range e.Attrs {
			fmt.Fprintf(&sb, ` %s="%s"`, a.Name, a.Value)
		}
		sb.WriteString(">")
		sb.WriteString(e.Value)
		sb.WriteString("</string>\n")
	}
	sb.WriteString("</resources>\n")

	return []byte(sb.String())
}

// WriteError reports a failure to write the values file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Write renders s into dir/values/fileName and returns the written path.
// The values directory must already exist.
func Write(dir, fileName string, s *Set) (string, error) {
	path := filepath.Join(dir, ValuesDir, fileName)
	if err := os.WriteFile(path, Render(s), 0644); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	return path, nil
}
