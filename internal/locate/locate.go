// Package locate probes candidate directories for the services file.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result describes where the services file was found.
type Result struct {
	// Path is the file that was selected.
	Path string

	// Searched lists every path probed, in order, up to and including Path.
	Searched []string

	// Fallback is true when no candidate matched and Path is the file at the
	// project root.
	Fallback bool
}

// MissingConfigFileError is returned when neither a candidate nor the
// project root holds the services file.
type MissingConfigFileError struct {
	FileName string
	Searched []string
}

func (e *MissingConfigFileError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "file %s is missing; the services generator cannot function without it.\nSearched locations:", e.FileName)
	for _, p := range e.Searched {
		sb.WriteString("\n  ")
		sb.WriteString(p)
	}
	return sb.String()
}

// Locate returns the first candidate directory under root that contains a
// regular file called fileName. Candidates are slash-separated paths
// relative to root. When no candidate matches, root/fileName is used.
func Locate(candidates []string, root, fileName string) (Result, error) {
	searched := make([]string, 0, len(candidates)+1)

	for _, candidate := range candidates {
		path := filepath.Join(root, filepath.FromSlash(candidate), fileName)
		searched = append(searched, path)
		if isFile(path) {
			return Result{Path: path, Searched: searched}, nil
		}
	}

	fallback := filepath.Join(root, fileName)
	searched = append(searched, fallback)
	if !isFile(fallback) {
		return Result{Searched: searched}, &MissingConfigFileError{FileName: fileName, Searched: searched}
	}
	return Result{Path: fallback, Searched: searched, Fallback: true}, nil
}

// Exists reports whether root/candidate/fileName is a regular file.
func Exists(root, candidate, fileName string) bool {
	return isFile(filepath.Join(root, filepath.FromSlash(candidate), fileName))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
