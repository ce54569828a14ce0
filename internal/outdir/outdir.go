// Package outdir prepares the generator's output directory.
//
// Every run replaces the whole tree. Reset does this in place; Stage and
// Commit build the new tree in a sibling directory and swap it in with
// renames, so a failed run leaves the previous output untouched.
package outdir

import (
	"fmt"
	"os"
	"path/filepath"

	"becoconfig/internal/resources"
)

// DeleteError names the entry that could not be removed.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete: %s: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// CreateError names the directory that could not be created.
type CreateError struct {
	Path string
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("failed to create folder: %s: %v", e.Path, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// CleanupError is returned by Commit when the new tree is in place but the
// previous one could not be deleted. The output itself is complete.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("output committed, failed to delete previous tree: %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// Reset removes dir and everything under it, then recreates dir and its
// values subdirectory. A missing dir is not an error.
func Reset(dir string) error {
	if err := Remove(dir); err != nil {
		return err
	}
	return create(dir)
}

// Remove deletes dir recursively, children before their parent. It stops
// at the first entry that cannot be removed.
func Remove(dir string) error {
	info, err := os.Lstat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &DeleteError{Path: dir, Err: err}
	}
	if info.IsDir() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return &DeleteError{Path: dir, Err: err}
		}
		for _, entry := range entries {
			child := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				if err := Remove(child); err != nil {
					return err
				}
				continue
			}
			if err := os.Remove(child); err != nil {
				return &DeleteError{Path: child, Err: err}
			}
		}
	}
	if err := os.Remove(dir); err != nil {
		return &DeleteError{Path: dir, Err: err}
	}
	return nil
}

func create(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &CreateError{Path: dir, Err: err}
	}
	values := filepath.Join(dir, resources.ValuesDir)
	if err := os.MkdirAll(values, 0755); err != nil {
		return &CreateError{Path: values, Err: err}
	}
	return nil
}

// Staging is a fresh output tree built next to its target.
type Staging struct {
	// Dir is where the emitter writes; it already contains values/.
	Dir string

	target string
	old    string
	remove func(string) error
}

// Stage creates <parent>/.<base>.staging-<id> with a values subdirectory.
// Leftovers from an earlier staging with the same id are removed first.
func Stage(target, id string) (*Staging, error) {
	target = filepath.Clean(target)
	parent, base := filepath.Split(target)
	s := &Staging{
		Dir:    filepath.Join(parent, "."+base+".staging-"+id),
		old:    filepath.Join(parent, "."+base+".old-"+id),
		target: target,
		remove: Remove,
	}
	if err := Reset(s.Dir); err != nil {
		return nil, err
	}
	return s, nil
}

// Target returns the directory the staging tree will replace.
func (s *Staging) Target() string {
	return s.target
}

// Commit moves any existing target aside, renames the staging tree onto
// the target and deletes the old tree. If the second rename fails the old
// tree is moved back. A failure to delete the old tree is a *CleanupError.
func (s *Staging) Commit() error {
	hadTarget := false
	if _, err := os.Lstat(s.target); err == nil {
		if err := os.Rename(s.target, s.old); err != nil {
			return &DeleteError{Path: s.target, Err: err}
		}
		hadTarget = true
	}

	if err := os.Rename(s.Dir, s.target); err != nil {
		if hadTarget {
			_ = os.Rename(s.old, s.target)
		}
		return &CreateError{Path: s.target, Err: err}
	}

	if hadTarget {
		if err := s.remove(s.old); err != nil {
			return &CleanupError{Path: s.old, Err: err}
		}
	}
	return nil
}

// Abort discards the staging tree.
func (s *Staging) Abort() error {
	return Remove(s.Dir)
}
