package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"motionmux/internal/services"
)

// Entry is one filesystem entry found under the scan root. Symlinks are
// resolved: Regular and Size describe the link target.
type Entry struct {
	Path    string
	Name    string
	Dir     bool
	Regular bool
	Size    int64
}

// Directory lists the entries under root. With recurse it descends into
// every subdirectory (directories are reported as entries too); otherwise only
// direct children are returned. Results are sorted by path.
func Directory(root string, recurse bool) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrInvalidInput, "scan", "stat root", fmt.Sprintf("input directory %q does not exist", root), nil)
		}
		return nil, services.Wrap(services.ErrInvalidInput, "scan", "stat root", root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrInvalidInput, "scan", "stat root", fmt.Sprintf("input path %q is not a directory", root), nil)
	}

	var entries []Entry
	if recurse {
		// WalkDir does not descend through a symlinked root, so walk the
		// target and report paths under the caller's root.
		walkRoot, evalErr := filepath.EvalSymlinks(root)
		if evalErr != nil {
			return nil, fmt.Errorf("scan %s: %w", root, evalErr)
		}
		err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path == walkRoot {
				return nil
			}
			rel, relErr := filepath.Rel(walkRoot, path)
			if relErr != nil {
				return relErr
			}
			entries = append(entries, newEntry(filepath.Join(root, rel), d))
			return nil
		})
	} else {
		var dirEntries []os.DirEntry
		dirEntries, err = os.ReadDir(root)
		for _, d := range dirEntries {
			entries = append(entries, newEntry(filepath.Join(root, d.Name()), d))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func newEntry(path string, d fs.DirEntry) Entry {
	entry := Entry{Path: path, Name: d.Name(), Dir: d.IsDir()}
	mode := d.Type()
	if mode&fs.ModeSymlink != 0 {
		target, err := os.Stat(path)
		if err != nil {
			// dangling link
			return entry
		}
		entry.Dir = target.IsDir()
		entry.Regular = target.Mode().IsRegular()
		entry.Size = target.Size()
		return entry
	}
	if mode.IsRegular() {
		entry.Regular = true
		if info, err := d.Info(); err == nil {
			entry.Size = info.Size()
		}
	}
	return entry
}
