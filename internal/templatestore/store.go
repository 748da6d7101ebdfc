package templatestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir serves templates from a directory on disk. Reads resolve the name under
// the root and never escape it; callers are expected to pass cleaned,
// slash-separated names.
type Dir struct {
	root string
}

// NewDir builds a directory-backed store rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// ReadTemplate reads the named template under the store root. Missing files
// surface as fs.ErrNotExist so callers can map them to their own error kinds.
func (d *Dir) ReadTemplate(ctx context.Context, name string) ([]byte, error) {
	if d == nil || d.root == "" {
		return nil, errors.New("templatestore: root directory is required")
	}
	if !fs.ValidPath(name) {
		return nil, fs.ErrNotExist
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Path reports the resolved on-disk path for a template name. Stores without a
// filesystem location return ok=false.
func (d *Dir) Path(name string) (string, bool) {
	if d == nil || d.root == "" || !fs.ValidPath(name) {
		return "", false
	}
	abs, err := filepath.Abs(filepath.Join(d.root, filepath.FromSlash(name)))
	if err != nil {
		return "", false
	}
	return abs, true
}

// Root returns the store's root directory.
func (d *Dir) Root() string {
	if d == nil {
		return ""
	}
	return d.root
}

// FS serves templates from any fs.FS, typically an embedded bundle.
type FS struct {
	fsys fs.FS
}

// NewFS wraps an fs.FS as a template store.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// ReadTemplate reads the named template from the wrapped filesystem.
func (f *FS) ReadTemplate(ctx context.Context, name string) ([]byte, error) {
	if f == nil || f.fsys == nil {
		return nil, errors.New("templatestore: fs is nil")
	}
	if !fs.ValidPath(name) {
		return nil, fs.ErrNotExist
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Path always reports ok=false: fs.FS entries have no stable on-disk location
// to key a cache or watcher on, so template names are used directly instead.
func (f *FS) Path(string) (string, bool) {
	return "", false
}
