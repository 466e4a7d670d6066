package safeio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrOutsideRoot is returned for any path that would escape the root.
var ErrOutsideRoot = errors.New("safeio: path outside root")

// SafeFS confines file creation, inspection and removal to one directory.
// Downloads and uploads go through it so a crafted file name can never write
// outside the configured directory.
type SafeFS struct {
	absRoot string // absolute root with symlinks resolved
}

// NewSafeFS creates root when missing and locks all future operations to it.
func NewSafeFS(root string) (*SafeFS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("safeio: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("safeio: create root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: root is not a directory")
	}
	return &SafeFS{absRoot: abs}, nil
}

// Root returns the absolute root directory bound to this SafeFS.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// SafeCreate creates (or truncates) name directly under the root and returns
// the open file with its absolute path.
func (s *SafeFS) SafeCreate(name string) (*os.File, string, error) {
	p, err := s.resolveNew(name)
	if err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}
	return f, p, nil
}

// SafeRemove deletes a file under the root. Removing a missing file is not an
// error.
func (s *SafeFS) SafeRemove(userPath string) error {
	p, err := s.resolveNew(userPath)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// SafeStat returns metadata for a file or directory under the root.
func (s *SafeFS) SafeStat(userPath string) (fs.FileInfo, error) {
	p, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// resolve maps an existing path onto the root, following symlinks.
func (s *SafeFS) resolve(userPath string) (string, error) {
	joined, err := s.join(userPath)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(resolved, s.absRoot) {
		return "", fmt.Errorf("%w (root=%s, path=%s)", ErrOutsideRoot, s.absRoot, resolved)
	}
	return resolved, nil
}

// resolveNew maps a path that may not exist yet. Only the parent directory
// is resolved through symlinks.
func (s *SafeFS) resolveNew(userPath string) (string, error) {
	joined, err := s.join(userPath)
	if err != nil {
		return "", err
	}
	if joined == s.absRoot {
		return "", errors.New("safeio: path is the root directory")
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(joined))
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(dir, s.absRoot) {
		return "", fmt.Errorf("%w (root=%s, path=%s)", ErrOutsideRoot, s.absRoot, dir)
	}
	return filepath.Join(dir, filepath.Base(joined)), nil
}

func (s *SafeFS) join(userPath string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	if userPath == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(userPath)
	if clean == "." {
		return s.absRoot, nil
	}
	isAbs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	if isAbs {
		if !hasPathPrefix(clean, s.absRoot) {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, clean)
		}
		return clean, nil
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path traversal not allowed", ErrOutsideRoot)
	}
	return filepath.Join(s.absRoot, clean), nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if len(root) == 0 || path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	if !strings.HasSuffix(path, sep) {
		path += sep
	}
	return strings.HasPrefix(path, root)
}
