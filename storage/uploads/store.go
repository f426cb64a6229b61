// Package uploads owns the on-disk layout under the upload root.
package uploads

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sanggar/core"
)

var (
	ErrEmptyPath   = errors.New("empty path")
	ErrOutsideRoot = errors.New("path escapes the upload root")
)

// Store resolves client paths against the upload root and performs the
// filesystem operations the converter needs.
type Store struct {
	root string
}

func NewStore(conf *core.Config) *Store {
	return New(conf.Uploads.Root)
}

func New(root string) *Store {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Root() string { return s.root }

// Resolve joins the root-relative `rel` (leading separators allowed) to the root.
// Paths climbing out of the root are refused.
func (s *Store) Resolve(rel string) (string, error) {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	if strings.TrimSpace(rel) == "" {
		return "", ErrEmptyPath
	}
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if _, err := s.relative(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ClientPath turns an absolute path under the root into the "/"-prefixed,
// slash-separated form handed to clients.
func (s *Store) ClientPath(abs string) (string, error) {
	rel, err := s.relative(abs)
	if err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(rel), nil
}

func (s *Store) relative(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, filepath.Clean(abs))
	if err != nil {
		return "", errors.Wrap(ErrOutsideRoot, err.Error())
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return rel, nil
}

// Hidden reports whether any segment of `abs` below the root starts with a dot.
// Scratch dirs and temp files are hidden.
func (s *Store) Hidden(abs string) bool {
	rel, err := s.relative(abs)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func (s *Store) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (s *Store) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// WriteAtomic writes `target` through a temp file in the same directory which
// is renamed over it once complete. Readers never observe a partial file.
func WriteAtomic(target string, write func(w io.Writer) error) error {
	tmp := tempName(target)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	cleanup := func() { _ = os.Remove(tmp) }

	if err = write(f); err != nil {
		_ = f.Close()
		cleanup()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		cleanup()
		return errors.Wrap(err, "syncing temp file")
	}
	if err = f.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Rename(tmp, target); err != nil {
		cleanup()
		return errors.Wrap(err, "publishing file")
	}
	return nil
}

// TempDir creates a private scratch directory inside `parent`.
// Keeping it on the same filesystem as the target makes Publish a plain rename.
func TempDir(parent string) (string, error) {
	dir := filepath.Join(parent, ".convert-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating scratch dir")
	}
	return dir, nil
}

// Publish moves a finished file into place.
func Publish(src, target string) error {
	return errors.Wrap(os.Rename(src, target), "publishing file")
}

func tempName(target string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+"."+uuid.NewString()+".tmp")
}
