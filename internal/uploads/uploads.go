// Package uploads stores user-submitted profile pictures on disk. Stored
// names are prefixed with an xid so uploads never collide or overwrite
// each other.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// ErrUnsupportedType is returned for files outside the image whitelist.
var ErrUnsupportedType = errors.New("unsupported file type")

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Store writes files into a fixed directory.
type Store struct {
	dir string
}

// NewStore creates the uploads directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating uploads directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists an uploaded image and returns its stored filename.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	name := fmt.Sprintf("%s_%s", xid.New().String(), sanitizeFilename(file.Filename))
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *Store) Delete(name string) error {
	if name == "" || strings.HasPrefix(name, "http") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the on-disk path for a stored filename. The base-name strip
// keeps traversal out of request-supplied names.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Dir returns the uploads directory.
func (s *Store) Dir() string {
	return s.dir
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
