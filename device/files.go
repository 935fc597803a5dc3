// Author: momentics <momentics@gmail.com>

package device

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/momentics/inkwire/api"
)

// writeFileAtomic replaces path with data via a temp file and rename, so a
// power cut never leaves a half-written file behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// FileResources serves the index page and stores images in one directory.
type FileResources struct {
	dir      string
	pageFile string
}

// NewFileResources roots resources at dir.
func NewFileResources(dir, pageFile string) *FileResources {
	return &FileResources{dir: dir, pageFile: pageFile}
}

// Page reads the index page.
func (r *FileResources) Page() ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(r.dir, r.pageFile))
	if err != nil {
		return nil, api.WrapError(api.ErrCodeResourceUnavailable, err, "index page")
	}
	return b, nil
}

// SaveImage writes data under the base name of name.
func (r *FileResources) SaveImage(name string, data []byte) error {
	return writeFileAtomic(r.path(name), data, 0o644)
}

// ReadImage loads an image stored by SaveImage.
func (r *FileResources) ReadImage(name string) ([]byte, error) {
	b, err := os.ReadFile(r.path(name))
	if err != nil {
		return nil, api.WrapError(api.ErrCodeResourceUnavailable, err, "image "+filepath.Base(name))
	}
	return b, nil
}

func (r *FileResources) path(name string) string {
	return filepath.Join(r.dir, filepath.Base(name))
}
