// Package image loads and stores ox fs images kept in host files.
//
// A host image file holds the raw image buffer, optionally zstd-compressed.
// Compression is detected by the frame magic on load.
package image

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/nspcc-dev/oxfs/pkg/romfs/compression"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/spf13/afero"
)

// Perm is a permission of created image files.
const Perm = 0o644

// ExpandPath resolves leading "~" of the path to the home directory.
func ExpandPath(path string) (string, error) {
	res, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}

	return res, nil
}

// Load reads the image file and decompresses it if needed.
func Load(fs afero.Fs, path string, c *compression.Config) ([]byte, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	data, err = c.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress image %q: %w", path, err)
	}

	return data, nil
}

// Save writes the image to the file compressing it according to c. The file
// is replaced only after the whole image is written.
func Save(fs afero.Fs, path string, data []byte, c *compression.Config) error {
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err = fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temporary image: %w", err)
	}

	_, err = tmp.Write(c.Compress(data))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = fs.Chmod(tmp.Name(), Perm)
	}
	if err == nil {
		err = fs.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = fs.Remove(tmp.Name())
		return fmt.Errorf("write image %q: %w", path, err)
	}

	return nil
}

// Open loads the image file and attaches a FileSystem to it.
func Open(fs afero.Fs, path string, c *compression.Config, opts ...filesystem.Option) (*filesystem.FileSystem, error) {
	data, err := Load(fs, path, c)
	if err != nil {
		return nil, err
	}

	f, err := filesystem.Open(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}

	return f, nil
}

// Exists checks whether the image file exists.
func Exists(fs afero.Fs, path string) (bool, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return false, err
	}

	_, err = fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}
