package io

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateAll creates a file together with its missing parent
// directories.
//
// args:
//   - name: filepath to be created.
//   - fmod: os.FileMode for the file.
//   - dmod: os.FileMode for newly-created directories. Directories
//     which already exist keep their mode.
//
// returns:
//   - *os.File: the created file, opened for read/write and truncated.
//   - error
func CreateAll(name string, fmod os.FileMode, dmod os.FileMode) (*os.File, error) {

	dirname := filepath.Dir(name)
	if err := os.MkdirAll(dirname, dmod); err != nil {
		return nil, err
	}

	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fmod)
}

// DirCopy copies the regular files under src into dest, keeping the
// directory layout and file modes. dest and missing intermediate
// directories are created as needed.
//
// Symlinks and other non-regular files are skipped.
func DirCopy(src string, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		from, err := os.Open(path)
		if err != nil {
			return err
		}
		defer from.Close()

		to, err := CreateAll(filepath.Join(dest, rel), info.Mode().Perm(), 0755)
		if err != nil {
			return err
		}
		if _, err := io.Copy(to, from); err != nil {
			to.Close()
			return err
		}
		return to.Close()
	})
}
