// Package archive reads XML resources stored inside zip archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// ErrNotFound is returned when requested entry is not present in archive.
var ErrNotFound = errors.New("entry not found in archive")

// maxEntrySize limits how much of a single entry is read into memory.
const maxEntrySize = 256 << 20

// VisitFunc is called for every regular entry of the archive whose name
// starts with requested prefix. Returning an error stops the walk and the
// error is passed back to the caller.
type VisitFunc func(file *zip.File) error

// Visit goes over archive entries in stored order. Entries which could escape
// extraction directory (absolute names, ".." components) make the whole
// archive unacceptable.
func Visit(archive, prefix string, fn VisitFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile returns content of a single named entry.
func ReadFile(archive, name string) ([]byte, error) {
	name = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")

	var data []byte
	errFound := errors.New("found")
	err := Visit(archive, name, func(f *zip.File) error {
		if f.Name != name {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		data, err = io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
		if err != nil {
			return err
		}
		if len(data) > maxEntrySize {
			return fmt.Errorf("zip entry %q is too large", name)
		}
		return errFound
	})
	switch {
	case errors.Is(err, errFound):
		return data, nil
	case err != nil:
		return nil, fmt.Errorf("unable to read %q from %q: %w", name, archive, err)
	}
	return nil, fmt.Errorf("%q in %q: %w", name, archive, ErrNotFound)
}

// IsZip reports whether file at path starts with zip signature.
func IsZip(file string) bool {
	f, err := os.Open(file)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)
	return filetype.Is(head[:n], "zip")
}

// Split breaks location like "dir/data.zip/inner/doc.xml" into archive path
// and entry name. It looks for the longest existing regular file prefix of
// location which is a zip archive. When location itself is a plain file, or
// no prefix qualifies, ok is false.
func Split(location string) (archive, entry string, ok bool) {
	if fi, err := os.Stat(location); err == nil && !fi.IsDir() {
		return "", "", false
	}
	clean := filepath.Clean(location)
	for dir := clean; ; {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if fi, err := os.Stat(dir); err == nil {
			if fi.IsDir() || !IsZip(dir) {
				return "", "", false
			}
			rest, err := filepath.Rel(dir, clean)
			if err != nil || rest == "." {
				return "", "", false
			}
			return dir, filepath.ToSlash(rest), true
		}
		dir = parent
	}
	return "", "", false
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
