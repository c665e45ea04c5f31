package config

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gosimple/slug"

	"importmore/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

// entry is either in-memory data or a file read when report is closed.
type entry struct {
	source string // what caller referred to, for manifest
	path   string // file to read, empty for data entries
	stamp  time.Time
	data   []byte
}

// Report accumulates everything single invocation wants to keep for
// troubleshooting: resources, target copy, run dump and logs. Only regular
// files and data are kept.
// NOTE: not to be used concurrently, single invocation owns it.
type Report struct {
	entries map[string]entry
	file    *os.File
	// holds copies made by StoreCopy, removed on Close
	tmp string
}

// EntryName builds report entry name from a kind (directory inside archive)
// and arbitrary reference like resource location or URL.
func EntryName(kind, ref string) string {
	name := slug.Make(ref)
	if len(name) == 0 {
		name = "unnamed"
	}
	return kind + "/" + name
}

// Close writes the archive and removes temporary copies.
func (r *Report) Close() error {
	if r == nil {
		// Ignore uninitialized cases to avoid checking in many places. This means no report has been requested.
		return nil
	}
	defer func() {
		if r.tmp != "" {
			os.RemoveAll(r.tmp)
			r.tmp = ""
		}
	}()
	if r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file to be put into archive as it is when report is
// closed. Used for logs which are still being written.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	e := entry{source: path, path: path}
	if p, err := filepath.Abs(path); err == nil {
		e.path = p
	}
	if old, exists := r.entries[name]; exists && old.path == e.path {
		return
	}
	r.add(name, e)
}

// StoreData puts data into archive under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.add(name, entry{data: data, stamp: time.Now()})
}

// StoreCopy copies file as it is at the time of the call, so later changes
// (target document being saved) do not affect the report.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}
	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("unable to copy %q into report: not a regular file", path)
	}

	if r.tmp == "" {
		if r.tmp, err = os.MkdirTemp("", misc.GetAppName()+"-r-"); err != nil {
			return err
		}
	}
	// the same file may be copied more than once
	dst := filepath.Join(r.tmp, fmt.Sprintf("%d-%s", len(r.entries), filepath.Base(src)))
	if err := copyFile(dst, src, info.ModTime()); err != nil {
		return err
	}
	r.add(name, entry{source: path, path: dst, stamp: info.ModTime()})
	return nil
}

// add versions name when it is already taken.
func (r *Report) add(name string, e entry) {
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	}
	r.entries[name] = e
}

func copyFile(dst, src string, modTime time.Time) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err == nil {
			err = os.Chtimes(dst, modTime, modTime)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// finalize writes manifest followed by every entry in name order. Files
// which disappeared are listed in manifest only.
func (r *Report) finalize() (err error) {
	arc := zip.NewWriter(r.file)
	defer func() {
		err = errors.Join(err, arc.Close())
	}()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)

	now := time.Now()
	var manifest bytes.Buffer
	for _, name := range names {
		e := r.entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(&manifest, "%s\t%s\t%s\n", stamp.UTC().Format(time.UnixDate), name, e.source)
	}
	if err := saveEntry(arc, "MANIFEST", now, &manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if e.path == "" {
			if err := saveEntry(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		if err := saveFile(arc, name, e.path); err != nil {
			return err
		}
	}
	return nil
}

func saveFile(arc *zip.Writer, name, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveEntry(arc, name, info.ModTime(), f)
}

func saveEntry(arc *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
