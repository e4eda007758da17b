/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * JAR/zip archive enumeration: the archive is mapped once and its
 * central directory read through archive/zip over the mapping.
 */

package archive

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/daviddrysdale/jnm/trace"
)

// Entry is one class file found inside a JAR, identified by its
// slash-separated archive path (e.g. "com/example/Foo.class").
type Entry struct {
	Name string
	Data []byte
}

// Jar is a memory-mapped JAR file opened for class enumeration.
type Jar struct {
	f  *fileHandle
	mm mmap.MMap
	zr *zip.Reader
}

// Open memory-maps path and prepares it for enumeration via Entries.
func Open(path string) (*Jar, error) {
	fh, err := openFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "archive: open %s", path)
	}

	m, err := mmap.Map(fh.File(), mmap.RDONLY, 0)
	if err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "archive: mmap %s", path)
	}

	zr, err := zip.NewReader(bytes.NewReader(m), int64(len(m)))
	if err != nil {
		m.Unmap()
		fh.Close()
		return nil, errors.Wrapf(err, "archive: not a valid zip/jar: %s", path)
	}

	trace.Trace("opened archive " + path)
	return &Jar{f: fh, mm: m, zr: zr}, nil
}

// Close releases the memory mapping and the underlying file handle.
func (j *Jar) Close() error {
	err := j.mm.Unmap()
	if cerr := j.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Classes enumerates every ".class" member of the archive in central
// directory order, matching the archive enumeration contract a host loader expects.
func (j *Jar) Classes() ([]Entry, error) {
	var entries []Entry
	for _, f := range j.zr.File {
		if f.FileInfo().IsDir() || !hasClassSuffix(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "archive: open entry %s", f.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "archive: read entry %s", f.Name)
		}
		entries = append(entries, Entry{Name: f.Name, Data: data})
	}
	return entries, nil
}

func hasClassSuffix(name string) bool {
	return len(name) > len(".class") && name[len(name)-len(".class"):] == ".class"
}
