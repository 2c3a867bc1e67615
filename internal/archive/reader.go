// Package archive reads and writes bibitem documents packaged as plain XML,
// compressed XML (.xml.gz, .xml.xz) or tar archives (.tar, .tar.gz, .tgz,
// .tar.xz) holding XML entries.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
	"github.com/FocuswithJustin/isobib/internal/logging"
)

// Document is one XML document read from a source.
type Document struct {
	// Name is the file path or, for archive entries, "archive!entry".
	Name string
	Data []byte
}

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// decompress wraps r according to the compression of f.
func decompress(r io.Reader, f Format) (io.Reader, io.Closer, error) {
	switch f.Compression() {
	case "xz":
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("xz reader: %w", err)
		}
		return xzr, nil, nil
	case "gz":
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, gzr, nil
	}
	return r, nil, nil
}

// NewReader creates a new archive reader for the given path.
// It automatically detects and handles .tar, .tar.gz and .tar.xz archives.
func NewReader(path string) (*Reader, error) {
	format := DetectFormat(path)
	if !format.IsArchive() {
		return nil, bierrors.NewUnsupported("archive format", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, bierrors.NewIO("open", path, err)
	}

	reader, decompressor, err := decompress(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateArchive opens an archive and iterates through its entries.
func IterateArchive(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// ReadFile reads a specific entry from the archive. The entry may be named
// with or without its leading directory.
func ReadFile(archivePath, filename string) ([]byte, error) {
	var content []byte
	err := IterateArchive(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		name := header.Name
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if name == filename || header.Name == filename {
			var err error
			content, err = io.ReadAll(r)
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, bierrors.NewNotFound("archive entry", filename)
	}
	return content, nil
}

// ReadDocument reads a single XML file, decompressing .xml.gz and .xml.xz.
func ReadDocument(path string) ([]byte, error) {
	format := DetectFormat(path)
	if format.IsArchive() || format == FormatUnknown {
		return nil, bierrors.NewUnsupported("document format", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, bierrors.NewIO("open", path, err)
	}
	defer f.Close()
	return readAll(f, format, path)
}

func readAll(r io.Reader, format Format, name string) ([]byte, error) {
	reader, closer, err := decompress(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if closer != nil {
		defer closer.Close()
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, bierrors.NewIO("read", name, err)
	}
	return data, nil
}

// Walk calls fn for every document found at path. A file is read as a
// single document or, for archives, entry by entry; a directory is walked
// recursively in lexical order. Entries and files that are not XML are
// skipped. Walk stops at the first error returned by fn.
func Walk(path string, fn func(Document) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return bierrors.NewIO("stat", path, err)
	}
	if !info.IsDir() {
		return walkFile(path, fn)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsSupportedFormat(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return bierrors.NewIO("walk", path, err)
	}
	sort.Strings(files)
	for _, f := range files {
		if err := walkFile(f, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkFile(path string, fn func(Document) error) error {
	format := DetectFormat(path)
	if !format.IsArchive() {
		data, err := ReadDocument(path)
		if err != nil {
			return err
		}
		return fn(Document{Name: path, Data: data})
	}

	return IterateArchive(path, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg || !isDocumentEntry(header.Name) {
			logging.Debug("skipping archive entry", "archive", path, "entry", header.Name)
			return false, nil
		}
		name := path + "!" + header.Name
		data, err := readAll(r, DetectFormat(header.Name), name)
		if err != nil {
			return true, err
		}
		return false, fn(Document{Name: name, Data: data})
	})
}
