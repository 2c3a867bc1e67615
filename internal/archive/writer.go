package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

// entryTime is the modification time of every written entry, so archives
// of equal documents are byte-identical.
var entryTime = time.Unix(0, 0).UTC()

// compressor wraps w according to the compression of f.
func compressor(w io.Writer, f Format) (io.WriteCloser, error) {
	switch f.Compression() {
	case "xz":
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return xw, nil
	case "gz":
		return gzip.NewWriter(w), nil
	}
	return nopCloser{w}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// create opens dstPath for writing. If createParentDir is true, parent
// directories of dstPath are created.
func create(dstPath string, createParentDir bool) (*os.File, error) {
	if createParentDir {
		if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
			return nil, bierrors.NewIO("create parent directory of", dstPath, err)
		}
	}
	f, err := os.Create(dstPath)
	if err != nil {
		return nil, bierrors.NewIO("create", dstPath, err)
	}
	return f, nil
}

// WriteDocument writes a single document to dstPath, compressing it when
// the extension is .xml.gz or .xml.xz.
func WriteDocument(dstPath string, data []byte, createParentDir bool) (err error) {
	format := DetectFormat(dstPath)
	if format.IsArchive() || format == FormatUnknown {
		return bierrors.NewUnsupported("document format", dstPath)
	}

	f, err := create(dstPath, createParentDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = bierrors.NewIO("close", dstPath, cerr)
		}
	}()

	cw, err := compressor(f, format)
	if err != nil {
		return err
	}
	if _, err := cw.Write(data); err != nil {
		cw.Close()
		return bierrors.NewIO("write", dstPath, err)
	}
	if err := cw.Close(); err != nil {
		return bierrors.NewIO("write", dstPath, err)
	}
	return nil
}

// WriteArchive writes docs as entries of a tar archive at dstPath. The
// compression follows the extension (.tar, .tar.gz, .tgz or .tar.xz) and
// each entry is stored under baseDir.
func WriteArchive(dstPath, baseDir string, docs []Document, createParentDir bool) (err error) {
	format := DetectFormat(dstPath)
	if !format.IsArchive() {
		return bierrors.NewUnsupported("archive format", dstPath)
	}

	f, err := create(dstPath, createParentDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = bierrors.NewIO("close", dstPath, cerr)
		}
	}()

	cw, err := compressor(f, format)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)

	for _, doc := range docs {
		name := doc.Name
		if baseDir != "" {
			name = baseDir + "/" + name
		}
		header := &tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(doc.Data)),
			ModTime:  entryTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}
		if _, err := tw.Write(doc.Data); err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}
