package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

const sampleDoc = `<bibitem type="standard"><docidentifier>ISO 1</docidentifier></bibitem>`

type entry struct {
	name string
	data []byte
	dir  bool
}

func writeTar(t *testing.T, w io.Writer, entries []entry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		h := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.data)), Typeflag: tar.TypeReg}
		if e.dir {
			h = &tar.Header{Name: e.name, Mode: 0755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(h); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if !e.dir {
			if _, err := tw.Write(e.data); err != nil {
				t.Fatalf("write content: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	gw.Close()
	return buf.Bytes()
}

func xzBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := xw.Write(data); err != nil {
		t.Fatalf("xz: %v", err)
	}
	xw.Close()
	return buf.Bytes()
}

func testEntries(t *testing.T) []entry {
	return []entry{
		{name: "data/", dir: true},
		{name: "data/iso_1.xml", data: []byte(sampleDoc)},
		{name: "data/README.txt", data: []byte("not a document")},
		{name: "data/iso_2.xml.gz", data: gzipBytes(t, []byte(sampleDoc))},
	}
}

func createTestTarGz(t *testing.T, dir string) string {
	var tarBuf bytes.Buffer
	writeTar(t, &tarBuf, testEntries(t))
	path := filepath.Join(dir, "test.tar.gz")
	if err := os.WriteFile(path, gzipBytes(t, tarBuf.Bytes()), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func createTestTarXz(t *testing.T, dir string) string {
	var tarBuf bytes.Buffer
	writeTar(t, &tarBuf, testEntries(t))
	path := filepath.Join(dir, "test.tar.xz")
	if err := os.WriteFile(path, xzBytes(t, tarBuf.Bytes()), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestNewReader(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "tar.gz archive",
			setup: func(t *testing.T) string {
				return createTestTarGz(t, dir)
			},
		},
		{
			name: "tar.xz archive",
			setup: func(t *testing.T) string {
				return createTestTarXz(t, dir)
			},
		},
		{
			name: "unsupported format",
			setup: func(t *testing.T) string {
				path := filepath.Join(dir, "test.zip")
				os.WriteFile(path, []byte("not a tar"), 0644)
				return path
			},
			wantErr: bierrors.ErrUnsupported,
		},
		{
			name: "single document is not an archive",
			setup: func(t *testing.T) string {
				path := filepath.Join(dir, "doc.xml")
				os.WriteFile(path, []byte(sampleDoc), 0644)
				return path
			},
			wantErr: bierrors.ErrUnsupported,
		},
		{
			name: "nonexistent file",
			setup: func(t *testing.T) string {
				return filepath.Join(dir, "nonexistent.tar.gz")
			},
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			r, err := NewReader(path)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("NewReader() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewReader() error = %v, want %v", err, tt.wantErr)
			}
			if r != nil {
				r.Close()
			}
		})
	}
}

func TestReaderIterate(t *testing.T) {
	dir := t.TempDir()
	path := createTestTarGz(t, dir)

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	var files []string
	err = r.Iterate(func(header *tar.Header, _ io.Reader) (bool, error) {
		files = append(files, header.Name)
		return false, nil
	})
	if err != nil {
		t.Errorf("Iterate: %v", err)
	}
	if len(files) != 4 {
		t.Errorf("got %d entries, want 4: %v", len(files), files)
	}
}

func TestReaderIterateStopsEarly(t *testing.T) {
	path := createTestTarXz(t, t.TempDir())

	count := 0
	err := IterateArchive(path, func(*tar.Header, io.Reader) (bool, error) {
		count++
		return count == 2, nil
	})
	if err != nil {
		t.Fatalf("IterateArchive: %v", err)
	}
	if count != 2 {
		t.Errorf("visited %d entries, want 2", count)
	}

	stop := errors.New("stop")
	err = IterateArchive(path, func(*tar.Header, io.Reader) (bool, error) {
		return false, stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("IterateArchive error = %v, want %v", err, stop)
	}
}

func TestReadFile(t *testing.T) {
	path := createTestTarGz(t, t.TempDir())

	for _, name := range []string{"iso_1.xml", "data/iso_1.xml"} {
		content, err := ReadFile(path, name)
		if err != nil {
			t.Fatalf("ReadFile(%q): %v", name, err)
		}
		if string(content) != sampleDoc {
			t.Errorf("ReadFile(%q) = %q", name, content)
		}
	}

	_, err := ReadFile(path, "missing.xml")
	if !errors.Is(err, bierrors.ErrNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"plain.xml":     []byte(sampleDoc),
		"gz.xml.gz":     gzipBytes(t, []byte(sampleDoc)),
		"xz.xml.xz":     xzBytes(t, []byte(sampleDoc)),
		"UPPER.XML":     []byte(sampleDoc),
		"broken.xml.gz": []byte("not gzip"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	for _, name := range []string{"plain.xml", "gz.xml.gz", "xz.xml.xz", "UPPER.XML"} {
		t.Run(name, func(t *testing.T) {
			data, err := ReadDocument(filepath.Join(dir, name))
			if err != nil {
				t.Fatalf("ReadDocument: %v", err)
			}
			if string(data) != sampleDoc {
				t.Errorf("ReadDocument = %q", data)
			}
		})
	}

	if _, err := ReadDocument(filepath.Join(dir, "broken.xml.gz")); err == nil {
		t.Error("ReadDocument should fail on corrupt gzip data")
	}
	if _, err := ReadDocument(filepath.Join(dir, "missing.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadDocument(missing) error = %v", err)
	}
	if _, err := ReadDocument(createTestTarGz(t, dir)); !errors.Is(err, bierrors.ErrUnsupported) {
		t.Errorf("ReadDocument(archive) error = %v, want ErrUnsupported", err)
	}
}

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	createTestTarXz(t, dir)
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "a.xml"), []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	var names []string
	err := Walk(dir, func(doc Document) error {
		if string(doc.Data) != sampleDoc {
			t.Errorf("%s: unexpected content %q", doc.Name, doc.Data)
		}
		names = append(names, strings.TrimPrefix(doc.Name, dir+string(filepath.Separator)))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{
		filepath.Join("nested", "a.xml"),
		"test.tar.xz!data/iso_1.xml",
		"test.tar.xz!data/iso_2.xml.gz",
	}
	if len(names) != len(want) {
		t.Fatalf("Walk visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestWalkStopsOnError(t *testing.T) {
	path := createTestTarGz(t, t.TempDir())
	boom := errors.New("boom")
	calls := 0
	err := Walk(path, func(Document) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Walk error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}

	if err := Walk(filepath.Join(t.TempDir(), "missing"), func(Document) error { return nil }); err == nil {
		t.Error("Walk should fail on a missing path")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		archive bool
	}{
		{"a.xml", FormatXML, false},
		{"a.XML", FormatXML, false},
		{"a.xml.gz", FormatXMLGz, false},
		{"a.xml.xz", FormatXMLXz, false},
		{"a.tar", FormatTar, true},
		{"a.tar.gz", FormatTarGz, true},
		{"a.tgz", FormatTarGz, true},
		{"a.tar.xz", FormatTarXz, true},
		{"a.zip", FormatUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := DetectFormat(tt.path)
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
			if got.IsArchive() != tt.archive {
				t.Errorf("IsArchive(%q) = %v, want %v", tt.path, got.IsArchive(), tt.archive)
			}
			if IsSupportedFormat(tt.path) != (tt.want != FormatUnknown) {
				t.Errorf("IsSupportedFormat(%q) mismatch", tt.path)
			}
		})
	}
}

func TestDocumentID(t *testing.T) {
	tests := map[string]string{
		"iso_19115-1.xml":           "iso_19115-1",
		"data/iso_19115-1.xml.xz":   "iso_19115-1",
		"bundle.tar.gz!x/iso_1.xml": "iso_1",
		"registry.tgz":              "registry",
		"README":                    "README",
	}
	for in, want := range tests {
		if got := DocumentID(in); got != want {
			t.Errorf("DocumentID(%q) = %q, want %q", in, got, want)
		}
	}
}
