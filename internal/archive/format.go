package archive

import (
	"strings"
)

// Format identifies how a source file is packaged.
type Format string

// Supported source formats.
const (
	FormatXML     Format = "xml"
	FormatXMLGz   Format = "xml.gz"
	FormatXMLXz   Format = "xml.xz"
	FormatTar     Format = "tar"
	FormatTarGz   Format = "tar.gz"
	FormatTarXz   Format = "tar.xz"
	FormatUnknown Format = "unknown"
)

// suffixes is checked in order, so compound extensions come first.
var suffixes = []struct {
	ext    string
	format Format
}{
	{".xml.gz", FormatXMLGz},
	{".xml.xz", FormatXMLXz},
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".tar", FormatTar},
	{".xml", FormatXML},
}

// DetectFormat detects the source format from the file extension.
func DetectFormat(path string) Format {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return s.format
		}
	}
	return FormatUnknown
}

// IsSupportedFormat returns true if the file has a supported extension.
func IsSupportedFormat(path string) bool {
	return DetectFormat(path) != FormatUnknown
}

// IsArchive reports whether f holds several documents.
func (f Format) IsArchive() bool {
	return f == FormatTar || f == FormatTarGz || f == FormatTarXz
}

// Compression returns "gz", "xz" or "" for uncompressed formats.
func (f Format) Compression() string {
	switch f {
	case FormatXMLGz, FormatTarGz:
		return "gz"
	case FormatXMLXz, FormatTarXz:
		return "xz"
	}
	return ""
}

// DocumentID extracts a document ID from a filename by removing the
// directory and known extensions, e.g. "data/iso_19115-1.xml.xz" gives
// "iso_19115-1".
func DocumentID(filename string) string {
	id := filename
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	lower := strings.ToLower(id)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return id[:len(id)-len(s.ext)]
		}
	}
	return id
}

// isDocumentEntry reports whether an archive entry is a bibitem document.
func isDocumentEntry(name string) bool {
	f := DetectFormat(name)
	return f == FormatXML || f == FormatXMLGz || f == FormatXMLXz
}
