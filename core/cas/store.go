// Package cas stores rendered bibitem documents by content.
//
// Every document is written once under its SHA-256 digest. A BLAKE3 pointer
// and, optionally, a named reference (usually the document's shortref) map
// back to that digest, so a batch run that renders the same item twice keeps
// a single copy.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// digestPattern matches a lowercase hex SHA-256 or BLAKE3-256 digest.
var digestPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Store is a content-addressed document store rooted at a directory:
//
//	<root>/blobs/sha256/<xx>/<sha256>
//	<root>/blobs/blake3/<xx>/<blake3>.json
//	<root>/refs/<xx>/<blake3 of name>.json
type Store struct {
	root string
}

// NewStore creates a store at root, creating the directory layout when it
// does not exist.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{
		filepath.Join(root, "blobs", "sha256"),
		filepath.Join(root, "blobs", "blake3"),
		filepath.Join(root, "refs"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, bierrors.NewIO("create", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Put stores data and returns its digests. Storing the same bytes twice is
// a no-op.
func (s *Store) Put(data []byte) (Digest, error) {
	d := Sum(data)
	blobPath := s.blobPath(d.SHA256)
	if _, err := os.Stat(blobPath); err != nil {
		if err := writeAtomic(blobPath, data, ".blob-*"); err != nil {
			return Digest{}, err
		}
	}
	if err := s.writePointer(s.pointerPath(d.BLAKE3), d); err != nil {
		return Digest{}, err
	}
	return d, nil
}

// Get returns the document stored under a SHA-256 digest.
func (s *Store) Get(sha string) ([]byte, error) {
	if !isValidDigest(sha) {
		return nil, bierrors.NewValidation("digest", "not a 64-digit hex string: "+sha)
	}
	data, err := os.ReadFile(s.blobPath(sha))
	if os.IsNotExist(err) {
		return nil, bierrors.NewNotFound("document", sha)
	}
	if err != nil {
		return nil, bierrors.NewIO("read", sha, err)
	}
	return data, nil
}

// Exists reports whether a document with the SHA-256 digest is stored.
func (s *Store) Exists(sha string) bool {
	if !isValidDigest(sha) {
		return false
	}
	_, err := os.Stat(s.blobPath(sha))
	return err == nil
}

// Verify re-hashes the stored document and reports whether it still
// matches its SHA-256 digest.
func (s *Store) Verify(sha string) (bool, error) {
	data, err := s.Get(sha)
	if err != nil {
		return false, err
	}
	return Sum(data).SHA256 == sha, nil
}

func (s *Store) blobPath(sha string) string {
	return filepath.Join(s.root, "blobs", "sha256", sha[:2], sha)
}

func isValidDigest(d string) bool {
	return digestPattern.MatchString(d)
}

// writeAtomic writes data to path through a temp file in the same
// directory.
func writeAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return bierrors.NewIO("create", dir, err)
	}
	tempFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return bierrors.NewIO("create temp file in", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return bierrors.NewIO("write", path, err)
	}
	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return bierrors.NewIO("close", tempPath, err)
	}
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return bierrors.NewIO("rename", path, err)
	}
	return nil
}

// SHA256 returns the hex SHA-256 digest of data.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
