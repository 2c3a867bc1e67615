package cas

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

// Digest holds both digests of a stored document.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Sum computes the digests of data without storing it.
func Sum(data []byte) Digest {
	return Digest{SHA256: SHA256(data), BLAKE3: BLAKE3(data)}
}

// BLAKE3 returns the hex BLAKE3-256 digest of data.
func BLAKE3(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ref is the content of a named reference file.
type ref struct {
	Name string `json:"name"`
	Digest
}

func (s *Store) pointerPath(b3 string) string {
	return filepath.Join(s.root, "blobs", "blake3", b3[:2], b3+".json")
}

func (s *Store) refPath(name string) string {
	key := BLAKE3([]byte(name))
	return filepath.Join(s.root, "refs", key[:2], key+".json")
}

// writePointer writes a pointer file unless one already exists.
func (s *Store) writePointer(path string, v any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return bierrors.Wrap(err, "marshal pointer")
	}
	return writeAtomic(path, data, ".pointer-*")
}

func readJSON(path, resource, id string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return bierrors.NewNotFound(resource, id)
	}
	if err != nil {
		return bierrors.NewIO("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &bierrors.ParseError{Format: "pointer", Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// Resolve maps a BLAKE3 digest to the full digest of a stored document.
func (s *Store) Resolve(b3 string) (Digest, error) {
	if !isValidDigest(b3) {
		return Digest{}, bierrors.NewValidation("digest", "not a 64-digit hex string: "+b3)
	}
	var d Digest
	if err := readJSON(s.pointerPath(b3), "blake3 digest", b3, &d); err != nil {
		return Digest{}, err
	}
	return d, nil
}

// GetByBLAKE3 returns the document whose BLAKE3 digest is b3.
func (s *Store) GetByBLAKE3(b3 string) ([]byte, error) {
	d, err := s.Resolve(b3)
	if err != nil {
		return nil, err
	}
	return s.Get(d.SHA256)
}

// Tag points name at d, replacing any earlier target of name.
func (s *Store) Tag(name string, d Digest) error {
	if name == "" {
		return bierrors.NewValidation("reference name", "must not be empty")
	}
	if !s.Exists(d.SHA256) {
		return bierrors.NewNotFound("document", d.SHA256)
	}
	data, err := json.Marshal(ref{Name: name, Digest: d})
	if err != nil {
		return bierrors.Wrap(err, "marshal reference")
	}
	return writeAtomic(s.refPath(name), data, ".ref-*")
}

// Lookup returns the digest name points at.
func (s *Store) Lookup(name string) (Digest, error) {
	var r ref
	if err := readJSON(s.refPath(name), "reference", name, &r); err != nil {
		return Digest{}, err
	}
	return r.Digest, nil
}
