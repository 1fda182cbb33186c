package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

type Kind string

const (
	KindInteractionTable Kind = "interaction_table"
	KindSVDModel         Kind = "svd_model"
)

// Header describes a stored artifact.
type Header struct {
	Kind          Kind
	SchemaVersion int

	// GenerationID identifies this artifact instance.
	GenerationID string

	// Identity of the upstream artifact this one was built from, if any.
	SourceGenerationID string
	SourceChecksum     string

	CreatedAt time.Time

	// Records is a payload-defined size (rows, ratings).
	Records int

	// Checksum is the hex SHA-256 of the uncompressed payload.
	Checksum  string
	SizeBytes int64
}

type envelope struct {
	Header         Header
	CompressedData []byte
}

// ChecksumError reports a payload that does not match its header.
type ChecksumError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch in %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// KindError reports a file holding a different artifact than requested.
type KindError struct {
	Path string
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s holds a %q artifact, expected %q", e.Path, e.Got, e.Want)
}

// SchemaError reports an artifact written with a payload layout this build
// does not read. The payload is not decoded.
type SchemaError struct {
	Path string
	Kind Kind
	Want int
	Got  int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s schema version %d, this build reads %d", e.Path, e.Kind, e.Got, e.Want)
}

// Write stores payload at path. Checksum, SizeBytes and a zero CreatedAt are
// filled in; the completed header is returned.
func Write(path string, header Header, payload any) (Header, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(payload); err != nil {
		return Header{}, fmt.Errorf("encode payload: %w", err)
	}

	sum := sha256.Sum256(raw.Bytes())
	header.Checksum = hex.EncodeToString(sum[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return Header{}, fmt.Errorf("compress payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return Header{}, fmt.Errorf("finalize compression: %w", err)
	}

	header.SizeBytes = int64(compressed.Len())
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return Header{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(envelope{Header: header, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close()
		return Header{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return Header{}, fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Header{}, fmt.Errorf("rename into %s: %w", path, err)
	}

	return header, nil
}

// Read loads the artifact at path into target. Kind and schema version are
// checked before the payload is touched. A missing file yields an error
// matching os.ErrNotExist.
func Read(path string, kind Kind, schemaVersion int, target any) (Header, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return Header{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var env envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return Header{}, fmt.Errorf("read %s: %w", path, err)
	}
	if env.Header.Kind != kind {
		return env.Header, &KindError{Path: path, Want: kind, Got: env.Header.Kind}
	}
	if env.Header.SchemaVersion != schemaVersion {
		return env.Header, &SchemaError{Path: path, Kind: kind, Want: schemaVersion, Got: env.Header.SchemaVersion}
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return env.Header, fmt.Errorf("decompress %s: %w", path, err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return env.Header, fmt.Errorf("read decompressed %s: %w", path, err)
	}

	sum := sha256.Sum256(raw)
	if actual := hex.EncodeToString(sum[:]); actual != env.Header.Checksum {
		return env.Header, &ChecksumError{Path: path, Expected: env.Header.Checksum, Actual: actual}
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return env.Header, fmt.Errorf("decode %s: %w", path, err)
	}
	return env.Header, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
