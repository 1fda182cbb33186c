package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type samplePayload struct {
	Values []float64
	Names  map[int64]string
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.gob")
	in := samplePayload{
		Values: []float64{0.25, 1.5, -3},
		Names:  map[int64]string{10: "Pen", 11: "Notebook"},
	}

	written, err := Write(path, Header{Kind: KindSVDModel, SchemaVersion: 1, GenerationID: "gen-1", Records: 3}, in)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if written.Checksum == "" || written.SizeBytes == 0 || written.CreatedAt.IsZero() {
		t.Errorf("header not completed: %+v", written)
	}

	var out samplePayload
	got, err := Read(path, KindSVDModel, 1, &out)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("payload = %+v, want %+v", out, in)
	}
	if got.GenerationID != "gen-1" || got.Checksum != written.Checksum || got.Records != 3 {
		t.Errorf("header = %+v, want %+v", got, written)
	}

	matches, _ := filepath.Glob(path + ".tmp-*")
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestReadMissing(t *testing.T) {
	var out samplePayload
	_, err := Read(filepath.Join(t.TempDir(), "nope.gob"), KindSVDModel, 1, &out)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestReadWrongKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.gob")
	if _, err := Write(path, Header{Kind: KindInteractionTable, SchemaVersion: 1}, samplePayload{}); err != nil {
		t.Fatal(err)
	}

	var out samplePayload
	_, err := Read(path, KindSVDModel, 1, &out)
	var kindErr *KindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("expected KindError, got %v", err)
	}
	if kindErr.Got != KindInteractionTable {
		t.Errorf("KindError.Got = %q", kindErr.Got)
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.gob")
	if _, err := Write(path, Header{Kind: KindSVDModel, SchemaVersion: 1}, samplePayload{Values: []float64{1}}); err != nil {
		t.Fatal(err)
	}

	tampered := rewriteChecksum(t, path, "deadbeef")

	var out samplePayload
	_, err := Read(tampered, KindSVDModel, 1, &out)
	var sumErr *ChecksumError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
}

type reshapedPayload struct {
	Values string
	Extra  []bool
}

func TestReadOtherSchemaSkipsDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	if _, err := Write(path, Header{Kind: KindSVDModel, SchemaVersion: 2}, reshapedPayload{Values: "v2", Extra: []bool{true}}); err != nil {
		t.Fatal(err)
	}

	var out samplePayload
	header, err := Read(path, KindSVDModel, 1, &out)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Got != 2 || schemaErr.Want != 1 || header.SchemaVersion != 2 {
		t.Errorf("SchemaError = %+v, header = %+v", schemaErr, header)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if ok, err := Exists(path); err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v", ok, err)
	}
	if ok, err := Exists(filepath.Join(dir, "absent")); err != nil || ok {
		t.Errorf("Exists(absent) = %v, %v", ok, err)
	}
	if ok, err := Exists(dir); err != nil || ok {
		t.Errorf("Exists(dir) = %v, %v", ok, err)
	}
}
