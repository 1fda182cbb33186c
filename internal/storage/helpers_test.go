package storage

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
)

func rewriteChecksum(t *testing.T, path, checksum string) string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	var env envelope
	err = gob.NewDecoder(f).Decode(&env)
	_ = f.Close()
	if err != nil {
		t.Fatal(err)
	}

	env.Header.Checksum = checksum
	out := filepath.Join(filepath.Dir(path), "tampered.gob")
	w, err := os.Create(out)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := gob.NewEncoder(w).Encode(env); err != nil {
		t.Fatal(err)
	}
	return out
}
