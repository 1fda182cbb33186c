package table

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/storage"
)

func sampleRows() []domain.Interaction {
	return []domain.Interaction{
		{EmployeeID: 1, ProductID: 10, ProductName: "Pen", OrderCount: 3},
		{EmployeeID: 1, ProductID: 11, ProductName: "Notebook", OrderCount: 1},
		{EmployeeID: 2, ProductID: 10, ProductName: "Pen (blue)", OrderCount: 5},
		{EmployeeID: 2, ProductID: 12, ProductName: "Stapler", OrderCount: 2},
		{EmployeeID: 3, ProductID: 13, ProductName: "Tape", OrderCount: 1},
	}
}

func TestIndexes(t *testing.T) {
	tbl := New(sampleRows())

	if tbl.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tbl.Len())
	}
	if got, want := tbl.ProductIDs(), []int64{10, 11, 12, 13}; !reflect.DeepEqual(got, want) {
		t.Errorf("ProductIDs() = %v, want %v", got, want)
	}
	if got, want := tbl.EmployeeIDs(), []int64{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("EmployeeIDs() = %v, want %v", got, want)
	}

	rows := tbl.ByEmployee(2)
	if len(rows) != 2 || rows[0].ProductID != 10 || rows[1].ProductID != 12 {
		t.Errorf("ByEmployee(2) = %+v", rows)
	}
	if len(tbl.ByEmployee(99)) != 0 {
		t.Error("ByEmployee(unknown) should be empty")
	}

	// ByEmployee must not expose the backing rows.
	rows[0].OrderCount = 99
	if tbl.Rows()[2].OrderCount == 99 {
		t.Error("ByEmployee returned aliased rows")
	}
}

func TestLookupFirstOccurrence(t *testing.T) {
	lookup := New(sampleRows()).Lookup()

	if got := lookup.Name(10); got != "Pen" {
		t.Errorf("Name(10) = %q, want first occurrence %q", got, "Pen")
	}
	if got := lookup.Name(12); got != "Stapler" {
		t.Errorf("Name(12) = %q", got)
	}
	if got := lookup.Name(404); got != UnknownProduct {
		t.Errorf("Name(404) = %q, want %q", got, UnknownProduct)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interaction_df.gob")

	saved, err := Save(path, New(sampleRows()))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.GenerationID() == "" {
		t.Fatal("Save() should assign a generation id")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded.Rows(), sampleRows()) {
		t.Errorf("rows = %+v", loaded.Rows())
	}
	if loaded.GenerationID() != saved.GenerationID() {
		t.Errorf("generation = %q, want %q", loaded.GenerationID(), saved.GenerationID())
	}
	if loaded.Header().Checksum != saved.Header().Checksum {
		t.Error("checksum changed across save/load")
	}
	if got := loaded.ByEmployee(1); len(got) != 2 {
		t.Errorf("indexes not rebuilt after load: %+v", got)
	}

	resaved, err := Save(path, loaded)
	if err != nil {
		t.Fatal(err)
	}
	if resaved.GenerationID() == saved.GenerationID() {
		t.Error("each save should produce a new generation")
	}
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interaction_df.gob")
	_, err := Load(path)
	if !errors.Is(err, domain.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "interaction_df.gob") {
		t.Errorf("error should name the missing file: %v", err)
	}
}

func TestLoadOtherSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interaction_df.gob")
	type rowsV2 struct {
		Rows    map[string]float64
		Columns []string
	}
	if _, err := storage.Write(path, storage.Header{
		Kind:          storage.KindInteractionTable,
		SchemaVersion: SchemaVersion + 1,
	}, rowsV2{Rows: map[string]float64{"a": 1}, Columns: []string{"a"}}); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var schemaErr *storage.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interaction_df.csv")
	rows := []domain.Interaction{
		{EmployeeID: 7, ProductID: 10, ProductName: "Pen, black", OrderCount: 3},
	}

	if err := WriteCSV(path, New(rows)); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "employee_id,product_id,product_name,order_count\n7,10,\"Pen, black\",3\n"
	if string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}
}
