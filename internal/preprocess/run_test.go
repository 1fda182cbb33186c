package preprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/actuallystonmai/order-recommender/internal/table"
)

type recordingPublisher struct {
	published *table.Table
	err       error
}

func (p *recordingPublisher) PublishTable(ctx context.Context, t *table.Table) error {
	p.published = t
	return p.err
}

func writeExports(t *testing.T, dir string) Job {
	t.Helper()

	items := "order_id,product_id,product_name\n100,10,Pen\n100,10,Pen\n100,10,Pen\n101,11,Notebook\n"
	orders := "id,employee_id,status\n100,7,delivered\n101,7,cancelled\n"

	job := Job{
		OrderItemsPath: filepath.Join(dir, "items.csv"),
		OrdersPath:     filepath.Join(dir, "orders.csv"),
		TablePath:      filepath.Join(dir, "interaction_df.gob"),
		CSVPath:        filepath.Join(dir, "interaction_df.csv"),
		Options:        DefaultOptions(),
	}
	if err := os.WriteFile(job.OrderItemsPath, []byte(items), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(job.OrdersPath, []byte(orders), 0o600); err != nil {
		t.Fatal(err)
	}
	return job
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	job := writeExports(t, dir)
	pub := &recordingPublisher{}
	job.Publisher = pub

	result, err := Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Rows != 1 || result.Columns != 4 || result.Lines != 4 || result.Orders != 2 {
		t.Errorf("result = %+v", result)
	}
	if !result.Published || pub.published == nil {
		t.Error("table was not published")
	}

	loaded, err := table.Load(job.TablePath)
	if err != nil {
		t.Fatalf("table.Load() error = %v", err)
	}
	rows := loaded.Rows()
	if len(rows) != 1 || rows[0].EmployeeID != 7 || rows[0].ProductID != 10 || rows[0].OrderCount != 3 {
		t.Errorf("persisted rows = %+v", rows)
	}
	if loaded.GenerationID() != result.Table.GenerationID() {
		t.Error("persisted generation differs from returned table")
	}

	csvData, err := os.ReadFile(job.CSVPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(csvData) != "employee_id,product_id,product_name,order_count\n7,10,Pen,3\n" {
		t.Errorf("csv = %q", csvData)
	}
}

func TestRunPublishError(t *testing.T) {
	job := writeExports(t, t.TempDir())
	job.Publisher = &recordingPublisher{err: errors.New("db down")}

	if _, err := Run(context.Background(), job); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestRunMissingInput(t *testing.T) {
	job := writeExports(t, t.TempDir())
	if err := os.Remove(job.OrdersPath); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(context.Background(), job); err == nil {
		t.Fatal("expected error for missing orders file without url")
	}
}
