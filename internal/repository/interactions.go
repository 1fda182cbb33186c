package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/storage"
	"github.com/actuallystonmai/order-recommender/internal/table"
)

var interactionColumns = []string{
	"generation_id", "position", "employee_id", "product_id", "product_name", "order_count",
}

// PublishTable stores a saved table under its generation id. Publishing
// the same generation twice is a no-op.
func (r *Repository) PublishTable(ctx context.Context, t *table.Table) error {
	h := t.Header()
	if h.GenerationID == "" {
		return errors.New("publish interaction table: table has no generation id")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin publish: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO interaction_tables
		   (generation_id, schema_version, checksum, size_bytes, row_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (generation_id) DO NOTHING`,
		h.GenerationID, h.SchemaVersion, h.Checksum, h.SizeBytes, t.Len(), h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert generation %s: %w", h.GenerationID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	rows := t.Rows()
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"interactions"},
		interactionColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			return []any{h.GenerationID, i, row.EmployeeID, row.ProductID, row.ProductName, row.OrderCount}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy interactions: %w", err)
	}
	if int(copied) != len(rows) {
		return fmt.Errorf("copy interactions: wrote %d of %d rows", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit publish: %w", err)
	}
	return nil
}

// LoadLatestTable returns the most recently published table, bound to the
// header it was saved with.
func (r *Repository) LoadLatestTable(ctx context.Context) (*table.Table, error) {
	h := storage.Header{Kind: storage.KindInteractionTable}
	err := r.pool.QueryRow(ctx,
		`SELECT generation_id, schema_version, checksum, size_bytes, row_count, created_at
		 FROM interaction_tables
		 ORDER BY published_at DESC, created_at DESC
		 LIMIT 1`,
	).Scan(&h.GenerationID, &h.SchemaVersion, &h.Checksum, &h.SizeBytes, &h.Records, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no interaction table published: %w", domain.ErrTableNotFound)
		}
		return nil, fmt.Errorf("query latest generation: %w", err)
	}
	if h.SchemaVersion != table.SchemaVersion {
		return nil, fmt.Errorf("published table %s has schema version %d, this build reads %d",
			h.GenerationID, h.SchemaVersion, table.SchemaVersion)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT employee_id, product_id, product_name, order_count
		 FROM interactions WHERE generation_id = $1 ORDER BY position`,
		h.GenerationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query interactions for %s: %w", h.GenerationID, err)
	}
	interactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Interaction, error) {
		var in domain.Interaction
		err := row.Scan(&in.EmployeeID, &in.ProductID, &in.ProductName, &in.OrderCount)
		return in, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan interactions: %w", err)
	}
	if len(interactions) != h.Records {
		return nil, fmt.Errorf("generation %s: expected %d rows, found %d", h.GenerationID, h.Records, len(interactions))
	}

	return table.WithHeader(table.New(interactions), h), nil
}
