// Package bootstrap establishes the process-wide serving state: the
// interaction table, its product lookup, and a model compatible with it.
// Everything it returns is read-only afterwards.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/metrics"
	"github.com/actuallystonmai/order-recommender/internal/model"
	"github.com/actuallystonmai/order-recommender/internal/storage"
	"github.com/actuallystonmai/order-recommender/internal/table"
)

// TableSource loads the table from somewhere other than the local file.
type TableSource interface {
	LoadLatestTable(ctx context.Context) (*table.Table, error)
}

type Options struct {
	TablePath string
	ModelPath string

	// Source overrides TablePath when set.
	Source TableSource

	Model             model.Config
	RetrainOnMismatch bool
}

type State struct {
	Table       *table.Table
	Products    table.ProductLookup
	Model       *model.SVD
	ModelHeader storage.Header

	// Trained is true when the model was fitted during this startup.
	Trained bool
}

// Load builds the serving state. A missing or empty interaction table is
// fatal. A stored model is reused only if this build reads its schema and
// it was trained on the loaded table; otherwise an IncompatibleModelError is
// returned unless RetrainOnMismatch is set. Other model load failures, such
// as a checksum mismatch, are always fatal.
func Load(ctx context.Context, opts Options) (*State, error) {
	t, err := loadTable(ctx, opts)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("interaction table %s: %w", describeSource(opts), domain.ErrEmptyTable)
	}
	metrics.InteractionTableRows.Set(float64(t.Len()))

	st := &State{Table: t, Products: t.Lookup()}
	logging.Info().
		Str("generation", t.GenerationID()).
		Int("rows", t.Len()).
		Int("employees", len(t.EmployeeIDs())).
		Int("products", len(st.Products)).
		Msg("interaction table loaded")

	exists, err := storage.Exists(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("stat model %s: %w", opts.ModelPath, err)
	}

	if exists {
		m, header, err := loadCompatibleModel(opts.ModelPath, t)
		if err == nil {
			st.Model, st.ModelHeader = m, header
			logging.Info().Str("path", opts.ModelPath).Str("model_generation", header.GenerationID).Msg("model loaded")
			return st, nil
		}
		if !opts.RetrainOnMismatch || !model.IsIncompatibleModelError(err) {
			return nil, err
		}
		logging.Warn().Err(err).Msg("stored model is incompatible, retraining")
	}

	if err := train(ctx, st, opts); err != nil {
		return nil, err
	}
	return st, nil
}

// loadCompatibleModel loads the stored model and checks it was trained on t.
// Schema and table mismatches both come back as IncompatibleModelError.
func loadCompatibleModel(path string, t *table.Table) (*model.SVD, storage.Header, error) {
	m, header, err := model.Load(path)
	if err != nil {
		return nil, header, err
	}
	if err := model.CheckCompatible(path, header, t.Header()); err != nil {
		return nil, header, err
	}
	return m, header, nil
}

func loadTable(ctx context.Context, opts Options) (*table.Table, error) {
	if opts.Source != nil {
		return opts.Source.LoadLatestTable(ctx)
	}
	return table.Load(opts.TablePath)
}

func train(ctx context.Context, st *State, opts Options) error {
	logging.Info().Int("ratings", st.Table.Len()).Msg("training model")
	started := time.Now()

	m, err := model.Train(ctx, model.RatingsFromInteractions(st.Table.Rows()), opts.Model)
	if errors.Is(err, model.ErrNoRatings) {
		return domain.ErrEmptyTable
	}
	if err != nil {
		return fmt.Errorf("train model: %w", err)
	}
	elapsed := time.Since(started)
	metrics.ModelTrainingSeconds.Set(elapsed.Seconds())

	header, err := model.Save(opts.ModelPath, m, st.Table.Header())
	if err != nil {
		return err
	}

	st.Model, st.ModelHeader, st.Trained = m, header, true
	logging.Info().
		Dur("took", elapsed).
		Str("path", opts.ModelPath).
		Str("model_generation", header.GenerationID).
		Msg("model trained and saved")
	return nil
}

func describeSource(opts Options) string {
	if opts.Source != nil {
		return "from database"
	}
	return opts.TablePath
}
