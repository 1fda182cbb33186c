package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/actuallystonmai/order-recommender/internal/storage"
)

// SchemaVersion is bumped whenever the stored model layout changes.
const SchemaVersion = 1

// IncompatibleModelError is returned when a stored model cannot be used
// with the loaded interaction table.
type IncompatibleModelError struct {
	Path   string
	Reason string
}

func (e *IncompatibleModelError) Error() string {
	return fmt.Sprintf("model %s is incompatible: %s", e.Path, e.Reason)
}

func IsIncompatibleModelError(err error) bool {
	var target *IncompatibleModelError
	return errors.As(err, &target)
}

type state struct {
	Config      Config
	GlobalMean  float64
	NumRatings  int
	UserIDs     []int64
	ItemIDs     []int64
	UserBias    []float64
	ItemBias    []float64
	UserFactors [][]float64
	ItemFactors [][]float64
}

// Save persists m, recording the table it was trained on.
func Save(path string, m *SVD, trainedOn storage.Header) (storage.Header, error) {
	header, err := storage.Write(path, storage.Header{
		Kind:               storage.KindSVDModel,
		SchemaVersion:      SchemaVersion,
		GenerationID:       uuid.NewString(),
		SourceGenerationID: trainedOn.GenerationID,
		SourceChecksum:     trainedOn.Checksum,
		Records:            m.numRatings,
	}, state{
		Config:      m.config,
		GlobalMean:  m.globalMean,
		NumRatings:  m.numRatings,
		UserIDs:     m.userIDs,
		ItemIDs:     m.itemIDs,
		UserBias:    m.userBias,
		ItemBias:    m.itemBias,
		UserFactors: m.userFactors,
		ItemFactors: m.itemFactors,
	})
	if err != nil {
		return storage.Header{}, fmt.Errorf("save model: %w", err)
	}
	return header, nil
}

// Load reads a model written by Save. It does not check the model against
// any table; see CheckCompatible.
func Load(path string) (*SVD, storage.Header, error) {
	var s state
	header, err := storage.Read(path, storage.KindSVDModel, SchemaVersion, &s)
	var schemaErr *storage.SchemaError
	if errors.As(err, &schemaErr) {
		return nil, header, &IncompatibleModelError{
			Path:   path,
			Reason: fmt.Sprintf("schema version %d, this build reads %d", schemaErr.Got, schemaErr.Want),
		}
	}
	if err != nil {
		return nil, header, fmt.Errorf("load model: %w", err)
	}
	if len(s.UserIDs) != len(s.UserFactors) || len(s.ItemIDs) != len(s.ItemFactors) ||
		len(s.UserIDs) != len(s.UserBias) || len(s.ItemIDs) != len(s.ItemBias) {
		return nil, header, &IncompatibleModelError{Path: path, Reason: "factor and index sizes disagree"}
	}

	m := &SVD{
		config:      s.Config,
		globalMean:  s.GlobalMean,
		numRatings:  s.NumRatings,
		userIDs:     s.UserIDs,
		itemIDs:     s.ItemIDs,
		userBias:    s.UserBias,
		itemBias:    s.ItemBias,
		userFactors: s.UserFactors,
		itemFactors: s.ItemFactors,
		userIndex:   make(map[int64]int, len(s.UserIDs)),
		itemIndex:   make(map[int64]int, len(s.ItemIDs)),
	}
	for i, id := range s.UserIDs {
		m.userIndex[id] = i
	}
	for i, id := range s.ItemIDs {
		m.itemIndex[id] = i
	}
	return m, header, nil
}

// CheckCompatible verifies that a stored model was trained on the table
// described by tableHeader.
func CheckCompatible(path string, modelHeader, tableHeader storage.Header) error {
	if modelHeader.SourceGenerationID != tableHeader.GenerationID {
		return &IncompatibleModelError{
			Path: path,
			Reason: fmt.Sprintf("trained on table generation %q, loaded table is %q",
				modelHeader.SourceGenerationID, tableHeader.GenerationID),
		}
	}
	if modelHeader.SourceChecksum != tableHeader.Checksum {
		return &IncompatibleModelError{Path: path, Reason: "interaction table checksum differs from training data"}
	}
	return nil
}
