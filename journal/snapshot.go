package journal

import (
	"encoding/json"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrInvalidSnapshotJSON is returned when snapshot JSON data is malformed or invalid.
	ErrInvalidSnapshotJSON = errors.New("snapshot json is not valid")

	// ErrEmptyProjectionType is returned when an empty projection type is provided.
	ErrEmptyProjectionType = errors.New("projection type must not be empty")

	// ErrEmptySelectorHash is returned when an empty selector hash is provided.
	ErrEmptySelectorHash = errors.New("selector hash must not be empty")

	// ErrSavingSnapshotFailed is returned when the snapshot save operation fails.
	ErrSavingSnapshotFailed = errors.New("saving snapshot failed")

	// ErrLoadingSnapshotFailed is returned when the snapshot load operation fails.
	ErrLoadingSnapshotFailed = errors.New("loading snapshot failed")

	// ErrDeletingSnapshotFailed is returned when the snapshot delete operation fails.
	ErrDeletingSnapshotFailed = errors.New("deleting snapshot failed")
)

// Snapshot represents a stored projection state with metadata for incremental
// updates. It contains the serialized projection data along with the sequence
// number of the last processed entry, so handlers can resume projecting from
// there with an AfterSequence read.
type Snapshot struct {
	ProjectionType string          // type of projection (e.g. "CatalogSearch")
	SelectorHash   string          // hash of the selector used to create this snapshot
	SequenceNumber SequenceNumber  // last processed entry sequence number
	Data           json.RawMessage // serialized projection state as JSON
	TakenAt        time.Time       // when this snapshot was created/updated
}

// Validate ensures the snapshot has valid data for storage operations.
func (s Snapshot) Validate() error {
	if s.ProjectionType == "" {
		return ErrEmptyProjectionType
	}

	if s.SelectorHash == "" {
		return ErrEmptySelectorHash
	}

	if !jsoniter.ConfigFastest.Valid(s.Data) {
		return ErrInvalidSnapshotJSON
	}

	return nil
}

// BuildSnapshot creates a new Snapshot with validation.
func BuildSnapshot(
	projectionType string,
	selectorHash string,
	sequenceNumber SequenceNumber,
	data json.RawMessage,
) (Snapshot, error) {
	snapshot := Snapshot{
		ProjectionType: projectionType,
		SelectorHash:   selectorHash,
		SequenceNumber: sequenceNumber,
		Data:           data,
		TakenAt:        time.Now(),
	}

	if err := snapshot.Validate(); err != nil {
		return Snapshot{}, err
	}

	return snapshot, nil
}
