package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for orchestrator operations.
var (
	ErrNotIndexed  = errors.New("documents not indexed")
	ErrIngestion   = errors.New("ingestion failed")
	ErrGeneration  = errors.New("generation failed")
	ErrStore       = errors.New("store operation failed")
	ErrInvalidSpec = errors.New("invalid pipeline spec")
)

// StageError reports the pipeline stage whose generation call failed.
type StageError struct {
	StageID string
	Role    string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (%s): %v", e.StageID, e.Role, e.Err)
}

// Unwrap exposes both ErrGeneration and the underlying cause to errors.Is.
func (e *StageError) Unwrap() []error { return []error{ErrGeneration, e.Err} }

// FileError reports the source file that could not be ingested.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() []error { return []error{ErrIngestion, e.Err} }
