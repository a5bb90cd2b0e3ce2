package reconcile

import (
	"errors"
	"fmt"

	"github.com/gudang-app/gudang/internal/platform/httpx"
)

var (
	// ErrEmptySource is returned when a source yields zero records. The grid is left unchanged.
	ErrEmptySource = fmt.Errorf("reconcile: source has no records: %w", httpx.ErrValidation)
	// ErrExtractionParse is returned when the extraction response is not structured data,
	// even after the lenient strip-and-reparse attempt.
	ErrExtractionParse = fmt.Errorf("reconcile: extraction response is not structured data: %w", httpx.ErrUnprocessable)
	// ErrPersistence wraps catalog write failures during confirmation. No merge happens.
	ErrPersistence = errors.New("reconcile: catalog persistence failed")
	// ErrInvalidTransition is returned when an operation is not allowed in the import's current state.
	ErrInvalidTransition = errors.New("reconcile: invalid import state transition")
	// ErrPendingNotFound is returned when a pending import id is unknown.
	ErrPendingNotFound = fmt.Errorf("reconcile: pending import not found: %w", httpx.ErrNotFound)
)
