package table

import "errors"

var (
	// ErrInvalidInput marks requests that cannot be served with the given arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoData is wrapped by RecoveryError when text yields no header plus data row.
	ErrNoData = errors.New("no valid data found")
	// ErrEmptyCSV indicates a CSV stream without a header row.
	ErrEmptyCSV = errors.New("empty csv")
)

// RecoveryError reports that freeform text could not be turned into a table.
type RecoveryError struct {
	Lines int // surviving lines after cleanup
}

func (e *RecoveryError) Error() string { return ErrNoData.Error() }

func (e *RecoveryError) Unwrap() error { return ErrNoData }
