package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that no card matches a normalized name.
	ErrNotFound = errors.New("card not found")
	// ErrCorpusInconsistency signals that the card library and the fitted
	// artifacts do not belong to the same build.
	ErrCorpusInconsistency = errors.New("corpus inconsistency")
	// ErrMalformedRecord signals a card record missing a required field.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrEmptyCorpus signals that there is nothing to fit.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrArtifactsMissing signals that no complete artifact set is stored.
	ErrArtifactsMissing = errors.New("artifacts missing")
)

// LookupError wraps ErrNotFound with the name that was looked up.
type LookupError struct {
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNotFound.Error(), e.Name)
}

func (e *LookupError) Unwrap() error { return ErrNotFound }

// MalformedRecordError wraps ErrMalformedRecord with the offending position.
type MalformedRecordError struct {
	Index int
	Field string
}

func (e *MalformedRecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: missing %s", ErrMalformedRecord.Error(), e.Field)
	}
	return fmt.Sprintf("%s: record %d missing %s", ErrMalformedRecord.Error(), e.Index, e.Field)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// NewCorpusInconsistency creates a corpus inconsistency error with details.
func NewCorpusInconsistency(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorpusInconsistency, fmt.Sprintf(format, args...))
}
