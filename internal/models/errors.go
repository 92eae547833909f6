package models

import (
	"errors"
	"fmt"
)

// StorageError reports an unavailable or failing cache or store backend
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SourceFetchError reports a failed request to the upstream scoreboard
type SourceFetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *SourceFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scoreboard fetch %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("scoreboard fetch %s returned status %d", e.URL, e.Status)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// NormalizationError reports a feed that could not be mapped onto scores
type NormalizationError struct {
	Stage string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %v", e.Stage, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// ExtractionError reports a pick email that could not be read
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("pick extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// MappingError reports a picked team that matches no game this week
type MappingError struct {
	Owner string
	Team  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("no game this week for team %q picked by %s", e.Team, e.Owner)
}

// IsIngestionFailure reports whether err should reject a whole pick message
func IsIngestionFailure(err error) bool {
	var extraction *ExtractionError
	var mapping *MappingError
	return errors.As(err, &extraction) || errors.As(err, &mapping)
}
