package scraper

import (
	"errors"
	"fmt"
)

// ErrNavigation indicates a page could not be reached after every attempt.
// It is fatal for the target that needed the page, never for the run.
type ErrNavigation struct {
	URL      string
	Attempts int
	Err      error
}

func (e ErrNavigation) Error() string {
	return fmt.Sprintf("navigation to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e ErrNavigation) Unwrap() error {
	return e.Err
}

// ErrQuery indicates a structured-extraction call failed. Kind names the
// query that failed: hotel_list, overall_stats, or reviews.
type ErrQuery struct {
	Kind string
	Err  error
}

func (e ErrQuery) Error() string {
	return fmt.Sprintf("%s query: %v", e.Kind, e.Err)
}

func (e ErrQuery) Unwrap() error {
	return e.Err
}

// ErrCheckpoint indicates a batch could not be persisted.
type ErrCheckpoint struct {
	Path string
	Err  error
}

func (e ErrCheckpoint) Error() string {
	return fmt.Sprintf("checkpoint to %s: %v", e.Path, e.Err)
}

func (e ErrCheckpoint) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var navigation ErrNavigation
	if errors.As(err, &navigation) {
		return "navigation"
	}
	var query ErrQuery
	if errors.As(err, &query) {
		return "query"
	}
	var checkpoint ErrCheckpoint
	if errors.As(err, &checkpoint) {
		return "checkpoint"
	}
	return "other"
}
