package registry

import (
	"fmt"
	"strings"
)

// EntryError is the failure of a single catalog file.
type EntryError struct {
	Kind string
	File string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.File, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// RefreshError aggregates every failure of one refresh attempt.
type RefreshError struct {
	Failures []error
}

func (e *RefreshError) Error() string {
	messages := make([]string, len(e.Failures))
	for i, failure := range e.Failures {
		messages[i] = failure.Error()
	}
	return fmt.Sprintf("refresh failed for %d entries: %s", len(e.Failures), strings.Join(messages, "; "))
}

func (e *RefreshError) Unwrap() []error {
	return e.Failures
}
