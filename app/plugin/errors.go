package plugin

import "fmt"

// DefinitionError reports a malformed parser or template definition.
type DefinitionError struct {
	Link string
	Err  error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition %s: %v", e.Link, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

func definitionError(link string, format string, args ...any) error {
	return &DefinitionError{Link: link, Err: fmt.Errorf(format, args...)}
}
