package render

import "fmt"

const (
	KindTemplate = "template"
	KindParser   = "parser"
)

// NotFoundError means the request named a template that does not exist or a
// URL that no parser matches.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Kind == KindParser {
		return fmt.Sprintf("no parser matches URL %s", e.Name)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}
