package plugin

import (
	"fmt"
	"strings"
)

// Tree is the raw result of an extraction. Values are scalars, []any
// sequences or map[string]any mappings, nested arbitrarily.
type Tree map[string]any

// Sequence is a normalized ordered value. In scalar position it renders as
// its elements joined by a single space; range and index see the elements.
type Sequence []any

func (s Sequence) String() string {
	parts := make([]string, 0, len(s))
	for _, v := range s {
		if v == nil {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " ")
}

// Mapping is a normalized nested object.
type Mapping map[string]any

// TokenContext is what a template is executed with.
type TokenContext map[string]any

const (
	BaseURLToken = "BASE_URL"
	FullURLToken = "FULL_URL"
)

// PassThroughTemplateName is the built-in template that serves the fetched
// page unchanged. Catalog templates may not use it.
const PassThroughTemplateName = "Original look"
