package render

import (
	"fmt"
	"net/url"

	"github.com/lysyi3m/page-comb/app/plugin"
)

// Normalize converts an extracted tree into template-ready values: every
// slice becomes a plugin.Sequence and every map a plugin.Mapping, at any
// depth. The input is not modified.
func Normalize(tree plugin.Tree) plugin.Mapping {
	return normalizeMap(tree)
}

func normalizeMap(m map[string]any) plugin.Mapping {
	out := make(plugin.Mapping, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeSlice(s []any) plugin.Sequence {
	out := make(plugin.Sequence, len(s))
	for i, v := range s {
		out[i] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch value := v.(type) {
	case plugin.Sequence:
		return normalizeSlice(value)
	case []any:
		return normalizeSlice(value)
	case []string:
		out := make(plugin.Sequence, len(value))
		for i, s := range value {
			out[i] = s
		}
		return out
	case plugin.Mapping:
		return normalizeMap(value)
	case plugin.Tree:
		return normalizeMap(value)
	case map[string]any:
		return normalizeMap(value)
	default:
		return v
	}
}

// NewTokenContext injects BASE_URL and FULL_URL for the resolved URL.
func NewTokenContext(values plugin.Mapping, resolvedURL string) (plugin.TokenContext, error) {
	u, err := url.Parse(resolvedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid resolved URL %s: %w", resolvedURL, err)
	}

	tokens := make(plugin.TokenContext, len(values)+2)
	for k, v := range values {
		tokens[k] = v
	}
	tokens[plugin.BaseURLToken] = plugin.Sequence{u.Scheme + "://" + u.Host}
	tokens[plugin.FullURLToken] = plugin.Sequence{resolvedURL}

	return tokens, nil
}
