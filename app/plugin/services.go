package plugin

import (
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"reflect"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// Services are the document and rendering helpers shared by every entity a
// Factory builds.
type Services struct {
	feedParser     func() *gofeed.Parser
	extractArticle func(text string, pageURL *url.URL) (readability.Article, error)
}

func newServices() *Services {
	return &Services{
		feedParser: gofeed.NewParser,
		extractArticle: func(text string, pageURL *url.URL) (readability.Article, error) {
			return readability.FromReader(strings.NewReader(text), pageURL)
		},
	}
}

func (s *Services) templateFuncs(engine TemplateEngine) map[string]any {
	funcs := map[string]any{
		"join":    joinValues,
		"first":   firstValue,
		"default": defaultValue,
		"safe":    fmt.Sprint,
	}
	if engine == EngineHTML {
		funcs["safe"] = func(v any) htmltemplate.HTML {
			return htmltemplate.HTML(fmt.Sprint(v))
		}
	}
	return funcs
}

func joinValues(sep string, v any) string {
	seq, ok := v.(Sequence)
	if !ok {
		return fmt.Sprint(v)
	}

	parts := make([]string, 0, len(seq))
	for _, item := range seq {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, sep)
}

func firstValue(v any) any {
	if seq, ok := v.(Sequence); ok {
		if len(seq) == 0 {
			return ""
		}
		return seq[0]
	}
	return v
}

func defaultValue(fallback, v any) any {
	if isEmpty(v) {
		return fallback
	}
	return v
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value) == ""
	case Sequence:
		return len(value) == 0 || strings.TrimSpace(value.String()) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	}
	return false
}
