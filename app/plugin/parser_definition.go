package plugin

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

type ParserType string

const (
	ParserTypeHTML    ParserType = "html"
	ParserTypeFeed    ParserType = "feed"
	ParserTypeArticle ParserType = "article"
)

type ParserDefinition struct {
	Name     string                      `yaml:"name"`
	Match    patternList                 `yaml:"match"`
	Redirect *RedirectDefinition         `yaml:"redirect"`
	Type     ParserType                  `yaml:"type"`
	Fields   map[string]*FieldDefinition `yaml:"fields"`
}

// RedirectDefinition rewrites a matched URL before it is fetched.
type RedirectDefinition struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

type FieldDefinition struct {
	Selector string                      `yaml:"selector"`
	Attr     string                      `yaml:"attr"`
	HTML     bool                        `yaml:"html"`
	All      bool                        `yaml:"all"`
	Absolute bool                        `yaml:"absolute"`
	Fields   map[string]*FieldDefinition `yaml:"fields"`

	matcher cascadia.Selector
}

// UnmarshalYAML accepts either a bare selector string or a full mapping.
func (f *FieldDefinition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Selector = node.Value
		return nil
	}

	type plain FieldDefinition
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*f = FieldDefinition(decoded)
	return nil
}

func (f *FieldDefinition) compile(path string) error {
	if f == nil {
		return fmt.Errorf("field %s is empty", path)
	}
	if f.Selector == "" {
		return fmt.Errorf("field %s: selector is required", path)
	}

	matcher, err := cascadia.Compile(f.Selector)
	if err != nil {
		return fmt.Errorf("field %s: invalid selector %q: %w", path, f.Selector, err)
	}
	f.matcher = matcher

	if len(f.Fields) > 0 && (f.Attr != "" || f.HTML) {
		return fmt.Errorf("field %s: nested fields cannot be combined with attr or html", path)
	}

	for name, child := range f.Fields {
		if err := child.compile(path + "." + name); err != nil {
			return err
		}
	}
	return nil
}

// patternList decodes a single pattern or a list of patterns.
type patternList []string

func (p *patternList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = patternList{node.Value}
		return nil
	case yaml.SequenceNode:
		var patterns []string
		if err := node.Decode(&patterns); err != nil {
			return err
		}
		*p = patterns
		return nil
	default:
		return fmt.Errorf("match must be a string or a list of strings")
	}
}
