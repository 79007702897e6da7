package plugin

import (
	"cmp"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Parser is a catalog entry. It decides whether it applies to a URL and
// produces page-bound PageParsers; it never holds a document itself.
type Parser struct {
	name       string
	link       string
	local      bool
	definition ParserDefinition
	matchers   []*regexp.Regexp
	redirect   *regexp.Regexp
	services   *Services
}

func newParser(text, link string, local bool, services *Services) (*Parser, error) {
	var definition ParserDefinition
	if err := yaml.Unmarshal([]byte(text), &definition); err != nil {
		return nil, definitionError(link, "failed to parse YAML: %w", err)
	}

	definition.Name = strings.TrimSpace(definition.Name)
	if definition.Name == "" {
		return nil, definitionError(link, "parser name is required")
	}
	if len(definition.Match) == 0 {
		return nil, definitionError(link, "at least one match pattern is required")
	}

	definition.Type = cmp.Or(definition.Type, ParserTypeHTML)
	switch definition.Type {
	case ParserTypeHTML, ParserTypeArticle:
	case ParserTypeFeed:
		if len(definition.Fields) > 0 {
			return nil, definitionError(link, "feed parsers do not support fields")
		}
	default:
		return nil, definitionError(link, "unknown parser type %q", definition.Type)
	}

	if definition.Type == ParserTypeHTML && len(definition.Fields) == 0 {
		return nil, definitionError(link, "html parsers need at least one field")
	}

	p := &Parser{
		name:       definition.Name,
		link:       link,
		local:      local,
		definition: definition,
		services:   services,
	}

	for _, pattern := range definition.Match {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, definitionError(link, "invalid match pattern %q: %w", pattern, err)
		}
		p.matchers = append(p.matchers, re)
	}

	if definition.Redirect != nil {
		re, err := regexp.Compile(definition.Redirect.Pattern)
		if err != nil || definition.Redirect.Pattern == "" {
			return nil, definitionError(link, "invalid redirect pattern %q", definition.Redirect.Pattern)
		}
		p.redirect = re
	}

	for name, field := range definition.Fields {
		if err := field.compile(name); err != nil {
			return nil, &DefinitionError{Link: link, Err: err}
		}
	}

	return p, nil
}

func (p *Parser) Name() string {
	return p.name
}

func (p *Parser) Link() string {
	return p.link
}

func (p *Parser) Local() bool {
	return p.local
}

func (p *Parser) Type() ParserType {
	return p.definition.Type
}

func (p *Parser) Matches(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	for _, re := range p.matchers {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// RedirectURL returns the rewritten target for rawURL, or "" when the
// parser has no redirect or the URL does not match it.
func (p *Parser) RedirectURL(rawURL string) string {
	if p.redirect == nil || !p.redirect.MatchString(rawURL) {
		return ""
	}
	return p.redirect.ReplaceAllString(rawURL, p.definition.Redirect.Replace)
}

// ForPage binds the parser to one fetched page.
func (p *Parser) ForPage(pageURL, text string) (*PageParser, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}

	pp := &PageParser{
		parser: p,
		base:   base,
		text:   text,
	}

	if p.definition.Type != ParserTypeFeed {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", pageURL, err)
		}
		pp.doc = doc
	}

	return pp, nil
}
