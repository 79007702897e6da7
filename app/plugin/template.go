package plugin

import (
	"bytes"
	"cmp"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"gopkg.in/yaml.v3"
)

type TemplateEngine string

const (
	EngineHTML TemplateEngine = "html"
	EngineText TemplateEngine = "text"
)

const frontMatterDelimiter = "---"

type TemplateFrontMatter struct {
	Name        string         `yaml:"name"`
	Engine      TemplateEngine `yaml:"engine"`
	ContentType string         `yaml:"content_type"`
}

// executor is the compiled artifact of a template body.
type executor interface {
	Execute(w io.Writer, data any) error
}

// Template is a catalog entry holding a template compiled once at
// population time.
type Template struct {
	name        string
	link        string
	local       bool
	engine      TemplateEngine
	contentType string
	compiled    executor
}

func newTemplate(text, link string, local bool, services *Services) (*Template, error) {
	header, body, err := splitFrontMatter(text)
	if err != nil {
		return nil, &DefinitionError{Link: link, Err: err}
	}

	var frontMatter TemplateFrontMatter
	if err := yaml.Unmarshal([]byte(header), &frontMatter); err != nil {
		return nil, definitionError(link, "failed to parse front matter: %w", err)
	}

	name := strings.TrimSpace(frontMatter.Name)
	if name == "" {
		return nil, definitionError(link, "template name is required")
	}

	engine := cmp.Or(frontMatter.Engine, EngineHTML)

	var compiled executor
	switch engine {
	case EngineHTML:
		compiled, err = htmltemplate.New(name).
			Option("missingkey=zero").
			Funcs(htmltemplate.FuncMap(services.templateFuncs(engine))).
			Parse(body)
	case EngineText:
		compiled, err = texttemplate.New(name).
			Option("missingkey=zero").
			Funcs(texttemplate.FuncMap(services.templateFuncs(engine))).
			Parse(body)
	default:
		return nil, definitionError(link, "unknown template engine %q", engine)
	}
	if err != nil {
		return nil, definitionError(link, "failed to compile template: %w", err)
	}

	return &Template{
		name:        name,
		link:        link,
		local:       local,
		engine:      engine,
		contentType: strings.TrimSpace(frontMatter.ContentType),
		compiled:    compiled,
	}, nil
}

func (t *Template) Name() string {
	return t.name
}

func (t *Template) Link() string {
	return t.link
}

func (t *Template) Local() bool {
	return t.local
}

// ContentType is the response content type declared by the template, or ""
// when the service default applies.
func (t *Template) ContentType() string {
	return t.contentType
}

func (t *Template) Render(tokens TokenContext) (string, error) {
	var buf bytes.Buffer
	if err := t.compiled.Execute(&buf, tokens); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.name, err)
	}
	return buf.String(), nil
}

func splitFrontMatter(text string) (string, string, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if !strings.HasPrefix(text, frontMatterDelimiter+"\n") {
		return "", "", fmt.Errorf("missing front matter")
	}

	rest := text[len(frontMatterDelimiter)+1:]
	if strings.HasPrefix(rest, frontMatterDelimiter+"\n") || rest == frontMatterDelimiter {
		return "", strings.TrimPrefix(rest, frontMatterDelimiter+"\n"), nil
	}

	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		return "", "", fmt.Errorf("unterminated front matter")
	}

	header := rest[:end]
	body := rest[end+len(frontMatterDelimiter)+1:]
	body = strings.TrimPrefix(body, "\n")

	return header, body, nil
}
