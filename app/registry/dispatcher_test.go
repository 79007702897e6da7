package registry

import (
	"testing"

	"github.com/lysyi3m/page-comb/app/catalog"
	"github.com/lysyi3m/page-comb/app/plugin"
)

type staticCatalogs struct {
	parsers   *Catalog[*plugin.Parser]
	templates *Catalog[*plugin.Template]
}

func (s *staticCatalogs) Parsers() *Catalog[*plugin.Parser]     { return s.parsers }
func (s *staticCatalogs) Templates() *Catalog[*plugin.Template] { return s.templates }

func mustParser(t *testing.T, f fakeFile) *plugin.Parser {
	t.Helper()
	p, err := plugin.NewFactory().MakeParser(&catalog.File{Name: f.name, Text: f.text, Link: f.name})
	if err != nil {
		t.Fatalf("Failed to build parser %s: %v", f.name, err)
	}
	return p
}

func mustTemplate(t *testing.T, f fakeFile) *plugin.Template {
	t.Helper()
	tmpl, err := plugin.NewFactory().MakeTemplate(&catalog.File{Name: f.name, Text: f.text, Link: f.name})
	if err != nil {
		t.Fatalf("Failed to build template %s: %v", f.name, err)
	}
	return tmpl
}

func TestDispatcherFindParser(t *testing.T) {
	catalogs := &staticCatalogs{
		parsers: NewCatalog([]*plugin.Parser{
			mustParser(t, parserFile("Broad", `^https://example\.com/`)),
			mustParser(t, parserFile("Narrow", `^https://example\.com/page`)),
			mustParser(t, parserFile("Other", `^https://other\.org/`)),
		}),
		templates: NewCatalog[*plugin.Template](nil),
	}
	d := NewDispatcher(catalogs)

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"first match wins", "https://example.com/page/1", "Broad"},
		{"single match", "https://other.org/x", "Other"},
		{"no match", "https://nowhere.net/", ""},
		{"empty url", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser, ok := d.FindParser(tt.url)
			if tt.expected == "" {
				if ok {
					t.Errorf("Expected no parser, got %s", parser.Name())
				}
				return
			}
			if !ok {
				t.Fatalf("Expected parser %s, got none", tt.expected)
			}
			if parser.Name() != tt.expected {
				t.Errorf("Expected parser %s, got %s", tt.expected, parser.Name())
			}
		})
	}
}

func TestDispatcherFindTemplate(t *testing.T) {
	catalogs := &staticCatalogs{
		parsers:   NewCatalog[*plugin.Parser](nil),
		templates: NewCatalog([]*plugin.Template{mustTemplate(t, templateFile("Compact"))}),
	}
	d := NewDispatcher(catalogs)

	if _, ok := d.FindTemplate("Compact"); !ok {
		t.Error("Expected Compact template")
	}
	if _, ok := d.FindTemplate("compact"); ok {
		t.Error("Expected template lookup to be case sensitive")
	}
	if _, ok := d.FindTemplate("unknown"); ok {
		t.Error("Expected unknown template to be missing")
	}
}

func TestDispatcherSeesLatestState(t *testing.T) {
	source := newFakeSource()
	source.set("parsers", parserFile("Alpha", `^https://alpha\.example/`))
	r := newTestRegistry(source, nil)
	d := NewDispatcher(r)

	if _, ok := d.FindParser("https://alpha.example/"); ok {
		t.Error("Expected no parser before refresh")
	}

	if err := r.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.FindParser("https://alpha.example/"); !ok {
		t.Error("Expected parser after refresh")
	}
}
