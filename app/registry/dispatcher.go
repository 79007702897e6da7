package registry

import "github.com/lysyi3m/page-comb/app/plugin"

type CatalogReader interface {
	Parsers() *Catalog[*plugin.Parser]
	Templates() *Catalog[*plugin.Template]
}

var _ CatalogReader = (*Registry)(nil)

// Dispatcher resolves request inputs against the current catalogs.
type Dispatcher struct {
	catalogs CatalogReader
}

func NewDispatcher(catalogs CatalogReader) *Dispatcher {
	return &Dispatcher{catalogs: catalogs}
}

// FindParser returns the first parser in catalog order that matches url.
func (d *Dispatcher) FindParser(url string) (*plugin.Parser, bool) {
	if url == "" {
		return nil, false
	}
	for _, parser := range d.catalogs.Parsers().Values() {
		if parser.Matches(url) {
			return parser, true
		}
	}
	return nil, false
}

func (d *Dispatcher) FindTemplate(name string) (*plugin.Template, bool) {
	return d.catalogs.Templates().Get(name)
}
