package plugin

import "github.com/lysyi3m/page-comb/app/catalog"

// Factory turns fetched catalog files into parser and template entries.
type Factory struct {
	services *Services
}

func NewFactory() *Factory {
	return &Factory{services: newServices()}
}

func (f *Factory) MakeParser(file *catalog.File) (*Parser, error) {
	return newParser(file.Text, file.Link, file.Local, f.services)
}

func (f *Factory) MakeTemplate(file *catalog.File) (*Template, error) {
	return newTemplate(file.Text, file.Link, file.Local, f.services)
}
