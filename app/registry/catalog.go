package registry

// Entry is anything that can be stored in a Catalog.
type Entry interface {
	Name() string
	Link() string
}

// Catalog is an immutable, insertion-ordered name to entry mapping.
type Catalog[T Entry] struct {
	order   []string
	entries map[string]T
}

// NewCatalog builds a catalog from entries in order. A repeated name
// replaces the earlier entry but keeps its position.
func NewCatalog[T Entry](entries []T) *Catalog[T] {
	c := &Catalog[T]{
		order:   make([]string, 0, len(entries)),
		entries: make(map[string]T, len(entries)),
	}
	for _, entry := range entries {
		name := entry.Name()
		if _, exists := c.entries[name]; !exists {
			c.order = append(c.order, name)
		}
		c.entries[name] = entry
	}
	return c
}

func (c *Catalog[T]) Get(name string) (T, bool) {
	entry, ok := c.entries[name]
	return entry, ok
}

// Values returns the entries in catalog order.
func (c *Catalog[T]) Values() []T {
	values := make([]T, 0, len(c.order))
	for _, name := range c.order {
		values = append(values, c.entries[name])
	}
	return values
}

func (c *Catalog[T]) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

func (c *Catalog[T]) Len() int {
	return len(c.order)
}
