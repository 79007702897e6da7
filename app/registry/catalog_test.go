package registry

import (
	"slices"
	"testing"
)

type namedEntry struct {
	name string
	link string
}

func (e namedEntry) Name() string { return e.name }
func (e namedEntry) Link() string { return e.link }

func TestCatalogOrderAndDuplicates(t *testing.T) {
	c := NewCatalog([]namedEntry{
		{"b", "first-b"},
		{"a", "first-a"},
		{"b", "second-b"},
		{"c", "only-c"},
	})

	if got := c.Names(); !slices.Equal(got, []string{"b", "a", "c"}) {
		t.Errorf("Expected names [b a c], got %v", got)
	}
	if c.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", c.Len())
	}

	entry, ok := c.Get("b")
	if !ok || entry.Link() != "second-b" {
		t.Errorf("Expected last write to win for b, got %+v", entry)
	}

	values := c.Values()
	if values[0].Link() != "second-b" {
		t.Errorf("Expected replaced entry to keep first position, got %+v", values[0])
	}
}

func TestCatalogNamesIsACopy(t *testing.T) {
	c := NewCatalog([]namedEntry{{"a", ""}})
	names := c.Names()
	names[0] = "mutated"

	if _, ok := c.Get("a"); !ok || c.Names()[0] != "a" {
		t.Error("Expected catalog to be unaffected by caller mutation")
	}
}

func TestCatalogEmpty(t *testing.T) {
	c := NewCatalog[namedEntry](nil)
	if c.Len() != 0 || len(c.Values()) != 0 {
		t.Error("Expected empty catalog")
	}
	if _, ok := c.Get("anything"); ok {
		t.Error("Expected miss on empty catalog")
	}
}
