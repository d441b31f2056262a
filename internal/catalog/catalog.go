package catalog

import (
	"fmt"
	"strings"

	"biryani-club/internal/models"
)

// Section is a menu heading with its items in display order.
type Section struct {
	Name  string            `json:"name"`
	Items []models.MenuItem `json:"items"`
}

// Catalog is an immutable, name-indexed menu.
type Catalog struct {
	sections []Section
	byName   map[string]models.MenuItem
}

// New indexes sections. Duplicate names and negative prices are rejected.
func New(sections []Section) (*Catalog, error) {
	c := &Catalog{
		sections: make([]Section, 0, len(sections)),
		byName:   make(map[string]models.MenuItem),
	}

	for _, s := range sections {
		items := make([]models.MenuItem, 0, len(s.Items))
		for _, item := range s.Items {
			if item.Name == "" {
				return nil, fmt.Errorf("section %s: item without name", s.Name)
			}
			if item.Price < 0 {
				return nil, fmt.Errorf("item %s: negative price", item.Name)
			}
			if _, dup := c.byName[item.Name]; dup {
				return nil, fmt.Errorf("duplicate menu item %s", item.Name)
			}
			item.Section = s.Name
			c.byName[item.Name] = item
			items = append(items, item)
		}
		c.sections = append(c.sections, Section{Name: s.Name, Items: items})
	}

	return c, nil
}

// Default returns the restaurant's menu.
func Default() *Catalog {
	c, err := New(defaultMenu)
	if err != nil {
		panic(err)
	}
	return c
}

// LookupItem finds an item by exact name, falling back to a
// case-insensitive match.
func (c *Catalog) LookupItem(name string) (models.MenuItem, error) {
	if item, ok := c.byName[name]; ok {
		return item, nil
	}
	for key, item := range c.byName {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			return item, nil
		}
	}
	return models.MenuItem{}, fmt.Errorf("%w: %s", models.ErrItemNotFound, name)
}

// Sections returns the menu in display order.
func (c *Catalog) Sections() []Section {
	out := make([]Section, len(c.sections))
	for i, s := range c.sections {
		out[i] = Section{Name: s.Name, Items: append([]models.MenuItem(nil), s.Items...)}
	}
	return out
}
