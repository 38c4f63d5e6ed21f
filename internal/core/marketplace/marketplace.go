package marketplace

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Marketplace is one entitled marketplace the engine may aggregate over.
type Marketplace struct {
	ID              string `yaml:"id"`
	CountryCode     string `yaml:"country_code"`
	DefaultCurrency string `yaml:"default_currency"`
}

// Catalog is the set of recognized marketplaces, loaded once at startup.
// Facts outside this set are dropped by the aggregator; queries naming no
// recognized marketplace fail validation.
type Catalog struct {
	byID map[string]Marketplace
}

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Marketplaces []Marketplace `yaml:"marketplaces"`
}

// LoadCatalog reads and validates the marketplace catalog file.
// Returns an error for a malformed file, a missing id, or a duplicate id.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading marketplace catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing marketplace catalog %s: %w", path, err)
	}
	if len(file.Marketplaces) == 0 {
		return nil, fmt.Errorf("marketplace catalog %s declares no marketplaces", path)
	}

	byID := make(map[string]Marketplace, len(file.Marketplaces))
	for _, m := range file.Marketplaces {
		if m.ID == "" {
			return nil, fmt.Errorf("marketplace catalog %s: entry with empty id", path)
		}
		if _, exists := byID[m.ID]; exists {
			return nil, fmt.Errorf("marketplace catalog %s: duplicate marketplace id %q", path, m.ID)
		}
		byID[m.ID] = m
	}
	return &Catalog{byID: byID}, nil
}

// NewCatalog builds a catalog from explicit entries. Used by tests and by
// callers that source the marketplace set elsewhere.
func NewCatalog(marketplaces ...Marketplace) *Catalog {
	byID := make(map[string]Marketplace, len(marketplaces))
	for _, m := range marketplaces {
		byID[m.ID] = m
	}
	return &Catalog{byID: byID}
}

// Known reports whether id names a recognized marketplace.
func (c *Catalog) Known(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Get returns the marketplace with the given id.
func (c *Catalog) Get(id string) (Marketplace, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// IDs returns all recognized marketplace ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FilterKnown splits the requested ids into recognized and unrecognized.
// Order of the input is preserved in both outputs.
func (c *Catalog) FilterKnown(requested []string) (known, unknown []string) {
	for _, id := range requested {
		if c.Known(id) {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}
