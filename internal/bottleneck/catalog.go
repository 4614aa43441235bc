// Package bottleneck resolves component names against a benchmark reference
// table and decides which part of a CPU/GPU/RAM build limits the others.
//
// Everything here is synchronous and side-effect free apart from logging.
// A *Catalog is immutable once loaded and may be shared by any number of
// goroutines without locking.
package bottleneck

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"rigcheck/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed data/benchmarks.yaml
var embeddedTable []byte

type catalogFile struct {
	CPU []models.CatalogEntry `yaml:"cpu"`
	GPU []models.CatalogEntry `yaml:"gpu"`
	RAM []models.CatalogEntry `yaml:"ram"`
}

// indexedEntry pairs a catalog row with its precomputed match keys
type indexedEntry struct {
	entry     models.CatalogEntry
	key       string
	aliasKeys []string
}

// Catalog is the benchmark reference table
type Catalog struct {
	byKind map[models.ComponentKind][]indexedEntry
	byID   map[string]models.CatalogEntry
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the table compiled into the binary. It is parsed once per process.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = ParseCatalog(embeddedTable)
	})
	return defaultCatalog, defaultErr
}

// LoadCatalogFile reads a reference table from disk. An empty path yields the default table.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a YAML reference table
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		byKind: make(map[models.ComponentKind][]indexedEntry),
		byID:   make(map[string]models.CatalogEntry),
	}
	sections := map[models.ComponentKind][]models.CatalogEntry{
		models.KindCPU: file.CPU,
		models.KindGPU: file.GPU,
		models.KindRAM: file.RAM,
	}
	for _, kind := range models.Kinds {
		rows := sections[kind]
		if len(rows) == 0 {
			return nil, fmt.Errorf("catalog has no %s entries", kind)
		}
		for _, row := range rows {
			row.Kind = kind
			if row.ID == "" || row.Name == "" {
				return nil, fmt.Errorf("%s entry missing id or name: %+v", kind, row)
			}
			if row.Score <= 0 || row.Score > 100 {
				return nil, fmt.Errorf("%s entry %s: score %.2f outside (0,100]", kind, row.ID, row.Score)
			}
			if _, dup := c.byID[row.ID]; dup {
				return nil, fmt.Errorf("duplicate catalog id %s", row.ID)
			}
			c.byID[row.ID] = row

			ie := indexedEntry{entry: row, key: componentKey(row.Name)}
			for _, alias := range row.Aliases {
				if k := componentKey(alias); k != "" {
					ie.aliasKeys = append(ie.aliasKeys, k)
				}
			}
			c.byKind[kind] = append(c.byKind[kind], ie)
		}
	}
	return c, nil
}

// Entries returns a copy of the rows for one kind in table order
func (c *Catalog) Entries(kind models.ComponentKind) []models.CatalogEntry {
	rows := c.byKind[kind]
	out := make([]models.CatalogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry)
	}
	return out
}

// Len is the total number of rows across kinds
func (c *Catalog) Len() int {
	return len(c.byID)
}

// Entry returns the row for a canonical id
func (c *Catalog) Entry(canonicalID string) (models.CatalogEntry, bool) {
	e, ok := c.byID[canonicalID]
	return e, ok
}

// Lookup returns the benchmark score of a canonical id.
// Ids only come out of Normalize, so a miss means the table is corrupt and Lookup panics.
func (c *Catalog) Lookup(canonicalID string) float64 {
	e, ok := c.byID[canonicalID]
	if !ok {
		panic(fmt.Sprintf("bottleneck: invariant violation: canonical id %q has no benchmark entry", canonicalID))
	}
	return e.Score
}

// Canonical builds the CanonicalComponent for an id, panicking like Lookup on a miss
func (c *Catalog) Canonical(canonicalID string) models.CanonicalComponent {
	score := c.Lookup(canonicalID)
	e := c.byID[canonicalID]
	return models.CanonicalComponent{
		Kind:           e.Kind,
		CanonicalID:    e.ID,
		Name:           e.Name,
		BenchmarkScore: score,
	}
}
