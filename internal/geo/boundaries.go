// Package geo loads the municipal neighborhood boundary GeoJSON. It is a
// collaborator boundary: the aggregation engine never touches geometry, the
// server just hands the document to the map layer and answers name lookups.
package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Property keys that carry the neighborhood name, in the variants seen
// across municipal GeoJSON releases.
var nameKeys = []string{"nome_bairr", "NM_BAIRRO", "nome", "name"}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type Boundaries struct {
	raw   []byte
	names map[string]bool
}

// Load reads and indexes a boundary GeoJSON file.
func Load(path string) (*Boundaries, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	return Parse(raw)
}

// Parse indexes an in-memory GeoJSON document by normalized neighborhood
// name. Features without a recognizable name property are kept in the raw
// document but not indexed.
func Parse(raw []byte) (*Boundaries, error) {
	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("parse geojson: unexpected type %q", fc.Type)
	}

	b := &Boundaries{raw: raw, names: make(map[string]bool)}
	for _, f := range fc.Features {
		for _, key := range nameKeys {
			if v, ok := f.Properties[key]; ok {
				if name, ok := v.(string); ok && name != "" {
					b.names[Normalize(name)] = true
					break
				}
			}
		}
	}
	return b, nil
}

// Raw returns the original GeoJSON document for the map layer.
func (b *Boundaries) Raw() []byte { return b.raw }

// Has reports whether a neighborhood has a boundary polygon.
func (b *Boundaries) Has(neighborhood string) bool {
	return b.names[Normalize(neighborhood)]
}

// Names returns the indexed neighborhood names, sorted.
func (b *Boundaries) Names() []string {
	names := make([]string, 0, len(b.names))
	for n := range b.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Normalize matches the record labels against GeoJSON properties the way
// the source data does: uppercase, surrounding whitespace stripped.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
