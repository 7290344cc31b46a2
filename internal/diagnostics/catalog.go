package diagnostics

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	json "github.com/segmentio/encoding/json"

	"github.com/elidunn/devicecore-mcp/internal/patterns"
)

// CatalogEntry is one recommendation template keyed by pattern type. Every
// name in RequiredVars must be present and non-empty in the variables
// passed to Bind, or the recommendation is dropped rather than rendered
// with a blank.
type CatalogEntry struct {
	Template     string   `json:"template"`
	RequiredVars []string `json:"requiredVars"`
}

type catalogFile struct {
	Version string                         `json:"version"`
	Entries map[patterns.Type]CatalogEntry `json:"entries"`
}

// Catalog is the loaded, parsed set of recommendation templates.
type Catalog struct {
	version  string
	entries  map[patterns.Type]CatalogEntry
	compiled map[patterns.Type]*template.Template
}

// LoadCatalog reads and parses the recommendation catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recommendation catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding recommendation catalog: %w", err)
	}

	c := &Catalog{version: file.Version, entries: file.Entries, compiled: make(map[patterns.Type]*template.Template, len(file.Entries))}
	for t, entry := range file.Entries {
		tmpl, err := template.New(string(t)).Parse(entry.Template)
		if err != nil {
			return nil, fmt.Errorf("parsing recommendation template for %s: %w", t, err)
		}
		c.compiled[t] = tmpl
	}
	return c, nil
}

// Bind renders the recommendation for patternType using vars. It returns
// false if the catalog has no entry for patternType, or if any of the
// entry's required variables is missing or blank in vars.
func (c *Catalog) Bind(patternType patterns.Type, vars map[string]string) (string, bool) {
	entry, ok := c.entries[patternType]
	if !ok {
		return "", false
	}
	for _, name := range entry.RequiredVars {
		if v, present := vars[name]; !present || v == "" {
			return "", false
		}
	}

	tmpl := c.compiled[patternType]
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", false
	}
	return buf.String(), true
}
