// Package routetable reads route declarations from YAML or TOML files and
// keeps them in sync with a running navigation service.
package routetable

import (
	"fmt"
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/navkit/internal/route"
	pkgconfig "github.com/starford/navkit/pkg/config"
)

var keyRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// Entry is one declared route.
type Entry struct {
	Key          string `yaml:"key" toml:"key"`
	Presentation string `yaml:"presentation" toml:"presentation"`
	Title        string `yaml:"title" toml:"title"`
}

// Validate validates the entry.
func (e *Entry) Validate() error {
	types := make([]interface{}, 0, len(route.AllTypes))
	for _, t := range route.AllTypes {
		types = append(types, t.String())
	}
	return validation.ValidateStruct(e,
		validation.Field(&e.Key, validation.Required, validation.Match(keyRe)),
		validation.Field(&e.Presentation, validation.Required, validation.In(types...)),
	)
}

// Document is the file layout.
type Document struct {
	Routes []Entry `yaml:"routes" toml:"routes"`
}

// Validate validates every entry and rejects conflicting declarations.
func (d *Document) Validate() error {
	for i := range d.Routes {
		if err := d.Routes[i].Validate(); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
	}
	return nil
}

// Table is a validated route table.
type Table struct {
	*route.Table
	titles map[string]string
}

// Title returns the display title declared for name.
func (t *Table) Title(name string) string {
	return t.titles[name]
}

// Titles returns a copy of all declared titles.
func (t *Table) Titles() map[string]string {
	out := make(map[string]string, len(t.titles))
	for k, v := range t.titles {
		out[k] = v
	}
	return out
}

// Parse decodes and validates a route table document.
func Parse(data []byte, format pkgconfig.Format) (*Table, error) {
	var doc Document
	if err := pkgconfig.Decode(data, format, &doc); err != nil {
		return nil, fmt.Errorf("routetable: decode: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("routetable: %w", err)
	}
	titles := make(map[string]string)
	keys := make([]route.Key, 0, len(doc.Routes))
	for _, e := range doc.Routes {
		nt, err := route.ParseNavigationType(e.Presentation)
		if err != nil {
			return nil, fmt.Errorf("routetable: %s: %w", e.Key, err)
		}
		keys = append(keys, route.Key{Name: e.Key, Presentation: nt})
		if e.Title != "" {
			titles[e.Key] = e.Title
		}
	}
	table, err := route.NewTable(keys...)
	if err != nil {
		return nil, fmt.Errorf("routetable: %w", err)
	}
	return &Table{Table: table, titles: titles}, nil
}

// Load reads the route table at path. The format follows the extension.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("routetable: read %s: %w", path, err)
	}
	return Parse(data, pkgconfig.FormatOf(path))
}
