package route

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/navkit/internal/apperr"
)

// Key identifies a navigable destination and its declared presentation.
// Lookups compare by Name only.
type Key struct {
	Name         string         `json:"key" yaml:"key" toml:"key"`
	Presentation NavigationType `json:"presentation" yaml:"presentation" toml:"presentation"`
}

// NewKey returns a Key, rejecting empty names and invalid presentations.
func NewKey(name string, presentation NavigationType) (Key, error) {
	if strings.TrimSpace(name) == "" {
		return Key{}, apperr.InvalidRouteKey(name)
	}
	if !presentation.Valid() {
		return Key{}, apperr.InvalidNavigationType(presentation.String())
	}
	return Key{Name: name, Presentation: presentation}, nil
}

// MustKey is NewKey for static route tables; it panics on invalid input.
func MustKey(name string, presentation NavigationType) Key {
	k, err := NewKey(name, presentation)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) String() string {
	return fmt.Sprintf("%s(%s)", k.Name, k.Presentation)
}

// Table is the set of route keys an application declares. It is validated
// eagerly: a name may appear once per presentation type, and declaring the
// same name with two different presentations is rejected.
type Table struct {
	keys map[string]Key
}

// NewTable builds a table from keys, failing on the first invalid entry.
func NewTable(keys ...Key) (*Table, error) {
	t := &Table{keys: make(map[string]Key, len(keys))}
	for _, k := range keys {
		if err := t.Add(k); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add declares k. Re-adding an identical key is a no-op.
func (t *Table) Add(k Key) error {
	if _, err := NewKey(k.Name, k.Presentation); err != nil {
		return err
	}
	if existing, ok := t.keys[k.Name]; ok {
		if existing.Presentation != k.Presentation {
			return &apperr.Error{
				Kind:    apperr.KindInvalidRouteKey,
				Subject: k.Name,
				Reason:  fmt.Sprintf("declared as %s and %s", existing.Presentation, k.Presentation),
			}
		}
		return nil
	}
	t.keys[k.Name] = k
	return nil
}

// Lookup returns the declared key for name.
func (t *Table) Lookup(name string) (Key, bool) {
	k, ok := t.keys[name]
	return k, ok
}

// Len returns the number of declared keys.
func (t *Table) Len() int {
	return len(t.keys)
}

// Keys returns the declared keys sorted by name.
func (t *Table) Keys() []Key {
	out := make([]Key, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
