package routetable

import (
	"sync"

	"github.com/starford/navkit/internal/route"
)

// Source builds descriptor factories titled from the most recently loaded
// table. Its Factory method is a chain.FactorySource.
type Source struct {
	mu     sync.RWMutex
	titles map[string]string
}

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{titles: make(map[string]string)}
}

// Update replaces the titles with those of t.
func (s *Source) Update(t *Table) {
	titles := t.Titles()
	s.mu.Lock()
	s.titles = titles
	s.mu.Unlock()
}

// Factory returns the backend b factory for key.
func (s *Source) Factory(b route.Backend, key route.Key) route.Factory {
	s.mu.RLock()
	title := s.titles[key.Name]
	s.mu.RUnlock()
	return route.DescriptorFactory(b, title)
}
