package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out "prefix-N" identifiers in order, starting at 1.
type IDGenerator struct {
	prefix string
	issued atomic.Uint64
}

// NewIDGenerator returns a generator for prefix, defaulting to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next issues the next identifier.
func (g *IDGenerator) Next() string {
	return g.format(g.issued.Add(1))
}

// NextFunc returns Next for injection as a manager id generator.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Upcoming returns the next n identifiers without issuing them, so tests can
// name the ids a manager is about to assign.
func (g *IDGenerator) Upcoming(n int) []string {
	issued := g.issued.Load()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, g.format(issued+uint64(i)))
	}
	return ids
}

// Issued reports how many identifiers have been handed out.
func (g *IDGenerator) Issued() int {
	return int(g.issued.Load())
}

func (g *IDGenerator) format(n uint64) string {
	return fmt.Sprintf("%s-%d", g.prefix, n)
}
