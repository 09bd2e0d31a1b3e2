// Package pipeline applies processing steps to reference/query pairs and
// runs them on a worker pool.
package pipeline

import (
	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/sequence"
)

// Processor is one pipeline step.
type Processor interface {
	Name() string
	Process(pair sequence.Pair, messages *diag.List) (sequence.Pair, error)
}

// Order is the fixed order in which processors run, by name.
var Order = []string{"apply-frameshift", "trim-by-ref", "codon-alignment"}

// Sort orders processors by Order. Unknown names keep their relative
// position after the known ones.
func Sort(processors []Processor) []Processor {
	rank := func(p Processor) int {
		for i, name := range Order {
			if p.Name() == name {
				return i
			}
		}
		return len(Order)
	}
	out := make([]Processor, 0, len(processors))
	for r := 0; r <= len(Order); r++ {
		for _, p := range processors {
			if rank(p) == r {
				out = append(out, p)
			}
		}
	}
	return out
}
