package pipeline

import (
	"github.com/inodb/postalign/internal/codonalign"
	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/sequence"
)

// CodonAlignment runs the codon aligner on every pair.
type CodonAlignment struct {
	Aligner *codonalign.Aligner
}

// NewCodonAlignment validates opts and builds the step.
func NewCodonAlignment(opts codonalign.Options) (*CodonAlignment, error) {
	a, err := codonalign.NewAligner(opts)
	if err != nil {
		return nil, err
	}
	return &CodonAlignment{Aligner: a}, nil
}

// Name implements Processor.
func (*CodonAlignment) Name() string { return "codon-alignment" }

// Process implements Processor.
func (c *CodonAlignment) Process(pair sequence.Pair, _ *diag.List) (sequence.Pair, error) {
	return c.Aligner.Align(pair)
}
