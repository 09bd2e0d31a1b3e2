package pipeline

import (
	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/sequence"
)

// TrimByRef drops leading and trailing columns where the reference is a gap.
type TrimByRef struct{}

// Name implements Processor.
func (TrimByRef) Name() string { return "trim-by-ref" }

// Process implements Processor.
func (TrimByRef) Process(pair sequence.Pair, _ *diag.List) (sequence.Pair, error) {
	body := pair.Ref.Body
	first := body.FirstNongapIndex(0, body.Len())
	if first < 0 {
		// nothing to anchor on
		return pair, nil
	}
	last := body.LastNongapIndex(0, body.Len())
	if first == 0 && last == body.Len()-1 {
		return pair, nil
	}
	return sequence.Pair{
		Ref:   pair.Ref.Slice(first, last+1),
		Query: pair.Query.Slice(first, last+1),
	}, nil
}
