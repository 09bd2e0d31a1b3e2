package fasta

import (
	"fmt"

	"github.com/inodb/postalign/internal/sequence"
)

// LoadMSA splits an aligned FASTA file into pairs of the reference record
// and every other record. The reference is the record whose header equals
// reference, or the first record when reference is empty.
func LoadMSA(path, reference string, opts Options) ([]sequence.Pair, error) {
	seqs, err := Load(path, opts)
	if err != nil {
		return nil, err
	}
	return PairMSA(seqs, reference)
}

// PairMSA pairs loaded MSA records with their reference.
func PairMSA(seqs []*sequence.Sequence, reference string) ([]sequence.Pair, error) {
	if len(seqs) == 0 {
		return nil, nil
	}
	ref := seqs[0]
	if reference != "" {
		ref = nil
		for _, s := range seqs {
			if s.Header == reference {
				ref = s
				break
			}
		}
		if ref == nil {
			return nil, fmt.Errorf("unable to locate reference %q", reference)
		}
	}

	pairs := make([]sequence.Pair, 0, len(seqs)-1)
	for _, s := range seqs {
		if s == ref {
			continue
		}
		if s.Len() != ref.Len() {
			return nil, fmt.Errorf("sequence %q has %d columns, reference %q has %d",
				s.Header, s.Len(), ref.Header, ref.Len())
		}
		pairs = append(pairs, sequence.Pair{Ref: ref, Query: s})
	}
	return pairs, nil
}
