package fusion

import (
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/answerdex/internal/domain/search/fused"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// RRFFuser merges rankings by reciprocal rank, ignoring raw score
// magnitudes entirely.
type RRFFuser struct {
	cfg Config
}

// NewRRF creates a reciprocal-rank fuser.
func NewRRF(cfg Config) *RRFFuser {
	return &RRFFuser{cfg: cfg}
}

// Fuse merges the rankings: fused = Σ_src w_src / (rrfK + rank + 1) with
// 0-based rank per source list.
func (f *RRFFuser) Fuse(lexical, vector []candidate.Candidate) ([]fused.Result, error) {
	if err := checkNoDuplicates(lexical, candidate.Lexical); err != nil {
		return nil, err
	}
	if err := checkNoDuplicates(vector, candidate.Vector); err != nil {
		return nil, err
	}

	m := newMerger(len(lexical) + len(vector))
	for i := range lexical {
		m.add(lexical[i].ID(), lexical[i].Source(), f.cfg.WeightLexical/float64(rrfK+i+1))
	}
	for i := range vector {
		m.add(vector[i].ID(), vector[i].Source(), f.cfg.WeightVector/float64(rrfK+i+1))
	}

	return rank(m.order, f.cfg.TopK), nil
}
