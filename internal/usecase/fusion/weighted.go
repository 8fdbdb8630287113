package fusion

import (
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/answerdex/internal/domain/search/fused"
)

// WeightedFuser combines normalized scores with configured weights.
type WeightedFuser struct {
	cfg  Config
	norm Normalizer
}

// NewWeighted creates a weighted fuser with min-max normalization.
func NewWeighted(cfg Config) *WeightedFuser {
	return &WeightedFuser{cfg: cfg, norm: MinMaxNormalizer{}}
}

// WithNormalizer swaps the normalization strategy.
func (f *WeightedFuser) WithNormalizer(n Normalizer) *WeightedFuser {
	f.norm = n
	return f
}

// Fuse merges the rankings: fused = w_lex*norm_lex + w_vec*norm_vec, an
// absent source contributes 0. Both lists empty is a valid input and yields
// an empty ranking.
func (f *WeightedFuser) Fuse(lexical, vector []candidate.Candidate) ([]fused.Result, error) {
	if err := checkNoDuplicates(lexical, candidate.Lexical); err != nil {
		return nil, err
	}
	if err := checkNoDuplicates(vector, candidate.Vector); err != nil {
		return nil, err
	}

	normLex := f.norm.Normalize(lexical)
	normVec := f.norm.Normalize(vector)

	m := newMerger(len(lexical) + len(vector))
	for i := range lexical {
		m.add(lexical[i].ID(), lexical[i].Source(), f.cfg.WeightLexical*normLex[i])
	}
	for i := range vector {
		m.add(vector[i].ID(), vector[i].Source(), f.cfg.WeightVector*normVec[i])
	}

	return rank(m.order, f.cfg.TopK), nil
}
