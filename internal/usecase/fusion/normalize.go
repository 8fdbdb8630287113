package fusion

import "github.com/kailas-cloud/answerdex/internal/domain/search/candidate"

// Normalizer rescales one source's scores before weighting. BM25 and cosine
// similarity live on incomparable scales, so each list is normalized
// independently.
type Normalizer interface {
	Normalize(cands []candidate.Candidate) []float64
}

// MinMaxNormalizer maps scores onto [0,1] via (s-min)/(max-min).
// Degenerate lists (max == min, including single-element lists) normalize
// to 1.0: the retriever surfaced the document, so it keeps full weight.
type MinMaxNormalizer struct{}

// Normalize implements Normalizer.
func (MinMaxNormalizer) Normalize(cands []candidate.Candidate) []float64 {
	norms := make([]float64, len(cands))
	if len(cands) == 0 {
		return norms
	}

	minS, maxS := cands[0].Score(), cands[0].Score()
	for i := range cands {
		s := cands[i].Score()
		if s < minS {
			minS = s
		}
		if s > maxS {
			maxS = s
		}
	}

	if maxS == minS {
		for i := range norms {
			norms[i] = 1.0
		}
		return norms
	}

	for i := range cands {
		norms[i] = (cands[i].Score() - minS) / (maxS - minS)
	}
	return norms
}

// RankNormalizer scores by list position alone: 1/(rank+1) with 0-based
// rank. Robust to score outliers, blind to score gaps.
type RankNormalizer struct{}

// Normalize implements Normalizer.
func (RankNormalizer) Normalize(cands []candidate.Candidate) []float64 {
	norms := make([]float64, len(cands))
	for i := range norms {
		norms[i] = 1.0 / float64(i+1)
	}
	return norms
}
