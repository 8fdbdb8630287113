package strategy

// Strategy selects how lexical and vector rankings are fused.
type Strategy string

// Fusion strategy constants.
const (
	// Weighted combines min-max-normalized scores with configurable weights.
	Weighted Strategy = "weighted"
	// RRF uses reciprocal-rank fusion, ignoring raw score magnitudes.
	RRF Strategy = "rrf"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == Weighted || s == RRF
}
