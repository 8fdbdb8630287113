package fusion

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/answerdex/internal/domain/search/strategy"
)

func lex(id string, score float64) candidate.Candidate {
	return candidate.New(id, score, candidate.Lexical)
}

func vec(id string, score float64) candidate.Candidate {
	return candidate.New(id, score, candidate.Vector)
}

func equalWeights(topK int) Config {
	return Config{WeightLexical: 0.5, WeightVector: 0.5, TopK: topK}
}

// --- Weighted ---

func TestWeightedFuse_WirelessHeadphonesFixture(t *testing.T) {
	f := NewWeighted(equalWeights(10))

	lexical := []candidate.Candidate{lex("d1", 0.9), lex("d2", 0.4)}
	vector := []candidate.Candidate{vec("d1", 0.8), vec("d3", 0.6)}

	results, err := f.Fuse(lexical, vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// min-max: lexical d1=1.0 d2=0.0; vector d1=1.0 d3=0.0
	// fused: d1 = 0.5*1.0+0.5*1.0 = 1.0; d2 = d3 = 0.0
	// d2/d3 tie is single-source on both sides, ID ascending breaks it.
	wantOrder := []string{"d1", "d2", "d3"}
	for i, want := range wantOrder {
		if results[i].ID() != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, results[i].ID())
		}
	}
	if math.Abs(results[0].Score()-1.0) > 1e-12 {
		t.Errorf("expected d1 score 1.0, got %f", results[0].Score())
	}
	if results[1].Score() != 0.0 || results[2].Score() != 0.0 {
		t.Errorf("expected d2/d3 score 0.0, got %f/%f", results[1].Score(), results[2].Score())
	}
	if !results[0].FromBoth() {
		t.Error("d1 came from both retrievers")
	}
	if results[1].FromBoth() || results[2].FromBoth() {
		t.Error("d2/d3 are single-source")
	}
	for i, r := range results {
		if r.Rank() != i+1 {
			t.Errorf("expected rank %d, got %d", i+1, r.Rank())
		}
	}
}

func TestWeightedFuse_BothEmpty(t *testing.T) {
	f := NewWeighted(equalWeights(10))

	results, err := f.Fuse(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty ranking, got %d", len(results))
	}
}

func TestWeightedFuse_EmptyVectorKeepsLexicalOrder(t *testing.T) {
	f := NewWeighted(equalWeights(10))

	lexical := []candidate.Candidate{lex("d5", 3.1), lex("d2", 2.0), lex("d9", 0.5)}

	results, err := f.Fuse(lexical, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{"d5", "d2", "d9"}
	for i, want := range wantOrder {
		if results[i].ID() != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, results[i].ID())
		}
	}
	// top of a single-source ranking carries the full lexical weight
	if math.Abs(results[0].Score()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", results[0].Score())
	}
}

func TestWeightedFuse_DuplicateInSource(t *testing.T) {
	f := NewWeighted(equalWeights(10))

	lexical := []candidate.Candidate{lex("d1", 0.9), lex("d1", 0.4)}

	_, err := f.Fuse(lexical, nil)
	if !errors.Is(err, domain.ErrDuplicateCandidate) {
		t.Fatalf("expected ErrDuplicateCandidate, got %v", err)
	}

	var fie *domain.FusionInputError
	if !errors.As(err, &fie) {
		t.Fatalf("expected FusionInputError, got %T", err)
	}
	if fie.Source != "lexical" || fie.DocID != "d1" {
		t.Errorf("unexpected error detail: %+v", fie)
	}
}

func TestWeightedFuse_TopKTruncation(t *testing.T) {
	f := NewWeighted(equalWeights(2))

	lexical := []candidate.Candidate{lex("a", 3), lex("b", 2), lex("c", 1)}
	vector := []candidate.Candidate{vec("d", 0.9), vec("e", 0.8)}

	results, err := f.Fuse(lexical, vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after truncation, got %d", len(results))
	}
}

func TestWeightedFuse_NonIncreasingScoresNoDuplicates(t *testing.T) {
	f := NewWeighted(equalWeights(10))

	lexical := []candidate.Candidate{lex("a", 5), lex("b", 3), lex("c", 1)}
	vector := []candidate.Candidate{vec("b", 0.9), vec("d", 0.7), vec("a", 0.2)}

	results, err := f.Fuse(lexical, vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for i, r := range results {
		if seen[r.ID()] {
			t.Fatalf("duplicate ID %s in fused ranking", r.ID())
		}
		seen[r.ID()] = true
		if i > 0 && results[i].Score() > results[i-1].Score() {
			t.Fatalf("scores increase at index %d: %f > %f", i, results[i].Score(), results[i-1].Score())
		}
	}
}

func TestWeightedFuse_Deterministic(t *testing.T) {
	f := NewWeighted(equalWeights(10))

	lexical := []candidate.Candidate{lex("a", 1), lex("b", 1), lex("c", 1)}
	vector := []candidate.Candidate{vec("d", 1), vec("e", 1)}

	first, err := f.Fuse(lexical, vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := f.Fuse(lexical, vector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("fusion output differs across runs on identical input")
		}
	}
}

func TestWeightedFuse_RankNormalizer(t *testing.T) {
	f := NewWeighted(equalWeights(10)).WithNormalizer(RankNormalizer{})

	// rank normalization ignores the wild score gap
	lexical := []candidate.Candidate{lex("a", 1000), lex("b", 0.001)}

	results, err := f.Fuse(lexical, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(results[0].Score()-0.5) > 1e-12 {
		t.Errorf("expected 0.5*1/1, got %f", results[0].Score())
	}
	if math.Abs(results[1].Score()-0.25) > 1e-12 {
		t.Errorf("expected 0.5*1/2, got %f", results[1].Score())
	}
}

// --- RRF ---

func TestRRFFuse_ScoreFormula(t *testing.T) {
	f := NewRRF(equalWeights(10))

	lexical := []candidate.Candidate{lex("a", 3.0)}
	vector := []candidate.Candidate{vec("a", 0.9)}

	results, err := f.Fuse(lexical, vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "a" is rank 0 in both: 0.5/(60+1) + 0.5/(60+1) = 1/61
	expected := 1.0 / 61.0
	if math.Abs(results[0].Score()-expected) > 1e-12 {
		t.Errorf("expected score %f, got %f", expected, results[0].Score())
	}
}

func TestRRFFuse_Ordering(t *testing.T) {
	f := NewRRF(equalWeights(10))

	lexical := []candidate.Candidate{lex("d1", 9), lex("d2", 1)}
	vector := []candidate.Candidate{vec("d2", 0.4), vec("d3", 0.3)}

	results, err := f.Fuse(lexical, vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// d2: 0.5/62 + 0.5/61 beats d1: 0.5/61 beats d3: 0.5/62
	wantOrder := []string{"d2", "d1", "d3"}
	for i, want := range wantOrder {
		if results[i].ID() != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, results[i].ID())
		}
	}
}

func TestRRFFuse_IgnoresScoreMagnitudes(t *testing.T) {
	f := NewRRF(equalWeights(10))

	small := []candidate.Candidate{lex("a", 0.001), lex("b", 0.0001)}
	large := []candidate.Candidate{lex("a", 1e9), lex("b", 42)}

	fromSmall, err := f.Fuse(small, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromLarge, err := f.Fuse(large, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(fromSmall, fromLarge) {
		t.Fatal("RRF must depend on ranks only, not on raw scores")
	}
}

func TestRRFFuse_DuplicateInSource(t *testing.T) {
	f := NewRRF(equalWeights(10))

	vector := []candidate.Candidate{vec("x", 0.9), vec("x", 0.8)}

	_, err := f.Fuse(nil, vector)
	if !errors.Is(err, domain.ErrDuplicateCandidate) {
		t.Fatalf("expected ErrDuplicateCandidate, got %v", err)
	}
}

// --- Normalizers ---

func TestMinMaxNormalizer(t *testing.T) {
	n := MinMaxNormalizer{}

	t.Run("spread", func(t *testing.T) {
		got := n.Normalize([]candidate.Candidate{lex("a", 0.9), lex("b", 0.4)})
		if got[0] != 1.0 || got[1] != 0.0 {
			t.Fatalf("expected [1 0], got %v", got)
		}
	})

	t.Run("single element", func(t *testing.T) {
		got := n.Normalize([]candidate.Candidate{lex("a", 0.42)})
		if len(got) != 1 || got[0] != 1.0 {
			t.Fatalf("expected [1], got %v", got)
		}
	})

	t.Run("all equal", func(t *testing.T) {
		got := n.Normalize([]candidate.Candidate{lex("a", 2), lex("b", 2), lex("c", 2)})
		for i, v := range got {
			if v != 1.0 {
				t.Fatalf("expected 1.0 at %d, got %v", i, v)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := n.Normalize(nil); len(got) != 0 {
			t.Fatalf("expected empty, got %v", got)
		}
	})
}

func TestRankNormalizer(t *testing.T) {
	n := RankNormalizer{}
	got := n.Normalize([]candidate.Candidate{lex("a", 99), lex("b", 1), lex("c", 0)})
	want := []float64{1.0, 0.5, 1.0 / 3.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("position %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

// --- Config ---

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid weighted", Config{Strategy: strategy.Weighted, WeightLexical: 0.5, WeightVector: 0.5, TopK: 10}, false},
		{"valid rrf", Config{Strategy: strategy.RRF, WeightLexical: 1, WeightVector: 1, TopK: 5}, false},
		{"empty strategy ok", Config{WeightLexical: 0.7, WeightVector: 0.3, TopK: 3}, false},
		{"negative weight", Config{WeightLexical: -0.1, WeightVector: 0.5, TopK: 10}, true},
		{"zero weights", Config{WeightLexical: 0, WeightVector: 0, TopK: 10}, true},
		{"zero topK", Config{WeightLexical: 0.5, WeightVector: 0.5, TopK: 0}, true},
		{"unknown strategy", Config{Strategy: "borda", WeightLexical: 0.5, WeightVector: 0.5, TopK: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_SelectsStrategy(t *testing.T) {
	f, err := New(Config{Strategy: strategy.RRF, WeightLexical: 0.5, WeightVector: 0.5, TopK: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.(*RRFFuser); !ok {
		t.Fatalf("expected RRFFuser, got %T", f)
	}

	f, err = New(Config{WeightLexical: 0.5, WeightVector: 0.5, TopK: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.(*WeightedFuser); !ok {
		t.Fatalf("expected WeightedFuser, got %T", f)
	}

	if _, err := New(Config{WeightLexical: -1, WeightVector: 0.5, TopK: 10}); err == nil {
		t.Fatal("expected config validation error")
	}
}
