package candidate

// Source identifies which retriever produced a candidate.
type Source string

// Retrieval source constants.
const (
	Lexical Source = "lexical"
	Vector  Source = "vector"
)

// IsValid checks if the source is one of the supported values.
func (s Source) IsValid() bool {
	return s == Lexical || s == Vector
}

// Candidate is a single retriever hit: document ID plus the retriever's own
// relevance score. Ephemeral, created per query, discarded after fusion.
type Candidate struct {
	id     string
	score  float64
	source Source
}

// New creates a candidate.
func New(id string, score float64, source Source) Candidate {
	return Candidate{id: id, score: score, source: source}
}

// ID returns the document identifier.
func (c *Candidate) ID() string { return c.id }

// Score returns the retriever-native relevance score (higher = more relevant).
func (c *Candidate) Score() float64 { return c.score }

// Source returns the retriever that produced this candidate.
func (c *Candidate) Source() Source { return c.source }
