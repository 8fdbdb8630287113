package catalog

import "github.com/kailas-cloud/answerdex/internal/db"

// buildIndex assembles the catalog index definition.
// Title and description are indexed for BM25 alongside the combined
// content field; the vector field carries the document embedding.
// The score attribute FT.SEARCH derives from the vector field is
// __vector_score, which the KNN path sorts on.
func (r *Repo) buildIndex() (*db.IndexDefinition, error) {
	b := db.NewIndex(r.indexName()).
		Prefix(r.docPrefix()).
		Text(fieldTitle).
		Text(fieldDescription).
		Text(fieldContent)

	// FLAT gives exact KNN, the right default for catalog-sized data.
	// HNSW trades recall for speed on large catalogs.
	if r.cfg.VectorAlgorithm == "hnsw" {
		b = b.VectorHNSW(fieldVector, r.cfg.VectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct)
	} else {
		b = b.VectorFlat(fieldVector, r.cfg.VectorDim, db.DistanceCosine, 0)
	}

	return b.Build()
}
