package product

import (
	"fmt"
	"strings"
)

// Product is a catalog document. Immutable once indexed; the store owns
// its lifetime.
type Product struct {
	id          string
	title       string
	description string
	vector      []float32
}

// New validates and creates a product.
// The vector is optional: ingestion may precompute it or leave it to the seeder.
func New(id, title, description string, vector []float32) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, fmt.Errorf("product id is required")
	}
	if strings.TrimSpace(title) == "" {
		return Product{}, fmt.Errorf("product title is required")
	}
	return Product{
		id:          id,
		title:       title,
		description: description,
		vector:      vector,
	}, nil
}

// ID returns the stable document identifier.
func (p *Product) ID() string { return p.id }

// Title returns the product title.
func (p *Product) Title() string { return p.title }

// Description returns the product description.
func (p *Product) Description() string { return p.description }

// Vector returns the precomputed embedding vector (nil if not embedded yet).
func (p *Product) Vector() []float32 { return p.vector }

// EmbeddingText returns the text the embedding is computed over.
// Title and description are concatenated so both contribute to similarity.
func (p *Product) EmbeddingText() string {
	if p.description == "" {
		return p.title
	}
	return p.title + " " + p.description
}

// WithVector returns a copy carrying the given embedding.
func (p *Product) WithVector(vector []float32) Product {
	cp := *p
	cp.vector = vector
	return cp
}
