package contextbuild

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/answerdex/internal/domain/product"
	"github.com/kailas-cloud/answerdex/internal/domain/search/fused"
)

// joiner separates rendered entries in the context block.
const joiner = "\n\n"

// Block is a rendered context ready for prompt assembly.
// IncludedIDs lists the documents that made it in, in rank order.
type Block struct {
	Text        string
	IncludedIDs []string
}

// Config holds context assembly limits.
type Config struct {
	// Budget caps the rendered size in bytes. <= 0 means unbounded.
	Budget int
}

// Builder renders fused results into the prompt context block.
type Builder struct {
	cfg Config
}

// New creates a context builder.
func New(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build renders documents in rank order as "[{rank}] {title}: {description}".
// Selection is greedy from rank 1: an entry either fits whole, including the
// joiner it introduces, or selection stops. Documents absent from docs are
// skipped (deleted between search and fetch).
func (b *Builder) Build(results []fused.Result, docs []product.Product) Block {
	if len(results) == 0 {
		return Block{}
	}

	byID := make(map[string]*product.Product, len(docs))
	for i := range docs {
		byID[docs[i].ID()] = &docs[i]
	}

	var sb strings.Builder
	included := make([]string, 0, len(results))

	for i := range results {
		r := &results[i]
		doc, ok := byID[r.ID()]
		if !ok {
			continue
		}

		entry := fmt.Sprintf("[%d] %s: %s", r.Rank(), doc.Title(), doc.Description())
		cost := len(entry)
		if sb.Len() > 0 {
			cost += len(joiner)
		}
		if b.cfg.Budget > 0 && sb.Len()+cost > b.cfg.Budget {
			break
		}

		if sb.Len() > 0 {
			sb.WriteString(joiner)
		}
		sb.WriteString(entry)
		included = append(included, r.ID())
	}

	return Block{Text: sb.String(), IncludedIDs: included}
}
