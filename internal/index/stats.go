package index

import (
	"context"

	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/store"
)

// NamespaceStats is the document count of one namespace.
type NamespaceStats struct {
	Kind      catalog.Kind `json:"namespace"`
	Documents uint64       `json:"documents"`
	Error     string       `json:"error,omitempty"`
}

// Stats counts the documents in every namespace. A namespace that cannot be
// read reports its error instead of a count.
func Stats(ctx context.Context, gateway *store.Gateway) []NamespaceStats {
	kinds := catalog.Kinds()
	out := make([]NamespaceStats, 0, len(kinds))
	for _, k := range kinds {
		s := NamespaceStats{Kind: k}
		n, err := gateway.Count(ctx, k)
		if err != nil {
			s.Error = err.Error()
		}
		s.Documents = n
		out = append(out, s)
	}
	return out
}
