package literature

import "context"

// Searcher is the port for a bibliographic keyword search
type Searcher interface {
	Search(ctx context.Context, q Query) (*SearchResult, error)
}
