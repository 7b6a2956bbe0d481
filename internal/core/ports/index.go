package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// IndexProvider fetches package indexes.
//
//go:generate mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks
type IndexProvider interface {
	// Fetch returns the index described by req. Implementations share results between callers.
	Fetch(ctx context.Context, req domain.IndexRequest) (*domain.Index, error)
}
