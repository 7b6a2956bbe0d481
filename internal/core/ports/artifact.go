package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// ArtifactFetcher downloads and verifies package artifacts.
//
//go:generate mockgen -source=artifact.go -destination=mocks/mock_artifact.go -package=mocks
type ArtifactFetcher interface {
	// Fetch returns the local path of the verified artifact of record.
	Fetch(ctx context.Context, record domain.ResolvedRecord) (string, error)
}
