package ports

import (
	"context"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
)

// CatalogLoader produces the ordered feature catalog from an external
// source. Decoding failures are returned to the caller.
type CatalogLoader interface {
	Load(ctx context.Context) (domain.Catalog, error)
}
