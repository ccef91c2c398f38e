// Package file loads the feature catalog from a JSON file: an array of
// objects with id, title and description. Order in the file is display
// order.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

var _ ports.CatalogLoader = (*Loader)(nil)

func (l *Loader) Load(ctx context.Context) (domain.Catalog, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", l.path, err)
	}
	return Decode(raw)
}

// Decode parses a catalog blob, rejecting empty or duplicate ids.
func Decode(raw []byte) (domain.Catalog, error) {
	var catalog domain.Catalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(catalog))
	for _, f := range catalog {
		if f.ID == "" {
			return nil, fmt.Errorf("catalog entry %q has an empty id", f.Title)
		}
		if _, ok := seen[f.ID]; ok {
			return nil, fmt.Errorf("catalog has duplicate id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return catalog, nil
}
