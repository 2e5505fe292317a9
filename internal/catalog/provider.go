package catalog

import (
	"context"

	"github.com/deelab/costcalc/internal/model"
	"github.com/deelab/costcalc/internal/store"
)

// Provider serves annotation types from the store, normalizing legacy
// rows to an explicit input mode on the way out.
type Provider struct {
	store store.Store
}

func NewProvider(st store.Store) *Provider {
	return &Provider{store: st}
}

// Active returns the active catalog in stored order.
func (p *Provider) Active(ctx context.Context) ([]model.AnnotationType, error) {
	types, err := p.store.ListAnnotationTypes(ctx, true)
	if err != nil {
		return nil, err
	}
	return normalize(types), nil
}

// All returns every catalog row, active or not.
func (p *Provider) All(ctx context.Context) ([]model.AnnotationType, error) {
	types, err := p.store.ListAnnotationTypes(ctx, false)
	if err != nil {
		return nil, err
	}
	return normalize(types), nil
}

// normalize makes the input mode explicit on rows that predate the
// column, so every consumer sees the resolved mode.
func normalize(types []model.AnnotationType) []model.AnnotationType {
	for i := range types {
		if types[i].InputMode == "" {
			types[i].InputMode = types[i].Mode()
		}
	}
	return types
}
