package services

import (
	"fmt"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// SourceRegistry maps document types to their source handlers. The
// scanner and processor consult it instead of switching on doc type, so
// adding a document type never touches the pipeline code.
type SourceRegistry struct {
	sources map[domain.DocType]driven.DocumentSource
	order   []domain.DocType
}

// NewSourceRegistry creates a registry over the given sources.
// Registration order is preserved for scan iteration.
func NewSourceRegistry(sources ...driven.DocumentSource) *SourceRegistry {
	r := &SourceRegistry{sources: make(map[domain.DocType]driven.DocumentSource)}
	for _, s := range sources {
		if _, dup := r.sources[s.Type()]; dup {
			continue
		}
		r.sources[s.Type()] = s
		r.order = append(r.order, s.Type())
	}
	return r
}

// Get returns the handler for a document type.
func (r *SourceRegistry) Get(t domain.DocType) (driven.DocumentSource, error) {
	s, ok := r.sources[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, t)
	}
	return s, nil
}

// All returns the registered handlers in registration order.
func (r *SourceRegistry) All() []driven.DocumentSource {
	out := make([]driven.DocumentSource, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.sources[t])
	}
	return out
}
