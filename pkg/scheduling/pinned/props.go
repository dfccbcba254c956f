package pinned

import "github.com/vnykmshr/gopin/pkg/fiber"

// Props is the per-fiber record the pinned policy attaches to every context.
// It distinguishes the very first awakening, which picks the fiber's
// permanent worker, from all later ones, which stay local. The transition is
// one-way and idempotent.
type Props struct {
	previouslyAwakened bool
}

var _ fiber.Properties = (*Props)(nil)

// WasPreviouslyAwakened reports whether the fiber has been awakened before.
func (p *Props) WasPreviouslyAwakened() bool {
	return p.previouslyAwakened
}

// SetPreviouslyAwakened records that the fiber has now been awakened.
func (p *Props) SetPreviouslyAwakened() {
	p.previouslyAwakened = true
}
