package evaluate

import (
	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// Plurality selects the n candidates with the most votes. Candidates tied
// at the seat boundary are emitted as a tie rather than resolved; compose a
// TieBreaking wrapper to resolve them.
type Plurality struct{}

var _ ports.Selector[domain.SimpleTally] = (*Plurality)(nil)

// NewPlurality returns the plurality selector.
func NewPlurality() *Plurality { return &Plurality{} }

// Evaluate returns the top nSeats candidates by vote count.
func (p *Plurality) Evaluate(votes domain.SimpleTally, nSeats int, _ domain.Constraints) (domain.Selection, error) {
	return domain.TopN(votes, nSeats), nil
}

// Capabilities reports seat awareness and no constraint handling.
func (p *Plurality) Capabilities() ports.Capabilities {
	return ports.Capabilities{Seats: true}
}
