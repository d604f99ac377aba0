// Package evaluate provides the concrete evaluators and the composition
// wrappers they are assembled from: plurality selection, threshold
// eliminators, auxiliary tie-break selectors, proportional distributors,
// seat-count/conversion/conditioning/tie-breaking wrappers, constituency and
// party delegation, multi-stage accumulation with overhang handling, the
// transferable-vote engine and the biproportional apportionment solver.
//
// Every evaluator implements the ports.Evaluator contract and declares its
// capabilities explicitly; wrappers verify capability requirements in their
// constructors so a miscomposed system fails before the first ballot is
// seen.
package evaluate

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// validate is the package-wide validator instance used by all evaluator
// configuration structs.
var validate = validator.New()

// requireSeats fails construction when the inner evaluator ignores seat
// counts but the wrapper structurally needs to set them.
func requireSeats(caps ports.Capabilities, wrapper string) error {
	if !caps.Seats {
		return fmt.Errorf("%w: %s requires a seat-aware inner evaluator", domain.ErrConfiguration, wrapper)
	}
	return nil
}

// sortCandidates orders candidates (or constituencies) canonically in
// place, the iteration order used everywhere map contents feed a result.
func sortCandidates(cands []domain.Candidate) {
	sort.Slice(cands, func(i, j int) bool { return cands[i] < cands[j] })
}
