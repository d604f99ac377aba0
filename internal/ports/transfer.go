package ports

import (
	"math/big"

	"github.com/ahrav/go-psephos/internal/domain"
)

// VoteTransferer moves ballot weight between candidates during a
// transferable-vote count. Implementations differ in how they pick which
// ballots leave an elected candidate (whole-ballot random sampling vs.
// exact proportional reduction) and how they split ballots across shared
// ranks.
//
// Both methods return a fresh allocation; the input is never modified.
// This keeps counts comparable across iterations for stall detection.
type VoteTransferer interface {
	// Subtract removes vote weight from elected candidates: for each entry
	// the candidate's holdings are reduced by the given amount (the quota,
	// or a multiple of it for multi-seat awards), representing the votes
	// consumed by the election.
	Subtract(a domain.Allocation, elected map[domain.Candidate]*big.Rat) (domain.Allocation, error)

	// Transfer reallocates every ballot held by the leaving candidates to
	// the next eligible preference among continuing candidates. Ballots
	// with no further eligible preference move to the exhausted bucket.
	Transfer(a domain.Allocation, leaving []domain.Candidate) (domain.Allocation, error)

	// Stable reports whether repeated runs over the same input produce the
	// same output. Random-sampling strategies are stable only when seeded.
	Stable() bool
}

// QuotaFunc computes the vote quota required for a seat from the total
// number of votes cast and the number of seats to fill.
type QuotaFunc func(totalVotes *big.Rat, nSeats int) *big.Rat

// DivisorFunc computes the highest-averages divisor for a contestant that
// currently holds the given number of seats.
type DivisorFunc func(order int) *big.Rat
