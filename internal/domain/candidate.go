// Package domain holds the core value types of the social-choice engine:
// candidates, tallies, ties, selection and distribution results, and the
// exact-arithmetic helpers they rely on.
// All vote quantities are exact rationals (math/big.Rat); no component of
// this package performs floating-point arithmetic, because several
// evaluators depend on exact equality of vote counts and quotients.
package domain

// Candidate is an opaque token identifying a contestant: a person, a party,
// or anything else seats can be awarded to. The engine assumes no internal
// structure beyond comparability and usability as a map key.
type Candidate string

// Constituency identifies an electoral district. Constituency-level
// evaluators treat constituencies exactly like candidates (seats are
// apportioned "to" them), so the two share an underlying representation.
type Constituency = Candidate

// SharedRankPlaceholder is a synthetic candidate prepended (logically) to
// ballots whose first rank is shared between several candidates. The
// transferable-vote engine immediately transfers it away using the
// configured transfer strategy, so shared top ranks split exactly like any
// other multi-candidate elimination.
const SharedRankPlaceholder Candidate = "\x00shared-rank"
