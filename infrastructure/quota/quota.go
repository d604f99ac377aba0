// Package quota provides the quota functions used by largest-remainder
// proportional systems and transferable-vote counting: the number of votes
// a contestant must gather to be awarded a seat.
//
// The unrounded variants return exact fractions; the rounded variants
// return whole numbers the way the respective real-world rules specify.
// All functions are assembled in a registry keyed by their conventional
// snake_case names so election-system configurations can reference them.
package quota

import (
	"math/big"
	"sort"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// Hare is the most basic quota: total votes divided by seats, unrounded.
func Hare(votes *big.Rat, seats int) *big.Rat {
	return domain.RatDiv(votes, domain.Rat(int64(seats)))
}

// HareRounded is the Hare quota rounded to the nearest whole number, with
// halves rounding up. This is the variant used more often in practice.
func HareRounded(votes *big.Rat, seats int) *big.Rat {
	return domain.Rat(domain.RatRoundHalfUp(Hare(votes, seats)))
}

// Droop is the most widely used quota: the smallest whole number of votes
// guaranteeing that no more candidates can reach it than there are seats.
func Droop(votes *big.Rat, seats int) *big.Rat {
	frac := domain.RatDiv(votes, domain.Rat(int64(seats)+1))
	return domain.Rat(domain.RatFloor(frac) + 1)
}

// HagenbachBischoff is votes/(seats+1), unrounded.
func HagenbachBischoff(votes *big.Rat, seats int) *big.Rat {
	return domain.RatDiv(votes, domain.Rat(int64(seats)+1))
}

// HagenbachBischoffCeil is the Hagenbach-Bischoff quota rounded up, which
// coincides with the Droop quota except when votes/(seats+1) is whole.
func HagenbachBischoffCeil(votes *big.Rat, seats int) *big.Rat {
	return domain.Rat(domain.RatCeil(HagenbachBischoff(votes, seats)))
}

// HagenbachBischoffRounded is the Hagenbach-Bischoff quota rounded to the
// nearest whole number, halves up. Used in a few regional apportionments.
func HagenbachBischoffRounded(votes *big.Rat, seats int) *big.Rat {
	return domain.Rat(domain.RatRoundHalfUp(HagenbachBischoff(votes, seats)))
}

// Imperiali is votes/(seats+2). It can elect more candidates than there
// are seats; systems using it must recount with another quota when that
// happens.
func Imperiali(votes *big.Rat, seats int) *big.Rat {
	return domain.RatDiv(votes, domain.Rat(int64(seats)+2))
}

// Constant returns a quota function that ignores its inputs and always
// yields the given fixed quota. Used by systems with a statutory quota.
func Constant(q *big.Rat) ports.QuotaFunc {
	return func(*big.Rat, int) *big.Rat { return new(big.Rat).Set(q) }
}

var registry = map[string]ports.QuotaFunc{
	"hare":                       Hare,
	"hare_rounded":               HareRounded,
	"droop":                      Droop,
	"hagenbach_bischoff":         HagenbachBischoff,
	"hagenbach_bischoff_ceil":    HagenbachBischoffCeil,
	"hagenbach_bischoff_rounded": HagenbachBischoffRounded,
	"imperiali":                  Imperiali,
}

// Get returns the quota function registered under the given name.
func Get(name string) (ports.QuotaFunc, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names returns the registered quota names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
