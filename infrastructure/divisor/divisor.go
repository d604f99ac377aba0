// Package divisor provides the divisor functions used by highest-averages
// proportional systems: given the number of seats a contestant already
// holds, the divisor by which to divide their votes before comparing
// quotients.
//
// Each registry entry also carries the divisor's signpost constant when one
// is known. Signposts define the rounding rule of the equivalent
// rounding-based formulation and are required by the biproportional solver;
// they have only been established for the D'Hondt and Sainte-Laguë
// divisors, so other divisors require the caller to supply one explicitly.
package divisor

import (
	"math/big"
	"sort"

	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// DHondt forms the sequence 1, 2, 3... Slightly favors larger parties.
func DHondt(order int) *big.Rat { return domain.Rat(int64(order) + 1) }

// SainteLague forms the sequence 1, 3, 5... Favors mid-sized parties.
func SainteLague(order int) *big.Rat { return domain.Rat(2*int64(order) + 1) }

// Imperiali forms the sequence 1, 3/2, 2... Greatly favors large parties.
// Not to be confused with the Imperiali quota.
func Imperiali(order int) *big.Rat {
	return domain.RatAdd(domain.RatFrac(int64(order), 2), domain.Rat(1))
}

// HuntingtonHill uses sqrt(n*(n+1)). The zeroth-order divisor is zero, so
// it is only usable where every contestant's first seat is already
// guaranteed through previous gains. The square root is irrational; it is
// approximated to 64 bits of precision, which is far beyond any realistic
// quotient comparison.
func HuntingtonHill(order int) *big.Rat {
	n := int64(order)
	sq := new(big.Float).SetPrec(64).SetInt64(n * (n + 1))
	root := new(big.Float).Sqrt(sq)
	out, _ := root.Rat(nil)
	return out
}

// Danish forms the sequence 1, 4, 7... Extremely favors smaller parties.
func Danish(order int) *big.Rat { return domain.Rat(3*int64(order) + 1) }

// Macau uses powers of two (1, 2, 4, 8...), favoring smaller parties.
func Macau(order int) *big.Rat {
	out := new(big.Int).Lsh(big.NewInt(1), uint(order))
	return new(big.Rat).SetInt(out)
}

// ModifiedFirstCoef wraps a divisor function, replacing its zeroth-order
// divisor with an a-priori coefficient. Several national systems use this
// to raise the bar for parties without a seat yet.
func ModifiedFirstCoef(fn ports.DivisorFunc, firstCoef *big.Rat) ports.DivisorFunc {
	return func(order int) *big.Rat {
		if order == 0 {
			return new(big.Rat).Set(firstCoef)
		}
		return fn(order)
	}
}

// Entry is a registered divisor together with its signpost constant, when
// one is known (nil otherwise).
type Entry struct {
	Fn       ports.DivisorFunc
	Signpost *big.Rat
}

var registry = map[string]Entry{
	"d_hondt":         {Fn: DHondt, Signpost: new(big.Rat)},
	"sainte_lague":    {Fn: SainteLague, Signpost: domain.RatFrac(1, 2)},
	"imperiali":       {Fn: Imperiali},
	"huntington_hill": {Fn: HuntingtonHill},
	"danish":          {Fn: Danish},
	"macau":           {Fn: Macau},
}

// Get returns the divisor function registered under the given name.
func Get(name string) (ports.DivisorFunc, bool) {
	entry, ok := registry[name]
	return entry.Fn, ok
}

// Lookup returns the full registry entry, signpost included.
func Lookup(name string) (Entry, bool) {
	entry, ok := registry[name]
	return entry, ok
}

// Names returns the registered divisor names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
