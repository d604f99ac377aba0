package application

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-psephos/infrastructure/divisor"
	"github.com/ahrav/go-psephos/infrastructure/quota"
	"github.com/ahrav/go-psephos/infrastructure/transfer"
	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// folder case-folds configured component names so "Droop", "droop" and
// "DROOP" resolve identically.
var folder = cases.Fold()

// normalizeName canonicalizes a configured component name to the registry
// key form: case-folded, trimmed, with spaces and hyphens as underscores.
func normalizeName(name string) string {
	name = folder.String(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "-", "_")
}

// suggestName returns the closest known name within a small edit distance,
// or an empty string when nothing is plausibly close.
func suggestName(name string, known []string) string {
	best, bestDist := "", 4
	for _, candidate := range known {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// unknownNameErr builds the configuration error for an unresolvable
// component name, with a "did you mean" hint when one is close.
func unknownNameErr(kind, name string, known []string) error {
	if hint := suggestName(name, known); hint != "" {
		return fmt.Errorf("%w: unknown %s %q (did you mean %q?)", domain.ErrConfiguration, kind, name, hint)
	}
	return fmt.Errorf("%w: unknown %s %q, known: %s", domain.ErrConfiguration, kind, name, strings.Join(known, ", "))
}

// resolveQuota resolves a quota function name through the quota registry.
func resolveQuota(name string) (ports.QuotaFunc, error) {
	key := normalizeName(name)
	fn, ok := quota.Get(key)
	if !ok {
		return nil, unknownNameErr("quota function", name, quota.Names())
	}
	return fn, nil
}

// resolveDivisor resolves a divisor name through the divisor registry,
// returning the full entry so callers can reach the signpost constant.
func resolveDivisor(name string) (divisor.Entry, error) {
	key := normalizeName(name)
	entry, ok := divisor.Lookup(key)
	if !ok {
		return divisor.Entry{}, unknownNameErr("divisor function", name, divisor.Names())
	}
	return entry, nil
}

// transferNames lists the vote-transfer strategies the builder knows.
var transferNames = []string{"gregory", "hare"}

// resolveTransfer builds a vote-transfer strategy from its name. A nil seed
// selects the deliberately unstable mode for sampling strategies.
func resolveTransfer(name string, seed *int64) (ports.VoteTransferer, error) {
	switch normalizeName(name) {
	case "gregory":
		return transfer.NewGregory(), nil
	case "hare":
		if seed == nil {
			return transfer.NewUnseededHare(), nil
		}
		return transfer.NewHare(*seed), nil
	default:
		return nil, unknownNameErr("transfer strategy", name, transferNames)
	}
}
