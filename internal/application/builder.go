package application

import (
	"fmt"
	"math/big"

	"github.com/ahrav/go-psephos/infrastructure/evaluate"
	"github.com/ahrav/go-psephos/internal/domain"
	"github.com/ahrav/go-psephos/internal/ports"
)

// System is a built election system. Exactly one of the evaluator fields is
// set, matching the configured kind's vote shape.
type System struct {
	// Config is the configuration the system was built from.
	Config SystemConfig

	// Selector evaluates simple tallies to a selection (plurality).
	Selector ports.Selector[domain.SimpleTally]

	// RankedSelector evaluates ranked tallies (transferable vote).
	RankedSelector ports.Selector[domain.RankedTally]

	// Distributor evaluates simple tallies to a seat distribution
	// (largest remainder, highest averages).
	Distributor ports.Distributor[domain.SimpleTally]

	// Grid evaluates constituency-nested tallies to per-district
	// distributions (biproportional).
	Grid ports.Evaluator[domain.ConstituencyTally, map[domain.Constituency]domain.Distribution]
}

// Build assembles the evaluator tree a configuration describes. Component
// names resolve through the registries; every inconsistency surfaces as a
// configuration error before any ballot is evaluated.
func Build(cfg SystemConfig) (*System, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	sys := &System{Config: cfg}
	var err error
	switch cfg.Kind {
	case "plurality":
		sys.Selector, err = buildPlurality(cfg)
	case "largest_remainder":
		sys.Distributor, err = buildLargestRemainder(cfg)
	case "highest_averages":
		sys.Distributor, err = buildHighestAverages(cfg)
	case "transferable_vote":
		sys.RankedSelector, err = buildTransferableVote(cfg)
	case "biproportional":
		sys.Grid, err = buildBiproportional(cfg)
	default:
		err = fmt.Errorf("%w: unknown system kind %q", domain.ErrConfiguration, cfg.Kind)
	}
	if err != nil {
		return nil, err
	}
	return sys, nil
}

func buildPlurality(cfg SystemConfig) (ports.Selector[domain.SimpleTally], error) {
	var main ports.Selector[domain.SimpleTally] = evaluate.NewPlurality()
	main, err := conditionSelector(main, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	return tiebreakSelector(main, cfg.TiebreakPriority)
}

func buildLargestRemainder(cfg SystemConfig) (ports.Distributor[domain.SimpleTally], error) {
	if cfg.Quota == "" {
		return nil, fmt.Errorf("%w: largest remainder requires a quota name", domain.ErrConfiguration)
	}
	quotaFn, err := resolveQuota(cfg.Quota)
	if err != nil {
		return nil, err
	}
	main, err := evaluate.NewLargestRemainder(quotaFn)
	if err != nil {
		return nil, err
	}
	return finishDistributor(main, cfg)
}

func buildHighestAverages(cfg SystemConfig) (ports.Distributor[domain.SimpleTally], error) {
	if cfg.Divisor == "" {
		return nil, fmt.Errorf("%w: highest averages requires a divisor name", domain.ErrConfiguration)
	}
	entry, err := resolveDivisor(cfg.Divisor)
	if err != nil {
		return nil, err
	}
	main, err := evaluate.NewHighestAverages(entry.Fn)
	if err != nil {
		return nil, err
	}
	return finishDistributor(main, cfg)
}

func buildTransferableVote(cfg SystemConfig) (ports.Selector[domain.RankedTally], error) {
	if cfg.Transfer == "" {
		return nil, fmt.Errorf("%w: transferable vote requires a transfer strategy name", domain.ErrConfiguration)
	}
	transferer, err := resolveTransfer(cfg.Transfer, cfg.Seed)
	if err != nil {
		return nil, err
	}
	var opts []evaluate.TransferableVoteOption
	if cfg.Quota != "" {
		quotaFn, err := resolveQuota(cfg.Quota)
		if err != nil {
			return nil, err
		}
		opts = append(opts, evaluate.WithQuota(quotaFn))
	}
	if cfg.MandatoryQuota {
		opts = append(opts, evaluate.WithMandatoryQuota())
	}
	if cfg.QuotaStrictlyGreater {
		opts = append(opts, evaluate.WithQuotaStrictlyGreater())
	}
	if len(cfg.TiebreakPriority) > 0 {
		// Elimination ties are the only ties a transferable-vote count can
		// hit; a priority-tiebroken plurality retainer resolves them.
		retainer, err := tiebreakSelector(evaluate.NewPlurality(), cfg.TiebreakPriority)
		if err != nil {
			return nil, err
		}
		opts = append(opts, evaluate.WithRetainer(retainer, 1))
	}
	return evaluate.NewTransferableVote(transferer, opts...)
}

func buildBiproportional(cfg SystemConfig) (ports.Evaluator[domain.ConstituencyTally, map[domain.Constituency]domain.Distribution], error) {
	if cfg.Divisor == "" {
		return nil, fmt.Errorf("%w: biproportional apportionment requires a divisor name", domain.ErrConfiguration)
	}
	entry, err := resolveDivisor(cfg.Divisor)
	if err != nil {
		return nil, err
	}
	signpost := entry.Signpost
	if cfg.Signpost != "" {
		signpost, err = parseRat(cfg.Signpost)
		if err != nil {
			return nil, fmt.Errorf("%w: signpost: %v", domain.ErrConfiguration, err)
		}
	}
	var opts []evaluate.BiproportionalOption
	if len(cfg.DistrictSeats) > 0 {
		seats := make(map[domain.Constituency]int, len(cfg.DistrictSeats))
		for name, n := range cfg.DistrictSeats {
			seats[domain.Constituency(name)] = n
		}
		opts = append(opts, evaluate.WithDistrictSeats(seats))
	}
	return evaluate.NewBiproportional(entry.Fn, signpost, opts...)
}

// conditionSelector applies an optional relative threshold in front of a
// selector.
func conditionSelector(main ports.Selector[domain.SimpleTally], threshold *ThresholdConfig) (ports.Selector[domain.SimpleTally], error) {
	if threshold == nil {
		return main, nil
	}
	elim, err := buildThreshold(threshold)
	if err != nil {
		return nil, err
	}
	return evaluate.NewConditioned[domain.SimpleTally, domain.Selection](elim, main, evaluate.SubsetSimple)
}

// finishDistributor applies the optional threshold and tie-break wrappers
// shared by the proportional kinds.
func finishDistributor(main ports.Distributor[domain.SimpleTally], cfg SystemConfig) (ports.Distributor[domain.SimpleTally], error) {
	var out ports.Distributor[domain.SimpleTally] = main
	if cfg.Threshold != nil {
		elim, err := buildThreshold(cfg.Threshold)
		if err != nil {
			return nil, err
		}
		out, err = evaluate.NewConditioned[domain.SimpleTally, domain.Distribution](elim, out, evaluate.SubsetSimple)
		if err != nil {
			return nil, err
		}
	}
	if len(cfg.TiebreakPriority) > 0 {
		prio, err := priority(cfg.TiebreakPriority)
		if err != nil {
			return nil, err
		}
		return evaluate.NewTieBreaking[domain.SimpleTally, domain.Distribution](out, prio, evaluate.SubsetSimple)
	}
	return out, nil
}

func buildThreshold(cfg *ThresholdConfig) (ports.Eliminator[domain.SimpleTally], error) {
	ratio, err := parseRat(cfg.Ratio)
	if err != nil {
		return nil, fmt.Errorf("%w: threshold ratio: %v", domain.ErrConfiguration, err)
	}
	return evaluate.NewRelativeThreshold(ratio, cfg.AcceptEqual)
}

// tiebreakSelector wraps a selector with priority-order tie breaking when a
// priority list is configured.
func tiebreakSelector(main ports.Selector[domain.SimpleTally], names []string) (ports.Selector[domain.SimpleTally], error) {
	if len(names) == 0 {
		return main, nil
	}
	prio, err := priority(names)
	if err != nil {
		return nil, err
	}
	return evaluate.NewTieBreaking[domain.SimpleTally, domain.Selection](main, prio, evaluate.SubsetSimple)
}

func priority(names []string) (*evaluate.PrioritySelector, error) {
	cands := make([]domain.Candidate, len(names))
	for i, name := range names {
		cands[i] = domain.Candidate(name)
	}
	return evaluate.NewPrioritySelector(cands)
}

// parseRat parses an exact rational from "a/b" or decimal notation.
func parseRat(s string) (*big.Rat, error) {
	out, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid rational %q", s)
	}
	return out, nil
}
