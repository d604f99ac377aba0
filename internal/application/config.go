// Package application assembles evaluator trees from declarative election
// system configuration: YAML config structs validated at load time, a
// builder resolving quota/divisor/transfer names through the registries,
// and a concurrent batch runner for evaluating many independent tallies.
package application

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-psephos/internal/domain"
)

// validate is the package-wide validator instance.
var validate = validator.New()

// ThresholdConfig configures an electoral threshold applied before seat
// allocation.
type ThresholdConfig struct {
	// Ratio is the vote-share hurdle as an exact fraction, e.g. "1/20" for
	// a five-percent threshold.
	Ratio string `yaml:"ratio" validate:"required"`

	// AcceptEqual admits parties exactly at the hurdle.
	AcceptEqual bool `yaml:"accept_equal"`
}

// SystemConfig is the declarative description of one election system. Which
// fields are required depends on the kind; the builder reports missing or
// unknown component names as configuration errors.
type SystemConfig struct {
	// Kind selects the evaluation method.
	Kind string `yaml:"kind" validate:"required,oneof=plurality largest_remainder highest_averages transferable_vote biproportional"`

	// Seats is the number of seats the system fills.
	Seats int `yaml:"seats" validate:"required,min=1"`

	// Quota names the quota function (largest_remainder, transferable_vote).
	Quota string `yaml:"quota"`

	// Divisor names the divisor function (highest_averages, biproportional).
	Divisor string `yaml:"divisor"`

	// Transfer names the vote-transfer strategy (transferable_vote):
	// "gregory" or "hare".
	Transfer string `yaml:"transfer"`

	// Seed fixes the random source of sampling strategies. Leaving it unset
	// makes Hare transfers deliberately non-reproducible.
	Seed *int64 `yaml:"seed"`

	// MandatoryQuota disables the transferable vote's early-exhaustion
	// shortcut.
	MandatoryQuota bool `yaml:"mandatory_quota"`

	// QuotaStrictlyGreater requires totals to exceed the quota rather than
	// merely reach it.
	QuotaStrictlyGreater bool `yaml:"quota_strictly_greater"`

	// Threshold applies an electoral threshold before allocation
	// (plurality, largest_remainder, highest_averages).
	Threshold *ThresholdConfig `yaml:"threshold"`

	// TiebreakPriority resolves result ties by this fixed candidate order.
	TiebreakPriority []string `yaml:"tiebreak_priority"`

	// Signpost supplies the rounding boundary constant for biproportional
	// apportionment with divisors that have no established one, as an exact
	// fraction, e.g. "1/2".
	Signpost string `yaml:"signpost"`

	// DistrictSeats fixes per-district seat targets for biproportional
	// apportionment instead of apportioning them from turnout.
	DistrictSeats map[string]int `yaml:"district_seats"`
}

// ParseSystemConfig decodes and validates a YAML system configuration.
func ParseSystemConfig(data []byte) (SystemConfig, error) {
	var cfg SystemConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SystemConfig{}, fmt.Errorf("%w: parsing system config: %v", domain.ErrConfiguration, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return SystemConfig{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

// LoadSystemConfig reads and parses a YAML system configuration.
func LoadSystemConfig(r io.Reader) (SystemConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return SystemConfig{}, fmt.Errorf("reading system config: %w", err)
	}
	return ParseSystemConfig(data)
}
