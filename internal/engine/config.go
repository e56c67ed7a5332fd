// Package engine implements the lettrage matching core.
//
// Given a batch of customer ledger lines and a reference date, the engine
// proposes groups of lines whose signed amounts cancel within a monetary
// tolerance and resolves them into a disjoint set of lettrages.
//
// The pipeline runs in fixed stages:
//  1. Filtering to eligible lines (due date known and past, control account)
//  2. Per-tier reduction to bound combinatorial work
//  3. A cheap skip heuristic for tiers with no possible match
//  4. Bounded depth-first candidate generation per payment anchor
//  5. Best-candidate selection per payment line
//  6. Greedy conflict resolution into a disjoint global selection
//
// The engine is a pure computation over in-memory data: it performs no I/O,
// holds no state between runs, and produces identical output for identical
// input ordering and configuration. The configured caps are hard ceilings
// and the only guard against runaway search cost.
//
// Example usage:
//
//	config := engine.DefaultConfig()
//	config.Tolerance = decimal.NewFromFloat(0.05)
//
//	eng, err := engine.New(config)
//	result := eng.Run(lines, today)
package engine

import (
	"github.com/shopspring/decimal"

	"golang-lettrage-service/pkg/errors"
)

// DefaultAccountCode is the customer-control account the tool reconciles
const DefaultAccountCode = "41100000"

// Config holds the engine tunables. Zero or negative caps are rejected up
// front; a cap silently treated as "unlimited" would defeat the resource
// bounds the search relies on.
type Config struct {
	// Tolerance is the accepted gap in major currency units
	Tolerance decimal.Decimal `json:"tolerance"`

	// AccountCode selects the customer-control account lines to reconcile
	AccountCode string `json:"account_code"`

	// MaxGroupLines caps the number of non-payment lines per group
	MaxGroupLines int `json:"max_group_lines"`

	// MaxLinesPerTier caps the lines considered per tier before search
	MaxLinesPerTier int `json:"max_lines_per_tier"`

	// AllowMultiPayment enables payment-pair anchors
	AllowMultiPayment bool `json:"allow_multi_payment"`

	// MaxPaymentsPerGroup caps payments per group. The generator only ever
	// builds singles and pairs, so values above 2 have no further effect.
	MaxPaymentsPerGroup int `json:"max_payments_per_group"`

	// MaxCandidatesPerPayment caps results per payment anchor (soft cutoff)
	MaxCandidatesPerPayment int `json:"max_candidates_per_payment"`

	// Workers sets the per-tier fan-out; 1 runs tiers sequentially
	Workers int `json:"workers"`
}

// DefaultConfig returns the standard production tunables
func DefaultConfig() *Config {
	return &Config{
		Tolerance:               decimal.NewFromFloat(0.05),
		AccountCode:             DefaultAccountCode,
		MaxGroupLines:           6,
		MaxLinesPerTier:         200,
		AllowMultiPayment:       true,
		MaxPaymentsPerGroup:     2,
		MaxCandidatesPerPayment: 500,
		Workers:                 1,
	}
}

// Validate checks the configuration before any processing begins
func (c *Config) Validate() error {
	if c.Tolerance.IsNegative() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "tolerance", c.Tolerance.String(), nil).
			WithSuggestion("tolerance must be zero or positive")
	}

	if c.AccountCode == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "account_code", c.AccountCode, nil)
	}

	if c.MaxGroupLines < 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max_group_lines", c.MaxGroupLines, nil).
			WithSuggestion("the non-payment line cap must be at least 1")
	}

	if c.MaxLinesPerTier < 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max_lines_per_tier", c.MaxLinesPerTier, nil).
			WithSuggestion("the per-tier line cap must be at least 1")
	}

	if c.MaxPaymentsPerGroup < 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max_payments_per_group", c.MaxPaymentsPerGroup, nil).
			WithSuggestion("the payment cap must be at least 1")
	}

	if c.MaxCandidatesPerPayment < 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max_candidates_per_payment", c.MaxCandidatesPerPayment, nil).
			WithSuggestion("the candidate cap must be at least 1")
	}

	if c.Workers < 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "workers", c.Workers, nil).
			WithSuggestion("worker count must be at least 1")
	}

	return nil
}

// ToleranceCents converts the tolerance to integer cents, rounding to the
// nearest cent. All engine arithmetic uses cents.
func (c *Config) ToleranceCents() int64 {
	return c.Tolerance.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
