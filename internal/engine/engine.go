package engine

import (
	"math"
	"sync"
	"time"

	"golang-lettrage-service/internal/models"
	"golang-lettrage-service/pkg/logger"
)

// Engine runs the lettrage pipeline over a batch of ledger lines
type Engine struct {
	config *Config
	log    logger.Logger
}

// New creates an engine, validating the configuration before anything else
func New(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		config: config.Clone(),
		log:    logger.GetGlobalLogger().WithComponent("engine"),
	}, nil
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Run executes the full pipeline: filter, per-tier reduce/skip/generate,
// rank, resolve, build outputs. It is a pure function of (lines, today,
// config): identical inputs give byte-identical tables and lettrage ids,
// whatever the worker count, because per-tier candidate slices are merged
// back in tier-code order before any ranking happens.
func (e *Engine) Run(lines []*models.LedgerLine, today time.Time) *Result {
	start := time.Now()
	toleranceCents := e.config.ToleranceCents()

	filtered := FilterLines(lines, today, e.config.AccountCode)
	groups, codes := GroupByTier(filtered)

	e.log.WithFields(logger.Fields{
		"lines_total":    len(lines),
		"lines_eligible": len(filtered),
		"tiers":          len(codes),
		"tolerance":      toleranceCents,
	}).Info("Starting lettrage run")

	perTier := e.generateAllTiers(groups, codes, toleranceCents)

	var candidates []*Candidate
	for _, tierCandidates := range perTier {
		candidates = append(candidates, tierCandidates...)
	}
	for i, candidate := range candidates {
		candidate.seq = i
	}

	best := BestCandidatesByPayment(candidates)
	selected := ResolveCandidates(best)
	lettrages, lettered, remaining := BuildOutputs(filtered, selected)

	elapsed := math.Round(time.Since(start).Seconds()*1000) / 1000

	e.log.WithFields(logger.Fields{
		"candidates": len(candidates),
		"retained":   len(selected),
		"remaining":  len(remaining),
		"elapsed_s":  elapsed,
	}).Info("Lettrage run complete")

	return &Result{
		Lettrages:      lettrages,
		LetteredLines:  lettered,
		RemainingLines: remaining,
		Metrics: Metrics{
			TiersConsidered:     len(codes),
			CandidatesGenerated: len(candidates),
			LettragesRetained:   len(lettrages),
			ElapsedSeconds:      elapsed,
		},
	}
}

// generateAllTiers runs reduce → skip → generate for every tier and
// returns the per-tier candidate slices indexed by tier-code order. Tiers
// are independent, so with Workers > 1 they fan out over a small pool; the
// indexed result slice keeps the merged stream identical to a sequential
// run.
func (e *Engine) generateAllTiers(groups map[string][]*models.LedgerLine, codes []string, toleranceCents int64) [][]*Candidate {
	results := make([][]*Candidate, len(codes))

	processTier := func(i int) {
		reduced := ReduceTierLines(groups[codes[i]], e.config.MaxLinesPerTier)
		results[i] = e.buildTierCandidates(reduced, toleranceCents)
	}

	if e.config.Workers <= 1 || len(codes) <= 1 {
		for i := range codes {
			processTier(i)
		}
		return results
	}

	workers := e.config.Workers
	if workers > len(codes) {
		workers = len(codes)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				processTier(i)
			}
		}()
	}
	for i := range codes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
