package mixture

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Config carries every knob of a single distribution computation. There are
// no hidden defaults: the zero value of each optional field disables it.
type Config struct {
	// TotalTrainingTokens is the training budget the mixture is computed
	// against. Must be positive.
	TotalTrainingTokens int64
	// Drop lists, per original language, dataset names excluded before any
	// aggregation.
	Drop map[string][]string
	// Merge reassigns the listed dataset names to a target language group
	// for aggregation. Unlisted datasets aggregate under their own language.
	Merge map[string][]string
	// Fixed pins final proportions for the named groups. Values must lie in
	// [0,1] and sum to at most 1; the remainder is split proportionally to
	// token volume among the non-fixed groups.
	Fixed map[string]float64
	// MinThreshold, when positive, is the floor for non-fixed group
	// proportions. Groups below it are bumped to exactly this value, funded
	// by proportionally shrinking the remaining non-fixed groups. When those
	// remaining groups have nothing to give, the floor is not enforced and
	// the distribution is left as computed.
	MinThreshold float64
}

// Result is the complete output of one computation.
type Result struct {
	// Distribution maps each language group to its final proportion,
	// rounded to 4 decimals and summing to exactly 1.
	Distribution map[string]float64
	// TotalAvailableTokens is the token volume surviving the drop rules.
	TotalAvailableTokens int64
	// UsageReport estimates, per group with available data, how many times
	// the group's data is repeated to fill its share of the budget.
	UsageReport map[string]float64
	// DatasetProportions maps each dataset path to its share of the
	// training budget, rounded to 4 decimals and summing to exactly 1.
	DatasetProportions map[string]float64
}

// Calculator computes training mixtures. It is stateless across calls; every
// Compute is a pure function of the records and the configuration.
type Calculator struct {
	cfg Config
	log *zap.Logger
}

// New returns a Calculator for cfg. A nil logger disables diagnostics.
func New(cfg Config, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{cfg: cfg, log: logger}
}

// Compute runs the full pipeline: drop, merge-aggregate, allocate, enforce
// the minimum floor, normalize and round, then derive the usage report and
// per-dataset proportions. It either returns a complete Result or an error;
// there are no partial results.
func (c *Calculator) Compute(records []Record) (*Result, error) {
	fixedSum, err := c.validate(records)
	if err != nil {
		return nil, err
	}

	// Stage 1: drop rules apply to the original language, before merging.
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if !contains(c.cfg.Drop[r.Lang], r.Dataset) {
			filtered = append(filtered, r)
		}
	}
	c.log.Debug("applied drop rules",
		zap.Int("records_in", len(records)), zap.Int("records_kept", len(filtered)))

	// Stage 2: aggregate tokens per merge target.
	target := make(map[string]string)
	for group, datasets := range c.cfg.Merge {
		for _, ds := range datasets {
			target[ds] = group
		}
	}
	groupTokens := make(map[string]int64)
	var totalAvailable int64
	for _, r := range filtered {
		groupTokens[c.groupOf(target, r)] += r.Tokens
		totalAvailable += r.Tokens
	}

	// Stage 3: fixed groups keep their configured share; the rest of the
	// budget is split among non-fixed groups proportionally to volume. A
	// fixed group with no data still enters the distribution.
	var leftover int64
	for g, tok := range groupTokens {
		if _, fixed := c.cfg.Fixed[g]; !fixed {
			leftover += tok
		}
	}
	dist := make(map[string]float64, len(groupTokens)+len(c.cfg.Fixed))
	if leftover > 0 {
		for g, tok := range groupTokens {
			if v, fixed := c.cfg.Fixed[g]; fixed {
				dist[g] = v
			} else {
				dist[g] = float64(tok) / float64(leftover) * (1 - fixedSum)
			}
		}
		for g, v := range c.cfg.Fixed {
			if _, ok := dist[g]; !ok {
				dist[g] = v
			}
		}
	} else {
		// No non-fixed data at all: non-fixed groups get nothing.
		c.log.Debug("no leftover tokens, falling back to fixed proportions")
		for g, v := range c.cfg.Fixed {
			dist[g] = v
		}
	}

	// Stage 4: enforce the minimum floor on non-fixed groups.
	if c.cfg.MinThreshold > 0 {
		c.applyThreshold(dist, fixedSum)
	}

	// Stage 5: normalize away residual drift, round to 4 decimals, and push
	// the rounding remainder onto the largest group.
	var total float64
	for _, v := range dist {
		total += v
	}
	if total > 0 {
		for g, v := range dist {
			dist[g] = v / total
		}
	}
	for g, v := range dist {
		dist[g] = round4(v)
	}
	correctRemainder(dist)

	// Stage 6: epoch estimates, only where data exists.
	usage := make(map[string]float64)
	for g, p := range dist {
		if tok := groupTokens[g]; tok > 0 {
			usage[g] = p * float64(c.cfg.TotalTrainingTokens) / float64(tok)
		}
	}

	// Stage 7: per-dataset shares against the final group proportions,
	// rounded and corrected independently of the group-level pass.
	dsProps := make(map[string]float64, len(filtered))
	for _, r := range filtered {
		g := c.groupOf(target, r)
		p, ok := dist[g]
		if tok := groupTokens[g]; ok && tok > 0 {
			dsProps[r.Path] = p * float64(r.Tokens) / float64(tok)
		}
	}
	for path, v := range dsProps {
		dsProps[path] = round4(v)
	}
	correctRemainder(dsProps)

	c.log.Debug("computed distribution",
		zap.Int("groups", len(dist)),
		zap.Int("datasets", len(dsProps)),
		zap.Int64("total_available_tokens", totalAvailable))

	return &Result{
		Distribution:         dist,
		TotalAvailableTokens: totalAvailable,
		UsageReport:          usage,
		DatasetProportions:   dsProps,
	}, nil
}

// applyThreshold bumps non-fixed groups under the floor to exactly the floor
// and rescales the remaining non-fixed groups to pay for it. When there is
// nothing to rescale the stage is a no-op, even if groups stay under the
// floor: a known limitation, kept rather than guessed around.
func (c *Calculator) applyThreshold(dist map[string]float64, fixedSum float64) {
	thr := c.cfg.MinThreshold
	var bumped []string
	for g, v := range dist {
		if _, fixed := c.cfg.Fixed[g]; !fixed && v < thr {
			bumped = append(bumped, g)
		}
	}
	if len(bumped) == 0 {
		return
	}
	bumpTotal := thr * float64(len(bumped))
	var adjustTotal float64
	for g, v := range dist {
		if _, fixed := c.cfg.Fixed[g]; fixed || contains(bumped, g) {
			continue
		}
		adjustTotal += v
	}
	if adjustTotal <= 0 {
		c.log.Debug("threshold not enforceable, leaving distribution as is",
			zap.Int("groups_under_threshold", len(bumped)))
		return
	}
	scale := (1 - fixedSum - bumpTotal) / adjustTotal
	for g, v := range dist {
		if _, fixed := c.cfg.Fixed[g]; fixed || contains(bumped, g) {
			continue
		}
		dist[g] = v * scale
	}
	for _, g := range bumped {
		dist[g] = thr
	}
	c.log.Debug("enforced minimum threshold",
		zap.Float64("threshold", thr),
		zap.Int("groups_bumped", len(bumped)),
		zap.Float64("scale_factor", scale))
}

// validate checks the configuration and every record up front. It returns the
// fixed-proportion sum so Compute does not recompute it.
func (c *Calculator) validate(records []Record) (float64, error) {
	if c.cfg.TotalTrainingTokens <= 0 {
		return 0, &ValidationError{Reason: fmt.Sprintf(
			"total training tokens must be positive, got %d", c.cfg.TotalTrainingTokens)}
	}
	for i, r := range records {
		if r.Lang == "" || r.Dataset == "" || r.Path == "" || r.Tokens < 0 {
			return 0, &ValidationError{Reason: fmt.Sprintf(
				"record %d (%s/%s): lang, dataset, path and a non-negative token count are required",
				i, r.Lang, r.Dataset)}
		}
	}
	var fixedSum float64
	for g, v := range c.cfg.Fixed {
		if v < 0 || v > 1 {
			return 0, &ValidationError{Reason: fmt.Sprintf(
				"fixed proportion for %s must be in [0,1], got %g", g, v)}
		}
		fixedSum += v
	}
	if fixedSum > 1 {
		return 0, &ValidationError{Reason: fmt.Sprintf(
			"fixed proportions sum to more than 1: %g", fixedSum)}
	}
	return fixedSum, nil
}

// groupOf resolves a record to its aggregation group: the merge target of its
// dataset when listed, its own language otherwise.
func (c *Calculator) groupOf(target map[string]string, r Record) string {
	if g, ok := target[r.Dataset]; ok {
		return g
	}
	return r.Lang
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// correctRemainder adds the 4-decimal rounding remainder to the entry with
// the largest value; ties resolve to the lexicographically smallest key, so
// results do not depend on map iteration order.
func correctRemainder(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	var sum float64
	for _, v := range m {
		sum += v
	}
	diff := round4(1 - sum)
	if diff == 0 {
		return
	}
	var largest string
	first := true
	for k, v := range m {
		if first || v > m[largest] || (v == m[largest] && k < largest) {
			largest = k
			first = false
		}
	}
	m[largest] = round4(m[largest] + diff)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
