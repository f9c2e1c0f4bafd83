package escalate

import (
	"context"
	"strings"
	"sync"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// executeConsensus fans out to the panel, reduces the answers by leading
// position, and enforces the dissent tolerance.
func (r *Router) executeConsensus(ctx context.Context, decision models.EscalationDecision, ec models.ExecutionContext, category, findings string) (Outcome, error) {
	type answer struct {
		rec Recommendation
		err error
	}

	answers := make([]answer, len(decision.Capabilities))
	var wg sync.WaitGroup
	for i, name := range decision.Capabilities {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			rec, err := r.consult(ctx, name, Request{
				Context: ec, Category: category, Findings: findings,
			})
			answers[i] = answer{rec: rec, err: err}
		}(i, name)
	}
	wg.Wait()

	var recs []Recommendation
	for _, a := range answers {
		if a.err == nil {
			recs = append(recs, a.rec)
		}
	}
	if len(recs) == 0 {
		// Whole panel down: degrade like the lower tiers do.
		return Outcome{Degraded: true}, nil
	}

	return reduce(recs, r.cfg.ConsensusTolerance)
}

// reduce folds panel recommendations into one outcome by leading position.
// Dissent beyond the tolerance is surfaced, not resolved.
func reduce(recs []Recommendation, tolerance float64) (Outcome, error) {
	positions := make(map[string][]string)
	byPosition := make(map[string]Recommendation)
	for _, rec := range recs {
		pos := normalizePosition(rec.Position)
		positions[pos] = append(positions[pos], rec.Capability)
		if _, ok := byPosition[pos]; !ok {
			byPosition[pos] = rec
		}
	}

	leading := ""
	for pos, caps := range positions {
		if leading == "" || len(caps) > len(positions[leading]) {
			leading = pos
		}
	}

	dissent := 1.0 - float64(len(positions[leading]))/float64(len(recs))
	if dissent > tolerance {
		return Outcome{}, &ConsensusSplitError{
			Positions: positions,
			Dissent:   dissent,
			Tolerance: tolerance,
		}
	}

	used := make([]string, 0, len(recs))
	for _, rec := range recs {
		used = append(used, rec.Capability)
	}
	return Outcome{Advice: byPosition[leading].Advice, CapabilitiesUsed: used}, nil
}

// normalizePosition canonicalizes a stance for comparison. An empty or
// unknown stance counts as "proceed" so a capability that only returned
// prose does not register as dissent.
func normalizePosition(pos string) string {
	pos = strings.ToLower(strings.TrimSpace(pos))
	if pos == "" {
		return "proceed"
	}
	return pos
}
