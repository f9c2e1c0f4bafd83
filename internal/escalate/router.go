package escalate

import (
	"context"
	"fmt"
	"time"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// DefaultConsultTimeout bounds a single capability call.
const DefaultConsultTimeout = 2 * time.Minute

// RouterConfig configures capability selection per tier.
type RouterConfig struct {
	// SingleByCategory maps a routing category to the one capability
	// consulted at the single tier. The empty key is the fallback.
	SingleByCategory map[string]string
	// ChainByCategory maps a category to the ordered pair consulted at
	// the chained tier; the second call receives the first's advice.
	ChainByCategory map[string][2]string
	// ConsensusPanel names the capabilities fanned out to at the
	// consensus tier.
	ConsensusPanel []string
	// ConsensusTolerance is the fraction of the panel allowed to
	// dissent from the leading position before the decision is
	// surfaced instead of resolved. Must be configured; there is no
	// universally right value.
	ConsensusTolerance float64
	// ConsultTimeout bounds each capability call. Zero means
	// DefaultConsultTimeout.
	ConsultTimeout time.Duration
}

// DefaultRouterConfig returns the built-in capability wiring.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		SingleByCategory: map[string]string{
			"architecture": "architecture-advisor",
			"root-cause":   "diagnosis-advisor",
			"":             "general-advisor",
		},
		ChainByCategory: map[string][2]string{
			"architecture": {"architecture-advisor", "review-advisor"},
			"root-cause":   {"diagnosis-advisor", "review-advisor"},
			"":             {"general-advisor", "review-advisor"},
		},
		ConsensusPanel:     []string{"architecture-advisor", "diagnosis-advisor", "general-advisor"},
		ConsensusTolerance: 0.34,
		ConsultTimeout:     DefaultConsultTimeout,
	}
}

// Router maps complexity scores to consultation plans and executes them.
type Router struct {
	cfg          RouterConfig
	capabilities map[string]Capability
}

// NewRouter creates a router over the given capabilities.
func NewRouter(cfg RouterConfig, capabilities []Capability) *Router {
	if cfg.ConsultTimeout <= 0 {
		cfg.ConsultTimeout = DefaultConsultTimeout
	}
	byName := make(map[string]Capability, len(capabilities))
	for _, c := range capabilities {
		byName[c.Name()] = c
	}
	return &Router{cfg: cfg, capabilities: byName}
}

// Route maps a score and category to an escalation decision. Pure: no
// capability is contacted and no state is read.
func (r *Router) Route(score int, category string) models.EscalationDecision {
	tier := models.TierForScore(score)

	switch tier {
	case models.TierNone:
		return models.EscalationDecision{Tier: models.TierNone}

	case models.TierSingle:
		name := r.lookupSingle(category)
		if name == "" {
			return models.EscalationDecision{Tier: models.TierNone}
		}
		return models.EscalationDecision{Tier: tier, Capabilities: []string{name}}

	case models.TierChained:
		pair, ok := r.cfg.ChainByCategory[category]
		if !ok {
			pair, ok = r.cfg.ChainByCategory[""]
		}
		if !ok {
			return models.EscalationDecision{Tier: models.TierNone}
		}
		return models.EscalationDecision{Tier: tier, Capabilities: pair[:]}

	default: // TierConsensus
		if len(r.cfg.ConsensusPanel) == 0 {
			return models.EscalationDecision{Tier: models.TierNone}
		}
		caps := make([]string, len(r.cfg.ConsensusPanel))
		copy(caps, r.cfg.ConsensusPanel)
		return models.EscalationDecision{Tier: tier, Capabilities: caps}
	}
}

// lookupSingle resolves the single-tier capability for a category.
func (r *Router) lookupSingle(category string) string {
	if name, ok := r.cfg.SingleByCategory[category]; ok {
		return name
	}
	return r.cfg.SingleByCategory[""]
}

// Execute runs a consultation plan.
//
// Single and chained tiers degrade to a no-escalation outcome on any
// capability error or timeout. The consensus tier degrades only when the
// whole panel is unavailable; a panel that answers but disagrees beyond
// the configured tolerance returns ConsensusSplitError so the supervisor
// decides, never the router.
func (r *Router) Execute(ctx context.Context, decision models.EscalationDecision, ec models.ExecutionContext, category, findings string) (Outcome, error) {
	if decision.None() {
		return Outcome{}, nil
	}

	switch decision.Tier {
	case models.TierSingle:
		rec, err := r.consult(ctx, decision.Capabilities[0], Request{
			Context: ec, Category: category, Findings: findings,
		})
		if err != nil {
			return Outcome{Degraded: true}, nil
		}
		return Outcome{Advice: rec.Advice, CapabilitiesUsed: []string{rec.Capability}}, nil

	case models.TierChained:
		first, err := r.consult(ctx, decision.Capabilities[0], Request{
			Context: ec, Category: category, Findings: findings,
		})
		if err != nil {
			return Outcome{Degraded: true}, nil
		}
		second, err := r.consult(ctx, decision.Capabilities[1], Request{
			Context: ec, Category: category, Findings: findings, PriorAdvice: first.Advice,
		})
		if err != nil {
			// Keep the first opinion rather than discarding the
			// whole consultation.
			return Outcome{Advice: first.Advice, CapabilitiesUsed: []string{first.Capability}}, nil
		}
		return Outcome{
			Advice:           second.Advice,
			CapabilitiesUsed: []string{first.Capability, second.Capability},
		}, nil

	case models.TierConsensus:
		return r.executeConsensus(ctx, decision, ec, category, findings)

	default:
		return Outcome{}, fmt.Errorf("unknown escalation tier %q", decision.Tier)
	}
}

// consult invokes one capability under the configured timeout.
func (r *Router) consult(ctx context.Context, name string, req Request) (Recommendation, error) {
	c, ok := r.capabilities[name]
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: capability %q not registered", ErrUnavailable, name)
	}

	cctx, cancel := context.WithTimeout(ctx, r.cfg.ConsultTimeout)
	defer cancel()

	rec, err := c.Consult(cctx, req)
	if err != nil {
		return Recommendation{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}
	rec.Capability = name
	return rec, nil
}
