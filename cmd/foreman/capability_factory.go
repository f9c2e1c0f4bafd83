package main

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/foreman/internal/config"
	"github.com/ShayCichocki/foreman/internal/escalate"
)

// advisorPrompts frames each consultation capability's specialty.
var advisorPrompts = map[string]string{
	"architecture-advisor": "You advise on software architecture and structural design. Weigh coupling, interfaces, and long-term maintainability.",
	"diagnosis-advisor":    "You advise on root-cause analysis for ambiguous failures. Reason from symptoms to the narrowest plausible cause.",
	"review-advisor":       "You review proposed approaches for correctness and risk before work starts.",
	"general-advisor":      "You give practical engineering advice on how to approach a task.",
}

// buildRouter assembles the escalation router from configuration.
// Returns nil when escalation is disabled; executors then work
// unassisted at every complexity.
func buildRouter(cfg *config.Config) (*escalate.Router, error) {
	if !cfg.Escalation.Enabled {
		return nil, nil
	}

	routerCfg := escalate.DefaultRouterConfig()
	if cfg.Escalation.ConsultTimeout > 0 {
		routerCfg.ConsultTimeout = cfg.Escalation.ConsultTimeout
	}
	if cfg.Escalation.ConsensusTolerance > 0 {
		routerCfg.ConsensusTolerance = cfg.Escalation.ConsensusTolerance
	}

	capabilities, err := buildCapabilities(cfg)
	if err != nil {
		return nil, err
	}

	return escalate.NewRouter(routerCfg, capabilities), nil
}

// buildCapabilities creates one capability per advisor. Claude-backed
// when credentials are available, canned otherwise so offline runs and
// dry runs still complete.
func buildCapabilities(cfg *config.Config) ([]escalate.Capability, error) {
	online := cfg.AWS.UseBedrock ||
		cfg.Anthropic.APIKey != "" ||
		os.Getenv("ANTHROPIC_API_KEY") != ""

	var capabilities []escalate.Capability
	for name, prompt := range advisorPrompts {
		if !online {
			capabilities = append(capabilities, &escalate.StaticCapability{
				CapabilityName: name,
				Recommendation: escalate.Recommendation{
					Position: "proceed",
					Advice:   "no consultation backend configured; proceed with the task as described",
				},
			})
			continue
		}

		c, err := escalate.NewClaudeCapability(escalate.ClaudeConfig{
			Name:          name,
			Model:         anthropic.Model(cfg.Escalation.Model),
			APIKey:        cfg.Anthropic.APIKey,
			SystemPrompt:  prompt,
			UseAWSBedrock: cfg.AWS.UseBedrock,
			AWSRegion:     cfg.AWS.Region,
			AWSProfile:    cfg.AWS.Profile,
		})
		if err != nil {
			return nil, fmt.Errorf("create capability %s: %w", name, err)
		}
		capabilities = append(capabilities, c)
	}

	return capabilities, nil
}
