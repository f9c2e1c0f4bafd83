package escalate

import (
	"strings"
	"testing"
)

func TestSplitPosition(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		position string
		advice   string
	}{
		{
			name:     "well formed",
			text:     "POSITION: redesign\nSplit the store interface first.",
			position: "redesign",
			advice:   "Split the store interface first.",
		},
		{
			name:     "lowercase header",
			text:     "position: proceed\nLooks fine.",
			position: "proceed",
			advice:   "Looks fine.",
		},
		{
			name:     "no header",
			text:     "Just some prose advice.",
			position: "",
			advice:   "Just some prose advice.",
		},
		{
			name:     "header only",
			text:     "POSITION: defer",
			position: "defer",
			advice:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, advice := splitPosition(tt.text)
			if pos != tt.position || advice != tt.advice {
				t.Errorf("splitPosition() = (%q, %q), want (%q, %q)", pos, advice, tt.position, tt.advice)
			}
		})
	}
}

func TestBuildConsultPromptIncludesPriorAdvice(t *testing.T) {
	req := Request{
		Context:     testContext(),
		Category:    "architecture",
		Findings:    "the cache layer leaks goroutines",
		PriorAdvice: "instrument the pool first",
	}
	prompt := buildConsultPrompt(req)
	for _, want := range []string{"architecture", "the cache layer leaks goroutines", "instrument the pool first"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
