package assess

import (
	"testing"

	"github.com/ShayCichocki/foreman/pkg/models"
)

func TestAssessZero(t *testing.T) {
	f := Assess(TaskContext{Description: "rename a local variable"})
	if f != (models.ComplexityFactors{}) {
		t.Errorf("trivial task factors = %+v, want all zero", f)
	}
	if f.Score() != 0 {
		t.Errorf("trivial task score = %d, want 0", f.Score())
	}
}

func TestAssessDeterministic(t *testing.T) {
	tc := TaskContext{
		Description:    "fix intermittent race in the scheduler under production load",
		Dependencies:   []string{"store", "router"},
		AmbiguityFlags: []string{"unknown trigger"},
		Urgency:        "urgent",
	}
	first := Assess(tc)
	for i := 0; i < 50; i++ {
		if got := Assess(tc); got != first {
			t.Fatalf("assessment changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestAssessFactors(t *testing.T) {
	tests := []struct {
		name string
		tc   TaskContext
		want models.ComplexityFactors
	}{
		{
			name: "depth keywords",
			tc:   TaskContext{Description: "resolve deadlock in distributed lock protocol"},
			// deadlock + distributed + protocol: capped at 2.
			want: models.ComplexityFactors{TechnicalDepth: 2},
		},
		{
			name: "dependency scaling",
			tc:   TaskContext{Dependencies: []string{"a", "b", "c", "d"}},
			want: models.ComplexityFactors{IntegrationScope: 2},
		},
		{
			name: "one dependency",
			tc:   TaskContext{Dependencies: []string{"a"}},
			want: models.ComplexityFactors{IntegrationScope: 1},
		},
		{
			name: "ambiguity",
			tc:   TaskContext{AmbiguityFlags: []string{"which API version?"}},
			want: models.ComplexityFactors{Uncertainty: 1},
		},
		{
			name: "urgency soon",
			tc:   TaskContext{Urgency: "soon"},
			want: models.ComplexityFactors{TimeCriticality: 1},
		},
		{
			name: "urgency urgent",
			tc:   TaskContext{Urgency: "urgent"},
			want: models.ComplexityFactors{TimeCriticality: 2},
		},
		{
			name: "failure impact",
			tc:   TaskContext{Description: "update auth token handling for production"},
			want: models.ComplexityFactors{FailureImpact: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assess(tt.tc); got != tt.want {
				t.Errorf("Assess() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAssessScoreWithinBounds(t *testing.T) {
	tc := TaskContext{
		Description:    "migration of the auth schema: crypto, concurrency, production, payment, data loss",
		Dependencies:   []string{"a", "b", "c", "d", "e"},
		AmbiguityFlags: []string{"x", "y", "z"},
		Urgency:        "urgent",
	}
	score := Assess(tc).Score()
	if score != models.ScoreMax {
		t.Errorf("maximal task score = %d, want %d", score, models.ScoreMax)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		description string
		want        Category
	}{
		{"redesign the storage interface boundary", CategoryArchitecture},
		{"intermittent crash on startup, cannot reproduce locally", CategoryRootCause},
		{"add a --verbose flag", CategoryGeneral},
		// Architecture wins when both families of keywords match.
		{"flaky test after schema migration", CategoryArchitecture},
	}
	for _, tt := range tests {
		if got := Classify(tt.description); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.description, got, tt.want)
		}
	}
}
