package escalate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// ClaudeConfig configures a Claude-backed consultation capability.
type ClaudeConfig struct {
	// Name is the capability's registry name (e.g. "architecture-advisor").
	Name string
	// Model is the Claude model to consult.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, ANTHROPIC_API_KEY is used.
	APIKey string
	// SystemPrompt frames the capability's specialty.
	SystemPrompt string
	// UseAWSBedrock routes calls through AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// ClaudeCapability consults a Claude model for a recommendation.
type ClaudeCapability struct {
	name   string
	model  anthropic.Model
	system string
	client anthropic.Client
}

// NewClaudeCapability creates a Claude-backed capability.
func NewClaudeCapability(cfg ClaudeConfig) (*ClaudeCapability, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &ClaudeCapability{
		name:   cfg.Name,
		model:  model,
		system: cfg.SystemPrompt,
		client: anthropic.NewClient(opts...),
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// Name returns the capability's registry name.
func (c *ClaudeCapability) Name() string {
	return c.name
}

// Consult asks the model for a recommendation. The model is instructed to
// open its answer with a "POSITION:" line; the remainder is the advice.
func (c *ClaudeCapability) Consult(ctx context.Context, req Request) (Recommendation, error) {
	prompt := buildConsultPrompt(req)

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: c.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("consult %s: %w", c.name, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	position, advice := splitPosition(text.String())
	return Recommendation{Capability: c.name, Position: position, Advice: advice}, nil
}

// buildConsultPrompt renders a consultation request for the model.
func buildConsultPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %s (project %s, scope %s), category %s.\n\n",
		req.Context.TaskID, req.Context.ProjectID, req.Context.ScopeTag, req.Category)
	fmt.Fprintf(&b, "Findings so far:\n%s\n", req.Findings)
	if req.PriorAdvice != "" {
		fmt.Fprintf(&b, "\nA prior consultation recommended:\n%s\n", req.PriorAdvice)
	}
	b.WriteString("\nAnswer with a first line of the form 'POSITION: <proceed|redesign|defer>' followed by your recommendation.")
	return b.String()
}

// splitPosition extracts the POSITION: header from a model answer.
func splitPosition(text string) (position, advice string) {
	text = strings.TrimSpace(text)
	lines := strings.SplitN(text, "\n", 2)
	if strings.HasPrefix(strings.ToUpper(lines[0]), "POSITION:") {
		position = strings.TrimSpace(lines[0][len("POSITION:"):])
		if len(lines) > 1 {
			advice = strings.TrimSpace(lines[1])
		}
		return position, advice
	}
	return "", text
}

// StaticCapability returns a canned recommendation. It stands in for a
// real capability in tests and offline runs.
type StaticCapability struct {
	// CapabilityName is the registry name.
	CapabilityName string
	// Recommendation is returned verbatim from Consult.
	Recommendation Recommendation
	// Err, if set, is returned instead.
	Err error
}

// Name returns the capability's registry name.
func (s *StaticCapability) Name() string {
	return s.CapabilityName
}

// Consult returns the canned recommendation, honouring ctx cancellation.
func (s *StaticCapability) Consult(ctx context.Context, _ Request) (Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return Recommendation{}, err
	}
	if s.Err != nil {
		return Recommendation{}, s.Err
	}
	rec := s.Recommendation
	rec.Capability = s.CapabilityName
	return rec, nil
}

// Compile-time interface checks.
var (
	_ Capability = (*ClaudeCapability)(nil)
	_ Capability = (*StaticCapability)(nil)
)
