// Package explain turns a risk assessment into a short plain-language
// explanation via an OpenAI-compatible chat endpoint. Explanations are
// generated after scoring and never affect any score or premium.
package explain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/pvoronin/underwriter/internal/model"
)

// Explainer wraps the chat client with a rate limiter so batch scoring stays
// within API limits.
type Explainer struct {
	client  *openai.Client
	cfg     model.LLMConfig
	limiter *rate.Limiter
}

// New creates an explainer from the LLM configuration. An API key is
// required unless a custom base URL points at a local endpoint.
func New(cfg model.LLMConfig) (*Explainer, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	r := cfg.Rate
	if r <= 0 {
		r = 1
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Explainer{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(r), burst),
	}, nil
}

// Explain generates the explanation text for one assessment. The call is
// rate-limited and bounded by the configured timeout.
func (e *Explainer) Explain(ctx context.Context, a model.Applicant, assessment *model.RiskAssessment) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}

	timeout := time.Duration(e.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	llmModel := e.cfg.Model
	if llmModel == "" {
		llmModel = openai.GPT4oMini
	}
	maxTokens := e.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 400
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     llmModel,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You explain insurance risk assessments to applicants in plain language. Describe which factors drove the score; never promise outcomes or give legal advice.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(a, assessment),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt renders the applicant, the assessment and the selected model's
// top feature importances into the explanation prompt.
func BuildPrompt(a model.Applicant, assessment *model.RiskAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment produced by model %s:\n", assessment.Model)
	fmt.Fprintf(&b, "- Risk score: %d/100 (%s risk)\n", assessment.RiskScore, assessment.RiskCategory)
	fmt.Fprintf(&b, "- Claim probability: %.3f\n", assessment.ClaimProbability)
	fmt.Fprintf(&b, "- Suggested annual premium: $%d (base $%.0f, %s)\n",
		assessment.SuggestedPremium, assessment.BasePremium, assessment.PremiumAdjustment)

	fmt.Fprintf(&b, "\nApplicant:\n")
	fmt.Fprintf(&b, "- Driver age %d, vehicle age %d, vehicle type %s\n", a.DriverAge, a.VehicleAge, a.VehicleType)
	fmt.Fprintf(&b, "- Violations %d, accidents %d, prior claims %d\n", a.Violations, a.Accidents, a.PriorClaims)
	fmt.Fprintf(&b, "- Geographic risk %.2f, credit score %d\n", a.GeographicRisk, a.CreditScore)

	if len(assessment.FeatureImportance) > 0 {
		fmt.Fprintf(&b, "\nMost influential features for this model:\n")
		for _, fi := range topImportances(assessment.FeatureImportance, 5) {
			fmt.Fprintf(&b, "- %s (%.3f)\n", fi.name, fi.weight)
		}
	}

	b.WriteString("\nWrite 3-4 sentences explaining this assessment to the applicant.")
	return b.String()
}

type importance struct {
	name   string
	weight float64
}

func topImportances(m map[string]float64, n int) []importance {
	out := make([]importance, 0, len(m))
	for name, w := range m {
		out = append(out, importance{name, w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].name < out[j].name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
