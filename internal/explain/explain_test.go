package explain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/pvoronin/underwriter/internal/model"
)

func testAssessment() *model.RiskAssessment {
	return &model.RiskAssessment{
		RiskScore:         70,
		ClaimProbability:  0.7,
		RiskCategory:      "High",
		BasePremium:       model.BasePremium,
		SuggestedPremium:  2460,
		PremiumAdjustPct:  105,
		PremiumAdjustment: "+105% due to risk factors",
		Model:             "gradient_boosting_classification",
		FeatureImportance: map[string]float64{
			"Violations":   0.35,
			"Driver_Age":   0.25,
			"Accidents":    0.20,
			"Vehicle_Age":  0.10,
			"Prior_Claims": 0.06,
			"Credit_Score": 0.04,
		},
	}
}

func TestNew_RequiresKeyOrBaseURL(t *testing.T) {
	if _, err := New(model.LLMConfig{}); err == nil {
		t.Error("expected an error without an API key or base URL")
	}
	if _, err := New(model.LLMConfig{BaseURL: "http://localhost:11434/v1"}); err != nil {
		t.Errorf("expected a local base URL to work without a key: %v", err)
	}
	if _, err := New(model.LLMConfig{APIKey: "test-key"}); err != nil {
		t.Errorf("expected a key alone to work: %v", err)
	}
}

func TestExplain_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("expected system and user messages, got %d", len(req.Messages))
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "  Your premium reflects recent violations and accidents.  ",
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := New(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
		Rate:    100,
		Burst:   10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := e.Explain(context.Background(), model.Applicant{DriverAge: 25, VehicleType: model.VehicleSportsCar}, testAssessment())
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if text != "Your premium reflects recent violations and accidents." {
		t.Errorf("expected trimmed completion text, got %q", text)
	}
}

func TestExplain_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	}))
	defer server.Close()

	e, err := New(model.LLMConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 5, Rate: 100, Burst: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Explain(context.Background(), model.Applicant{}, testAssessment()); err == nil {
		t.Error("expected an error for an empty completion")
	}
}

func TestBuildPrompt(t *testing.T) {
	a := model.Applicant{
		DriverAge:      25,
		VehicleAge:     3,
		VehicleType:    model.VehicleSportsCar,
		Violations:     2,
		Accidents:      1,
		GeographicRisk: 1.0,
		CreditScore:    700,
	}

	prompt := BuildPrompt(a, testAssessment())

	for _, want := range []string{
		"gradient_boosting_classification",
		"70/100",
		"High risk",
		"$2460",
		"+105% due to risk factors",
		"Sports Car",
		"Violations (0.350)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected %q in the prompt", want)
		}
	}

	// Only the top five features make it into the prompt.
	if strings.Contains(prompt, "Credit_Score") {
		t.Error("expected the sixth-ranked feature to be dropped")
	}
}

func TestTopImportances_Deterministic(t *testing.T) {
	m := map[string]float64{"b": 0.5, "a": 0.5, "c": 0.3}

	top := topImportances(m, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	// Equal weights break by name.
	if top[0].name != "a" || top[1].name != "b" {
		t.Errorf("unexpected order: %s, %s", top[0].name, top[1].name)
	}
}
