package workflow

import (
	"testing"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/catalog"
)

func testModel() *catalog.Model {
	return &catalog.Model{
		ID:       "veo-3.0",
		Provider: "veo",
		Capabilities: catalog.Capabilities{
			MaxDurationSec: 120,
		},
		Parameters: catalog.Parameters{
			Duration:    catalog.DurationRange{Min: 1, Max: 120, Default: 8},
			AspectRatio: catalog.AspectRatioOptions{Options: []string{"16:9", "9:16", "1:1"}, Default: "16:9"},
			Quality:     catalog.QualityOptions{Options: []string{"standard", "high"}, Default: "standard"},
		},
	}
}

func TestValidateParameters_RejectsZeroDuration(t *testing.T) {
	err := validateParameters(testModel(), map[string]any{"duration": 0})
	if apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("expected a validation error for duration 0, got %v", err)
	}
}

func TestValidateParameters_RejectsDurationAboveMax(t *testing.T) {
	err := validateParameters(testModel(), map[string]any{"duration": 121})
	if apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("expected a validation error for duration over max, got %v", err)
	}
}

func TestValidateParameters_AcceptsDurationAtMax(t *testing.T) {
	if err := validateParameters(testModel(), map[string]any{"duration": 120}); err != nil {
		t.Errorf("expected duration at max to be accepted, got %v", err)
	}
}

func TestValidateParameters_AcceptsFloat64Duration(t *testing.T) {
	// JSON-decoded map[string]any parameters carry numbers as float64.
	if err := validateParameters(testModel(), map[string]any{"duration": float64(120)}); err != nil {
		t.Errorf("expected float64 duration at max to be accepted, got %v", err)
	}
	err := validateParameters(testModel(), map[string]any{"duration": float64(121)})
	if apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("expected a validation error for float64 duration over max, got %v", err)
	}
}

func TestValidateParameters_RejectsUnknownAspectRatio(t *testing.T) {
	err := validateParameters(testModel(), map[string]any{"aspect_ratio": "4:3"})
	if apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("expected a validation error for an undeclared aspect ratio, got %v", err)
	}
}

func TestValidateParameters_RejectsUnknownQuality(t *testing.T) {
	err := validateParameters(testModel(), map[string]any{"quality": "ultra"})
	if apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("expected a validation error for an undeclared quality tier, got %v", err)
	}
}

func TestValidateParameters_AcceptsFullyUnspecifiedParameters(t *testing.T) {
	if err := validateParameters(testModel(), map[string]any{}); err != nil {
		t.Errorf("expected no error when no parameters are supplied, got %v", err)
	}
}

func TestGenerateClarificationQuestions_FlagsMissingFields(t *testing.T) {
	qs := generateClarificationQuestions("a video", map[string]any{})

	want := map[string]bool{"duration": false, "aspect_ratio": false, "quality": false, "prompt_detail": false}
	for _, q := range qs {
		want[q.ID] = true
	}
	for id, found := range want {
		if !found {
			t.Errorf("expected a clarification question for %q", id)
		}
	}
}

func TestGenerateClarificationQuestions_NoneWhenComplete(t *testing.T) {
	params := map[string]any{
		"duration":     8,
		"aspect_ratio": "16:9",
		"quality":      "high",
	}
	qs := generateClarificationQuestions("a cinematic drone shot over a mountain range at sunrise", params)

	if len(qs) != 0 {
		t.Errorf("expected no clarification questions for a complete request, got %d: %+v", len(qs), qs)
	}
}

func TestGenerateClarificationQuestions_ShortPromptFlagged(t *testing.T) {
	params := map[string]any{"duration": 8, "aspect_ratio": "16:9", "quality": "high"}
	qs := generateClarificationQuestions("cat", params)

	if len(qs) != 1 || qs[0].ID != "prompt_detail" {
		t.Errorf("expected exactly one prompt_detail question for a short prompt, got %+v", qs)
	}
}

func TestQuestionsFromSuggestions_AssignsSequentialIDs(t *testing.T) {
	qs := questionsFromSuggestions([]string{"add more detail", "specify a style"})

	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].ID != "provider-0" || qs[1].ID != "provider-1" {
		t.Errorf("expected sequential provider-N ids, got %q, %q", qs[0].ID, qs[1].ID)
	}
}

func TestMergeClarificationsIntoParameters_DoesNotOverwriteExisting(t *testing.T) {
	params := map[string]any{"duration": 8}
	clarifications := map[string]string{"duration": "12", "aspect_ratio": "9:16"}

	merged := mergeClarificationsIntoParameters(params, clarifications)

	if merged["duration"] != 8 {
		t.Errorf("expected existing parameter to win over clarification, got %v", merged["duration"])
	}
	if merged["aspect_ratio"] != "9:16" {
		t.Errorf("expected clarification to fill a missing parameter, got %v", merged["aspect_ratio"])
	}
}
