package catalog

import "testing"

func testModels() []Model {
	return []Model{
		{
			ID:       "veo-3.0",
			Provider: "veo",
			Capabilities: Capabilities{
				MaxDurationSec: 8,
				SupportsAudio:  true,
			},
			Pricing:     Pricing{CostPerSecond: 0.10, Currency: "USD"},
			IsAvailable: true,
		},
		{
			ID:       "mock-dev",
			Provider: "mock",
			Capabilities: Capabilities{
				MaxDurationSec: 30,
				SupportsAudio:  false,
			},
			Pricing:     Pricing{CostPerSecond: 0.01, Currency: "USD"},
			IsAvailable: true,
		},
	}
}

func TestNewRegistry_PanicsOnEmptyModelSet(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on empty model set")
		}
	}()
	NewRegistry(nil, "anything")
}

func TestNewRegistry_PanicsOnUnknownDefault(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unresolvable default id")
		}
	}()
	NewRegistry(testModels(), "does-not-exist")
}

func TestRegistry_GetAndDefault(t *testing.T) {
	r := NewRegistry(testModels(), "veo-3.0")

	m, err := r.Get("mock-dev")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Provider != "mock" {
		t.Errorf("expected provider mock, got %s", m.Provider)
	}

	def, err := r.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if def.ID != "veo-3.0" {
		t.Errorf("expected default veo-3.0, got %s", def.ID)
	}
}

func TestRegistry_GetUnknownModelErrors(t *testing.T) {
	r := NewRegistry(testModels(), "veo-3.0")
	if _, err := r.Get("nonexistent"); err == nil {
		t.Error("expected error for unknown model id")
	}
}

func TestRegistry_DefaultFallsBackWhenPreferredUnavailable(t *testing.T) {
	r := NewRegistry(testModels(), "veo-3.0")
	if err := r.SetAvailable("veo-3.0", false); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}

	def, err := r.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if def.ID != "mock-dev" {
		t.Errorf("expected fallback to mock-dev, got %s", def.ID)
	}
}

func TestRegistry_RecommendByBudgetPrefersCheapest(t *testing.T) {
	r := NewRegistry(testModels(), "veo-3.0")
	budget := 0.5

	m, err := r.Recommend(RecommendCriteria{Budget: &budget})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if m.ID != "mock-dev" {
		t.Errorf("expected cheapest model mock-dev, got %s", m.ID)
	}
}

func TestRegistry_RecommendRequiringAudioExcludesNonSupporting(t *testing.T) {
	r := NewRegistry(testModels(), "veo-3.0")

	m, err := r.Recommend(RecommendCriteria{NeedsAudio: true})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if m.ID != "veo-3.0" {
		t.Errorf("expected only audio-capable model veo-3.0, got %s", m.ID)
	}
}

func TestRegistry_RecommendNoMatchErrors(t *testing.T) {
	r := NewRegistry(testModels(), "veo-3.0")
	tooLong := 9999

	if _, err := r.Recommend(RecommendCriteria{MaxDuration: &tooLong, NeedsAudio: true}); err == nil {
		t.Error("expected no match when no model satisfies criteria combination")
	}
}

func TestRegistry_AllIsSortedByID(t *testing.T) {
	r := NewRegistry(testModels(), "veo-3.0")
	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 models, got %d", len(all))
	}
	if all[0].ID != "mock-dev" || all[1].ID != "veo-3.0" {
		t.Errorf("expected sorted order [mock-dev, veo-3.0], got [%s, %s]", all[0].ID, all[1].ID)
	}
}
