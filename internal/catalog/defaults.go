package catalog

// DefaultModels returns the built-in model set vidforge ships with. A
// deployment may register additional models at runtime via Register.
func DefaultModels() []Model {
	return []Model{
		{
			ID:       "veo-3.0",
			Provider: "veo",
			Capabilities: Capabilities{
				MaxDurationSec:         120,
				AspectRatios:           []string{"16:9", "9:16", "1:1"},
				Resolutions:            []string{"720p", "1080p", "4k"},
				SupportsAudio:          true,
				SupportsImageInput:     false,
				SupportsNegativePrompt: true,
			},
			Parameters: Parameters{
				Duration:    DurationRange{Min: 1, Max: 120, Default: 8},
				AspectRatio: AspectRatioOptions{Options: []string{"16:9", "9:16", "1:1"}, Default: "16:9"},
				Quality:     QualityOptions{Options: []string{"standard", "high"}, Default: "standard"},
			},
			Pricing:     Pricing{CostPerSecond: 0.05, Currency: "USD", Tier: "premium"},
			IsAvailable: true,
		},
		{
			ID:       "mock-dev",
			Provider: "mock",
			Capabilities: Capabilities{
				MaxDurationSec:         60,
				AspectRatios:           []string{"16:9", "9:16", "1:1"},
				Resolutions:            []string{"720p", "1080p"},
				SupportsAudio:          false,
				SupportsImageInput:     false,
				SupportsNegativePrompt: false,
			},
			Parameters: Parameters{
				Duration:    DurationRange{Min: 1, Max: 60, Default: 5},
				AspectRatio: AspectRatioOptions{Options: []string{"16:9", "9:16", "1:1"}, Default: "16:9"},
				Quality:     QualityOptions{Options: []string{"standard"}, Default: "standard"},
			},
			Pricing:     Pricing{CostPerSecond: 0, Currency: "USD", Tier: "budget"},
			IsAvailable: true,
		},
	}
}
