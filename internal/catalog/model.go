// Package catalog implements the Model Registry: a process-wide,
// read-mostly catalog of generation models resolved at job creation.
package catalog

type DurationRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

type AspectRatioOptions struct {
	Options []string `json:"options"`
	Default string   `json:"default"`
}

type QualityOptions struct {
	Options []string `json:"options"`
	Default string   `json:"default"`
}

type Capabilities struct {
	MaxDurationSec         int      `json:"maxDurationSec"`
	AspectRatios            []string `json:"aspectRatios"`
	Resolutions              []string `json:"resolutions"`
	SupportsAudio            bool     `json:"supportsAudio"`
	SupportsImageInput       bool     `json:"supportsImageInput"`
	SupportsNegativePrompt   bool     `json:"supportsNegativePrompt"`
}

type Parameters struct {
	Duration       DurationRange      `json:"duration"`
	AspectRatio    AspectRatioOptions `json:"aspectRatio"`
	Quality        QualityOptions     `json:"quality"`
	GuidanceScale  *FloatRange        `json:"guidanceScale,omitempty"`
	InferenceSteps *IntRange          `json:"inferenceSteps,omitempty"`
}

type FloatRange struct {
	Min, Max, Default float64
}

type IntRange struct {
	Min, Max, Default int
}

type Pricing struct {
	CostPerSecond float64 `json:"costPerSecond"`
	Currency      string  `json:"currency"`
	Tier          string  `json:"tier"`
}

// Model is a named generator with declared capability bounds. One
// provider owns one or more models.
type Model struct {
	ID           string       `json:"id"`
	Provider     string       `json:"provider"`
	Capabilities Capabilities `json:"capabilities"`
	Parameters   Parameters   `json:"parameters"`
	Pricing      Pricing      `json:"pricing"`
	IsAvailable  bool         `json:"isAvailable"`
}
