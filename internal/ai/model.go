package ai

import "strings"

// Family is the closed set of provider families a model name can belong to.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyOpenAI
	FamilyAnthropic
)

func (f Family) String() string {
	switch f {
	case FamilyOpenAI:
		return "openai"
	case FamilyAnthropic:
		return "anthropic"
	default:
		return "unknown"
	}
}

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = float32(0.7)
	DefaultMaxTokens   = 2000
)

// ModelRef is a logical model name together with its family.
type ModelRef struct {
	Family Family
	Name   string
}

// ParseModel classifies a logical model name by prefix. An empty name is the default model.
func ParseModel(name string) ModelRef {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultModel
	}
	switch {
	case strings.HasPrefix(name, "gpt-"):
		return ModelRef{Family: FamilyOpenAI, Name: name}
	case strings.HasPrefix(name, "claude-"):
		return ModelRef{Family: FamilyAnthropic, Name: name}
	default:
		return ModelRef{Family: FamilyUnknown, Name: name}
	}
}

// Options controls a single generation.
type Options struct {
	Model       ModelRef
	Temperature float32
	MaxTokens   int
}

// DefaultOptions returns gpt-4o-mini at 0.7 with 2000 max tokens.
func DefaultOptions() Options {
	return Options{
		Model:       ParseModel(DefaultModel),
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Response is the result of a generation, tagged with the logical model that produced it.
type Response struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokensUsed"`
}

// MultiResult is one model's answer in a GenerateMulti batch.
type MultiResult struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokensUsed"`
	Error      bool   `json:"error,omitempty"`
}
