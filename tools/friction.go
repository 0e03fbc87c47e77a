package tools

import (
	"context"
	"strings"

	"github.com/scoutmind/scout-go-sdk/core"
)

// frictionBaseline is the technology-inherent adoption pain, before any
// user adjustment.
type frictionBaseline struct {
	learningCurve string
	infraCost     string
	score         float64
}

// Friction estimates adoption pain from per-technology baselines with the
// user profile as a modifier, never the driver: an expert lowers friction
// a notch, a beginner raises it, but the baseline stays anchored to the
// technology.
type Friction struct {
	baselines map[string]frictionBaseline
}

// NewFriction creates a friction provider with the built-in baselines.
func NewFriction() *Friction {
	return &Friction{baselines: defaultFrictionBaselines()}
}

// EstimateFriction returns friction evidence for the first known
// technology in the topic, adjusted by profile seniority keywords.
func (f *Friction) EstimateFriction(ctx context.Context, topic string, userProfile string) (core.FrictionEvidence, error) {
	if err := ctx.Err(); err != nil {
		return core.FrictionEvidence{}, err
	}

	lowered := strings.ToLower(topic)
	baseline := frictionBaseline{learningCurve: "medium", infraCost: "medium", score: 0.5}
	for tech, b := range f.baselines {
		if strings.Contains(lowered, tech) {
			baseline = b
			break
		}
	}

	score := baseline.score + profileModifier(userProfile)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return core.FrictionEvidence{
		OverallFriction: frictionBand(score),
		LearningCurve:   baseline.learningCurve,
		InfraCost:       baseline.infraCost,
	}, nil
}

// profileModifier shifts friction by user seniority. Caps at one band in
// either direction.
func profileModifier(profile string) float64 {
	lowered := strings.ToLower(profile)
	switch {
	case strings.Contains(lowered, "senior"), strings.Contains(lowered, "staff"),
		strings.Contains(lowered, "principal"), strings.Contains(lowered, "expert"):
		return -0.15
	case strings.Contains(lowered, "junior"), strings.Contains(lowered, "student"),
		strings.Contains(lowered, "beginner"), strings.Contains(lowered, "new to"):
		return 0.15
	}
	return 0
}

func frictionBand(score float64) string {
	switch {
	case score < 0.4:
		return "low"
	case score < 0.7:
		return "medium"
	default:
		return "high"
	}
}

func defaultFrictionBaselines() map[string]frictionBaseline {
	return map[string]frictionBaseline{
		"redis":      {learningCurve: "gentle", infraCost: "low", score: 0.25},
		"typescript": {learningCurve: "gentle", infraCost: "low", score: 0.2},
		"fastapi":    {learningCurve: "gentle", infraCost: "low", score: 0.25},
		"python":     {learningCurve: "gentle", infraCost: "low", score: 0.15},
		"react":      {learningCurve: "medium", infraCost: "low", score: 0.35},
		"node":       {learningCurve: "gentle", infraCost: "low", score: 0.25},
		"htmx":       {learningCurve: "gentle", infraCost: "low", score: 0.2},
		"docker":     {learningCurve: "medium", infraCost: "medium", score: 0.5},
		"postgresql": {learningCurve: "medium", infraCost: "low", score: 0.4},
		"mysql":      {learningCurve: "medium", infraCost: "low", score: 0.35},
		"golang":     {learningCurve: "medium", infraCost: "low", score: 0.45},
		"aws":        {learningCurve: "medium", infraCost: "high", score: 0.6},
		"svelte":     {learningCurve: "medium", infraCost: "low", score: 0.4},
		"kubernetes": {learningCurve: "steep", infraCost: "high", score: 0.8},
		"rust":       {learningCurve: "steep", infraCost: "low", score: 0.7},
		"kafka":      {learningCurve: "steep", infraCost: "high", score: 0.75},
	}
}
