package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scoutmind/scout-go-sdk/core"
)

// traitProfiles describe each trait with example phrases for semantic
// matching against reasoning text.
var traitProfiles = []struct {
	kind        TraitKind
	description string
	examples    []string
}{
	{
		kind:        TraitPerformanceFocus,
		description: "Prioritizes performance, speed, and optimization",
		examples: []string{
			"improves performance",
			"reduces latency",
			"optimized for speed",
			"high throughput",
			"fast response times",
		},
	},
	{
		kind:        TraitStabilityFocus,
		description: "Prefers stable, reliable, production-ready solutions",
		examples: []string{
			"production ready",
			"battle tested",
			"enterprise grade",
			"stable release",
			"reliable performance",
		},
	},
	{
		kind:        TraitLearningFocus,
		description: "Values educational opportunities and learning",
		examples: []string{
			"good for learning",
			"educational value",
			"teaches fundamentals",
			"learning opportunity",
			"understand concepts",
		},
	},
	{
		kind:        TraitCostSensitive,
		description: "Mindful of costs and budget constraints",
		examples: []string{
			"cost effective",
			"within budget",
			"affordable solution",
			"pricing reasonable",
			"free alternative",
		},
	},
}

// ExtractTraits finds user traits supported by the decision's reasoning.
// With an embedder available it scores reasoning against each trait's
// example phrases and keeps matches above the similarity threshold; the
// trait confidence blends similarity (70%) with the verdict confidence
// (30%). Without an embedder it falls back to the policy keyword signals.
func ExtractTraits(ctx context.Context, embedder Embedder, wctx *WriteContext) []UserTrait {
	if wctx.Reasoning == "" {
		return nil
	}
	now := time.Now().UTC()

	if embedder == nil {
		return keywordTraits(wctx, now)
	}

	reasoningVec, err := embedder.Embed(ctx, wctx.Reasoning)
	if err != nil {
		log.Printf("[MEMORY] Trait extraction falling back to keywords: %v", err)
		return keywordTraits(wctx, now)
	}

	var traits []UserTrait
	for _, profile := range traitProfiles {
		best := 0.0
		for _, phrase := range profile.examples {
			vec, err := embedder.Embed(ctx, phrase)
			if err != nil {
				continue
			}
			if sim := CosineSimilarity(reasoningVec, vec); sim > best {
				best = sim
			}
		}
		if best <= core.TraitSimilarityThreshold {
			continue
		}

		confidence := best*0.7 + wctx.Confidence.Score()*0.3
		trait := UserTrait{
			UserID:      wctx.UserID,
			Kind:        profile.kind,
			Fact:        profile.description,
			Confidence:  clamp01(confidence),
			UsageCount:  1,
			ContextTags: ExtractContextTags(wctx.UserContext),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if vec, err := embedder.Embed(ctx, profile.description); err == nil {
			trait.Embedding = vec
		}
		traits = append(traits, trait)
	}
	return traits
}

// keywordTraits builds traits from the policy keyword signals when no
// embedder is available.
func keywordTraits(wctx *WriteContext, now time.Time) []UserTrait {
	var traits []UserTrait
	for _, kind := range DetectTraitKinds(wctx.Reasoning, wctx.UserContext) {
		for _, profile := range traitProfiles {
			if profile.kind != kind {
				continue
			}
			traits = append(traits, UserTrait{
				UserID:      wctx.UserID,
				Kind:        kind,
				Fact:        profile.description,
				Confidence:  wctx.Confidence.Score(),
				UsageCount:  1,
				ContextTags: ExtractContextTags(wctx.UserContext),
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
	}
	return traits
}

// ExtractPattern derives the topic pattern implied by the decision's market
// evidence, or nil when nothing durable was observed.
func ExtractPattern(ctx context.Context, embedder Embedder, wctx *WriteContext) *TopicPattern {
	var kind PatternKind
	var description string

	switch {
	case wctx.MarketSignal == core.MarketWeak:
		kind = PatternVaporwareRisk
		description = fmt.Sprintf("Limited adoption, high vaporware risk (hype: %d/10)", wctx.HypeScore)
	case wctx.MarketSignal == core.MarketStrong && wctx.HypeScore < core.LowHypeCeiling:
		kind = PatternProductionReady
		description = fmt.Sprintf("Widely adopted in production (hype: %d/10)", wctx.HypeScore)
	case wctx.MarketSignal == core.MarketMixed && wctx.HypeScore > core.TrajectoryHypeCeiling:
		kind = PatternEmergingHyped
		description = fmt.Sprintf("Emerging with some hype (hype: %d/10)", wctx.HypeScore)
	}

	riskText := strings.ToLower(strings.Join(wctx.RiskFactors, " "))
	if strings.Contains(riskText, "steep") || strings.Contains(riskText, "learning curve") {
		if kind != "" {
			description += " | Has steep learning curve"
		} else {
			kind = PatternSteepLearning
			description = "Known for steep learning curve"
		}
	}

	if kind == "" {
		return nil
	}

	now := time.Now().UTC()
	pattern := &TopicPattern{
		Topic:         NormalizeTopic(wctx.Topic),
		Kind:          kind,
		Description:   description,
		Confidence:    wctx.Confidence.Score(),
		EvidenceCount: 1,
		MarketSignal:  wctx.MarketSignal,
		HypeScore:     wctx.HypeScore,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if embedder != nil {
		if vec, err := embedder.Embed(ctx, description); err == nil {
			pattern.Embedding = vec
		} else {
			log.Printf("[MEMORY] Could not embed topic pattern: %v", err)
		}
	}
	return pattern
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
