package memory

import (
	"strings"

	"github.com/scoutmind/scout-go-sdk/core"
)

// PolicyResult is the reason code returned with every gate decision.
type PolicyResult string

const (
	PolicyApproved             PolicyResult = "approved"
	PolicyContractViolation    PolicyResult = "contract_violation"
	PolicyInsufficientSignal   PolicyResult = "insufficient_signal"
	PolicyLowConfidence        PolicyResult = "low_confidence"
	PolicyHighHype             PolicyResult = "high_hype"
	PolicyWeakMarket           PolicyResult = "weak_market"
	PolicyNoStableTrait        PolicyResult = "no_stable_trait"
	PolicyInsufficientEvidence PolicyResult = "insufficient_evidence"
)

// traitSignals maps each trait kind to its indicator phrases and, where the
// trait only makes sense for certain users, the user-context keywords that
// must co-occur.
var traitSignals = []struct {
	kind            TraitKind
	reasoningWords  []string
	contextKeywords []string // empty = keyword match alone suffices
}{
	{
		kind:            TraitPerformanceFocus,
		reasoningWords:  []string{"performance", "speed", "latency", "fast", "optimize", "throughput"},
		contextKeywords: []string{"backend", "devops", "sre"},
	},
	{
		kind:           TraitStabilityFocus,
		reasoningWords: []string{"stable", "reliable", "production", "enterprise", "mature", "battle-tested"},
	},
	{
		kind:            TraitLearningFocus,
		reasoningWords:  []string{"learn", "education", "tutorial", "beginner", "fundamental"},
		contextKeywords: []string{"junior", "student", "new"},
	},
	{
		kind:            TraitCostSensitive,
		reasoningWords:  []string{"cost", "budget", "affordable", "pricing", "free"},
		contextKeywords: []string{"startup", "indie", "solo", "student"},
	},
}

// durablePatternPhrases are the risk-factor phrases recognized as patterns
// worth remembering about a topic.
var durablePatternPhrases = []string{
	"steep learning curve",
	"production adoption",
	"documentation quality",
	"community support",
	"ecosystem maturity",
}

// Policy is the gatekeeper for memory writes. All methods are pure decision
// functions; persistence is the store's job.
type Policy struct{}

// NewPolicy returns the write policy engine.
func NewPolicy() *Policy {
	return &Policy{}
}

// ShouldWriteUserMemory decides whether the decision qualifies for a user
// trait write. Requires a detectable trait signal on top of the universal
// gates.
func (p *Policy) ShouldWriteUserMemory(ctx *WriteContext) (bool, PolicyResult) {
	if ok, reason := p.universalGates(ctx); !ok {
		return false, reason
	}
	if len(DetectTraitKinds(ctx.Reasoning, ctx.UserContext)) == 0 {
		return false, PolicyNoStableTrait
	}
	return true, PolicyApproved
}

// ShouldWriteTopicMemory decides whether the decision qualifies for a topic
// pattern write. Topic memories require reliable patterns, not hype.
func (p *Policy) ShouldWriteTopicMemory(ctx *WriteContext) (bool, PolicyResult) {
	if ok, reason := p.universalGates(ctx); !ok {
		return false, reason
	}
	if ctx.MarketSignal == core.MarketWeak {
		return false, PolicyWeakMarket
	}
	if ctx.HypeScore > core.MaxStorableHype {
		return false, PolicyHighHype
	}

	riskText := strings.ToLower(strings.Join(ctx.RiskFactors, " "))
	for _, phrase := range durablePatternPhrases {
		if strings.Contains(riskText, phrase) {
			return true, PolicyApproved
		}
	}
	if ctx.MarketSignal == core.MarketStrong && ctx.HypeScore < core.LowHypeCeiling {
		return true, PolicyApproved
	}
	return false, PolicyInsufficientEvidence
}

// ShouldWriteDecisionMemory decides whether the verdict itself is stored.
// Ignore verdicts are only kept when they confidently identify vaporware;
// everything else passing the universal gates is stored for similarity
// search.
func (p *Policy) ShouldWriteDecisionMemory(ctx *WriteContext) (bool, PolicyResult) {
	if ok, reason := p.universalGates(ctx); !ok {
		return false, reason
	}
	if ctx.Verdict == core.VerdictIgnore {
		if ctx.Confidence.Score() >= core.IgnoreStoreConfidence && ctx.MarketSignal == core.MarketWeak {
			return true, PolicyApproved
		}
		return false, PolicyLowConfidence
	}
	return true, PolicyApproved
}

// universalGates apply to every memory kind, in order: contract violation,
// signal sufficiency, confidence floor.
func (p *Policy) universalGates(ctx *WriteContext) (bool, PolicyResult) {
	if ctx.ContractViolation {
		return false, PolicyContractViolation
	}
	if ctx.SignalStatus == core.SignalInsufficient {
		return false, PolicyInsufficientSignal
	}
	if ctx.Confidence.Score() < core.MinWriteConfidence {
		return false, PolicyLowConfidence
	}
	return true, PolicyApproved
}

// DetectTraitKinds returns the trait kinds whose indicator phrases appear in
// the reasoning, subject to each trait's user-context condition.
func DetectTraitKinds(reasoning, userContext string) []TraitKind {
	reasoningLower := strings.ToLower(reasoning)
	contextLower := strings.ToLower(userContext)

	var kinds []TraitKind
	for _, sig := range traitSignals {
		if !containsAny(reasoningLower, sig.reasoningWords) {
			continue
		}
		if len(sig.contextKeywords) > 0 && !containsAny(contextLower, sig.contextKeywords) {
			continue
		}
		kinds = append(kinds, sig.kind)
	}
	return kinds
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
