package engine

import (
	"fmt"
	"log"
	"math"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
)

// rule is one deterministic consistency check run before the evaluative
// call. Rules are evaluated in order; the first one whose predicate holds
// sets the verdict and stops both the remaining rules and the LLM call.
// The trajectory rule is special: its predicate only holds when the
// upgrade gate passes, otherwise it silently defers to the evaluative
// call.
type rule struct {
	name    string
	applies func(s *PipelineState) bool
	apply   func(s *PipelineState)
}

// verdictRules is the ordered deterministic rule layer of verdict
// synthesis.
var verdictRules = []rule{
	{
		name:    "insufficient_signal",
		applies: func(s *PipelineState) bool { return s.Signal.Status == core.SignalInsufficient },
		apply:   applyInsufficientSignal,
	},
	{
		name:    "contract_violation",
		applies: contractViolationHolds,
		apply:   applyContractViolation,
	},
	{
		name:    "stale_model_knowledge",
		applies: func(s *PipelineState) bool { return s.ToolEvidence.WatchlistTriggered },
		apply:   applyStaleKnowledge,
	},
	{
		name:    "trajectory_upgrade",
		applies: trajectoryUpgradeHolds,
		apply:   applyTrajectoryUpgrade,
	},
}

// runVerdictRules applies the rule layer. Returns true when a rule
// decided the verdict.
func runVerdictRules(s *PipelineState) bool {
	for _, r := range verdictRules {
		if !r.applies(s) {
			continue
		}
		r.apply(s)
		s.RuleFired = r.name
		log.Printf("[ENGINE] Rule fired: %s -> %s", r.name, s.Verdict.Verdict)
		return true
	}
	return false
}

// applyInsufficientSignal handles the model-does-not-know branch. A
// knowledge gap (market evidence exists despite the weak model prior)
// biases to watchlist, never ignore: absence of model knowledge is not
// evidence of absence of value.
func applyInsufficientSignal(s *PipelineState) {
	if s.KnowledgeGap {
		s.Verdict = &VerdictOutput{
			Verdict:     core.VerdictWatchlist,
			Reasoning:   "Model knowledge is lagging but market evidence suggests established or emerging. Re-evaluate with fresher sources.",
			ActionItems: []string{"Re-evaluate when external evidence is available", "Do not ignore based on model prior alone"},
			Timeline:    core.TimelineReevaluate,
			Confidence:  core.ConfidenceLow,
		}
		return
	}
	s.Verdict = &VerdictOutput{
		Verdict:     core.VerdictIgnore,
		Reasoning:   "The topic lacks sufficient public clarity or substance to justify investment of time.",
		ActionItems: []string{"Do not allocate learning time unless clearer signal emerges", "Focus on established technologies with proven value"},
		Timeline:    core.TimelineWait,
		Confidence:  core.ConfidenceLow,
	}
}

// contractViolationHolds re-runs the violation rule set against the
// current signal and evidence, accumulating any new reasons onto the
// state.
func contractViolationHolds(s *PipelineState) bool {
	if s.Signal.Confidence == core.ConfidenceHigh && s.EvidenceStrength < core.EvidenceFloor {
		s.addViolation("High confidence signal contradicts weak evidence strength")
	}
	for _, reason := range memory.DetectContractViolations(memory.ContractCheck{
		SignalStatus: s.Signal.Status,
		MarketSignal: s.Reality.MarketSignal,
		HypeScore:    s.Reality.HypeScore,
		Reasoning:    s.Reality.EvidenceSummary,
		Confidence:   s.Signal.Confidence,
	}) {
		s.addViolation(reason)
	}
	return s.ContractViolation
}

// applyContractViolation forces the conservative verdict. Action items
// are the violation reasons, padded to at least two.
func applyContractViolation(s *PipelineState) {
	items := make([]string, 0, len(s.Violations))
	for _, v := range s.Violations {
		items = append(items, v)
	}
	if len(items) < 2 {
		items = append(items, "Re-evaluate when evidence is clearer")
	}
	if len(items) > maxActionItems {
		items = items[:maxActionItems]
	}

	if s.KnowledgeGap {
		s.Verdict = &VerdictOutput{
			Verdict:     core.VerdictWatchlist,
			Reasoning:   "Contract violations between model signal and evidence. Market suggests established tech; treat as knowledge gap.",
			ActionItems: items,
			Timeline:    core.TimelineReevaluate,
			Confidence:  core.ConfidenceLow,
		}
		return
	}
	s.Verdict = &VerdictOutput{
		Verdict:     core.VerdictIgnore,
		Reasoning:   "Contract violations detected during evaluation",
		ActionItems: items,
		Timeline:    core.TimelineWait,
		Confidence:  core.ConfidenceLow,
	}
}

// applyStaleKnowledge forces watchlist when the freshness provider flags
// a post-cutoff release the model cannot have seen.
func applyStaleKnowledge(s *PipelineState) {
	reason := s.ToolEvidence.Freshness.Reason
	if reason == "" {
		reason = "model knowledge predates recent releases"
	}
	s.Verdict = &VerdictOutput{
		Verdict:     core.VerdictWatchlist,
		Reasoning:   fmt.Sprintf("Model knowledge is likely stale for this topic: %s. Any assessment would lean on outdated assumptions.", reason),
		ActionItems: []string{"Check the latest release notes and migration guides directly", "Re-run this analysis against current sources"},
		Timeline:    core.TimelineReevaluate,
		Confidence:  core.ConfidenceMedium,
	}
}

// trajectoryUpgradeHolds is the decision-trajectory negative gate: a
// prior explore verdict on an overlapping topic may only be upgraded to
// pursue when the market or feasibility actually strengthened and hype
// stayed moderate. Repetition alone never promotes.
func trajectoryUpgradeHolds(s *PipelineState) bool {
	if s.MemoryContext == nil {
		return false
	}
	priorExplore := false
	for _, d := range s.MemoryContext.SimilarDecisions {
		if d.Verdict == core.VerdictExplore && memory.TopicsOverlap(d.Topic, s.Topic) {
			priorExplore = true
			break
		}
	}
	if !priorExplore {
		return false
	}
	strengthened := s.Reality.MarketSignal == core.MarketStrong || s.Reality.Feasibility == core.FeasibilityHigh
	return strengthened && s.Reality.HypeScore <= core.TrajectoryHypeCeiling
}

func applyTrajectoryUpgrade(s *PipelineState) {
	s.Verdict = &VerdictOutput{
		Verdict: core.VerdictPursue,
		Reasoning: fmt.Sprintf("Previous exploration of similar topics combined with current market signal (%s) and feasibility (%s) indicates this is worth pursuing now. Conditions have strengthened since initial exploration.",
			s.Reality.MarketSignal, s.Reality.Feasibility),
		ActionItems: []string{
			"Begin hands-on implementation or deeper learning",
			"Allocate dedicated time for skill development",
			"Build a practical project to validate understanding",
		},
		Timeline:   core.TimelineNow,
		Confidence: core.ConfidenceHigh,
	}
}

// dampenConfidence applies the post-verdict consistency clamps: weak
// evidence caps a claimed high at medium, and an insufficient signal
// forces low regardless of what the evaluative call said.
func dampenConfidence(s *PipelineState) {
	if s.EvidenceStrength < core.EvidenceFloor && s.Verdict.Confidence == core.ConfidenceHigh {
		log.Printf("[ENGINE] Confidence dampened high -> medium (evidence %.2f)", s.EvidenceStrength)
		s.Verdict.Confidence = core.ConfidenceMedium
	}
	if s.Signal.Status == core.SignalInsufficient {
		s.Verdict.Confidence = core.ConfidenceLow
	}
}

// alignment scores how well a claimed confidence level agrees with the
// measured evidence strength: 1 means exact agreement.
func alignment(confidence core.Confidence, evidenceStrength float64) float64 {
	a := 1 - math.Abs(confidence.Score()-evidenceStrength)
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return round3(a)
}

// computeCoherence folds the alignments (and memory relevance when known)
// into the chain coherence score.
func computeCoherence(s *PipelineState) {
	s.EvidenceVerdictAlignment = alignment(s.Verdict.Confidence, s.EvidenceStrength)
	parts := []float64{s.SignalEvidenceAlignment, s.EvidenceVerdictAlignment}
	if s.MemoryContext != nil && s.MemoryContext.RelevanceKnown {
		parts = append(parts, s.MemoryContext.Relevance)
	}
	var sum float64
	for _, p := range parts {
		sum += p
	}
	s.ChainCoherence = round3(sum / float64(len(parts)))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
