package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scoutmind/scout-go-sdk/core"
)

const (
	minActionItems = 2
	maxActionItems = 4
)

// Each stage output goes through exactly one validate-and-backfill pass
// after parsing: required fields get documented defaults, bounded lists
// get clamped or padded. Callers downstream can rely on well-formed
// values without re-checking.

// parseStageJSON unmarshals an LLM response into a stage output,
// tolerating markdown code fences around the JSON.
func parseStageJSON(raw string, out any) error {
	cleaned := strings.TrimSpace(raw)
	if idx := strings.Index(cleaned, "{"); idx > 0 {
		cleaned = cleaned[idx:]
	}
	if idx := strings.LastIndex(cleaned, "}"); idx >= 0 {
		cleaned = cleaned[:idx+1]
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("parse stage output: %w", err)
	}
	return nil
}

// validateSignal backfills a parsed signal frame.
func validateSignal(sf *SignalFrame) {
	if sf.Status != core.SignalOK && sf.Status != core.SignalInsufficient {
		sf.Status = core.SignalInsufficient
	}
	if !validConfidence(sf.Confidence) {
		sf.Confidence = core.ConfidenceLow
	}
	if sf.UserContextSummary == "" {
		sf.UserContextSummary = "No user context provided"
	}
	if sf.Status == core.SignalInsufficient && sf.Summary == "" {
		sf.Summary = "Topic lacks clear public framing"
	}
}

// validateReality backfills a parsed reality check.
func validateReality(rc *RealityCheck) {
	switch rc.Feasibility {
	case core.FeasibilityLow, core.FeasibilityMedium, core.FeasibilityHigh:
	default:
		rc.Feasibility = core.FeasibilityMedium
	}
	switch rc.MarketSignal {
	case core.MarketWeak, core.MarketMixed, core.MarketStrong:
	default:
		rc.MarketSignal = core.MarketMixed
	}
	if rc.HypeScore < 0 {
		rc.HypeScore = 0
	}
	if rc.HypeScore > core.MaxHype {
		rc.HypeScore = core.MaxHype
	}
	if len(rc.RiskFactors) < minActionItems {
		rc.RiskFactors = append(rc.RiskFactors, "Insufficient risk data; assessment may be incomplete")
		for len(rc.RiskFactors) < minActionItems {
			rc.RiskFactors = append(rc.RiskFactors, "Unverified maturity of ecosystem and tooling")
		}
	}
	if len(rc.KnownUnknowns) == 0 {
		rc.KnownUnknowns = []string{"Real-world production adoption breadth"}
	}
	if rc.EvidenceSummary == "" {
		rc.EvidenceSummary = "Assessment based on general ecosystem patterns, not direct evidence"
	}
}

// validateVerdict backfills a parsed verdict: a valid verdict value,
// non-empty reasoning, 2-4 action items, and a per-verdict default
// timeline.
func validateVerdict(v *VerdictOutput) {
	if !v.Verdict.Valid() {
		v.Verdict = core.VerdictWatchlist
	}
	if !validConfidence(v.Confidence) {
		v.Confidence = core.ConfidenceMedium
	}
	if strings.TrimSpace(v.Reasoning) == "" {
		v.Reasoning = fmt.Sprintf("Verdict %s based on combined signal and evidence assessment.", v.Verdict)
	}

	v.ActionItems = trimEmpty(v.ActionItems)
	for len(v.ActionItems) < minActionItems {
		v.ActionItems = append(v.ActionItems, defaultActionItem(v.Verdict, len(v.ActionItems)))
	}
	if len(v.ActionItems) > maxActionItems {
		v.ActionItems = v.ActionItems[:maxActionItems]
	}

	if !validTimeline(v.Timeline) {
		v.Timeline = defaultTimeline(v.Verdict)
	}
}

func validConfidence(c core.Confidence) bool {
	return c == core.ConfidenceLow || c == core.ConfidenceMedium || c == core.ConfidenceHigh
}

func validTimeline(t string) bool {
	switch t {
	case core.TimelineNow, core.TimelineThreeMo, core.TimelineReevaluate, core.TimelineWait:
		return true
	}
	return false
}

// defaultTimeline maps a verdict to its natural timeline.
func defaultTimeline(v core.Verdict) string {
	switch v {
	case core.VerdictPursue:
		return core.TimelineNow
	case core.VerdictExplore:
		return core.TimelineThreeMo
	case core.VerdictWatchlist:
		return core.TimelineReevaluate
	default:
		return core.TimelineWait
	}
}

func defaultActionItem(v core.Verdict, index int) string {
	switch v {
	case core.VerdictPursue:
		if index == 0 {
			return "Build a small proof-of-concept to validate fit"
		}
		return "Compare against the current stack with a concrete benchmark"
	case core.VerdictExplore:
		if index == 0 {
			return "Read the official documentation and one production case study"
		}
		return "Prototype a minimal integration to measure friction"
	case core.VerdictWatchlist:
		if index == 0 {
			return "Set a reminder to re-check adoption signals"
		}
		return "Track the project's release notes for stabilization"
	default:
		if index == 0 {
			return "Do not allocate learning time unless clearer signal emerges"
		}
		return "Focus on established technologies with proven value"
	}
}

func trimEmpty(items []string) []string {
	out := items[:0]
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
