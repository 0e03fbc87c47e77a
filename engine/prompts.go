package engine

import (
	"fmt"
	"strings"

	"github.com/scoutmind/scout-go-sdk/core"
)

const signalFramingSystemPrompt = `You are a technical signal parser.

Your task is to STRUCTURE how a topic is commonly framed in public technical discourse.
You are NOT allowed to invent facts, consensus, or maturity.

If the topic is unclear, niche, contradictory, or unknown:
- You MUST say so explicitly.
- Set status = "insufficient_signal" and leave other fields empty.

CRITICAL RULES:
1. Do NOT verify truth. Only reflect common framing.
2. Use hedged language: "commonly described as", "appears to be", "is presented as"
3. If public understanding is weak or fragmented, state that clearly.
4. Do NOT upgrade uncertainty into confidence.
5. Do NOT infer intent or use-cases beyond what is commonly stated.

Return ONLY a JSON object with these fields:
- status: "ok" or "insufficient_signal"
- signal_summary: string (may only paraphrase common descriptions, must include uncertainty if present)
- domain: one of "frontend","backend","AI/ML","DevOps","database","systems" or ""
- time_horizon: "short" (<1yr), "medium" (1-3yr), "long" (3+yr) or ""
- confidence_level: "low", "medium", "high"
- user_context_summary: string (key facts: role, skill level, goals)

No markdown. No commentary.`

func signalFramingUserPrompt(topic, userProfile string) string {
	return fmt.Sprintf("Topic: %s\nUser Profile: %s\n\nExtract and categorize this signal.", topic, userProfile)
}

const realityCheckSystemPrompt = `You are a skeptical technical analyst.

You evaluate feasibility and hype WITHOUT optimism or politeness.

CRITICAL RULES:
1. If evidence is indirect or inferred, SAY SO in evidence_summary.
2. If patterns are based on similar past trends, say "based on analogous patterns".
3. Do NOT fill gaps with guesses. Unknowns are valid answers.
4. Be harsh on hype. Do not soften risk factors.
5. The tool evidence below is measured data; weigh it above your prior.

Hype scale (anchor it):
- 0-2: obscure / barely discussed
- 3-5: niche but real
- 6-8: popular, possibly inflated
- 9-10: hype-driven, noise > signal

risk_factors rules:
- At least 2 concrete risks
- Be specific (not "may be challenging" but "steep learning curve for X")

Do NOT recommend actions.

Return ONLY a JSON object with these fields:
- feasibility: "low", "medium", "high" (for this user's background)
- market_signal: "weak", "mixed", "strong"
- risk_factors: array of 2-4 strings
- known_unknowns: array of 1-3 strings
- hype_score: integer 0-10
- evidence_summary: string (what signals were used; if none direct, state "Assessment based on general ecosystem patterns, not direct evidence")

No markdown. No commentary.`

func realityCheckUserPrompt(s *PipelineState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Signal summary: %s\n", s.Signal.Summary)
	fmt.Fprintf(&b, "Domain: %s\n", s.Signal.Domain)
	fmt.Fprintf(&b, "Time horizon: %s\n", s.Signal.TimeHorizon)
	fmt.Fprintf(&b, "Signal confidence: %s\n", s.Signal.Confidence)
	fmt.Fprintf(&b, "Signal status: %s\n", s.Signal.Status)
	fmt.Fprintf(&b, "User background: %s\n", s.Signal.UserContextSummary)

	b.WriteString("\nMeasured tool evidence:\n")
	fmt.Fprintf(&b, "- Market adoption: %s (hiring: %s, ecosystem: %s, confidence %.2f)\n",
		s.ToolEvidence.Market.Adoption, s.ToolEvidence.Market.HiringSignal,
		s.ToolEvidence.Market.EcosystemMaturity, s.ToolEvidence.Market.Confidence)
	fmt.Fprintf(&b, "- Adoption friction: %s (learning curve: %s, infra cost: %s)\n",
		s.ToolEvidence.Friction.OverallFriction, s.ToolEvidence.Friction.LearningCurve,
		s.ToolEvidence.Friction.InfraCost)
	fmt.Fprintf(&b, "- Knowledge freshness: %s\n", s.ToolEvidence.Freshness.Reason)

	return b.String()
}

const verdictSystemPrompt = `You are a blunt, opinionated career decision advisor.

Your job is to decide ONE verdict: "pursue", "explore", "watchlist", or "ignore".

CRITICAL DECISION RULES:
1. Pick exactly ONE verdict. No hedging.
2. If hype_score > 7 AND feasibility = "low" -> default to "ignore"
3. If market_signal = "weak" AND user has clear modern goals -> "ignore"
4. "explore" is allowed ONLY if downside is low and signal is non-trivial
5. "watchlist" means promising but premature: park it with a re-check trigger
6. Do NOT use "explore" as a soft no. If it is not worth their time, say "ignore"

Action items rules:
- Must be concrete and testable
- Must reference a real artifact (repo, spec, API, benchmark, dataset)
- Must produce an observable outcome within weeks
- NO generic advice like "learn more" or "study fundamentals"

If the best advice is to ignore, say so directly and state the opportunity
cost (what to focus on instead).

Return ONLY a JSON object with these fields:
- verdict: "pursue", "explore", "watchlist", "ignore"
- reasoning: 2-3 sentences explaining the verdict clearly
- action_items: array of 2-4 specific, testable next steps
- timeline: "now", "in 3 months", "re-evaluate in 3 months", "wait 6+ months"
- confidence: "low", "medium", "high"

No markdown. No commentary.`

// verdictUserPrompt embeds the memory advisory block after the live
// evidence so it reads as the lower-priority hint it is.
func verdictUserPrompt(s *PipelineState, memoryHints string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Signal analysis:\n- Status: %s\n- Summary: %s\n- Domain: %s\n- Confidence: %s\n",
		s.Signal.Status, s.Signal.Summary, s.Signal.Domain, s.Signal.Confidence)
	fmt.Fprintf(&b, "\nReality check:\n- Feasibility: %s\n- Market signal: %s\n- Hype score: %d/10\n- Evidence strength: %.2f\n",
		s.Reality.Feasibility, s.Reality.MarketSignal, s.Reality.HypeScore, s.EvidenceStrength)
	fmt.Fprintf(&b, "- Risks: %s\n", strings.Join(s.Reality.RiskFactors, "; "))
	fmt.Fprintf(&b, "- Evidence: %s\n", s.Reality.EvidenceSummary)
	fmt.Fprintf(&b, "\nUser background: %s\n", s.Signal.UserContextSummary)

	if memoryHints != "" && memoryHints != "No relevant memories found." {
		b.WriteString("\n")
		b.WriteString(memoryHints)
	}
	return b.String()
}

// describeEvidence summarizes tool evidence for the ledger.
func describeEvidence(ev core.ToolEvidence) []string {
	return []string{
		fmt.Sprintf("Market adoption %s, hiring %s, ecosystem %s", ev.Market.Adoption, ev.Market.HiringSignal, ev.Market.EcosystemMaturity),
		fmt.Sprintf("Adoption friction %s (learning curve %s, infra cost %s)", ev.Friction.OverallFriction, ev.Friction.LearningCurve, ev.Friction.InfraCost),
		fmt.Sprintf("Freshness: %s", ev.Freshness.Reason),
	}
}
