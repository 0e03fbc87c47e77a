package memory

import (
	"fmt"
	"strings"

	"github.com/scoutmind/scout-go-sdk/core"
)

// Bounds on the assembled context. Memory is a hint, not a transcript.
const (
	MaxContextTraits    = 5
	MaxContextPatterns  = 3
	MaxContextDecisions = 3
)

// WriteContext carries everything a completed decision exposes to the
// policy engine and store. Built once per decision, discarded after.
type WriteContext struct {
	UserID            string
	Topic             string
	Verdict           core.Verdict
	Confidence        core.Confidence
	Reasoning         string
	UserContext       string
	MarketSignal      core.MarketSignal
	HypeScore         int
	RiskFactors       []string
	SignalStatus      core.SignalStatus
	ContractViolation bool
}

// Context is the bounded, ranked bundle of memories assembled for a query.
// Read-only; consumers render it via PromptString.
type Context struct {
	UserTraits       []UserTrait
	TopicPatterns    []TopicPattern
	SimilarDecisions []DecisionRecord

	// Relevance is the mean similarity of semantically retrieved entries,
	// folded into chain coherence when known.
	Relevance      float64
	RelevanceKnown bool
}

// Empty reports whether no memories were found.
func (c *Context) Empty() bool {
	return len(c.UserTraits) == 0 && len(c.TopicPatterns) == 0 && len(c.SimilarDecisions) == 0
}

// PromptString renders the context as an advisory block for prompt
// injection. The block is explicitly framed as lower priority than live
// evidence: stale memory must never override fresh analysis.
func (c *Context) PromptString() string {
	if c.Empty() {
		return "No relevant memories found."
	}

	var b strings.Builder
	b.WriteString("MEMORY CONTEXT (read-only hints, lower priority than live evidence)\n")

	if len(c.UserTraits) > 0 {
		b.WriteString("\nUser preferences from past interactions:\n")
		for _, t := range c.UserTraits {
			fmt.Fprintf(&b, "- %s (confidence: %.0f%%)\n", t.Fact, t.Confidence*100)
		}
	}

	if len(c.TopicPatterns) > 0 {
		b.WriteString("\nKnown topic patterns:\n")
		for _, p := range c.TopicPatterns {
			fmt.Fprintf(&b, "- %s", p.Description)
			if p.EvidenceCount > 1 {
				fmt.Fprintf(&b, " (based on %d observations)", p.EvidenceCount)
			}
			b.WriteString("\n")
		}
	}

	if len(c.SimilarDecisions) > 0 {
		b.WriteString("\nSimilar past decisions:\n")
		for _, d := range c.SimilarDecisions {
			fmt.Fprintf(&b, "- %s -> %s (%.0f days ago)\n", d.Topic, strings.ToUpper(string(d.Verdict)), d.DaysAgo())
			if d.Reasoning != "" {
				fmt.Fprintf(&b, "  Reason: %s\n", truncate(d.Reasoning, 100))
			}
		}
	}

	b.WriteString("\nMemory usage rules:\n")
	b.WriteString("1. Memory is old context, not current evidence.\n")
	b.WriteString("2. If memory contradicts the current analysis, trust the current analysis.\n")
	b.WriteString("3. Memory below 60% confidence is a weak signal at best.\n")

	return b.String()
}

// truncate shortens s to maxLen, adding "..." if cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
