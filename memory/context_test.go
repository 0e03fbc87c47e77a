package memory_test

import (
	"strings"
	"testing"
	"time"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
)

func TestPromptStringEmpty(t *testing.T) {
	c := &memory.Context{}
	if !c.Empty() {
		t.Fatal("fresh context not empty")
	}
	if got := c.PromptString(); got != "No relevant memories found." {
		t.Errorf("PromptString = %q", got)
	}
}

func TestPromptStringRendersSections(t *testing.T) {
	c := &memory.Context{
		UserTraits: []memory.UserTrait{
			{Fact: "Prioritizes performance, speed, and optimization", Confidence: 0.8},
		},
		TopicPatterns: []memory.TopicPattern{
			{Description: "Widely adopted in production (hype: 3/10)", EvidenceCount: 4},
		},
		SimilarDecisions: []memory.DecisionRecord{
			{
				Topic:     "Redis 7 for caching",
				Verdict:   core.VerdictPursue,
				Reasoning: "Mature and fast.",
				CreatedAt: time.Now().AddDate(0, 0, -3),
			},
		},
	}

	got := c.PromptString()
	if !strings.Contains(got, "lower priority than live evidence") {
		t.Error("advisory framing missing")
	}
	if !strings.Contains(got, "confidence: 80%") {
		t.Errorf("trait confidence not rendered:\n%s", got)
	}
	if !strings.Contains(got, "based on 4 observations") {
		t.Error("pattern evidence count not rendered")
	}
	if !strings.Contains(got, "Redis 7 for caching -> PURSUE") {
		t.Error("decision line not rendered")
	}
	if !strings.Contains(got, "Memory usage rules:") {
		t.Error("usage rules missing")
	}
}

func TestPromptStringTruncatesLongReasoning(t *testing.T) {
	long := strings.Repeat("performance considerations ", 10)
	c := &memory.Context{
		SimilarDecisions: []memory.DecisionRecord{
			{Topic: "Redis", Verdict: core.VerdictExplore, Reasoning: long, CreatedAt: time.Now()},
		},
	}
	got := c.PromptString()
	if strings.Contains(got, long) {
		t.Error("long reasoning not truncated")
	}
	if !strings.Contains(got, "...") {
		t.Error("truncation marker missing")
	}
}
