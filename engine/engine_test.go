package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scoutmind/scout-go-sdk/core"
)

func TestCallWithFallback(t *testing.T) {
	ctx := context.Background()

	got, degraded := callWithFallback(ctx, "test call", time.Second,
		func(ctx context.Context) (string, error) { return "live", nil },
		func(err error) string { return "fallback" },
	)
	if degraded || got != "live" {
		t.Errorf("healthy call = (%q, %v), want (live, false)", got, degraded)
	}

	got, degraded = callWithFallback(ctx, "test call", time.Second,
		func(ctx context.Context) (string, error) { return "", errors.New("down") },
		func(err error) string { return "fallback" },
	)
	if !degraded || got != "fallback" {
		t.Errorf("failing call = (%q, %v), want (fallback, true)", got, degraded)
	}
}

func TestCallWithFallbackHonorsTimeout(t *testing.T) {
	start := time.Now()
	_, degraded := callWithFallback(context.Background(), "slow call", 20*time.Millisecond,
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		func(err error) string { return "fallback" },
	)
	if !degraded {
		t.Error("timed-out call did not degrade")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestMapAdoption(t *testing.T) {
	cases := map[string]core.MarketSignal{
		"high":     core.MarketStrong,
		"moderate": core.MarketMixed,
		"medium":   core.MarketMixed,
		"low":      core.MarketWeak,
		"":         core.MarketWeak,
	}
	for adoption, want := range cases {
		if got := mapAdoption(adoption); got != want {
			t.Errorf("mapAdoption(%q) = %s, want %s", adoption, got, want)
		}
	}
}

func TestMapFriction(t *testing.T) {
	cases := map[string]core.Feasibility{
		"low":    core.FeasibilityHigh,
		"medium": core.FeasibilityMedium,
		"high":   core.FeasibilityLow,
		"":       core.FeasibilityLow,
	}
	for friction, want := range cases {
		if got := mapFriction(friction); got != want {
			t.Errorf("mapFriction(%q) = %s, want %s", friction, got, want)
		}
	}
}

func TestRealityFromTools(t *testing.T) {
	e := NewEngine(nil)
	s := cleanState()
	s.ToolEvidence = core.ToolEvidence{
		Market:   core.MarketEvidence{Adoption: "high", HiringSignal: "strong", EcosystemMaturity: "mature", Confidence: 0.9},
		Friction: core.FrictionEvidence{OverallFriction: "low", LearningCurve: "gentle", InfraCost: "low"},
	}

	rc := e.realityFromTools(s)
	if rc.MarketSignal != core.MarketStrong {
		t.Errorf("market = %s, want strong", rc.MarketSignal)
	}
	if rc.Feasibility != core.FeasibilityHigh {
		t.Errorf("feasibility = %s, want high", rc.Feasibility)
	}
	if rc.HypeScore != 2 {
		t.Errorf("hype = %d, want 2 for a mature ecosystem", rc.HypeScore)
	}
	if rc.EvidenceSummary == "" || len(rc.RiskFactors) < 2 {
		t.Errorf("tool-derived check incomplete: %+v", rc)
	}
}

func TestBuildLedger(t *testing.T) {
	s := cleanState()
	s.Reality.HypeScore = 8
	s.EvidenceStrength = core.EvidenceStrength(s.Reality.MarketSignal, 8)
	s.ToolEvidence.Market.Confidence = 0.9
	s.ToolEvidence.WatchlistTriggered = true

	ledger := buildLedger(s)
	if ledger.ScoredSignals["market_baseline"] != 0.9 {
		t.Errorf("market_baseline = %v", ledger.ScoredSignals["market_baseline"])
	}
	if ledger.ScoredSignals["hype_penalty"] != 0.2 {
		t.Errorf("hype_penalty = %v, want 0.2 at hype 8", ledger.ScoredSignals["hype_penalty"])
	}
	if ledger.ScoredSignals["evidence_strength"] != round3(s.EvidenceStrength) {
		t.Errorf("evidence_strength = %v", ledger.ScoredSignals["evidence_strength"])
	}
	if len(ledger.TradeOffs) != len(s.Reality.RiskFactors) {
		t.Errorf("trade-offs = %v", ledger.TradeOffs)
	}

	// The watchlist trigger adds a freshness anchor.
	found := false
	for _, a := range ledger.ReassessmentAnchors {
		if a == "Model knowledge freshness for this topic" {
			found = true
		}
	}
	if !found {
		t.Errorf("anchors = %v, missing the freshness anchor", ledger.ReassessmentAnchors)
	}
}

func TestSynthesizeVerdictNoClientFallsBack(t *testing.T) {
	// No rule fires on a clean state, so the stage reaches for the
	// evaluative call. With no client configured it must degrade to the
	// conservative verdict, not panic.
	e := NewEngine(nil)
	s := cleanState()

	e.synthesizeVerdict(context.Background(), s)

	if s.Verdict == nil {
		t.Fatal("no verdict produced")
	}
	if s.Verdict.Verdict != core.VerdictWatchlist {
		t.Errorf("verdict = %s, want watchlist", s.Verdict.Verdict)
	}
	if s.Verdict.Confidence != core.ConfidenceLow {
		t.Errorf("confidence = %s, want low", s.Verdict.Confidence)
	}
	degraded := false
	for _, name := range s.Degraded {
		if name == "verdict_synthesis" {
			degraded = true
		}
	}
	if !degraded {
		t.Errorf("degraded = %v, missing verdict_synthesis", s.Degraded)
	}
}

func TestSynthesizeVerdictRuleShortCircuit(t *testing.T) {
	// A rule-decided verdict must not reach for the evaluative call, so a
	// nil client is safe here.
	e := NewEngine(nil)
	s := cleanState()
	s.Signal.Status = core.SignalInsufficient
	s.Signal.Confidence = core.ConfidenceLow
	s.Reality.MarketSignal = core.MarketStrong
	s.EvidenceStrength = core.EvidenceStrength(core.MarketStrong, s.Reality.HypeScore)

	e.synthesizeVerdict(context.Background(), s)

	if !s.KnowledgeGap {
		t.Error("insufficient signal with strong market did not register a knowledge gap")
	}
	if s.RuleFired != "insufficient_signal" {
		t.Fatalf("rule = %q", s.RuleFired)
	}
	if s.Verdict.Verdict != core.VerdictWatchlist {
		t.Errorf("verdict = %s, want watchlist", s.Verdict.Verdict)
	}
	// Post-verdict clamps still run after a rule decision.
	if s.Verdict.Confidence != core.ConfidenceLow {
		t.Errorf("confidence = %s, want low", s.Verdict.Confidence)
	}
	if s.ChainCoherence == 0 {
		t.Error("coherence not computed")
	}
}
