package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
)

// loadMemory assembles the memory context. Memory is optional and never
// fatal: any failure means an empty context.
func (e *Engine) loadMemory(ctx context.Context, s *PipelineState) {
	s.Memory.Timestamp = time.Now().UTC()
	if e.memory == nil {
		s.MemoryContext = &memory.Context{}
		s.Memory.ContextUsed = "Memory system disabled."
		return
	}

	s.Memory.UserID = e.memory.UserID(s.UserProfile)
	query := fmt.Sprintf("Analysis of %s for %s", s.Topic, s.UserProfile)
	s.MemoryContext = e.memory.CreateMemoryContext(ctx, s.UserProfile, s.Topic, query)
	s.Memory.ContextUsed = s.MemoryContext.PromptString()
}

// frameSignal classifies the topic's public framing. The fallback is an
// insufficient signal at low confidence so downstream stages treat the
// topic as unverified rather than inventing a frame.
func (e *Engine) frameSignal(ctx context.Context, s *PipelineState) {
	frame, degraded := callWithFallback(ctx, "signal framing", e.stageTimeout,
		func(ctx context.Context) (*SignalFrame, error) {
			raw, err := e.callLLM(ctx, signalFramingSystemPrompt, signalFramingUserPrompt(s.Topic, s.UserProfile))
			if err != nil {
				return nil, err
			}
			var sf SignalFrame
			if err := parseStageJSON(raw, &sf); err != nil {
				return nil, err
			}
			return &sf, nil
		},
		func(err error) *SignalFrame {
			return &SignalFrame{
				Status:             core.SignalInsufficient,
				Summary:            "Signal framing unavailable; treating topic as unverified.",
				Confidence:         core.ConfidenceLow,
				UserContextSummary: s.UserProfile,
			}
		},
	)
	if degraded {
		s.markDegraded("signal_framing")
	}
	validateSignal(frame)
	s.Signal = frame
}

// checkReality gathers measured tool evidence and the evaluative
// assessment. It always runs, even on insufficient signal: market
// evidence about a topic the model does not know is exactly what
// separates a knowledge gap from a dead end.
func (e *Engine) checkReality(ctx context.Context, s *PipelineState) {
	s.ToolEvidence = e.orchestrator.Collect(ctx, s.Topic, s.UserProfile)

	check, degraded := callWithFallback(ctx, "reality check", e.stageTimeout,
		func(ctx context.Context) (*RealityCheck, error) {
			raw, err := e.callLLM(ctx, realityCheckSystemPrompt, realityCheckUserPrompt(s))
			if err != nil {
				return nil, err
			}
			var rc RealityCheck
			if err := parseStageJSON(raw, &rc); err != nil {
				return nil, err
			}
			return &rc, nil
		},
		func(err error) *RealityCheck {
			return e.realityFromTools(s)
		},
	)
	if degraded {
		s.markDegraded("reality_check")
	}
	validateReality(check)
	s.Reality = check

	s.EvidenceStrength = core.EvidenceStrength(check.MarketSignal, check.HypeScore)
	s.SignalEvidenceAlignment = alignment(s.Signal.Confidence, s.EvidenceStrength)
	s.Ledger = buildLedger(s)
}

// realityFromTools constructs the reality check deterministically from
// measured evidence when the evaluative call is unavailable.
func (e *Engine) realityFromTools(s *PipelineState) *RealityCheck {
	ev := s.ToolEvidence
	hype := 5
	switch ev.Market.EcosystemMaturity {
	case "mature":
		hype = 2
	case "growing":
		hype = 5
	case "immature":
		hype = 7
	}
	return &RealityCheck{
		Feasibility:  mapFriction(ev.Friction.OverallFriction),
		MarketSignal: mapAdoption(ev.Market.Adoption),
		RiskFactors: []string{
			"Evaluative assessment unavailable; relying on measured signals only",
			fmt.Sprintf("Adoption friction rated %s for this technology", ev.Friction.OverallFriction),
		},
		KnownUnknowns:   []string{"Qualitative fit for the user's specific goals"},
		HypeScore:       hype,
		EvidenceSummary: "Assessment derived from measured tool evidence, not direct evaluation",
	}
}

// buildLedger assembles the decision audit trail from the reality check.
func buildLedger(s *PipelineState) *Ledger {
	baseline := s.Reality.MarketSignal.Baseline()
	penalty := float64(s.Reality.HypeScore-6) / 10
	if penalty < 0 {
		penalty = 0
	}

	ledger := &Ledger{
		ContextEvidence: describeEvidence(s.ToolEvidence),
		ScoredSignals: map[string]float64{
			"market_baseline":   baseline,
			"hype_penalty":      round3(penalty),
			"evidence_strength": round3(s.EvidenceStrength),
			"tool_confidence":   s.ToolEvidence.Market.Confidence,
		},
		TradeOffs:           make([]string, 0, len(s.Reality.RiskFactors)),
		ReassessmentAnchors: append([]string{}, s.Reality.KnownUnknowns...),
	}
	for _, risk := range s.Reality.RiskFactors {
		ledger.TradeOffs = append(ledger.TradeOffs, risk)
	}
	if s.ToolEvidence.WatchlistTriggered {
		ledger.ReassessmentAnchors = append(ledger.ReassessmentAnchors, "Model knowledge freshness for this topic")
	}
	return ledger
}

// synthesizeVerdict runs the deterministic rule layer first, then the
// evaluative call only when no rule decided, then the consistency clamps
// and alignment math.
func (e *Engine) synthesizeVerdict(ctx context.Context, s *PipelineState) {
	// Knowledge gap: model prior weak but market evidence is not.
	s.KnowledgeGap = s.Signal.Status == core.SignalInsufficient &&
		(s.Reality.MarketSignal == core.MarketStrong || s.Reality.MarketSignal == core.MarketMixed)

	if !runVerdictRules(s) {
		verdict, degraded := callWithFallback(ctx, "verdict synthesis", e.stageTimeout,
			func(ctx context.Context) (*VerdictOutput, error) {
				raw, err := e.callLLM(ctx, verdictSystemPrompt, verdictUserPrompt(s, s.Memory.ContextUsed))
				if err != nil {
					return nil, err
				}
				var v VerdictOutput
				if err := parseStageJSON(raw, &v); err != nil {
					return nil, err
				}
				return &v, nil
			},
			func(err error) *VerdictOutput {
				return &VerdictOutput{
					Verdict:     core.VerdictWatchlist,
					Reasoning:   "Evaluative call unavailable; holding a conservative position until the analysis can run in full.",
					ActionItems: []string{"Re-run the analysis when the service recovers", "Do not act on this topic without a completed assessment"},
					Timeline:    core.TimelineReevaluate,
					Confidence:  core.ConfidenceLow,
				}
			},
		)
		if degraded {
			s.markDegraded("verdict_synthesis")
		}
		validateVerdict(verdict)
		s.Verdict = verdict
	}

	dampenConfidence(s)
	computeCoherence(s)
}

// storeMemory runs the best-effort write phase. Failures land in the
// result metadata, never in the pipeline outcome.
func (e *Engine) storeMemory(ctx context.Context, s *PipelineState) {
	if e.memory == nil {
		return
	}

	wctx := &memory.WriteContext{
		UserID:            s.Memory.UserID,
		Topic:             s.Topic,
		Verdict:           s.Verdict.Verdict,
		Confidence:        s.Verdict.Confidence,
		Reasoning:         s.Verdict.Reasoning,
		UserContext:       s.UserProfile,
		MarketSignal:      s.Reality.MarketSignal,
		HypeScore:         s.Reality.HypeScore,
		RiskFactors:       s.Reality.RiskFactors,
		SignalStatus:      s.Signal.Status,
		ContractViolation: s.ContractViolation,
	}

	result, err := e.memory.ProcessVerdict(ctx, wctx)
	if err != nil {
		log.Printf("[ENGINE] Memory write failed: %v", err)
		s.Memory.StorageError = err.Error()
		return
	}
	s.Memory.StorageResult = result
}
