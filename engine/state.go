package engine

import (
	"time"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
)

// Stage identifies a pipeline stage. Stages run in strict order; the only
// branching is internal short-circuits inside verdict synthesis.
type Stage string

const (
	StageLoadMemory       Stage = "load_memory"
	StageFrameSignal      Stage = "frame_signal"
	StageCheckReality     Stage = "check_reality"
	StageSynthesizeVerdict Stage = "synthesize_verdict"
	StageStoreMemory      Stage = "store_memory"
	StageDone             Stage = "done"
)

// SignalFrame is the structured output of the signal-framing stage: how
// the topic is commonly described, without verifying truth.
type SignalFrame struct {
	Status             core.SignalStatus `json:"status"`
	Summary            string            `json:"signal_summary,omitempty"`
	Domain             string            `json:"domain,omitempty"`
	TimeHorizon        core.Horizon      `json:"time_horizon,omitempty"`
	Confidence         core.Confidence   `json:"confidence_level"`
	UserContextSummary string            `json:"user_context_summary"`
}

// RealityCheck is the structured output of the reality-check stage.
type RealityCheck struct {
	Feasibility     core.Feasibility  `json:"feasibility"`
	MarketSignal    core.MarketSignal `json:"market_signal"`
	RiskFactors     []string          `json:"risk_factors"`
	KnownUnknowns   []string          `json:"known_unknowns"`
	HypeScore       int               `json:"hype_score"`
	EvidenceSummary string            `json:"evidence_summary"`
}

// VerdictOutput is the final decision tuple.
type VerdictOutput struct {
	Verdict     core.Verdict    `json:"verdict"`
	Reasoning   string          `json:"reasoning"`
	ActionItems []string        `json:"action_items"`
	Timeline    string          `json:"timeline"`
	Confidence  core.Confidence `json:"confidence"`
}

// Ledger is the audit trail built during the reality check: what evidence
// was considered, how signals scored, and what would trigger re-assessment.
type Ledger struct {
	ContextEvidence     []string           `json:"context_evidence"`
	ScoredSignals       map[string]float64 `json:"scored_signals"`
	TradeOffs           []string           `json:"trade_offs"`
	ReassessmentAnchors []string           `json:"reassessment_anchors"`
}

// MemoryInfo records the memory system's involvement in a run.
type MemoryInfo struct {
	UserID        string              `json:"user_id,omitempty"`
	ContextUsed   string              `json:"context_used,omitempty"`
	StorageResult *memory.WriteResult `json:"storage_result,omitempty"`
	StorageError  string              `json:"storage_error,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

// PipelineState flows through the pipeline, mutated by each stage, and is
// returned complete to the caller even under full degradation.
type PipelineState struct {
	Topic       string `json:"topic"`
	UserProfile string `json:"user_profile"`

	Signal  *SignalFrame   `json:"signal,omitempty"`
	Reality *RealityCheck  `json:"reality_check,omitempty"`
	Verdict *VerdictOutput `json:"verdict,omitempty"`

	ToolEvidence     core.ToolEvidence `json:"tool_evidence"`
	EvidenceStrength float64           `json:"evidence_strength"`
	Ledger           *Ledger           `json:"ledger,omitempty"`

	SignalEvidenceAlignment  float64 `json:"signal_evidence_alignment"`
	EvidenceVerdictAlignment float64 `json:"evidence_verdict_alignment"`
	ChainCoherence           float64 `json:"chain_coherence_score"`

	ContractViolation bool     `json:"contract_violation"`
	Violations        []string `json:"violations,omitempty"`
	KnowledgeGap      bool     `json:"knowledge_gap"`

	MemoryContext *memory.Context `json:"-"`
	Memory        MemoryInfo      `json:"memory"`

	// RuleFired names the deterministic rule that decided the verdict,
	// empty when the evaluative call decided.
	RuleFired string `json:"rule_fired,omitempty"`

	// Degraded lists external calls that fell back during this run.
	Degraded []string `json:"degraded,omitempty"`
}

// addViolation records a contract violation once.
func (s *PipelineState) addViolation(reason string) {
	for _, v := range s.Violations {
		if v == reason {
			return
		}
	}
	s.ContractViolation = true
	s.Violations = append(s.Violations, reason)
}

// markDegraded records that an external call fell back.
func (s *PipelineState) markDegraded(name string) {
	s.Degraded = append(s.Degraded, name)
}
