// Package engine runs the staged decision pipeline:
// LoadMemory -> FrameSignal -> CheckReality -> SynthesizeVerdict ->
// StoreMemory -> Done. One probabilistic call per LLM stage, wrapped by a
// deterministic rule layer that keeps the final decision stable and
// evidence-grounded. The pipeline always returns a complete state, even in
// full degradation.
package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
	"github.com/scoutmind/scout-go-sdk/tools"
)

const (
	defaultModel        = "claude-sonnet-4-20250514"
	defaultMaxTokens    = 2048
	defaultStageTimeout = 30 * time.Second
)

// Engine executes decision pipelines. Construct one at process start and
// share it; per-request state lives entirely in the PipelineState.
type Engine struct {
	client       *anthropic.Client
	memory       *memory.Manager
	orchestrator *tools.Orchestrator
	model        string
	maxTokens    int64
	stageTimeout time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithMemory wires the memory manager. Without it the pipeline runs
// memoryless: empty context in, no writes out.
func WithMemory(m *memory.Manager) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithOrchestrator sets the evidence-provider orchestrator.
func WithOrchestrator(o *tools.Orchestrator) Option {
	return func(e *Engine) {
		e.orchestrator = o
	}
}

// WithModel overrides the Claude model.
func WithModel(model string) Option {
	return func(e *Engine) {
		e.model = model
	}
}

// WithMaxTokens overrides the per-stage response token cap.
func WithMaxTokens(n int64) Option {
	return func(e *Engine) {
		e.maxTokens = n
	}
}

// WithStageTimeout bounds each LLM stage call.
func WithStageTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.stageTimeout = d
	}
}

// NewEngine creates an engine around an Anthropic client.
func NewEngine(client *anthropic.Client, opts ...Option) *Engine {
	e := &Engine{
		client:       client,
		model:        defaultModel,
		maxTokens:    defaultMaxTokens,
		stageTimeout: defaultStageTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.orchestrator == nil {
		e.orchestrator = tools.NewOrchestrator(nil, nil, nil)
	}
	return e
}

// Run executes the pipeline for one topic. It never returns an error:
// every external failure degrades to its documented fallback, and the
// returned state is always complete.
func (e *Engine) Run(ctx context.Context, topic, userProfile string) *PipelineState {
	state := &PipelineState{
		Topic:       topic,
		UserProfile: userProfile,
	}

	for stage := StageLoadMemory; stage != StageDone; {
		log.Printf("[ENGINE] Stage: %s", stage)
		switch stage {
		case StageLoadMemory:
			e.loadMemory(ctx, state)
			stage = StageFrameSignal
		case StageFrameSignal:
			e.frameSignal(ctx, state)
			stage = StageCheckReality
		case StageCheckReality:
			e.checkReality(ctx, state)
			stage = StageSynthesizeVerdict
		case StageSynthesizeVerdict:
			e.synthesizeVerdict(ctx, state)
			stage = StageStoreMemory
		case StageStoreMemory:
			e.storeMemory(ctx, state)
			stage = StageDone
		}
	}

	log.Printf("[ENGINE] Done: %s -> %s (confidence %s, coherence %.3f)",
		topic, state.Verdict.Verdict, state.Verdict.Confidence, state.ChainCoherence)
	return state
}

// CreateMemoryContext exposes the live similar-memories lookup for
// callers outside a pipeline run. Nil manager yields an empty context.
func (e *Engine) CreateMemoryContext(ctx context.Context, userProfile, topic, query string) *memory.Context {
	if e.memory == nil {
		return &memory.Context{}
	}
	return e.memory.CreateMemoryContext(ctx, userProfile, topic, query)
}

// callLLM makes one message call and returns the concatenated text blocks.
func (e *Engine) callLLM(ctx context.Context, system, user string) (string, error) {
	// A nil client means the engine runs without an API backend; every
	// stage then degrades through its fallback instead of panicking.
	if e.client == nil {
		return "", errors.New("engine: no API client configured")
	}
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// mapAdoption converts measured adoption into the coarse market signal.
func mapAdoption(adoption string) core.MarketSignal {
	switch adoption {
	case "high":
		return core.MarketStrong
	case "moderate", "medium":
		return core.MarketMixed
	default:
		return core.MarketWeak
	}
}

// mapFriction converts measured friction into feasibility.
func mapFriction(friction string) core.Feasibility {
	switch friction {
	case "low":
		return core.FeasibilityHigh
	case "medium":
		return core.FeasibilityMedium
	default:
		return core.FeasibilityLow
	}
}
