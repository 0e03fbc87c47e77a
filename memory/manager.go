package memory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scoutmind/scout-go-sdk/core"
)

// Config holds Manager configuration.
type Config struct {
	// UseEmbeddings toggles semantic paths. When false (or when the
	// embedder errors) every lookup uses its non-semantic fallback.
	UseEmbeddings bool

	// MemoryThresholdBytes is the backpressure valve: writes are rejected
	// (not errored) once aggregate store usage exceeds it.
	MemoryThresholdBytes int64

	// DecayRate is the per-day confidence decay applied on read-side
	// ranking.
	DecayRate float64

	// OpTimeout bounds each store or embedder call.
	OpTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the local SDK.
var DefaultConfig = &Config{
	UseEmbeddings:        true,
	MemoryThresholdBytes: 512 << 20,
	DecayRate:            0.98,
	OpTimeout:            5 * time.Second,
}

// Metrics counts store operations. Counters only; read them via Summary.
type Metrics struct {
	mu              sync.Mutex
	writes          int
	reads           int
	searches        int
	encodingErrors  int
	dimMismatches   int
	blockedByGuard  int
	blockedByVetoes int
}

func (m *Metrics) incWrite()    { m.mu.Lock(); m.writes++; m.mu.Unlock() }
func (m *Metrics) incRead()     { m.mu.Lock(); m.reads++; m.mu.Unlock() }
func (m *Metrics) incSearch()   { m.mu.Lock(); m.searches++; m.mu.Unlock() }
func (m *Metrics) incEncErr()   { m.mu.Lock(); m.encodingErrors++; m.mu.Unlock() }
func (m *Metrics) incMismatch() { m.mu.Lock(); m.dimMismatches++; m.mu.Unlock() }
func (m *Metrics) incGuard()    { m.mu.Lock(); m.blockedByGuard++; m.mu.Unlock() }
func (m *Metrics) incVeto()     { m.mu.Lock(); m.blockedByVetoes++; m.mu.Unlock() }

// Summary returns a snapshot of the counters.
func (m *Metrics) Summary() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"writes":            m.writes,
		"reads":             m.reads,
		"search_queries":    m.searches,
		"encoding_errors":   m.encodingErrors,
		"vector_mismatches": m.dimMismatches,
		"blocked_by_guard":  m.blockedByGuard,
		"blocked_by_veto":   m.blockedByVetoes,
	}
}

// WriteResult reports what ProcessVerdict stored and why anything was
// skipped, keyed by memory kind.
type WriteResult struct {
	UserID        string            `json:"user_id"`
	MemoryStored  bool              `json:"memory_stored"`
	TraitsStored  []TraitKind       `json:"traits_stored,omitempty"`
	PatternStored PatternKind       `json:"pattern_stored,omitempty"`
	DecisionID    string            `json:"decision_id,omitempty"`
	Reasons       map[string]string `json:"reasons"`
	Metrics       map[string]int    `json:"metrics"`
}

// Manager orchestrates the memory system: policy gating, extraction,
// reinforcement, idempotent decision writes, and bounded context assembly.
// Construct one at process start and share it; it is safe for concurrent
// use when its Store is.
type Manager struct {
	store    Store
	embedder Embedder
	policy   *Policy
	config   *Config
	metrics  Metrics

	mu          sync.RWMutex
	userIDCache map[string]string
}

// NewManager creates a Manager. A nil config uses DefaultConfig; a nil
// embedder disables every semantic path.
func NewManager(store Store, embedder Embedder, config *Config) *Manager {
	if config == nil {
		config = DefaultConfig
	}
	if embedder == nil {
		config = &Config{
			UseEmbeddings:        false,
			MemoryThresholdBytes: config.MemoryThresholdBytes,
			DecayRate:            config.DecayRate,
			OpTimeout:            config.OpTimeout,
		}
		log.Printf("[MEMORY] Embeddings unavailable, using keyword fallbacks")
	}
	return &Manager{
		store:       store,
		embedder:    embedder,
		policy:      NewPolicy(),
		config:      config,
		userIDCache: make(map[string]string),
	}
}

// Metrics exposes the operation counters.
func (m *Manager) Metrics() map[string]int {
	return m.metrics.Summary()
}

// UserID returns the stable user id for a profile string, cached per
// manager instance.
func (m *Manager) UserID(userProfile string) string {
	m.mu.RLock()
	id, ok := m.userIDCache[userProfile]
	m.mu.RUnlock()
	if ok {
		return id
	}
	id = DeriveUserID(userProfile)
	m.mu.Lock()
	m.userIDCache[userProfile] = id
	m.mu.Unlock()
	return id
}

// CreateMemoryContext assembles the bounded, ranked memory bundle for a
// query: top-5 traits, top-3 patterns, top-3 similar decisions. Every
// failure degrades to fewer (or zero) memories, never to an error.
func (m *Manager) CreateMemoryContext(ctx context.Context, userProfile, topic, query string) *Context {
	userID := m.UserID(userProfile)
	opCtx, cancel := m.opContext(ctx)
	defer cancel()

	mc := &Context{}

	traits, err := m.store.TraitsByUser(opCtx, userID, MaxContextTraits)
	if err != nil {
		log.Printf("[MEMORY] Trait lookup failed: %v", err)
	} else {
		mc.UserTraits = traits
		m.metrics.incRead()
	}

	mc.TopicPatterns = m.lookupPatterns(opCtx, topic, query)
	mc.SimilarDecisions, mc.Relevance, mc.RelevanceKnown = m.lookupDecisions(opCtx, userID, query)

	log.Printf("[MEMORY] Context for %q: %d traits, %d patterns, %d decisions",
		topic, len(mc.UserTraits), len(mc.TopicPatterns), len(mc.SimilarDecisions))
	return mc
}

// lookupPatterns tries exact normalized-topic match, then semantic search
// on the query, then wildcard substring match on meaningful topic words.
func (m *Manager) lookupPatterns(ctx context.Context, topic, query string) []TopicPattern {
	normalized := NormalizeTopic(topic)

	patterns, err := m.store.PatternsByTopic(ctx, normalized, MaxContextPatterns)
	if err != nil {
		log.Printf("[MEMORY] Pattern lookup failed: %v", err)
	}
	if len(patterns) > 0 {
		m.metrics.incRead()
		return patterns
	}

	if m.useEmbeddings() && query != "" {
		if vec, err := m.embed(ctx, query); err == nil {
			m.metrics.incSearch()
			if semantic, err := m.store.PatternsBySimilarity(ctx, vec, MaxContextPatterns); err == nil && len(semantic) > 0 {
				m.metrics.incRead()
				return semantic
			}
		}
	}

	for _, word := range TopicWordsForWildcard(normalized) {
		partial, err := m.store.PatternsByWildcard(ctx, word, 2)
		if err != nil {
			continue
		}
		patterns = append(patterns, partial...)
		if len(patterns) >= MaxContextPatterns {
			break
		}
	}
	if len(patterns) > MaxContextPatterns {
		patterns = patterns[:MaxContextPatterns]
	}
	if len(patterns) > 0 {
		m.metrics.incRead()
	}
	return patterns
}

// lookupDecisions prefers semantic similarity on the query, degrading to
// recency. Returns the mean similarity of semantic hits when available.
func (m *Manager) lookupDecisions(ctx context.Context, userID, query string) ([]DecisionRecord, float64, bool) {
	if m.useEmbeddings() && query != "" {
		if vec, err := m.embed(ctx, query); err == nil {
			m.metrics.incSearch()
			if decisions, err := m.store.DecisionsBySimilarity(ctx, userID, vec, MaxContextDecisions); err == nil && len(decisions) > 0 {
				m.metrics.incRead()
				return decisions, meanSimilarity(vec, decisions), true
			}
		}
	}

	decisions, err := m.store.DecisionsByUser(ctx, userID, MaxContextDecisions)
	if err != nil {
		log.Printf("[MEMORY] Decision lookup failed: %v", err)
		return nil, 0, false
	}
	if len(decisions) > 0 {
		m.metrics.incRead()
	}
	return decisions, 0, false
}

// ProcessVerdict runs the write phase for a completed decision: resource
// guard, contract-violation veto, then the three policy-gated writes.
func (m *Manager) ProcessVerdict(ctx context.Context, wctx *WriteContext) (*WriteResult, error) {
	result := &WriteResult{
		UserID:  wctx.UserID,
		Reasons: make(map[string]string),
	}
	defer func() { result.Metrics = m.metrics.Summary() }()

	opCtx, cancel := m.opContext(ctx)
	defer cancel()

	// Backpressure valve: reject (do not error) when the store is full.
	if usage, err := m.store.MemoryUsage(opCtx); err == nil && usage > m.config.MemoryThresholdBytes {
		m.metrics.incGuard()
		result.Reasons["memory"] = "memory_threshold_exceeded"
		log.Printf("[MEMORY] Write rejected: store at %d bytes (threshold %d)", usage, m.config.MemoryThresholdBytes)
		return result, nil
	}

	// The detector runs here independently of any upstream flag: even a
	// caller that forgot to set ContractViolation gets vetoed.
	violations := DetectContractViolations(ContractCheck{
		SignalStatus: wctx.SignalStatus,
		MarketSignal: wctx.MarketSignal,
		Verdict:      wctx.Verdict,
		HypeScore:    wctx.HypeScore,
		Reasoning:    wctx.Reasoning,
		Confidence:   wctx.Confidence,
	})
	if wctx.ContractViolation || len(violations) > 0 {
		wctx.ContractViolation = true
		m.metrics.incVeto()
		result.Reasons["violation"] = "contract_violation_detected"
		log.Printf("[MEMORY] Writes blocked by contract violation: %v", violations)
		return result, nil
	}

	m.writeTraits(opCtx, wctx, result)
	m.writePattern(opCtx, wctx, result)
	m.writeDecision(opCtx, wctx, result)

	result.MemoryStored = len(result.TraitsStored) > 0 || result.PatternStored != "" || result.DecisionID != ""
	return result, nil
}

func (m *Manager) writeTraits(ctx context.Context, wctx *WriteContext, result *WriteResult) {
	allowed, reason := m.policy.ShouldWriteUserMemory(wctx)
	result.Reasons["user"] = string(reason)
	if !allowed {
		return
	}

	for _, trait := range ExtractTraits(ctx, m.activeEmbedder(), wctx) {
		reinforced, err := m.store.ReinforceTrait(ctx, wctx.UserID, trait.Kind, trait.Confidence)
		if err != nil {
			log.Printf("[MEMORY] Trait reinforce failed: %v", err)
			continue
		}
		if !reinforced {
			t := trait
			if err := m.store.PutTrait(ctx, &t); err != nil {
				log.Printf("[MEMORY] Trait store failed: %v", err)
				continue
			}
		}
		m.metrics.incWrite()
		result.TraitsStored = append(result.TraitsStored, trait.Kind)
	}
}

func (m *Manager) writePattern(ctx context.Context, wctx *WriteContext, result *WriteResult) {
	allowed, reason := m.policy.ShouldWriteTopicMemory(wctx)
	result.Reasons["topic"] = string(reason)
	if !allowed {
		return
	}

	pattern := ExtractPattern(ctx, m.activeEmbedder(), wctx)
	if pattern == nil {
		return
	}
	reinforced, err := m.store.ReinforcePattern(ctx, pattern.Topic, pattern.Kind, pattern.Confidence, pattern.HypeScore)
	if err != nil {
		log.Printf("[MEMORY] Pattern reinforce failed: %v", err)
		return
	}
	if !reinforced {
		if err := m.store.PutPattern(ctx, pattern); err != nil {
			log.Printf("[MEMORY] Pattern store failed: %v", err)
			return
		}
	}
	m.metrics.incWrite()
	result.PatternStored = pattern.Kind
}

func (m *Manager) writeDecision(ctx context.Context, wctx *WriteContext, result *WriteResult) {
	allowed, reason := m.policy.ShouldWriteDecisionMemory(wctx)
	result.Reasons["decision"] = string(reason)
	if !allowed {
		return
	}

	record := &DecisionRecord{
		ID:           uuid.New().String(),
		UserID:       wctx.UserID,
		Topic:        wctx.Topic,
		Verdict:      wctx.Verdict,
		Reasoning:    wctx.Reasoning,
		Confidence:   wctx.Confidence.Score(),
		MarketSignal: wctx.MarketSignal,
		HypeScore:    wctx.HypeScore,
		Categories:   ExtractCategories(wctx.Topic, wctx.Reasoning),
		CreatedAt:    time.Now().UTC(),
	}
	if emb := m.activeEmbedder(); emb != nil {
		if vec, err := m.embed(ctx, wctx.Reasoning); err == nil {
			record.ReasoningEmbedding = vec
		}
	}

	sig := DecisionSignature(wctx.Topic, wctx.Reasoning)
	id, created, err := m.store.PutDecisionIdempotent(ctx, record, sig)
	if err != nil {
		log.Printf("[MEMORY] Decision store failed: %v", err)
		return
	}
	if created {
		m.metrics.incWrite()
	} else {
		log.Printf("[MEMORY] Decision already exists (sig: %s), returning existing id", sig)
	}
	result.DecisionID = id
}

// UserProfileSummary aggregates a user's remembered traits and recent
// decision distribution.
type UserProfileSummary struct {
	UserID          string               `json:"user_id"`
	Traits          []UserTrait          `json:"traits"`
	RecentDecisions []DecisionRecord     `json:"recent_decisions"`
	StrongestTrait  *UserTrait           `json:"strongest_trait,omitempty"`
	VerdictCounts   map[core.Verdict]int `json:"verdict_counts"`
}

// ProfileSummary returns what the memory system knows about a user.
func (m *Manager) ProfileSummary(ctx context.Context, userProfile string) (*UserProfileSummary, error) {
	userID := m.UserID(userProfile)
	opCtx, cancel := m.opContext(ctx)
	defer cancel()

	traits, err := m.store.TraitsByUser(opCtx, userID, 10)
	if err != nil {
		return nil, fmt.Errorf("trait lookup: %w", err)
	}
	decisions, err := m.store.DecisionsByUser(opCtx, userID, 5)
	if err != nil {
		return nil, fmt.Errorf("decision lookup: %w", err)
	}

	summary := &UserProfileSummary{
		UserID:          userID,
		Traits:          traits,
		RecentDecisions: decisions,
		VerdictCounts:   make(map[core.Verdict]int),
	}
	for i := range traits {
		if summary.StrongestTrait == nil || traits[i].Confidence > summary.StrongestTrait.Confidence {
			summary.StrongestTrait = &traits[i]
		}
	}
	for _, d := range decisions {
		summary.VerdictCounts[d.Verdict]++
	}
	return summary, nil
}

// HealthCheck verifies the store responds.
func (m *Manager) HealthCheck(ctx context.Context) error {
	opCtx, cancel := m.opContext(ctx)
	defer cancel()
	if _, err := m.store.MemoryUsage(opCtx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return nil
}

func (m *Manager) useEmbeddings() bool {
	return m.config.UseEmbeddings && m.embedder != nil
}

func (m *Manager) activeEmbedder() Embedder {
	if m.useEmbeddings() {
		return m.embedder
	}
	return nil
}

// embed wraps the embedder call with metric accounting for dimension
// mismatches, which are fatal to the single call only.
func (m *Manager) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		m.metrics.incEncErr()
		return nil, err
	}
	if len(vec) != m.embedder.Dimensions() {
		m.metrics.incMismatch()
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.embedder.Dimensions(), len(vec))
	}
	return vec, nil
}

func (m *Manager) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.config.OpTimeout)
}

func meanSimilarity(query []float32, decisions []DecisionRecord) float64 {
	if len(decisions) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, d := range decisions {
		if len(d.ReasoningEmbedding) == 0 {
			continue
		}
		sum += CosineSimilarity(query, d.ReasoningEmbedding)
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n))
}
