package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/scoutmind/scout-go-sdk/core"
)

// Record TTLs. Expiry is delegated to the store; readers must tolerate
// records being gone at any time.
const (
	TraitTTL    = 90 * 24 * time.Hour
	PatternTTL  = 180 * 24 * time.Hour
	DecisionTTL = 7 * 24 * time.Hour
)

// TraitKind enumerates the user traits the policy engine can detect.
type TraitKind string

const (
	TraitPerformanceFocus TraitKind = "performance_focus"
	TraitStabilityFocus   TraitKind = "stability_focus"
	TraitLearningFocus    TraitKind = "learning_focus"
	TraitCostSensitive    TraitKind = "cost_sensitive"
)

// PatternKind enumerates the topic patterns worth remembering.
type PatternKind string

const (
	PatternVaporwareRisk   PatternKind = "vaporware_risk"
	PatternProductionReady PatternKind = "production_ready"
	PatternEmergingHyped   PatternKind = "emerging_hyped"
	PatternSteepLearning   PatternKind = "steep_learning"
)

// UserTrait is a stable fact about a user, reinforced on repeat detection.
type UserTrait struct {
	UserID      string    `json:"user_id"`
	Kind        TraitKind `json:"trait_kind"`
	Fact        string    `json:"fact"`
	Confidence  float64   `json:"confidence"`
	UsageCount  int       `json:"usage_count"`
	ContextTags []string  `json:"context_tags,omitempty"`
	Embedding   []float32 `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TopicPattern is a durable observation about a technology.
type TopicPattern struct {
	Topic         string            `json:"topic"` // normalized
	Kind          PatternKind       `json:"pattern_kind"`
	Description   string            `json:"description"`
	Confidence    float64           `json:"confidence"`
	EvidenceCount int               `json:"evidence_count"`
	MarketSignal  core.MarketSignal `json:"market_signal"`
	HypeScore     int               `json:"hype_score"`
	Embedding     []float32         `json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// DecisionRecord is a past verdict, stored at most once per unique
// (topic, reasoning) signature within the decision TTL.
type DecisionRecord struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"user_id"`
	Topic              string            `json:"topic"`
	Verdict            core.Verdict      `json:"verdict"`
	Reasoning          string            `json:"reasoning"`
	Confidence         float64           `json:"confidence"`
	MarketSignal       core.MarketSignal `json:"market_signal"`
	HypeScore          int               `json:"hype_score"`
	Categories         []string          `json:"categories,omitempty"`
	ReasoningEmbedding []float32         `json:"-"`
	CreatedAt          time.Time         `json:"created_at"`
}

// DaysAgo returns the record's age in days.
func (d *DecisionRecord) DaysAgo() float64 {
	return time.Since(d.CreatedAt).Hours() / 24
}

// DecayedConfidence applies the forgetting curve to a confidence value:
// confidence * rate^ageDays, clamped to [0,1]. Used on the read side for
// ranking so stale memories fade without being rewritten.
func DecayedConfidence(confidence float64, updatedAt time.Time, rate float64) float64 {
	age := time.Since(updatedAt).Hours() / 24
	decayed := confidence * math.Pow(rate, age)
	if decayed < 0 {
		return 0
	}
	if decayed > 1 {
		return 1
	}
	return decayed
}

// ReinforcedConfidence is the running weighted average update applied on
// every repeat observation. The prior count weighs the old value so no
// single observation can swing the confidence disproportionately.
func ReinforcedConfidence(old float64, priorCount int, observed float64) float64 {
	if priorCount < 1 {
		priorCount = 1
	}
	return (old*float64(priorCount) + observed) / float64(priorCount+1)
}

// Key layout shared by all store implementations.

// TraitKey returns the record key for a user trait.
func TraitKey(userID string, kind TraitKind) string {
	return fmt.Sprintf("trait:%s:%s", userID, kind)
}

// PatternKey returns the record key for a topic pattern.
func PatternKey(normalizedTopic string, kind PatternKind) string {
	return fmt.Sprintf("pattern:%s:%s", normalizedTopic, kind)
}

// DecisionKey returns the record key for a decision.
func DecisionKey(userID, topic string) string {
	sum := sha256.Sum256([]byte(topic))
	return fmt.Sprintf("decision:%s:%s", userID, hex.EncodeToString(sum[:])[:12])
}

// SignatureKey returns the idempotency index key for a decision signature.
func SignatureKey(sig string) string {
	return "decision_sig:" + sig
}

// DecisionSignature derives the deterministic idempotency signature for a
// decision. Identical (topic, reasoning) always produce the same signature.
func DecisionSignature(topic, reasoning string) string {
	sum := sha256.Sum256([]byte(topic + "|" + reasoning))
	return hex.EncodeToString(sum[:])[:16]
}

// Embedder converts text to vector embeddings.
// Implementations: mock (tests), onnx (local), or an API-backed embedder.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Store is the persistence backend. Implementations must make
// PutDecisionIdempotent's signature check-then-write atomic under
// concurrent calls, and apply reinforcement as an atomic read-modify-write
// on the single record key.
type Store interface {
	// PutTrait stores a new trait record with the trait TTL.
	PutTrait(ctx context.Context, trait *UserTrait) error

	// ReinforceTrait applies the weighted-average confidence update and
	// usage count increment to an existing trait, refreshing its TTL.
	// Returns false if the trait does not exist (caller stores fresh).
	ReinforceTrait(ctx context.Context, userID string, kind TraitKind, observed float64) (bool, error)

	// TraitsByUser returns up to limit traits sorted by confidence descending.
	TraitsByUser(ctx context.Context, userID string, limit int) ([]UserTrait, error)

	// PutPattern stores a new pattern record with the pattern TTL.
	PutPattern(ctx context.Context, pattern *TopicPattern) error

	// ReinforcePattern applies the weighted-average update and evidence
	// count increment to an existing pattern, refreshing its TTL.
	ReinforcePattern(ctx context.Context, normalizedTopic string, kind PatternKind, observed float64, hypeScore int) (bool, error)

	// PatternsByTopic returns patterns for an exact normalized topic,
	// sorted by evidence count descending.
	PatternsByTopic(ctx context.Context, normalizedTopic string, limit int) ([]TopicPattern, error)

	// PatternsBySimilarity returns patterns nearest to the query vector.
	PatternsBySimilarity(ctx context.Context, query []float32, limit int) ([]TopicPattern, error)

	// PatternsByWildcard returns patterns whose topic contains the word.
	PatternsByWildcard(ctx context.Context, word string, limit int) ([]TopicPattern, error)

	// PutDecisionIdempotent stores a decision keyed by its signature.
	// If the signature already exists the stored id is returned with
	// created=false and no new record is written.
	PutDecisionIdempotent(ctx context.Context, record *DecisionRecord, sig string) (id string, created bool, err error)

	// DecisionsByUser returns up to limit decisions sorted by recency.
	DecisionsByUser(ctx context.Context, userID string, limit int) ([]DecisionRecord, error)

	// DecisionsBySimilarity returns the user's decisions nearest to the
	// query vector.
	DecisionsBySimilarity(ctx context.Context, userID string, query []float32, limit int) ([]DecisionRecord, error)

	// MemoryUsage reports aggregate store memory consumption in bytes,
	// for the write backpressure valve.
	MemoryUsage(ctx context.Context) (int64, error)

	// Close releases resources.
	Close() error
}
