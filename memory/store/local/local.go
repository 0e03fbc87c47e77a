// Package local provides the embedded memory store: patrickmn/go-cache for
// TTL-bound records and the idempotency signature index, chromem-go for the
// semantic nearest-neighbor path.
package local

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	chromem "github.com/philippgille/chromem-go"

	"github.com/scoutmind/scout-go-sdk/memory"
)

// Config holds local store configuration.
type Config struct {
	// CleanupInterval controls how often expired records are purged.
	CleanupInterval time.Duration

	// DecayRate is the per-day confidence decay used for read-side ranking.
	DecayRate float64
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	CleanupInterval: 10 * time.Minute,
	DecayRate:       0.98,
}

// Store is the embedded implementation of memory.Store. Records live in a
// TTL cache keyed by the shared key layout; pattern and decision embeddings
// are mirrored into chromem collections for similarity search. A chromem
// document whose cache record has expired is skipped on read, which is the
// lazy eviction the pipeline is required to tolerate.
type Store struct {
	cache    *gocache.Cache
	db       *chromem.DB
	patterns *chromem.Collection
	decisions *chromem.Collection
	config   *Config

	// reinforceMu serializes read-modify-write reinforcement updates.
	reinforceMu sync.Mutex

	// approxBytes tracks approximate payload size for the resource guard.
	approxBytes atomic.Int64
}

// New creates an embedded store.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig
	}
	db := chromem.NewDB()
	patterns, err := db.CreateCollection("topic_patterns", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create patterns collection: %w", err)
	}
	decisions, err := db.CreateCollection("decisions", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create decisions collection: %w", err)
	}
	return &Store{
		cache:     gocache.New(gocache.NoExpiration, config.CleanupInterval),
		db:        db,
		patterns:  patterns,
		decisions: decisions,
		config:    config,
	}, nil
}

// PutTrait stores a trait record with the trait TTL.
func (s *Store) PutTrait(ctx context.Context, trait *memory.UserTrait) error {
	key := memory.TraitKey(trait.UserID, trait.Kind)
	s.cache.Set(key, cloneTrait(trait), memory.TraitTTL)
	s.approxBytes.Add(recordSize(len(trait.Fact), len(trait.Embedding)))
	log.Printf("[STORE] Stored trait %s", key)
	return nil
}

// ReinforceTrait applies the weighted-average update atomically. The
// stored record is never mutated in place: readers may hold the old
// pointer, so the update goes through a clone and a fresh Set.
func (s *Store) ReinforceTrait(ctx context.Context, userID string, kind memory.TraitKind, observed float64) (bool, error) {
	s.reinforceMu.Lock()
	defer s.reinforceMu.Unlock()

	key := memory.TraitKey(userID, kind)
	v, ok := s.cache.Get(key)
	if !ok {
		return false, nil
	}
	trait := cloneTrait(v.(*memory.UserTrait))
	trait.Confidence = memory.ReinforcedConfidence(trait.Confidence, trait.UsageCount, observed)
	trait.UsageCount++
	trait.UpdatedAt = time.Now().UTC()
	s.cache.Set(key, trait, memory.TraitTTL) // refresh TTL
	return true, nil
}

// TraitsByUser returns the user's traits ranked by decayed confidence.
func (s *Store) TraitsByUser(ctx context.Context, userID string, limit int) ([]memory.UserTrait, error) {
	prefix := memory.TraitKey(userID, "")
	var traits []memory.UserTrait
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if t, ok := item.Object.(*memory.UserTrait); ok {
			traits = append(traits, *t)
		}
	}
	sort.Slice(traits, func(i, j int) bool {
		return s.ranked(traits[i].Confidence, traits[i].UpdatedAt) > s.ranked(traits[j].Confidence, traits[j].UpdatedAt)
	})
	return bound(traits, limit), nil
}

// PutPattern stores a pattern record and mirrors its embedding to chromem.
func (s *Store) PutPattern(ctx context.Context, pattern *memory.TopicPattern) error {
	key := memory.PatternKey(pattern.Topic, pattern.Kind)
	s.cache.Set(key, clonePattern(pattern), memory.PatternTTL)
	s.approxBytes.Add(recordSize(len(pattern.Description), len(pattern.Embedding)))

	if len(pattern.Embedding) > 0 {
		doc := chromem.Document{
			ID:        key,
			Content:   pattern.Description,
			Embedding: pattern.Embedding,
			Metadata:  map[string]string{"topic": pattern.Topic, "kind": string(pattern.Kind)},
		}
		if err := s.patterns.AddDocument(ctx, doc); err != nil {
			// Vector mirror is an optimization; the record itself is stored.
			log.Printf("[STORE] Pattern vector mirror failed: %v", err)
		}
	}
	log.Printf("[STORE] Stored pattern %s", key)
	return nil
}

// ReinforcePattern applies the weighted-average update atomically. Same
// clone-then-Set discipline as ReinforceTrait: the cached pointer stays
// immutable once stored.
func (s *Store) ReinforcePattern(ctx context.Context, normalizedTopic string, kind memory.PatternKind, observed float64, hypeScore int) (bool, error) {
	s.reinforceMu.Lock()
	defer s.reinforceMu.Unlock()

	key := memory.PatternKey(normalizedTopic, kind)
	v, ok := s.cache.Get(key)
	if !ok {
		return false, nil
	}
	pattern := clonePattern(v.(*memory.TopicPattern))
	pattern.Confidence = memory.ReinforcedConfidence(pattern.Confidence, pattern.EvidenceCount, observed)
	pattern.EvidenceCount++
	pattern.HypeScore = hypeScore
	pattern.UpdatedAt = time.Now().UTC()
	s.cache.Set(key, pattern, memory.PatternTTL)
	return true, nil
}

// PatternsByTopic returns exact-topic patterns sorted by evidence count.
func (s *Store) PatternsByTopic(ctx context.Context, normalizedTopic string, limit int) ([]memory.TopicPattern, error) {
	prefix := memory.PatternKey(normalizedTopic, "")
	var patterns []memory.TopicPattern
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if p, ok := item.Object.(*memory.TopicPattern); ok {
			patterns = append(patterns, *p)
		}
	}
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].EvidenceCount > patterns[j].EvidenceCount
	})
	return bound(patterns, limit), nil
}

// PatternsBySimilarity queries the chromem mirror and resolves hits back to
// live cache records.
func (s *Store) PatternsBySimilarity(ctx context.Context, query []float32, limit int) ([]memory.TopicPattern, error) {
	results, err := s.queryCollection(ctx, s.patterns, query, limit, nil)
	if err != nil {
		return nil, err
	}
	var patterns []memory.TopicPattern
	for _, r := range results {
		v, ok := s.cache.Get(r.ID)
		if !ok {
			continue // expired since indexing
		}
		if p, ok := v.(*memory.TopicPattern); ok {
			patterns = append(patterns, *p)
		}
	}
	return patterns, nil
}

// PatternsByWildcard returns patterns whose topic contains the word.
func (s *Store) PatternsByWildcard(ctx context.Context, word string, limit int) ([]memory.TopicPattern, error) {
	var patterns []memory.TopicPattern
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, "pattern:") {
			continue
		}
		p, ok := item.Object.(*memory.TopicPattern)
		if !ok || !strings.Contains(p.Topic, word) {
			continue
		}
		patterns = append(patterns, *p)
		if len(patterns) >= limit {
			break
		}
	}
	return patterns, nil
}

// PutDecisionIdempotent stores a decision keyed by its signature. The
// signature reservation uses the cache's atomic add, so two concurrent
// calls with the same signature cannot both create records.
func (s *Store) PutDecisionIdempotent(ctx context.Context, record *memory.DecisionRecord, sig string) (string, bool, error) {
	sigKey := memory.SignatureKey(sig)
	recordKey := memory.DecisionKey(record.UserID, record.Topic)

	if err := s.cache.Add(sigKey, record.ID, memory.DecisionTTL); err != nil {
		// Signature already reserved: return the winner's id.
		if v, ok := s.cache.Get(sigKey); ok {
			return v.(string), false, nil
		}
		// Reservation expired between Add and Get; retry once.
		if err := s.cache.Add(sigKey, record.ID, memory.DecisionTTL); err != nil {
			return "", false, fmt.Errorf("signature reservation: %w", err)
		}
	}

	s.cache.Set(recordKey, cloneDecision(record), memory.DecisionTTL)
	s.approxBytes.Add(recordSize(len(record.Reasoning), len(record.ReasoningEmbedding)))

	if len(record.ReasoningEmbedding) > 0 {
		doc := chromem.Document{
			ID:        recordKey,
			Content:   record.Reasoning,
			Embedding: record.ReasoningEmbedding,
			Metadata:  map[string]string{"user_id": record.UserID, "verdict": string(record.Verdict)},
		}
		if err := s.decisions.AddDocument(ctx, doc); err != nil {
			log.Printf("[STORE] Decision vector mirror failed: %v", err)
		}
	}
	log.Printf("[STORE] Stored decision %s (sig: %s)", recordKey, sig)
	return record.ID, true, nil
}

// DecisionsByUser returns the user's decisions sorted by recency.
func (s *Store) DecisionsByUser(ctx context.Context, userID string, limit int) ([]memory.DecisionRecord, error) {
	prefix := "decision:" + userID + ":"
	var decisions []memory.DecisionRecord
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if d, ok := item.Object.(*memory.DecisionRecord); ok {
			decisions = append(decisions, *d)
		}
	}
	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].CreatedAt.After(decisions[j].CreatedAt)
	})
	return bound(decisions, limit), nil
}

// DecisionsBySimilarity queries the chromem mirror filtered to the user.
func (s *Store) DecisionsBySimilarity(ctx context.Context, userID string, query []float32, limit int) ([]memory.DecisionRecord, error) {
	results, err := s.queryCollection(ctx, s.decisions, query, limit, map[string]string{"user_id": userID})
	if err != nil {
		return nil, err
	}
	var decisions []memory.DecisionRecord
	for _, r := range results {
		v, ok := s.cache.Get(r.ID)
		if !ok {
			continue
		}
		if d, ok := v.(*memory.DecisionRecord); ok {
			decisions = append(decisions, *d)
		}
	}
	return decisions, nil
}

// MemoryUsage reports the approximate payload bytes held.
func (s *Store) MemoryUsage(ctx context.Context) (int64, error) {
	return s.approxBytes.Load(), nil
}

// Close releases resources. Everything is in memory; nothing to close.
func (s *Store) Close() error {
	return nil
}

// queryCollection wraps chromem's QueryEmbedding, which rejects nResults
// larger than the collection. Shrink the limit until the query succeeds.
func (s *Store) queryCollection(ctx context.Context, col *chromem.Collection, query []float32, limit int, where map[string]string) ([]chromem.Result, error) {
	for n := limit; n >= 1; n-- {
		results, err := col.QueryEmbedding(ctx, query, n, where, nil)
		if err == nil {
			return results, nil
		}
		if !isTooFewDocsError(err) {
			return nil, fmt.Errorf("vector query: %w", err)
		}
	}
	return nil, nil // collection empty
}

func isTooFewDocsError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

func (s *Store) ranked(confidence float64, updatedAt time.Time) float64 {
	return memory.DecayedConfidence(confidence, updatedAt, s.config.DecayRate)
}

func bound[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// recordSize approximates a record's footprint: text plus float32 vector.
func recordSize(textLen, embeddingLen int) int64 {
	return int64(textLen + 4*embeddingLen + 128)
}

func cloneTrait(t *memory.UserTrait) *memory.UserTrait {
	c := *t
	return &c
}

func clonePattern(p *memory.TopicPattern) *memory.TopicPattern {
	c := *p
	return &c
}

func cloneDecision(d *memory.DecisionRecord) *memory.DecisionRecord {
	c := *d
	return &c
}
