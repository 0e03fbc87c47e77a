// Package redis provides the production memory store on Redis. Records are
// hashes under the shared key layout with per-key TTLs, the decision
// signature index is a SETNX string key, and reinforcement runs inside a
// WATCH transaction so concurrent updates to one record never interleave.
//
// Similarity search is computed client-side over candidate hashes: the
// embedding travels as a fixed-width float32 byte field through the vector
// codec, and the cosine ranking happens in-process. Deployments with a
// vector-search capable Redis can swap this for server-side KNN without
// touching callers.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
)

// Config holds Redis store configuration.
type Config struct {
	// URL is the Redis connection URL.
	URL string

	// Dimensions is the embedding width enforced at the codec boundary.
	Dimensions int

	// KeyPrefix namespaces all keys (default "scout:").
	KeyPrefix string

	// ScanCount is the SCAN page size for lookup queries.
	ScanCount int64
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	URL:        "redis://localhost:6379",
	Dimensions: 384,
	KeyPrefix:  "scout:",
	ScanCount:  200,
}

// Store implements memory.Store on Redis.
type Store struct {
	rdb    *goredis.Client
	codec  *memory.VectorCodec
	config *Config
}

// New connects to Redis and verifies the connection. A connection failure
// here is fatal; everything after startup degrades instead of failing.
func New(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig
	}
	opts, err := goredis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[STORE] Connected to Redis at %s", opts.Addr)
	return &Store{
		rdb:    rdb,
		codec:  memory.NewVectorCodec(config.Dimensions),
		config: config,
	}, nil
}

func (s *Store) key(k string) string {
	return s.config.KeyPrefix + k
}

// PutTrait stores a trait hash with the trait TTL.
func (s *Store) PutTrait(ctx context.Context, trait *memory.UserTrait) error {
	key := s.key(memory.TraitKey(trait.UserID, trait.Kind))
	fields := map[string]interface{}{
		"user_id":      trait.UserID,
		"trait_kind":   string(trait.Kind),
		"fact":         trait.Fact,
		"confidence":   trait.Confidence,
		"usage_count":  trait.UsageCount,
		"context_tags": strings.Join(trait.ContextTags, ","),
		"created_at":   trait.CreatedAt.Unix(),
		"updated_at":   trait.UpdatedAt.Unix(),
	}
	if len(trait.Embedding) > 0 {
		b, err := s.codec.Encode(trait.Embedding)
		if err != nil {
			// Dimension mismatch is fatal to this encode only; the trait
			// is still stored for the non-semantic paths.
			log.Printf("[STORE] Trait embedding dropped: %v", err)
		} else {
			fields["embedding"] = b
		}
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, memory.TraitTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store trait: %w", err)
	}
	return nil
}

// ReinforceTrait runs the weighted-average update inside a WATCH
// transaction on the record key.
func (s *Store) ReinforceTrait(ctx context.Context, userID string, kind memory.TraitKind, observed float64) (bool, error) {
	key := s.key(memory.TraitKey(userID, kind))
	exists := false

	txf := func(tx *goredis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		exists = true
		conf := parseFloat(fields["confidence"], 0.5)
		count := parseInt(fields["usage_count"], 1)

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"confidence":  memory.ReinforcedConfidence(conf, count, observed),
				"usage_count": count + 1,
				"updated_at":  time.Now().UTC().Unix(),
			})
			pipe.Expire(ctx, key, memory.TraitTTL)
			return nil
		})
		return err
	}

	if err := s.watchRetry(ctx, txf, key); err != nil {
		return false, fmt.Errorf("reinforce trait: %w", err)
	}
	return exists, nil
}

// TraitsByUser scans the user's trait keys and sorts by confidence.
func (s *Store) TraitsByUser(ctx context.Context, userID string, limit int) ([]memory.UserTrait, error) {
	keys, err := s.scan(ctx, s.key(memory.TraitKey(userID, ""))+"*")
	if err != nil {
		return nil, err
	}
	var traits []memory.UserTrait
	for _, key := range keys {
		fields, err := s.rdb.HGetAll(ctx, key).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		traits = append(traits, s.traitFromHash(fields))
	}
	sort.Slice(traits, func(i, j int) bool { return traits[i].Confidence > traits[j].Confidence })
	return bound(traits, limit), nil
}

// PutPattern stores a pattern hash with the pattern TTL.
func (s *Store) PutPattern(ctx context.Context, pattern *memory.TopicPattern) error {
	key := s.key(memory.PatternKey(pattern.Topic, pattern.Kind))
	fields := map[string]interface{}{
		"topic":          pattern.Topic,
		"pattern_kind":   string(pattern.Kind),
		"description":    pattern.Description,
		"confidence":     pattern.Confidence,
		"evidence_count": pattern.EvidenceCount,
		"market_signal":  string(pattern.MarketSignal),
		"hype_score":     pattern.HypeScore,
		"created_at":     pattern.CreatedAt.Unix(),
		"updated_at":     pattern.UpdatedAt.Unix(),
	}
	if len(pattern.Embedding) > 0 {
		if b, err := s.codec.Encode(pattern.Embedding); err == nil {
			fields["embedding"] = b
		} else {
			log.Printf("[STORE] Pattern embedding dropped: %v", err)
		}
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, memory.PatternTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store pattern: %w", err)
	}
	return nil
}

// ReinforcePattern runs the weighted-average update inside a WATCH
// transaction.
func (s *Store) ReinforcePattern(ctx context.Context, normalizedTopic string, kind memory.PatternKind, observed float64, hypeScore int) (bool, error) {
	key := s.key(memory.PatternKey(normalizedTopic, kind))
	exists := false

	txf := func(tx *goredis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		exists = true
		conf := parseFloat(fields["confidence"], 0.5)
		count := parseInt(fields["evidence_count"], 1)

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"confidence":     memory.ReinforcedConfidence(conf, count, observed),
				"evidence_count": count + 1,
				"hype_score":     hypeScore,
				"updated_at":     time.Now().UTC().Unix(),
			})
			pipe.Expire(ctx, key, memory.PatternTTL)
			return nil
		})
		return err
	}

	if err := s.watchRetry(ctx, txf, key); err != nil {
		return false, fmt.Errorf("reinforce pattern: %w", err)
	}
	return exists, nil
}

// PatternsByTopic returns exact-topic patterns sorted by evidence count.
func (s *Store) PatternsByTopic(ctx context.Context, normalizedTopic string, limit int) ([]memory.TopicPattern, error) {
	keys, err := s.scan(ctx, s.key(memory.PatternKey(normalizedTopic, ""))+"*")
	if err != nil {
		return nil, err
	}
	patterns := s.patternsFromKeys(ctx, keys)
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].EvidenceCount > patterns[j].EvidenceCount })
	return bound(patterns, limit), nil
}

// PatternsBySimilarity ranks all pattern hashes by cosine similarity to the
// query vector.
func (s *Store) PatternsBySimilarity(ctx context.Context, query []float32, limit int) ([]memory.TopicPattern, error) {
	keys, err := s.scan(ctx, s.key("pattern:")+"*")
	if err != nil {
		return nil, err
	}
	patterns := s.patternsFromKeys(ctx, keys)
	type scored struct {
		p   memory.TopicPattern
		sim float64
	}
	var ranked []scored
	for _, p := range patterns {
		if len(p.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{p, memory.CosineSimilarity(query, p.Embedding)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })
	out := make([]memory.TopicPattern, 0, limit)
	for _, r := range ranked {
		out = append(out, r.p)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// PatternsByWildcard returns patterns whose topic contains the word.
func (s *Store) PatternsByWildcard(ctx context.Context, word string, limit int) ([]memory.TopicPattern, error) {
	keys, err := s.scan(ctx, s.key("pattern:*"+word+"*"))
	if err != nil {
		return nil, err
	}
	return bound(s.patternsFromKeys(ctx, keys), limit), nil
}

// PutDecisionIdempotent reserves the signature with SETNX before writing
// the record. Exactly one of any set of concurrent identical writes wins
// the reservation; the rest return the winner's id.
func (s *Store) PutDecisionIdempotent(ctx context.Context, record *memory.DecisionRecord, sig string) (string, bool, error) {
	sigKey := s.key(memory.SignatureKey(sig))
	recordKey := s.key(memory.DecisionKey(record.UserID, record.Topic))

	won, err := s.rdb.SetNX(ctx, sigKey, record.ID, memory.DecisionTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("signature reservation: %w", err)
	}
	if !won {
		existing, err := s.rdb.Get(ctx, sigKey).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return "", false, fmt.Errorf("signature lookup: %w", err)
		}
		if existing != "" {
			return existing, false, nil
		}
		// Signature expired in the race window; fall through and write.
	}

	fields := map[string]interface{}{
		"id":            record.ID,
		"user_id":       record.UserID,
		"topic":         record.Topic,
		"verdict":       string(record.Verdict),
		"reasoning":     record.Reasoning,
		"confidence":    record.Confidence,
		"market_signal": string(record.MarketSignal),
		"hype_score":    record.HypeScore,
		"categories":    strings.Join(record.Categories, ","),
		"created_at":    record.CreatedAt.Unix(),
	}
	if len(record.ReasoningEmbedding) > 0 {
		if b, err := s.codec.Encode(record.ReasoningEmbedding); err == nil {
			fields["reasoning_embedding"] = b
		} else {
			log.Printf("[STORE] Decision embedding dropped: %v", err)
		}
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, recordKey, fields)
	pipe.Expire(ctx, recordKey, memory.DecisionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", false, fmt.Errorf("store decision: %w", err)
	}
	return record.ID, true, nil
}

// DecisionsByUser returns decisions sorted by recency.
func (s *Store) DecisionsByUser(ctx context.Context, userID string, limit int) ([]memory.DecisionRecord, error) {
	keys, err := s.scan(ctx, s.key("decision:"+userID+":")+"*")
	if err != nil {
		return nil, err
	}
	decisions := s.decisionsFromKeys(ctx, keys)
	sort.Slice(decisions, func(i, j int) bool { return decisions[i].CreatedAt.After(decisions[j].CreatedAt) })
	return bound(decisions, limit), nil
}

// DecisionsBySimilarity ranks the user's decisions by cosine similarity of
// their reasoning embeddings to the query.
func (s *Store) DecisionsBySimilarity(ctx context.Context, userID string, query []float32, limit int) ([]memory.DecisionRecord, error) {
	keys, err := s.scan(ctx, s.key("decision:"+userID+":")+"*")
	if err != nil {
		return nil, err
	}
	decisions := s.decisionsFromKeys(ctx, keys)
	type scored struct {
		d   memory.DecisionRecord
		sim float64
	}
	var ranked []scored
	for _, d := range decisions {
		if len(d.ReasoningEmbedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{d, memory.CosineSimilarity(query, d.ReasoningEmbedding)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })
	out := make([]memory.DecisionRecord, 0, limit)
	for _, r := range ranked {
		out = append(out, r.d)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MemoryUsage reports Redis used_memory from INFO.
func (s *Store) MemoryUsage(ctx context.Context) (int64, error) {
	info, err := s.rdb.Info(ctx, "memory").Result()
	if err != nil {
		return 0, fmt.Errorf("redis info: %w", err)
	}
	for _, line := range strings.Split(info, "\n") {
		if strings.HasPrefix(line, "used_memory:") {
			v := strings.TrimSpace(strings.TrimPrefix(line, "used_memory:"))
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse used_memory: %w", err)
			}
			return n, nil
		}
	}
	return 0, errors.New("used_memory not reported")
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// watchRetry retries a WATCH transaction a few times on conflict.
func (s *Store) watchRetry(ctx context.Context, txf func(*goredis.Tx) error, keys ...string) error {
	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return errors.New("transaction conflict, retries exhausted")
}

func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		page, next, err := s.rdb.Scan(ctx, cursor, pattern, s.config.ScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		keys = append(keys, page...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (s *Store) patternsFromKeys(ctx context.Context, keys []string) []memory.TopicPattern {
	var patterns []memory.TopicPattern
	for _, key := range keys {
		fields, err := s.rdb.HGetAll(ctx, key).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		patterns = append(patterns, s.patternFromHash(fields))
	}
	return patterns
}

func (s *Store) decisionsFromKeys(ctx context.Context, keys []string) []memory.DecisionRecord {
	var decisions []memory.DecisionRecord
	for _, key := range keys {
		fields, err := s.rdb.HGetAll(ctx, key).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		decisions = append(decisions, s.decisionFromHash(fields))
	}
	return decisions
}

func (s *Store) traitFromHash(fields map[string]string) memory.UserTrait {
	t := memory.UserTrait{
		UserID:     fields["user_id"],
		Kind:       memory.TraitKind(fields["trait_kind"]),
		Fact:       fields["fact"],
		Confidence: parseFloat(fields["confidence"], 0),
		UsageCount: parseInt(fields["usage_count"], 0),
		CreatedAt:  time.Unix(parseInt64(fields["created_at"]), 0).UTC(),
		UpdatedAt:  time.Unix(parseInt64(fields["updated_at"]), 0).UTC(),
	}
	if tags := fields["context_tags"]; tags != "" {
		t.ContextTags = strings.Split(tags, ",")
	}
	t.Embedding = s.decodeEmbedding(fields["embedding"])
	return t
}

func (s *Store) patternFromHash(fields map[string]string) memory.TopicPattern {
	return memory.TopicPattern{
		Topic:         fields["topic"],
		Kind:          memory.PatternKind(fields["pattern_kind"]),
		Description:   fields["description"],
		Confidence:    parseFloat(fields["confidence"], 0),
		EvidenceCount: parseInt(fields["evidence_count"], 0),
		MarketSignal:  core.MarketSignal(fields["market_signal"]),
		HypeScore:     parseInt(fields["hype_score"], 0),
		Embedding:     s.decodeEmbedding(fields["embedding"]),
		CreatedAt:     time.Unix(parseInt64(fields["created_at"]), 0).UTC(),
		UpdatedAt:     time.Unix(parseInt64(fields["updated_at"]), 0).UTC(),
	}
}

func (s *Store) decisionFromHash(fields map[string]string) memory.DecisionRecord {
	d := memory.DecisionRecord{
		ID:           fields["id"],
		UserID:       fields["user_id"],
		Topic:        fields["topic"],
		Verdict:      core.Verdict(fields["verdict"]),
		Reasoning:    fields["reasoning"],
		Confidence:   parseFloat(fields["confidence"], 0),
		MarketSignal: core.MarketSignal(fields["market_signal"]),
		HypeScore:    parseInt(fields["hype_score"], 0),
		CreatedAt:    time.Unix(parseInt64(fields["created_at"]), 0).UTC(),
	}
	if cats := fields["categories"]; cats != "" {
		d.Categories = strings.Split(cats, ",")
	}
	d.ReasoningEmbedding = s.decodeEmbedding(fields["reasoning_embedding"])
	return d
}

// decodeEmbedding decodes a stored vector, tolerating absence and logging
// dimension mismatches (fatal to this decode only).
func (s *Store) decodeEmbedding(raw string) []float32 {
	if raw == "" {
		return nil
	}
	vec, err := s.codec.Decode([]byte(raw))
	if err != nil {
		log.Printf("[STORE] Embedding decode skipped: %v", err)
		return nil
	}
	return vec
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func bound[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
