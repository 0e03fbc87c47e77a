package local_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
	"github.com/scoutmind/scout-go-sdk/memory/embedder/mock"
	"github.com/scoutmind/scout-go-sdk/memory/store/local"
)

func newStore(t *testing.T) *local.Store {
	t.Helper()
	s, err := local.New(nil)
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTrait(userID string, kind memory.TraitKind, confidence float64) *memory.UserTrait {
	now := time.Now().UTC()
	return &memory.UserTrait{
		UserID:      userID,
		Kind:        kind,
		Fact:        "Prioritizes performance, speed, and optimization",
		Confidence:  confidence,
		UsageCount:  1,
		ContextTags: []string{"backend"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testDecision(userID, topic string) *memory.DecisionRecord {
	return &memory.DecisionRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		Topic:        topic,
		Verdict:      core.VerdictPursue,
		Reasoning:    "Mature and widely deployed.",
		Confidence:   0.9,
		MarketSignal: core.MarketStrong,
		HypeScore:    3,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestTraitPutReinforceRead(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// Reinforcing a missing trait reports a miss, not an error.
	if ok, err := s.ReinforceTrait(ctx, "user_1", memory.TraitPerformanceFocus, 0.8); err != nil || ok {
		t.Fatalf("reinforce miss = (%v, %v), want (false, nil)", ok, err)
	}

	if err := s.PutTrait(ctx, testTrait("user_1", memory.TraitPerformanceFocus, 0.6)); err != nil {
		t.Fatalf("PutTrait: %v", err)
	}
	ok, err := s.ReinforceTrait(ctx, "user_1", memory.TraitPerformanceFocus, 0.8)
	if err != nil || !ok {
		t.Fatalf("reinforce hit = (%v, %v), want (true, nil)", ok, err)
	}

	traits, err := s.TraitsByUser(ctx, "user_1", 5)
	if err != nil {
		t.Fatalf("TraitsByUser: %v", err)
	}
	if len(traits) != 1 {
		t.Fatalf("traits = %d, want 1", len(traits))
	}
	// (0.6*1 + 0.8) / 2 = 0.7, count bumped to 2.
	if math.Abs(traits[0].Confidence-0.7) > 1e-9 {
		t.Errorf("reinforced confidence = %v, want 0.7", traits[0].Confidence)
	}
	if traits[0].UsageCount != 2 {
		t.Errorf("UsageCount = %d, want 2", traits[0].UsageCount)
	}
}

func TestTraitsByUserIsolatesUsers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.PutTrait(ctx, testTrait("user_a", memory.TraitStabilityFocus, 0.8)); err != nil {
		t.Fatal(err)
	}
	if err := s.PutTrait(ctx, testTrait("user_b", memory.TraitCostSensitive, 0.7)); err != nil {
		t.Fatal(err)
	}

	traits, err := s.TraitsByUser(ctx, "user_a", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(traits) != 1 || traits[0].Kind != memory.TraitStabilityFocus {
		t.Errorf("traits for user_a = %v", traits)
	}
}

func TestPatternExactAndWildcard(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	pattern := &memory.TopicPattern{
		Topic:         "redis caching",
		Kind:          memory.PatternProductionReady,
		Description:   "Widely adopted in production (hype: 3/10)",
		Confidence:    0.9,
		EvidenceCount: 1,
		MarketSignal:  core.MarketStrong,
		HypeScore:     3,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.PutPattern(ctx, pattern); err != nil {
		t.Fatalf("PutPattern: %v", err)
	}

	exact, err := s.PatternsByTopic(ctx, "redis caching", 3)
	if err != nil {
		t.Fatalf("PatternsByTopic: %v", err)
	}
	if len(exact) != 1 || exact[0].Kind != memory.PatternProductionReady {
		t.Fatalf("exact lookup = %v", exact)
	}

	wild, err := s.PatternsByWildcard(ctx, "redis", 3)
	if err != nil {
		t.Fatalf("PatternsByWildcard: %v", err)
	}
	if len(wild) != 1 {
		t.Fatalf("wildcard lookup = %v", wild)
	}

	if none, _ := s.PatternsByTopic(ctx, "svelte dashboards", 3); len(none) != 0 {
		t.Errorf("unrelated topic returned %v", none)
	}
}

func TestReinforcePattern(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.PutPattern(ctx, &memory.TopicPattern{
		Topic:         "kubernetes deployment",
		Kind:          memory.PatternSteepLearning,
		Description:   "Known for steep learning curve",
		Confidence:    0.6,
		EvidenceCount: 1,
		MarketSignal:  core.MarketStrong,
		HypeScore:     5,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		t.Fatal(err)
	}

	ok, err := s.ReinforcePattern(ctx, "kubernetes deployment", memory.PatternSteepLearning, 0.8, 6)
	if err != nil || !ok {
		t.Fatalf("reinforce = (%v, %v), want (true, nil)", ok, err)
	}

	got, err := s.PatternsByTopic(ctx, "kubernetes deployment", 3)
	if err != nil || len(got) != 1 {
		t.Fatalf("lookup after reinforce: %v, %v", got, err)
	}
	if got[0].EvidenceCount != 2 {
		t.Errorf("EvidenceCount = %d, want 2", got[0].EvidenceCount)
	}
	if math.Abs(got[0].Confidence-0.7) > 1e-9 {
		t.Errorf("confidence = %v, want 0.7", got[0].Confidence)
	}
}

func TestPutDecisionIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := testDecision("user_1", "Redis 7 for caching")
	sig := memory.DecisionSignature(rec.Topic, rec.Reasoning)

	id1, created, err := s.PutDecisionIdempotent(ctx, rec, sig)
	if err != nil {
		t.Fatalf("first put: %v", err)
	}
	if !created || id1 != rec.ID {
		t.Fatalf("first put = (%s, %v), want (%s, true)", id1, created, rec.ID)
	}

	// A retry with the same signature resolves to the first record.
	dup := testDecision("user_1", "Redis 7 for caching")
	id2, created, err := s.PutDecisionIdempotent(ctx, dup, sig)
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if created {
		t.Error("second put reported created")
	}
	if id2 != id1 {
		t.Errorf("second put id = %s, want %s", id2, id1)
	}

	decisions, err := s.DecisionsByUser(ctx, "user_1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(decisions) != 1 {
		t.Errorf("decisions = %d, want 1", len(decisions))
	}
}

func TestDecisionsBySimilarity(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	emb := mock.New()

	embed := func(text string) []float32 {
		vec, err := emb.Embed(ctx, text)
		if err != nil {
			t.Fatalf("embed: %v", err)
		}
		return vec
	}

	reasonings := []string{
		"redis caching latency benchmark results",
		"postgres storage engine internals",
		"svelte component compiler output",
	}
	for i, reasoning := range reasonings {
		rec := testDecision("user_1", reasoning)
		rec.Reasoning = reasoning
		rec.ReasoningEmbedding = embed(reasoning)
		sig := memory.DecisionSignature(rec.Topic, rec.Reasoning)
		if _, _, err := s.PutDecisionIdempotent(ctx, rec, sig); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	got, err := s.DecisionsBySimilarity(ctx, "user_1", embed("redis caching latency benchmark results"), 1)
	if err != nil {
		t.Fatalf("DecisionsBySimilarity: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	if got[0].Reasoning != reasonings[0] {
		t.Errorf("nearest = %q, want the redis decision", got[0].Reasoning)
	}
}

func TestConcurrentReinforceAndRead(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.PutTrait(ctx, testTrait("user_1", memory.TraitPerformanceFocus, 0.5)); err != nil {
		t.Fatal(err)
	}
	if err := s.PutPattern(ctx, &memory.TopicPattern{
		Topic:         "redis caching",
		Kind:          memory.PatternProductionReady,
		Description:   "Widely adopted in production (hype: 3/10)",
		Confidence:    0.5,
		EvidenceCount: 1,
		MarketSignal:  core.MarketStrong,
		HypeScore:     3,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	// Writers reinforce while readers walk the same records. Run with
	// -race: stored records must never be mutated in place.
	const iters = 200
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < iters; i++ {
			if _, err := s.ReinforceTrait(ctx, "user_1", memory.TraitPerformanceFocus, 0.8); err != nil {
				t.Errorf("ReinforceTrait: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iters; i++ {
			if _, err := s.ReinforcePattern(ctx, "redis caching", memory.PatternProductionReady, 0.8, 3); err != nil {
				t.Errorf("ReinforcePattern: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iters; i++ {
			traits, err := s.TraitsByUser(ctx, "user_1", 5)
			if err != nil {
				t.Errorf("TraitsByUser: %v", err)
				return
			}
			for _, tr := range traits {
				if tr.Confidence < 0 || tr.Confidence > 1 {
					t.Errorf("torn read: confidence %v", tr.Confidence)
					return
				}
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iters; i++ {
			if _, err := s.PatternsByTopic(ctx, "redis caching", 3); err != nil {
				t.Errorf("PatternsByTopic: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	traits, err := s.TraitsByUser(ctx, "user_1", 5)
	if err != nil || len(traits) != 1 {
		t.Fatalf("traits after writes: %v, %v", traits, err)
	}
	if traits[0].UsageCount != 1+iters {
		t.Errorf("UsageCount = %d, want %d; reinforcements lost", traits[0].UsageCount, 1+iters)
	}
}

func TestConcurrentPutDecisionIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sig := memory.DecisionSignature("Redis 7 for caching", "Mature and widely deployed.")

	const writers = 8
	ids := make([]string, writers)
	created := make([]bool, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			rec := testDecision("user_1", "Redis 7 for caching")
			id, c, err := s.PutDecisionIdempotent(ctx, rec, sig)
			if err != nil {
				t.Errorf("put %d: %v", i, err)
				return
			}
			ids[i] = id
			created[i] = c
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < writers; i++ {
		if created[i] {
			wins++
		}
		if ids[i] != ids[0] {
			t.Errorf("writer %d resolved id %s, want %s", i, ids[i], ids[0])
		}
	}
	if wins != 1 {
		t.Errorf("created reported by %d writers, want exactly 1", wins)
	}
}

func TestMemoryUsageGrows(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	before, err := s.MemoryUsage(ctx)
	if err != nil {
		t.Fatalf("MemoryUsage: %v", err)
	}
	if err := s.PutTrait(ctx, testTrait("user_1", memory.TraitPerformanceFocus, 0.6)); err != nil {
		t.Fatal(err)
	}
	after, err := s.MemoryUsage(ctx)
	if err != nil {
		t.Fatalf("MemoryUsage: %v", err)
	}
	if after <= before {
		t.Errorf("usage did not grow: %d -> %d", before, after)
	}
}
