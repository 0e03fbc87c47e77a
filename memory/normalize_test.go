package memory_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/scoutmind/scout-go-sdk/memory"
)

func TestNormalizeTopic(t *testing.T) {
	cases := []struct {
		topic string
		want  string
	}{
		{"Redis 7.4 for caching", "redis caching"},
		{"PostgreSQL vs. MySQL", "postgresql vs mysql"},
		{"Learning Rust in 2025", "learning rust"},
		{"HTMX", "htmx"},
		{"", ""},
	}
	for _, c := range cases {
		if got := memory.NormalizeTopic(c.topic); got != c.want {
			t.Errorf("NormalizeTopic(%q) = %q, want %q", c.topic, got, c.want)
		}
	}
}

func TestDeriveUserID(t *testing.T) {
	a := memory.DeriveUserID("Backend developer, optimizing API performance")
	b := memory.DeriveUserID("Backend developer, optimizing API performance")
	c := memory.DeriveUserID("Junior frontend developer")

	if a != b {
		t.Errorf("same profile produced different ids: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different profiles produced the same id")
	}
	if !strings.HasPrefix(a, "user_") || len(a) != len("user_")+16 {
		t.Errorf("id %q does not match user_<16 hex chars>", a)
	}
}

func TestExtractContextTags(t *testing.T) {
	got := memory.ExtractContextTags("Senior backend developer at a fintech")
	want := []string{"backend", "senior"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}

	if got := memory.ExtractContextTags("Keen hobbyist"); !reflect.DeepEqual(got, []string{"general"}) {
		t.Errorf("tags = %v, want [general]", got)
	}
}

func TestExtractCategories(t *testing.T) {
	got := memory.ExtractCategories(
		"Redis 7 for API caching",
		"Best latency profile of the candidates, and the price is right.",
	)
	want := []string{"backend", "cost", "database", "performance"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("categories = %v, want %v", got, want)
	}

	if got := memory.ExtractCategories("Obscure thing", "No keywords here."); len(got) != 0 {
		t.Errorf("categories = %v, want empty", got)
	}
}

func TestTopicWordsForWildcard(t *testing.T) {
	got := memory.TopicWordsForWildcard("redis api caching")
	want := []string{"redis", "caching"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("words = %v, want %v", got, want)
	}
}

func TestTopicsOverlap(t *testing.T) {
	if !memory.TopicsOverlap("Redis 7 for caching", "Caching strategies with Memcached") {
		t.Error("topics sharing 'caching' reported as disjoint")
	}
	if memory.TopicsOverlap("Redis for caching", "Svelte for dashboards") {
		t.Error("unrelated topics reported as overlapping")
	}
}
