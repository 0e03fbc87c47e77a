package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

var (
	versionRe = regexp.MustCompile(`[\d.]+`)
	symbolRe  = regexp.MustCompile(`[^\w\s]`)
)

// topicStopwords are dropped during normalization so "Redis for caching"
// and "caching with Redis" resolve to comparable keys.
var topicStopwords = map[string]bool{
	"for": true, "with": true, "the": true, "and": true, "using": true,
	"a": true, "an": true, "in": true, "on": true, "to": true, "of": true,
}

// NormalizeTopic strips version numbers, punctuation, and stopwords, and
// lowercases the rest. The result is the stable lookup key for topic
// patterns ("Redis 7.4 for caching" -> "redis caching").
func NormalizeTopic(topic string) string {
	s := versionRe.ReplaceAllString(strings.ToLower(topic), "")
	s = symbolRe.ReplaceAllString(s, "")
	var kept []string
	for _, w := range strings.Fields(s) {
		if !topicStopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// DeriveUserID returns the stable user identifier for a profile string.
// The same profile text always maps to the same id.
func DeriveUserID(userProfile string) string {
	sum := sha256.Sum256([]byte(userProfile))
	return "user_" + hex.EncodeToString(sum[:])[:16]
}

var contextRoles = []string{"backend", "frontend", "devops", "full-stack", "mobile", "data", "ai", "sre"}
var contextSeniorities = []string{"junior", "senior", "lead", "architect", "principal", "student"}

// ExtractContextTags pulls role and seniority tags out of a user-context
// string. Returns ["general"] when nothing matches so trait records always
// carry at least one tag.
func ExtractContextTags(userContext string) []string {
	lower := strings.ToLower(userContext)
	var tags []string
	for _, role := range contextRoles {
		if strings.Contains(lower, role) {
			tags = append(tags, role)
		}
	}
	for _, s := range contextSeniorities {
		if strings.Contains(lower, s) {
			tags = append(tags, s)
		}
	}
	if len(tags) == 0 {
		return []string{"general"}
	}
	return tags
}

var topicCategories = map[string][]string{
	"database": {"sql", "postgres", "mysql", "redis", "mongodb", "database"},
	"frontend": {"react", "vue", "angular", "javascript", "typescript", "css"},
	"backend":  {"api", "server", "backend", "grpc", "rest"},
	"devops":   {"docker", "kubernetes", "ci/cd", "terraform", "aws", "cloud"},
	"ai_ml":    {"llm", "ai", "machine learning", "tensorflow", "pytorch"},
}

var reasoningCategories = map[string][]string{
	"performance": {"performance", "speed", "latency"},
	"cost":        {"cost", "price", "budget"},
	"learning":    {"learn", "education", "tutorial"},
}

// ExtractCategories derives index categories for a decision record from its
// topic and reasoning text. Sorted for deterministic storage.
func ExtractCategories(topic, reasoning string) []string {
	topicLower := strings.ToLower(topic)
	reasoningLower := strings.ToLower(reasoning)

	seen := map[string]bool{}
	for cat, keywords := range topicCategories {
		if containsAny(topicLower, keywords) {
			seen[cat] = true
		}
	}
	for cat, keywords := range reasoningCategories {
		if containsAny(reasoningLower, keywords) {
			seen[cat] = true
		}
	}

	cats := make([]string, 0, len(seen))
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// TopicWordsForWildcard returns the normalized topic's words longer than
// three characters, the only ones meaningful for substring matching.
func TopicWordsForWildcard(normalizedTopic string) []string {
	var words []string
	for _, w := range strings.Fields(normalizedTopic) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// TopicsOverlap reports whether two topics share at least one meaningful
// (longer than three characters) normalized word. Used by the decision
// trajectory resolver.
func TopicsOverlap(a, b string) bool {
	wordsA := TopicWordsForWildcard(NormalizeTopic(a))
	wordsB := TopicWordsForWildcard(NormalizeTopic(b))
	for _, wa := range wordsA {
		for _, wb := range wordsB {
			if wa == wb {
				return true
			}
		}
	}
	return false
}
