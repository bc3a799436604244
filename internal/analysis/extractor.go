package analysis

import (
	"regexp"
	"sort"
	"strings"

	"pulse/internal/domain/pulse"
)

// Input safety limits. Excessively long inputs are truncated before matching
// to bound worst-case cost.
const (
	MaxTextLength  = 100_000
	MaxTitleLength = 1_000
)

// topicPattern maps a topic slug to its trigger substrings. The table is
// ordered so extraction output is deterministic.
type topicPattern struct {
	slug     string
	triggers []string
}

var topicPatterns = []topicPattern{
	{"ai", []string{
		"artificial intelligence", "ai ", " ai", "machine learning",
		"ml ", "llm", "gpt", "chatgpt", "claude",
	}},
	{"rust", []string{"rust ", " rust", "rustlang", "cargo"}},
	{"python", []string{"python", "django", "fastapi", "flask"}},
	{"javascript", []string{
		"javascript", "typescript", "node.js", "nodejs", "react", "vue",
		"angular",
	}},
	{"golang", []string{"golang", " go ", "go1."}},
	{"database", []string{
		"postgres", "postgresql", "mysql", "sqlite", "mongodb", "redis",
	}},
	{"cloud", []string{"aws", "azure", "gcp", "kubernetes", "k8s", "docker"}},
	{"security", []string{"security", "vulnerability", "cve-", "exploit", "breach"}},
	{"startup", []string{
		"startup", "founder", "yc ", "y combinator", "funding", "series a",
	}},
	{"open-source", []string{"open source", "opensource", "github", "gitlab", "foss"}},
}

// topicLabels maps topic slugs to human-readable labels.
var topicLabels = map[string]string{
	"ai":          "AI / Machine Learning",
	"rust":        "Rust",
	"python":      "Python",
	"javascript":  "JavaScript",
	"golang":      "Go",
	"database":    "Databases",
	"cloud":       "Cloud / Infrastructure",
	"security":    "Security",
	"startup":     "Startups",
	"open-source": "Open Source",
}

// TopicLabel returns the display label for a slug, falling back to the slug
// with its first letter upper-cased.
func TopicLabel(slug string) string {
	if label, ok := topicLabels[slug]; ok {
		return label
	}
	if slug == "" {
		return ""
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}

// ExtractTopics extracts topics from post text using case-insensitive
// substring matching against the fixed pattern table. Each topic is emitted
// at most once per post; the first matching trigger decides its relevance.
// No match is not an error, it just yields an empty slice.
func ExtractTopics(text, title string) []pulse.TopicTag {
	if text == "" && title == "" {
		return nil
	}

	safeText := truncate(text, MaxTextLength)
	safeTitle := truncate(title, MaxTitleLength)

	combined := strings.ToLower(safeTitle + " " + safeText)
	lowerTitle := strings.ToLower(safeTitle)

	var found []pulse.TopicTag
	for _, tp := range topicPatterns {
		for _, trigger := range tp.triggers {
			if !strings.Contains(combined, trigger) {
				continue
			}
			relevance := 0.8
			if safeTitle != "" && strings.Contains(lowerTitle, trigger) {
				relevance = 1.0
			}
			found = append(found, pulse.TopicTag{Slug: tp.slug, Relevance: relevance})
			break // only count each topic once
		}
	}

	return found
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

var wordPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
	"from": {}, "are": {}, "was": {}, "were": {}, "been": {}, "have": {},
	"has": {}, "had": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"can": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "not": {},
	"but": {}, "you": {}, "your": {}, "they": {}, "their": {}, "them": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "when": {}, "where": {},
	"why": {}, "all": {}, "each": {}, "every": {}, "both": {}, "few": {},
	"more": {}, "most": {}, "other": {}, "some": {}, "such": {}, "than": {},
	"too": {}, "very": {}, "just": {}, "also": {}, "now": {}, "only": {},
	"over": {}, "own": {}, "same": {},
}

// ExtractKeywords returns the topN most frequent non-stopword terms in text.
func ExtractKeywords(text string, topN int) []string {
	if text == "" || topN <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := stopwords[word]; skip {
			continue
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > topN {
		words = words[:topN]
	}
	return words
}
