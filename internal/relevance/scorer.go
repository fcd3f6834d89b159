package relevance

import (
	"sort"
	"strings"

	"researchdigest/internal/domain"
)

// Scoring weights for topic matches.
const (
	titleWeight   = 0.5
	contentWeight = 0.35
	phraseBonus   = 0.15
)

// Score rates how well a record matches the configured topics, in [0, 1].
// Title hits weigh most, exact multi-word phrases earn a bonus. With no topics
// configured every record scores a neutral 0.5.
func Score(record domain.ArticleRecord, topics []string) float64 {
	if len(topics) == 0 {
		return 0.5
	}

	title := strings.ToLower(record.Title)
	text := strings.ToLower(record.Body())

	var titleScore, contentScore, phraseScore float64
	for _, topic := range topics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic == "" {
			continue
		}
		words := strings.Fields(topic)

		if len(words) > 1 {
			switch {
			case strings.Contains(title, topic):
				titleScore++
				phraseScore += 0.5
			case anyWordIn(title, words):
				titleScore += 0.5
			}
			switch {
			case strings.Contains(text, topic):
				contentScore++
				phraseScore += 0.25
			case anyWordIn(text, words):
				contentScore += 0.3
			}
			continue
		}

		if strings.Contains(title, topic) {
			titleScore++
		}
		if strings.Contains(text, topic) {
			contentScore += 0.5
		}
	}

	n := float64(len(topics))
	titleScore = min(titleScore/n, 1)
	contentScore = min(contentScore/n, 1)
	phraseScore = min(phraseScore/n, 1)

	score := titleScore*titleWeight + contentScore*contentWeight + phraseScore*phraseBonus
	return min(max(score, 0), 1)
}

// MatchesTopics reports whether a record mentions any configured topic at all.
// With no topics configured everything matches.
func MatchesTopics(record domain.ArticleRecord, topics []string) bool {
	if len(topics) == 0 {
		return true
	}

	haystack := strings.ToLower(record.Title + " " + record.Body())
	for _, topic := range topics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic != "" && strings.Contains(haystack, topic) {
			return true
		}
	}
	return false
}

// Tier buckets a relevance score into a human-readable label.
func Tier(score float64) string {
	switch {
	case score >= 0.7:
		return "high"
	case score >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

// Rank orders digest entries for presentation: highest relevance first,
// keeping the incoming order for ties. With no topics configured every entry
// scores the same and the order is untouched.
func Rank(entries []domain.DigestEntry) []domain.DigestEntry {
	ranked := make([]domain.DigestEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Relevance > ranked[j].Relevance })
	return ranked
}

func anyWordIn(haystack string, words []string) bool {
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
