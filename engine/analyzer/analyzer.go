package analyzer

import (
	"log/slog"
	"strings"
	"unicode"
)

// Analyzer runs the ordered rule sets over incoming messages. It is stateless
// and safe for concurrent use.
type Analyzer struct{}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze extracts emotion, intent, entities, and a complexity score from raw
// user text. It never fails on malformed input.
func (a *Analyzer) Analyze(text string) *Analysis {
	analysis := &Analysis{
		RawText:    text,
		Emotion:    EmotionNeutral,
		Confidence: 0.0,
		Intent:     IntentCasualChat,
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return analysis
	}

	lower := strings.ToLower(trimmed)
	tokens := tokenize(lower)

	emotion, confidence, matchedCategories := matchEmotion(lower, tokens)
	analysis.Emotion = emotion
	analysis.Confidence = confidence

	analysis.Intent = matchIntent(lower, tokens)

	analysis.Entities = extractEntities(trimmed)
	analysis.ContextTriggers = buildTriggers(analysis.Entities, analysis.Intent)

	analysis.Complexity = complexityScore(trimmed, matchedCategories, len(analysis.Entities))

	slog.Debug("message analyzed",
		"emotion", analysis.Emotion,
		"confidence", analysis.Confidence,
		"intent", analysis.Intent,
		"entities", len(analysis.Entities),
		"complexity", analysis.Complexity)

	return analysis
}

// matchEmotion scores every category and returns the winner with its
// confidence and the number of categories that matched at all.
func matchEmotion(lower string, tokens map[string]bool) (Emotion, float64, int) {
	best := EmotionNeutral
	bestScore := 0
	matched := 0

	// Rules are ordered by support urgency, so strict > keeps the
	// higher-priority category on ties.
	for _, rule := range emotionRules {
		score := scoreKeywords(lower, tokens, rule.keywords)
		if score > 0 {
			matched++
		}
		if score > bestScore {
			bestScore = score
			best = rule.emotion
		}
	}

	if bestScore == 0 {
		return EmotionNeutral, 0.0, matched
	}
	return best, normalizeConfidence(bestScore, saturationScore), matched
}

// matchIntent runs the intent pass; first matching rule wins.
func matchIntent(lower string, tokens map[string]bool) Intent {
	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if matchPhrase(lower, tokens, phrase) {
				return rule.intent
			}
		}
	}
	return IntentCasualChat
}

// scoreKeywords sums the weights of distinct matched keywords.
func scoreKeywords(lower string, tokens map[string]bool, keywords map[string]int) int {
	score := 0
	for keyword, weight := range keywords {
		if matchPhrase(lower, tokens, keyword) {
			score += weight
		}
	}
	return score
}

// matchPhrase matches multi-word phrases as substrings and single words
// against whole tokens, so "sad" does not fire inside "saddle".
func matchPhrase(lower string, tokens map[string]bool, phrase string) bool {
	if strings.ContainsRune(phrase, ' ') || strings.ContainsRune(phrase, '\'') {
		return strings.Contains(lower, phrase)
	}
	return tokens[phrase]
}

// tokenize splits lowered text into a set of words, stripping punctuation.
func tokenize(lower string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	}) {
		tokens[strings.Trim(field, "'")] = true
	}
	return tokens
}

// normalizeConfidence maps a matched weight into [0,1], capped at 0.95.
func normalizeConfidence(score, maxScore int) float64 {
	if score >= maxScore {
		return 0.95
	}
	return float64(score) / float64(maxScore)
}

// complexityScore combines message length, question count, and distinct
// topics into a routing signal in [0,1].
func complexityScore(text string, matchedCategories, entityCount int) float64 {
	lengthPart := clamp01(float64(len(text)) / 280.0)
	questionPart := clamp01(float64(strings.Count(text, "?")) / 3.0)
	topics := matchedCategories + entityCount
	topicPart := clamp01(float64(topics) / 3.0)

	return clamp01(0.4*lengthPart + 0.3*questionPart + 0.3*topicPart)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
