package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmotion(t *testing.T) {
	a := New()

	tests := []struct {
		name          string
		input         string
		wantEmotion   Emotion
		minConfidence float64
	}{
		{
			name:          "plain sadness",
			input:         "I'm feeling really sad today",
			wantEmotion:   EmotionSadness,
			minConfidence: 0.5,
		},
		{
			name:          "strong sadness saturates",
			input:         "I've been crying all day, I feel so sad and lonely",
			wantEmotion:   EmotionSadness,
			minConfidence: 0.9,
		},
		{
			name:          "anxiety",
			input:         "I'm so anxious about tomorrow, I can't sleep",
			wantEmotion:   EmotionAnxiety,
			minConfidence: 0.5,
		},
		{
			name:          "anger",
			input:         "I'm so frustrated and angry at my boss",
			wantEmotion:   EmotionAnger,
			minConfidence: 0.5,
		},
		{
			name:          "happiness",
			input:         "I got the job, I'm so happy and excited!",
			wantEmotion:   EmotionHappiness,
			minConfidence: 0.5,
		},
		{
			name:        "neutral when nothing matches",
			input:       "what time is it",
			wantEmotion: EmotionNeutral,
		},
		{
			name:        "no substring false positive",
			input:       "I bought a new saddle for the horse",
			wantEmotion: EmotionNeutral,
		},
		{
			name:          "sadness wins ties over happiness",
			input:         "I feel good but also so low",
			wantEmotion:   EmotionSadness,
			minConfidence: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := a.Analyze(tt.input)
			assert.Equal(t, tt.wantEmotion, analysis.Emotion, "emotion")
			assert.GreaterOrEqual(t, analysis.Confidence, tt.minConfidence, "confidence")
			assert.LessOrEqual(t, analysis.Confidence, 1.0)
		})
	}
}

func TestAnalyzeIntent(t *testing.T) {
	a := New()

	tests := []struct {
		input string
		want  Intent
	}{
		{"hi there", IntentGreeting},
		{"hello, how was your week", IntentGreeting},
		{"I'm feeling really sad today", IntentEmotionalSupport},
		{"I need someone to talk to", IntentEmotionalSupport},
		{"do you remember what I told you about work", IntentMemoryRecall},
		{"How is Priya doing?", IntentMemoryRecall},
		{"the weather turned cold this week", IntentCasualChat},
		{"", IntentCasualChat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.input).Intent)
		})
	}
}

func TestAnalyzeNeverFails(t *testing.T) {
	a := New()

	for _, input := range []string{
		"",
		"    ",
		"???!!!",
		strings.Repeat("x", 10000),
		"\x00\xff garbage \t\n",
	} {
		analysis := a.Analyze(input)
		require.NotNil(t, analysis)
		if strings.TrimSpace(input) == "" {
			assert.Equal(t, EmotionNeutral, analysis.Emotion)
			assert.Zero(t, analysis.Confidence)
			assert.Equal(t, IntentCasualChat, analysis.Intent)
		}
	}
}

func TestExtractEntities(t *testing.T) {
	a := New()

	tests := []struct {
		name  string
		input string
		want  []Entity
	}{
		{
			name:  "relationship cue with name",
			input: "my friend Priya moved away last month",
			want:  []Entity{{Name: "Priya", Relation: "friend"}},
		},
		{
			name:  "how-is cue",
			input: "How is Priya doing?",
			want:  []Entity{{Name: "Priya"}},
		},
		{
			name:  "bare relationship term",
			input: "I had a fight with my brother",
			want:  []Entity{{Relation: "brother"}},
		},
		{
			name:  "multiple entities",
			input: "my brother Tom and my friend Priya are visiting",
			want: []Entity{
				{Name: "Tom", Relation: "brother"},
				{Name: "Priya", Relation: "friend"},
			},
		},
		{
			name:  "lowercase names are not entities",
			input: "my friend priya",
			want:  []Entity{{Relation: "friend"}},
		},
		{
			name:  "no entities",
			input: "just a regular day",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.input).Entities)
		})
	}
}

func TestContextTriggers(t *testing.T) {
	a := New()

	analysis := a.Analyze("How is Priya doing?")
	assert.True(t, analysis.HasTrigger("Priya"))
	assert.True(t, analysis.HasTrigger("recent_history"), "memory recall triggers history fetch")

	analysis = a.Analyze("nothing interesting")
	assert.Empty(t, analysis.ContextTriggers)
}

func TestComplexityScore(t *testing.T) {
	a := New()

	short := a.Analyze("hi")
	long := a.Analyze(strings.Repeat("Why do I feel sad and anxious about my friend Priya? ", 6))

	assert.Less(t, short.Complexity, long.Complexity)
	assert.GreaterOrEqual(t, short.Complexity, 0.0)
	assert.LessOrEqual(t, long.Complexity, 1.0)
}
