// Package analyzer provides keyword/pattern-based emotion, intent, and entity
// extraction from raw user text. Analysis never fails: unrecognized input
// yields a neutral, casual-chat result.
package analyzer

// Emotion represents the detected emotion category.
type Emotion string

const (
	EmotionSadness   Emotion = "sadness"
	EmotionAnxiety   Emotion = "anxiety"
	EmotionAnger     Emotion = "anger"
	EmotionHappiness Emotion = "happiness"
	EmotionNeutral   Emotion = "neutral"
)

// emotionPriority is the tie-break order, most urgent support need first.
var emotionPriority = []Emotion{
	EmotionSadness,
	EmotionAnxiety,
	EmotionAnger,
	EmotionHappiness,
	EmotionNeutral,
}

// Intent represents the classified user intent, independent of emotion.
type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentEmotionalSupport Intent = "emotional_support"
	IntentMemoryRecall     Intent = "memory_recall"
	IntentCasualChat       Intent = "casual_chat"
)

// Entity is a person or relationship reference found in the message.
type Entity struct {
	// Name is the capitalized name token, empty for bare relationship
	// mentions ("my brother" with no name).
	Name string
	// Relation is the relationship term, empty when only a name was found.
	Relation string
}

// Analysis is the per-message analysis result. Immutable once returned;
// discarded after the turn completes.
type Analysis struct {
	RawText         string
	Emotion         Emotion
	Confidence      float64
	Intent          Intent
	Entities        []Entity
	ContextTriggers []string
	Complexity      float64
}

// HasTrigger reports whether the analysis produced the given context trigger.
func (a *Analysis) HasTrigger(trigger string) bool {
	for _, t := range a.ContextTriggers {
		if t == trigger {
			return true
		}
	}
	return false
}
