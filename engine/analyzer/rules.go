package analyzer

// Keyword weights: +3 highly specific, +2 core, +1 supporting. Multi-word
// keywords are matched as substrings, single words against whole tokens.
//
// saturationScore is the matched weight at which confidence caps out; a
// single core keyword lands above 0.5, two saturate the category.

const saturationScore = 3

type emotionRule struct {
	emotion  Emotion
	keywords map[string]int
}

// emotionRules is ordered by support urgency; order is the tie-break.
var emotionRules = []emotionRule{
	{
		emotion: EmotionSadness,
		keywords: map[string]int{
			// Highly specific (+3)
			"devastated": 3, "heartbroken": 3, "depressed": 3, "hopeless": 3, "grieving": 3,
			// Core (+2)
			"sad": 2, "crying": 2, "cried": 2, "lonely": 2, "grief": 2,
			"empty": 2, "tears": 2, "miserable": 2, "miss him": 2, "miss her": 2,
			// Supporting (+1)
			"down": 1, "low": 1, "lost": 1, "hurt": 1, "upset": 1, "blue": 1,
		},
	},
	{
		emotion: EmotionAnxiety,
		keywords: map[string]int{
			// Highly specific (+3)
			"panic attack": 3, "anxious": 3, "anxiety": 3, "racing thoughts": 3,
			// Core (+2)
			"panic": 2, "worried": 2, "nervous": 2, "overwhelmed": 2, "scared": 2,
			"afraid": 2, "stressed": 2, "on edge": 2, "can't sleep": 2, "dread": 2,
			// Supporting (+1)
			"stress": 1, "restless": 1, "tense": 1, "worry": 1,
		},
	},
	{
		emotion: EmotionAnger,
		keywords: map[string]int{
			// Highly specific (+3)
			"furious": 3, "rage": 3, "livid": 3,
			// Core (+2)
			"angry": 2, "mad": 2, "frustrated": 2, "irritated": 2, "fed up": 2,
			"pissed": 2, "sick of": 2,
			// Supporting (+1)
			"annoyed": 1, "hate": 1, "unfair": 1,
		},
	},
	{
		emotion: EmotionHappiness,
		keywords: map[string]int{
			// Highly specific (+3)
			"thrilled": 3, "overjoyed": 3, "ecstatic": 3,
			// Core (+2)
			"happy": 2, "excited": 2, "wonderful": 2, "glad": 2, "grateful": 2,
			"proud": 2, "joy": 2, "great news": 2, "delighted": 2,
			// Supporting (+1)
			"good": 1, "better": 1, "amazing": 1, "nice": 1,
		},
	},
}

type intentRule struct {
	intent  Intent
	phrases []string
}

// intentRules run as a separate pass; first matching rule wins, default is
// casual_chat.
var intentRules = []intentRule{
	{
		intent: IntentMemoryRecall,
		phrases: []string{
			"remember", "last time", "how is", "how's", "did i tell",
			"what did i say", "we talked about", "you said", "any news about",
		},
	},
	{
		intent: IntentEmotionalSupport,
		phrases: []string{
			"i feel", "i'm feeling", "im feeling", "feeling", "i need help",
			"struggling", "can't cope", "cant cope", "need someone",
			"need to talk", "vent", "going through",
		},
	},
	{
		intent: IntentGreeting,
		phrases: []string{
			"hi", "hello", "hey", "good morning", "good afternoon",
			"good evening", "what's up", "whats up",
		},
	},
}

// relationTerms is the fixed relationship vocabulary used by entity
// extraction and the [FRIEND_NAME] cue patterns.
// IsRelationTerm reports whether s is in the fixed relationship vocabulary.
func IsRelationTerm(s string) bool {
	for _, term := range relationTerms {
		if s == term {
			return true
		}
	}
	return false
}

var relationTerms = []string{
	"friend", "best friend", "brother", "sister", "mom", "mother", "dad",
	"father", "partner", "husband", "wife", "boyfriend", "girlfriend",
	"colleague", "coworker", "boss", "neighbor", "son", "daughter", "cousin",
	"aunt", "uncle", "grandma", "grandmother", "grandpa", "grandfather",
	"therapist", "roommate", "dog", "cat",
}
