// Package catalog loads and indexes the versioned response template catalog.
//
// Templates are authored in a YAML file and are immutable after load. The
// Store keeps two indexes (by id, by emotion tag) and supports an atomic
// reload when the catalog version is bumped on disk.
package catalog

import (
	"log/slog"

	"github.com/google/cel-go/cel"
)

// Placeholder tokens recognized by the personalizer.
const (
	PlaceholderName       = "[NAME]"
	PlaceholderMemory     = "[MEMORY]"
	PlaceholderFriendName = "[FRIEND_NAME]"
)

// Template is one curated response pattern. Immutable after load.
type Template struct {
	ID                  string   `yaml:"id"`
	Category            string   `yaml:"category"`
	EmotionTags         []string `yaml:"emotion_tags"`
	BaseText            string   `yaml:"base_text"`
	Variations          []string `yaml:"variations"`
	FollowUpQuestions   []string `yaml:"follow_up_questions"`
	ContextRequirements []string `yaml:"context_requirements"`
	Tone                string   `yaml:"tone"`
	Weight              float64  `yaml:"weight"`

	// When is an optional CEL guard expression. A template with a guard
	// qualifies only when the guard evaluates to true for the turn.
	When string `yaml:"when"`

	guard cel.Program
}

// HasEmotionTag reports whether the template carries the given emotion tag.
func (t *Template) HasEmotionTag(tag string) bool {
	for _, e := range t.EmotionTags {
		if e == tag {
			return true
		}
	}
	return false
}

// GuardAllows evaluates the compiled `when` guard against the turn's
// activation. Templates without a guard always pass. An evaluation error
// disqualifies the template for this turn only.
func (t *Template) GuardAllows(activation map[string]any) bool {
	if t.guard == nil {
		return true
	}
	out, _, err := t.guard.Eval(activation)
	if err != nil {
		slog.Debug("template guard evaluation failed, template disqualified",
			"template_id", t.ID,
			"error", err)
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
