// Package selector implements template selection with anti-repetition
// rotation, plus the personalizer that substitutes user context into the
// chosen template text.
package selector

import (
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/catalog"
	"github.com/solacehq/solace/engine/session"
	"github.com/solacehq/solace/internal/errors"
)

// Choice is a fully resolved template pick for one turn. Choose computes it
// without mutating any state; the caller records it with Commit only after
// the turn's strategy is final.
type Choice struct {
	Template  *catalog.Template
	Variation string
	FollowUp  string
	TurnIndex int

	// WindowLifted is set when rotation exclusion would have left zero
	// candidates and was reset category-wide for this turn.
	WindowLifted bool
}

// Selector picks templates from the catalog, enforcing the rotation window
// per user.
type Selector struct {
	catalog *catalog.Store
	usage   *UsageTracker
}

// New creates a Selector over the given catalog and usage tracker.
func New(store *catalog.Store, usage *UsageTracker) *Selector {
	return &Selector{catalog: store, usage: usage}
}

// Choose picks the best qualifying template for the turn. It is read-only:
// rotation and follow-up state move only when the caller invokes Commit.
// Returns NO_QUALIFYING_TEMPLATE when nothing in the catalog fits.
func (s *Selector) Choose(analysis *analyzer.Analysis, uctx *session.UserContext) (*Choice, error) {
	view := s.usage.View(uctx.UserID)

	qualifying := s.qualifying(analysis, uctx, view.TurnIndex)
	if len(qualifying) == 0 {
		return nil, errors.NoQualifyingTemplate(string(analysis.Emotion))
	}

	candidates := lo.Filter(qualifying, func(t *catalog.Template, _ int) bool {
		return !view.InWindow(t.ID)
	})
	lifted := false
	if len(candidates) == 0 {
		// Every qualifying template was used within the window; lift the
		// exclusion rather than deadlock.
		candidates = qualifying
		lifted = true
	}

	best := pickBest(candidates, view)
	variation := pickVariation(best, uctx.UserID, view.TurnIndex)
	followUp := pickFollowUp(best, view)

	return &Choice{
		Template:     best,
		Variation:    variation,
		FollowUp:     followUp,
		TurnIndex:    view.TurnIndex,
		WindowLifted: lifted,
	}, nil
}

// Commit records a decided turn. choice is nil for LLM and fallback turns,
// which still advance the user's turn index.
func (s *Selector) Commit(userID string, choice *Choice) {
	if choice == nil {
		s.usage.Commit(userID, "", false)
		return
	}
	s.usage.Commit(userID, choice.Template.ID, choice.FollowUp != "")
}

// qualifying filters the catalog to templates whose emotion tags cover the
// turn (the analyzed emotion, or neutral as the universal category), whose
// context requirements are all satisfiable, and whose guard passes.
func (s *Selector) qualifying(analysis *analyzer.Analysis, uctx *session.UserContext, turnIndex int) []*catalog.Template {
	tagged := s.catalog.ByEmotion(string(analysis.Emotion))
	if analysis.Emotion != analyzer.EmotionNeutral {
		tagged = append(append([]*catalog.Template(nil), tagged...), s.catalog.ByEmotion(string(analyzer.EmotionNeutral))...)
	}
	tagged = lo.UniqBy(tagged, func(t *catalog.Template) string { return t.ID })

	activation := guardActivation(analysis, uctx, turnIndex)
	return lo.Filter(tagged, func(t *catalog.Template, _ int) bool {
		return requirementsSatisfied(t, uctx) && t.GuardAllows(activation)
	})
}

// requirementsSatisfied reports whether every context requirement of the
// template can be served from the turn's context. A missing requirement
// disqualifies the template, not the strategy.
func requirementsSatisfied(t *catalog.Template, uctx *session.UserContext) bool {
	for _, req := range t.ContextRequirements {
		if !requirementSatisfied(req, uctx) {
			return false
		}
	}
	return true
}

func requirementSatisfied(req string, uctx *session.UserContext) bool {
	switch req {
	case "preferred_name":
		return uctx.PreferredName != ""
	case "key_relationships":
		return len(uctx.KeyRelationships) > 0
	case "memory_highlights":
		return len(uctx.MemoryHighlights) > 0
	case "recent_messages":
		return len(uctx.RecentMessages) > 0
	case "recent_emotions":
		return len(uctx.RecentEmotions) > 0
	default:
		_, ok := uctx.Preferences[req]
		return ok
	}
}

// pickBest scores candidates by weight times relevance and breaks ties by
// lower recent-usage count, then by template id. The ordering is total, so
// selection is deterministic.
func pickBest(candidates []*catalog.Template, view UsageView) *catalog.Template {
	sorted := append([]*catalog.Template(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := score(sorted[i]), score(sorted[j])
		if si != sj {
			return si > sj
		}
		ui, uj := view.UseCount[sorted[i].ID], view.UseCount[sorted[j].ID]
		if ui != uj {
			return ui < uj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}

func score(t *catalog.Template) float64 {
	return t.Weight * (1 + float64(len(t.ContextRequirements)))
}

// pickVariation selects one variation pseudo-randomly, seeded by user and
// turn so repeated runs reproduce the same output.
func pickVariation(t *catalog.Template, userID string, turnIndex int) string {
	h := fnv.New32a()
	h.Write([]byte(userID + ":" + strconv.Itoa(turnIndex)))
	return t.Variations[int(h.Sum32())%len(t.Variations)]
}

// pickFollowUp peeks the user's round-robin cursor for this template. The
// cursor advances at Commit.
func pickFollowUp(t *catalog.Template, view UsageView) string {
	if len(t.FollowUpQuestions) == 0 {
		return ""
	}
	return t.FollowUpQuestions[view.FollowUp[t.ID]%len(t.FollowUpQuestions)]
}

func guardActivation(analysis *analyzer.Analysis, uctx *session.UserContext, turnIndex int) map[string]any {
	rels := make(map[string]string, len(uctx.KeyRelationships))
	for name, rel := range uctx.KeyRelationships {
		rels[name] = rel
	}
	return map[string]any{
		"emotion":           string(analysis.Emotion),
		"intent":            string(analysis.Intent),
		"confidence":        analysis.Confidence,
		"complexity":        analysis.Complexity,
		"turn_index":        turnIndex,
		"preferred_name":    uctx.PreferredName,
		"key_relationships": rels,
		"recent_emotions":   append([]string(nil), uctx.RecentEmotions...),
	}
}
