package analyzer

import (
	"regexp"
	"strings"
)

// Pre-compiled cue patterns for entity extraction.
var (
	// "my friend Priya", "my brother Tom". The name must be capitalized, so
	// the pattern stays case-sensitive and only "my"/"My" varies.
	relationCueRegex = regexp.MustCompile(
		`\b[Mm]y\s+(` + strings.Join(relationTerms, "|") + `)\s+([A-Z][a-zA-Z]+)`)

	// "How is Priya doing?", "how's Tom"
	nameCueRegex = regexp.MustCompile(`\b(?:[Hh]ow\s+is|[Hh]ow's)\s+([A-Z][a-zA-Z]+)`)

	// bare relationship mentions: "my brother", "my therapist"
	bareRelationRegex = regexp.MustCompile(
		`\b[Mm]y\s+(` + strings.Join(relationTerms, "|") + `)\b`)
)

// extractEntities finds name-like tokens following relationship cue phrases
// and bare relationship-term mentions. Order follows appearance in the text.
func extractEntities(text string) []Entity {
	var entities []Entity
	seen := make(map[string]bool)

	for _, m := range relationCueRegex.FindAllStringSubmatch(text, -1) {
		relation := strings.ToLower(m[1])
		name := m[2]
		key := name + "/" + relation
		if seen[key] {
			continue
		}
		seen[key] = true
		entities = append(entities, Entity{Name: name, Relation: relation})
	}

	for _, m := range nameCueRegex.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if seen[name+"/"] || hasName(entities, name) {
			continue
		}
		seen[name+"/"] = true
		entities = append(entities, Entity{Name: name})
	}

	for _, m := range bareRelationRegex.FindAllStringSubmatch(text, -1) {
		relation := strings.ToLower(m[1])
		if hasRelation(entities, relation) || seen["/"+relation] {
			continue
		}
		seen["/"+relation] = true
		entities = append(entities, Entity{Relation: relation})
	}

	return entities
}

// buildTriggers derives the context triggers from entities and intent.
// Entity names become targeted memory lookup keys; a memory_recall intent
// triggers a history fetch even without names.
func buildTriggers(entities []Entity, intent Intent) []string {
	var triggers []string
	seen := make(map[string]bool)

	for _, e := range entities {
		if e.Name == "" || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		triggers = append(triggers, e.Name)
	}

	if intent == IntentMemoryRecall && !seen["recent_history"] {
		triggers = append(triggers, "recent_history")
	}

	return triggers
}

func hasName(entities []Entity, name string) bool {
	for _, e := range entities {
		if e.Name == name {
			return true
		}
	}
	return false
}

func hasRelation(entities []Entity, relation string) bool {
	for _, e := range entities {
		if e.Relation == relation {
			return true
		}
	}
	return false
}
