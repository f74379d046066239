package selector

import (
	"sort"
	"strings"
	"unicode"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/catalog"
	"github.com/solacehq/solace/engine/session"
)

// Personalizer substitutes user-specific tokens into chosen template text.
// It is pure: no state, no side effects.
type Personalizer struct{}

// NewPersonalizer creates a Personalizer.
func NewPersonalizer() *Personalizer {
	return &Personalizer{}
}

// Personalize renders the choice's variation for the user. Placeholders with
// no value in the context have their enclosing clause dropped rather than
// being replaced with an empty string. The follow-up question, if any, is
// appended as its own sentence.
func (p *Personalizer) Personalize(choice *Choice, analysis *analyzer.Analysis, uctx *session.UserContext) string {
	text := choice.Variation

	values := map[string]string{
		catalog.PlaceholderName:       uctx.PreferredName,
		catalog.PlaceholderFriendName: friendName(analysis, uctx),
		catalog.PlaceholderMemory:     memoryReference(uctx),
	}

	var unresolved []string
	for token, value := range values {
		if !strings.Contains(text, token) {
			continue
		}
		if value == "" {
			unresolved = append(unresolved, token)
			continue
		}
		text = strings.ReplaceAll(text, token, value)
	}
	if len(unresolved) > 0 {
		text = dropClauses(text, unresolved)
	}

	text = strings.TrimSpace(text)
	if choice.FollowUp != "" {
		if text != "" {
			text += " "
		}
		text += choice.FollowUp
	}
	return text
}

// friendName resolves [FRIEND_NAME]: a name the user just mentioned wins if
// we know the relationship, otherwise the first known relationship by name.
func friendName(analysis *analyzer.Analysis, uctx *session.UserContext) string {
	if analysis != nil {
		for _, entity := range analysis.Entities {
			if uctx.HasRelationship(entity.Name) {
				return entity.Name
			}
		}
	}
	if len(uctx.KeyRelationships) == 0 {
		return ""
	}
	names := make([]string, 0, len(uctx.KeyRelationships))
	for name := range uctx.KeyRelationships {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0]
}

// memoryReference resolves [MEMORY] from the newest memory highlight.
func memoryReference(uctx *session.UserContext) string {
	if len(uctx.MemoryHighlights) == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(uctx.MemoryHighlights[0]), ".!?")
}

type clause struct {
	text  string
	delim byte // ',', '.', '!', '?' or 0 at end of string
}

// dropClauses removes every clause containing an unresolved token and
// normalizes the punctuation left behind. A clause is a segment bounded by
// ',', '.', '!', '?' or the string ends.
func dropClauses(text string, tokens []string) string {
	var kept []clause
	start := 0
	for i := 0; i <= len(text); i++ {
		var delim byte
		if i < len(text) {
			if !isClauseDelim(text[i]) {
				continue
			}
			delim = text[i]
		} else if start == i {
			break
		}

		c := clause{text: text[start:i], delim: delim}
		start = i + 1

		if containsAny(c.text, tokens) {
			// The dropped clause's terminator survives when it binds
			// tighter than the previous clause's, so sentences still end
			// with their period.
			if n := len(kept); n > 0 && delimRank(c.delim) > delimRank(kept[n-1].delim) {
				kept[n-1].delim = c.delim
			}
			continue
		}
		kept = append(kept, c)
	}

	var b strings.Builder
	for _, c := range kept {
		b.WriteString(strings.TrimSpace(c.text))
		if c.delim != 0 {
			b.WriteByte(c.delim)
			b.WriteByte(' ')
		}
	}
	return capitalize(strings.TrimSpace(b.String()))
}

func isClauseDelim(b byte) bool {
	return b == ',' || b == '.' || b == '!' || b == '?'
}

func delimRank(b byte) int {
	switch b {
	case '.', '!', '?':
		return 2
	case ',':
		return 1
	default:
		return 0
	}
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	for i, r := range s {
		return s[:i] + string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
