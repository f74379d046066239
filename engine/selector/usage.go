package selector

import (
	"container/list"
	"sync"
)

// userUsage is the per-user anti-repetition state.
type userUsage struct {
	userID string

	// turnIndex counts completed turns; it advances on every commit,
	// template or not.
	turnIndex int

	// recent holds the template ids of the last window turns that used a
	// template, newest first.
	recent []string

	lastUsedTurn   map[string]int
	useCount       map[string]int
	followUpCursor map[string]int
}

// UsageTracker owns the per-user rotation and follow-up state. It is bounded:
// when capacity is exceeded, the least recently active user's state is
// evicted. Reads during selection are side-effect free; state changes happen
// only through Commit, after the turn's strategy is fully decided.
type UsageTracker struct {
	mu       sync.Mutex
	capacity int
	window   int

	users map[string]*list.Element
	order *list.List // front = most recently active
}

// NewUsageTracker creates a tracker bounded to capacity users with the given
// rotation window.
func NewUsageTracker(capacity, window int) *UsageTracker {
	if capacity <= 0 {
		capacity = 1000
	}
	if window <= 0 {
		window = 3
	}
	return &UsageTracker{
		capacity: capacity,
		window:   window,
		users:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// UsageView is a read-only snapshot of one user's state, taken under the
// tracker lock so a turn sees consistent values.
type UsageView struct {
	TurnIndex int
	Recent    []string
	LastUsed  map[string]int
	UseCount  map[string]int
	FollowUp  map[string]int
}

// View returns a copy of the user's usage state. Unknown users get a zero
// view.
func (t *UsageTracker) View(userID string) UsageView {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.get(userID)
	if u == nil {
		return UsageView{
			LastUsed: map[string]int{},
			UseCount: map[string]int{},
			FollowUp: map[string]int{},
		}
	}

	view := UsageView{
		TurnIndex: u.turnIndex,
		Recent:    append([]string(nil), u.recent...),
		LastUsed:  make(map[string]int, len(u.lastUsedTurn)),
		UseCount:  make(map[string]int, len(u.useCount)),
		FollowUp:  make(map[string]int, len(u.followUpCursor)),
	}
	for id, n := range u.lastUsedTurn {
		view.LastUsed[id] = n
	}
	for id, n := range u.useCount {
		view.UseCount[id] = n
	}
	for id, n := range u.followUpCursor {
		view.FollowUp[id] = n
	}
	return view
}

// InWindow reports whether the view's rotation window contains the id.
func (v UsageView) InWindow(templateID string) bool {
	for _, id := range v.Recent {
		if id == templateID {
			return true
		}
	}
	return false
}

// Commit records the outcome of a fully decided turn. templateID is empty
// for LLM and fallback turns; those still advance the turn index so the
// rotation window ages out. advanceFollowUp moves the round-robin cursor for
// the committed template.
func (t *UsageTracker) Commit(userID, templateID string, advanceFollowUp bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.touch(userID)
	u.turnIndex++

	if templateID == "" {
		return
	}

	u.recent = append([]string{templateID}, u.recent...)
	if len(u.recent) > t.window {
		u.recent = u.recent[:t.window]
	}
	u.lastUsedTurn[templateID] = u.turnIndex
	u.useCount[templateID]++
	if advanceFollowUp {
		u.followUpCursor[templateID]++
	}
}

// Len returns the number of tracked users.
func (t *UsageTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.users)
}

// get returns the user's state without changing eviction order.
func (t *UsageTracker) get(userID string) *userUsage {
	elem, ok := t.users[userID]
	if !ok {
		return nil
	}
	return elem.Value.(*userUsage)
}

// touch returns the user's state, creating it if needed, and marks the user
// most recently active. Evicts the coldest user when over capacity.
func (t *UsageTracker) touch(userID string) *userUsage {
	if elem, ok := t.users[userID]; ok {
		t.order.MoveToFront(elem)
		return elem.Value.(*userUsage)
	}

	u := &userUsage{
		userID:         userID,
		lastUsedTurn:   make(map[string]int),
		useCount:       make(map[string]int),
		followUpCursor: make(map[string]int),
	}
	t.users[userID] = t.order.PushFront(u)

	for len(t.users) > t.capacity {
		oldest := t.order.Back()
		if oldest == nil {
			break
		}
		evicted := t.order.Remove(oldest).(*userUsage)
		delete(t.users, evicted.userID)
	}
	return u
}
