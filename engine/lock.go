package engine

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// userLocks serializes turns per user while letting different users run in
// parallel. Striping bounds memory regardless of user count; two users
// sharing a stripe merely serialize against each other.
type userLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *userLocks) forUser(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &l.stripes[h.Sum32()%lockStripes]
}
