package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// IDLocks serializes mutations per resource id. Ids are hashed onto a
// fixed set of stripes; two ids on the same stripe wait on each other,
// which is acceptable since mutations are short.
type IDLocks struct {
	stripes [lockStripes]sync.Mutex
}

// NewIDLocks creates the shared lock set.
func NewIDLocks() *IDLocks {
	return &IDLocks{}
}

func (l *IDLocks) lock(id string) func() {
	stripe := &l.stripes[stripeFor(id)]
	stripe.Lock()
	return stripe.Unlock
}

// lockPair acquires both ids in stripe order to avoid deadlock when two
// callers mutate the same pair from opposite directions.
func (l *IDLocks) lockPair(a, b string) func() {
	sa := stripeFor(a)
	sb := stripeFor(b)
	if sa == sb {
		return l.lock(a)
	}
	if sa > sb {
		sa, sb = sb, sa
	}
	l.stripes[sa].Lock()
	l.stripes[sb].Lock()
	first, second := sa, sb
	return func() {
		l.stripes[second].Unlock()
		l.stripes[first].Unlock()
	}
}

func stripeFor(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32() % lockStripes
}
