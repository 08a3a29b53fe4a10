package hitkit

import "sync"

// resourceLockSet hands out one mutex per resource key so hits on the same
// resource serialize their read-then-append sequence while hits on different
// resources proceed in parallel. Locks are created on first use and never
// evicted; the set stays bounded by the number of distinct badges served.
type resourceLockSet struct {
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

func newResourceLockSet() *resourceLockSet {
	return &resourceLockSet{locks: make(map[string]*sync.Mutex)}
}

func (lockSet *resourceLockSet) forKey(resourceKey string) *sync.Mutex {
	lockSet.mutex.Lock()
	defer lockSet.mutex.Unlock()
	lock, exists := lockSet.locks[resourceKey]
	if !exists {
		lock = &sync.Mutex{}
		lockSet.locks[resourceKey] = lock
	}
	return lock
}
