// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// StackedMap maintains maps in a stack.
// Each map inherits the key/value pairs of the map at the lower level.
// It acts as a map with save-restore/snapshot-revert manner.
type StackedMap struct {
	src         MapGetter
	levels      []*level
	keyRevision map[any][]int
}

type level struct {
	kvs     map[any]any
	journal []*JournalEntry
}

// JournalEntry is an entry of the write journal.
type JournalEntry struct {
	Key   any
	Value any
}

// MapGetter defines the getter method of the backing map.
type MapGetter func(key any) (value any, exist bool, err error)

// New creates an instance of StackedMap.
// src acts as the source of data.
func New(src MapGetter) *StackedMap {
	return &StackedMap{
		src:         src,
		keyRevision: make(map[any][]int),
	}
}

// Depth returns the depth of the stack.
func (sm *StackedMap) Depth() int {
	return len(sm.levels)
}

// Push pushes a new map on the stack.
// It returns the stack depth before the push.
func (sm *StackedMap) Push() int {
	sm.levels = append(sm.levels, &level{kvs: make(map[any]any)})
	return len(sm.levels) - 1
}

// Pop pops the map at the top of the stack.
// It reverts all Put operations since the last Push.
func (sm *StackedMap) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.keyRevision[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(sm.keyRevision, key)
		} else {
			sm.keyRevision[key] = revs
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops maps until the stack depth reaches depth.
func (sm *StackedMap) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get gets the value for the given key.
// The second return value indicates whether the key was found.
func (sm *StackedMap) Get(key any) (any, bool, error) {
	if revs, ok := sm.keyRevision[key]; ok {
		lvl := sm.levels[revs[len(revs)-1]]
		if v, ok := lvl.kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put puts the key value pair into the map at the stack top.
// It panics if the stack is empty.
func (sm *StackedMap) Put(key, value any) {
	top := sm.levels[len(sm.levels)-1]
	if _, ok := top.kvs[key]; !ok {
		// record key revision for fast access
		sm.keyRevision[key] = append(sm.keyRevision[key], len(sm.levels)-1)
	}
	top.kvs[key] = value
	top.journal = append(top.journal, &JournalEntry{Key: key, Value: value})
}

// Journal iterates the journal of all Put operations in write order.
// The iteration stops when cb returns false.
func (sm *StackedMap) Journal(cb func(key, value any) bool) {
	for _, lvl := range sm.levels {
		for _, entry := range lvl.journal {
			if !cb(entry.Key, entry.Value) {
				return
			}
		}
	}
}
