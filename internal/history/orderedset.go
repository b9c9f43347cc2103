package history

import "sort"

// orderedSet is a set that remembers insertion order via a monotonic
// sequence number, making capacity eviction deterministic. A plain map-backed
// set would evict an arbitrary 20%, which is untestable and can drop the
// newest entries.
type orderedSet struct {
	seq  map[string]uint64
	next uint64
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seq: make(map[string]uint64)}
}

func (o *orderedSet) contains(key string) bool {
	_, ok := o.seq[key]
	return ok
}

func (o *orderedSet) len() int {
	return len(o.seq)
}

// add inserts key, evicting the oldest 20% of entries first if the set is at
// capacity. Re-adding an existing key refreshes its position.
func (o *orderedSet) add(key string, maxSize int) {
	if key == "" {
		return
	}
	if _, ok := o.seq[key]; !ok && len(o.seq) >= maxSize {
		o.evictOldest(maxSize / 5)
	}
	o.seq[key] = o.next
	o.next++
}

func (o *orderedSet) evictOldest(n int) {
	if n <= 0 {
		n = 1
	}
	keys := o.keys()
	if n > len(keys) {
		n = len(keys)
	}
	for _, key := range keys[:n] {
		delete(o.seq, key)
	}
}

// keys returns all entries in insertion order, oldest first.
func (o *orderedSet) keys() []string {
	keys := make([]string, 0, len(o.seq))
	for k := range o.seq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return o.seq[keys[i]] < o.seq[keys[j]] })
	return keys
}
