package kinetics

// valueCache tracks which derived quantities are current for a given state
// stamp. The stamp combines the manager's own mutation counter with the
// state stamps of all phases, so any mutation on either side forces a
// recompute. The cache never returns stale data; it only answers "is the
// buffer for this id already valid at this stamp".
type valueCache struct {
	stamps map[string]uint64
}

func newValueCache() *valueCache {
	return &valueCache{stamps: make(map[string]uint64)}
}

// validate reports whether id is current for stamp, and marks it current.
func (c *valueCache) validate(id string, stamp uint64) bool {
	if s, ok := c.stamps[id]; ok && s == stamp {
		return true
	}
	c.stamps[id] = stamp
	return false
}

func (c *valueCache) clear() {
	c.stamps = make(map[string]uint64)
}
