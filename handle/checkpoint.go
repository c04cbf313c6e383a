package handle

import (
	"github.com/yogthos/matryoshka/lattice"
)

// Checkpoints snapshots a registry's live-handle table and RESULTS pointer
// under turn keys. Snapshotting the same key again overwrites the earlier
// snapshot. Automatic per-turn snapshots are the session's choice; see the
// auto_checkpoint config knob.
type Checkpoints struct {
	registry  *Registry
	snapshots map[string]snapshot
}

type snapshot struct {
	handles map[string][]lattice.Value
	order   []string
	next    int
	results string
}

// NewCheckpoints creates a checkpoint manager over a registry.
func NewCheckpoints(r *Registry) *Checkpoints {
	return &Checkpoints{
		registry:  r,
		snapshots: map[string]snapshot{},
	}
}

// Snapshot records the current table and RESULTS pointer under the key.
func (c *Checkpoints) Snapshot(key string) {
	handles := make(map[string][]lattice.Value, len(c.registry.handles))
	for name, seq := range c.registry.handles {
		cp := make([]lattice.Value, len(seq))
		copy(cp, seq)
		handles[name] = cp
	}
	order := make([]string, len(c.registry.order))
	copy(order, c.registry.order)

	c.snapshots[key] = snapshot{
		handles: handles,
		order:   order,
		next:    c.registry.next,
		results: c.registry.results,
	}
}

// Restore re-installs the snapshot stored under the key. It reports whether
// the key existed.
func (c *Checkpoints) Restore(key string) bool {
	snap, ok := c.snapshots[key]
	if !ok {
		return false
	}

	handles := make(map[string][]lattice.Value, len(snap.handles))
	for name, seq := range snap.handles {
		cp := make([]lattice.Value, len(seq))
		copy(cp, seq)
		handles[name] = cp
	}
	order := make([]string, len(snap.order))
	copy(order, snap.order)

	c.registry.handles = handles
	c.registry.order = order
	c.registry.next = snap.next
	c.registry.results = snap.results
	return true
}

// Keys returns the stored checkpoint keys.
func (c *Checkpoints) Keys() []string {
	keys := make([]string, 0, len(c.snapshots))
	for k := range c.snapshots {
		keys = append(keys, k)
	}
	return keys
}

// Drop removes a stored checkpoint.
func (c *Checkpoints) Drop(key string) {
	delete(c.snapshots, key)
}
