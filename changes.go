package attrs

// ChangeNotifier is called after every ChangeSet mutation with the affected
// key, whether it is now tracked, and the resulting dirty state.
type ChangeNotifier func(key string, changed bool, dirty bool)

// ChangeSet maps attribute keys to their original raw values, preserving the
// order in which keys were first tracked. A key is present only while its
// current value differs from the original.
type ChangeSet struct {
	keys      []string
	originals map[string]any
	notify    ChangeNotifier
}

// NewChangeSet constructs an empty ChangeSet reporting mutations to notify.
func NewChangeSet(notify ChangeNotifier) *ChangeSet {
	return &ChangeSet{
		originals: make(map[string]any),
		notify:    notify,
	}
}

// Get returns the tracked original for key.
func (c *ChangeSet) Get(key string) (any, bool) {
	original, ok := c.originals[key]
	return original, ok
}

// Has reports whether key is tracked.
func (c *ChangeSet) Has(key string) bool {
	_, ok := c.originals[key]
	return ok
}

// Set tracks original for key and marks it changed. Overwriting keeps the
// key's position.
func (c *ChangeSet) Set(key string, original any) {
	if _, ok := c.originals[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.originals[key] = original
	c.emit(key, true)
}

// Remove stops tracking key and marks it unchanged. Removing an untracked key
// still reports it as unchanged.
func (c *ChangeSet) Remove(key string) {
	if _, ok := c.originals[key]; ok {
		delete(c.originals, key)
		for i, existing := range c.keys {
			if existing == key {
				c.keys = append(c.keys[:i], c.keys[i+1:]...)
				break
			}
		}
	}
	c.emit(key, false)
}

// ForEach calls fn for every tracked key in insertion order. fn may remove
// the key it is handed.
func (c *ChangeSet) ForEach(fn func(key string, original any)) {
	for _, key := range c.Keys() {
		original, ok := c.originals[key]
		if !ok {
			continue
		}
		fn(key, original)
	}
}

// Clear removes the named keys, or every tracked key when none are given.
func (c *ChangeSet) Clear(keys ...string) {
	if len(keys) == 0 {
		keys = c.Keys()
	}
	for _, key := range keys {
		c.Remove(key)
	}
}

// Keys returns a copy of the tracked keys in insertion order.
func (c *ChangeSet) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of tracked keys.
func (c *ChangeSet) Len() int {
	return len(c.keys)
}

func (c *ChangeSet) emit(key string, changed bool) {
	if c.notify != nil {
		c.notify(key, changed, len(c.keys) > 0)
	}
}
