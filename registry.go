package attrs

import (
	"strings"
	"sync"
	"time"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLookup sets the lookup transforms are discovered through. The default
// is Builtins().
func WithLookup(lookup Lookup) RegistryOption {
	return func(r *Registry) {
		if lookup != nil {
			r.lookup = lookup
		}
	}
}

// WithLookupLogger attaches a logger for lookup events. A nil logger
// silences them, including fallback warnings.
func WithLookupLogger(logger LookupLogger) RegistryOption {
	return func(r *Registry) {
		if logger == nil {
			r.logger = noopLookupLogger{}
			return
		}
		r.logger = logger
	}
}

// Registry resolves type names to transforms and caches every resolution,
// fallbacks included, under the requested name.
type Registry struct {
	mu     sync.RWMutex
	cache  map[string]Transform
	lookup Lookup
	logger LookupLogger
}

// NewRegistry constructs a Registry over the built-in transforms unless
// WithLookup says otherwise.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		cache:  make(map[string]Transform),
		lookup: Builtins(),
		logger: defaultLookupLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the transform registered for typeName. Resolution checks the
// cache, then the exact name, then ScopedName(typeName), and finally falls
// back to the default transform after logging a warning.
func (r *Registry) Resolve(typeName string) Transform {
	if r == nil {
		return DefaultTransform{}
	}
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		typeName = DefaultType
	}

	start := time.Now()
	r.mu.RLock()
	cached, ok := r.cache[typeName]
	r.mu.RUnlock()
	if ok {
		r.log(typeName, LookupCache, start)
		return cached
	}

	transform, source := r.find(typeName)

	r.mu.Lock()
	if existing, ok := r.cache[typeName]; ok {
		transform = existing
	} else {
		if r.cache == nil {
			r.cache = make(map[string]Transform)
		}
		r.cache[typeName] = transform
	}
	r.mu.Unlock()

	r.log(typeName, source, start)
	return transform
}

// ResolveTransform implements Context so transforms can run without a record.
func (r *Registry) ResolveTransform(typeName string) Transform {
	return r.Resolve(typeName)
}

// Forget drops cached resolutions for names, or every entry when none are
// given.
func (r *Registry) Forget(names ...string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(names) == 0 {
		r.cache = make(map[string]Transform)
		return
	}
	for _, name := range names {
		delete(r.cache, name)
	}
}

// Cached reports whether typeName already has a cached resolution.
func (r *Registry) Cached(typeName string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[typeName]
	return ok
}

func (r *Registry) find(typeName string) (Transform, LookupSource) {
	if r.lookup != nil {
		if transform, ok := r.lookup.LookupTransform(typeName); ok && transform != nil {
			return transform, LookupExact
		}
		if transform, ok := r.lookup.LookupTransform(ScopedName(typeName)); ok && transform != nil {
			return transform, LookupScoped
		}
		if transform, ok := r.lookup.LookupTransform(ScopedName(DefaultType)); ok && transform != nil {
			return transform, LookupFallback
		}
	}
	return DefaultTransform{}, LookupFallback
}

func (r *Registry) log(typeName string, source LookupSource, start time.Time) {
	if r.logger == nil {
		return
	}
	r.logger.LogLookup(LookupEvent{
		Type:     typeName,
		Source:   source,
		Duration: time.Since(start),
	})
}
