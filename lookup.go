package attrs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BuiltinNamespace prefixes the scoped names built-in transforms are
// registered under.
const BuiltinNamespace = "attrs"

// ScopedName returns the namespaced variant of a transform name that the
// registry falls back to when the plain name is not registered.
func ScopedName(name string) string {
	return BuiltinNamespace + ":" + name
}

// Lookup finds a registered transform by name. It is the only discovery
// mechanism a Registry consumes.
type Lookup interface {
	LookupTransform(name string) (Transform, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(name string) (Transform, bool)

// LookupTransform implements Lookup.
func (fn LookupFunc) LookupTransform(name string) (Transform, bool) {
	if fn == nil {
		return nil, false
	}
	return fn(name)
}

// TransformSet stores transforms keyed by name.
type TransformSet struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewTransformSet constructs an empty set.
func NewTransformSet() *TransformSet {
	return &TransformSet{
		transforms: make(map[string]Transform),
	}
}

// Builtins returns a set holding the built-in transforms under their scoped
// names. Application transforms are registered on top under plain names.
func Builtins() *TransformSet {
	set := NewTransformSet()
	for name, transform := range map[string]Transform{
		DefaultType: DefaultTransform{},
		BooleanType: BooleanTransform{},
		NumberType:  NumberTransform{},
		StringType:  StringTransform{},
		ArrayType:   ArrayTransform{},
	} {
		_ = set.Register(ScopedName(name), transform)
	}
	return set
}

// Register stores transform under name guarding against duplicates.
func (s *TransformSet) Register(name string, transform Transform) error {
	if transform == nil {
		return fmt.Errorf("attrs: transform %q is nil", name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("attrs: transform name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transforms == nil {
		s.transforms = make(map[string]Transform)
	}
	if _, exists := s.transforms[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTransform, name)
	}
	s.transforms[name] = transform
	return nil
}

// Replace stores transform under name, overwriting any previous entry.
func (s *TransformSet) Replace(name string, transform Transform) error {
	if transform == nil {
		return fmt.Errorf("attrs: transform %q is nil", name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("attrs: transform name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transforms == nil {
		s.transforms = make(map[string]Transform)
	}
	s.transforms[name] = transform
	return nil
}

// LookupTransform implements Lookup.
func (s *TransformSet) LookupTransform(name string) (Transform, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	transform, ok := s.transforms[name]
	return transform, ok
}

// Names returns registered names sorted alphabetically.
func (s *TransformSet) Names() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.transforms))
	for name := range s.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
