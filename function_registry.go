package attrs

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Function is a custom function callable from script transforms.
type Function func(args ...any) (any, error)

// FunctionRegistry stores script functions keyed by case-insensitive name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// DefaultFunctions returns a registry preloaded with helpers that mirror the
// built-in transforms: toNumber, toText, truthy and roundTo.
func DefaultFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	_ = r.Register("toNumber", unary(func(v any) (any, error) { return toNumber(v), nil }))
	_ = r.Register("toText", unary(func(v any) (any, error) { return toText(v), nil }))
	_ = r.Register("truthy", unary(func(v any) (any, error) { return truthy(v), nil }))
	_ = r.Register("roundTo", func(args ...any) (any, error) {
		if len(args) == 0 || len(args) > 2 {
			return nil, fmt.Errorf("attrs: roundTo expects 1 or 2 arguments, got %d", len(args))
		}
		n, ok := toNumber(args[0]).(float64)
		if !ok {
			return nil, nil
		}
		places := 0.0
		if len(args) == 2 {
			if p, ok := toNumber(args[1]).(float64); ok {
				places = p
			}
		}
		scale := math.Pow(10, places)
		return math.Round(n*scale) / scale, nil
	})
	return r
}

func unary(fn func(any) (any, error)) Function {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("attrs: expected 1 argument, got %d", len(args))
		}
		return fn(args[0])
	}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("attrs: function %q is nil", name)
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("attrs: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("attrs: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy, so evaluators are isolated from later
// registrations.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("attrs: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("attrs: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered (lower-cased) names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
