package definition

import (
	"fmt"

	attrs "github.com/goliatone/go-attrs"
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	set          *attrs.TransformSet
	cache        attrs.ProgramCache
	functions    *attrs.FunctionRegistry
	scriptLogger attrs.ScriptLogger
	registryOpts []attrs.RegistryOption
	typeOpts     []attrs.TypeOption
}

// WithTransformSet registers script transforms into set instead of a fresh
// copy of attrs.Builtins(). Use it to share transforms between definitions.
func WithTransformSet(set *attrs.TransformSet) BuildOption {
	return func(cfg *buildConfig) {
		cfg.set = set
	}
}

// WithProgramCache shares compiled programs across script transforms.
func WithProgramCache(cache attrs.ProgramCache) BuildOption {
	return func(cfg *buildConfig) {
		cfg.cache = cache
	}
}

// WithFunctions exposes functions to every script transform.
func WithFunctions(functions *attrs.FunctionRegistry) BuildOption {
	return func(cfg *buildConfig) {
		cfg.functions = functions
	}
}

// WithScriptLogger reports script evaluations of every declared transform.
func WithScriptLogger(logger attrs.ScriptLogger) BuildOption {
	return func(cfg *buildConfig) {
		cfg.scriptLogger = logger
	}
}

// WithRegistryOptions forwards options to the registry Build creates.
func WithRegistryOptions(opts ...attrs.RegistryOption) BuildOption {
	return func(cfg *buildConfig) {
		cfg.registryOpts = append(cfg.registryOpts, opts...)
	}
}

// WithTypeOptions forwards options to the type Build creates.
func WithTypeOptions(opts ...attrs.TypeOption) BuildOption {
	return func(cfg *buildConfig) {
		cfg.typeOpts = append(cfg.typeOpts, opts...)
	}
}

// Build compiles the declared script transforms, registers them, and
// returns the record type resolving through a registry over that set.
func (f File) Build(opts ...BuildOption) (*attrs.Type, error) {
	cfg := buildConfig{functions: attrs.DefaultFunctions()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	set := cfg.set
	if set == nil {
		set = attrs.Builtins()
	}

	for _, spec := range f.Transforms {
		evaluator, err := attrs.EvaluatorForEngine(spec.Engine, cfg.cache, cfg.functions)
		if err != nil {
			return nil, fmt.Errorf("definition: transform %q: %w", spec.Name, err)
		}
		transform, err := attrs.NewScriptTransform(evaluator, spec.Serialize, spec.Deserialize,
			attrs.WithScriptName(spec.Name),
			attrs.WithScriptArgs(spec.Args),
			attrs.WithScriptLogger(cfg.scriptLogger),
		)
		if err != nil {
			return nil, fmt.Errorf("definition: transform %q: %w", spec.Name, err)
		}
		if err := set.Register(spec.Name, transform); err != nil {
			return nil, fmt.Errorf("definition: %w", err)
		}
	}

	registryOpts := append([]attrs.RegistryOption{attrs.WithLookup(set)}, cfg.registryOpts...)
	typeOpts := append([]attrs.TypeOption{attrs.WithRegistry(attrs.NewRegistry(registryOpts...))}, cfg.typeOpts...)
	return attrs.NewType(f.Name, f.AttributeDecls(), typeOpts...)
}

// LoadType loads the definition at path and builds its type.
func LoadType(path string, opts ...BuildOption) (*attrs.Type, error) {
	file, err := Load(path)
	if err != nil {
		return nil, err
	}
	return file.Build(opts...)
}
