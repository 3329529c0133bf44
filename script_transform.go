package attrs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Script engines understood by EvaluatorForEngine.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var (
	// ErrNoEvaluator is returned when a script transform has no evaluator.
	ErrNoEvaluator = errors.New("attrs: evaluator not configured")
	// ErrUnknownEngine is returned for an engine name EvaluatorForEngine
	// does not know.
	ErrUnknownEngine = errors.New("attrs: unknown script engine")
)

// EvaluatorForEngine builds the evaluator for engine ("expr" when empty).
// cache and functions may be nil. The js engine needs the js_eval build tag.
func EvaluatorForEngine(engine string, cache ProgramCache, functions *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		var opts []ExprEvaluatorOption
		if cache != nil {
			opts = append(opts, ExprWithProgramCache(cache))
		}
		if functions != nil {
			opts = append(opts, ExprWithFunctionRegistry(functions))
		}
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		var opts []CELEvaluatorOption
		if cache != nil {
			opts = append(opts, CELWithProgramCache(cache))
		}
		if functions != nil {
			opts = append(opts, CELWithFunctionRegistry(functions))
		}
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js (build with -tags js_eval)", ErrNoEvaluator)
		}
		var opts []JSEvaluatorOption
		if cache != nil {
			opts = append(opts, JSWithProgramCache(cache))
		}
		if functions != nil {
			opts = append(opts, JSWithFunctionRegistry(functions))
		}
		return NewJSEvaluator(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	default:
		if fmt.Sprintf("%T", e) == "*attrs.jsEvaluator" {
			return EngineJS
		}
		return "custom"
	}
}

// ScriptTransformOption configures a ScriptTransform.
type ScriptTransformOption func(*ScriptTransform)

// WithScriptName labels the transform in logs and errors.
func WithScriptName(name string) ScriptTransformOption {
	return func(t *ScriptTransform) {
		t.name = name
	}
}

// WithScriptArgs exposes args to both expressions as `args`.
func WithScriptArgs(args map[string]any) ScriptTransformOption {
	return func(t *ScriptTransform) {
		t.args = cloneArgs(args)
	}
}

// WithScriptLogger reports every evaluation to logger.
func WithScriptLogger(logger ScriptLogger) ScriptTransformOption {
	return func(t *ScriptTransform) {
		if logger == nil {
			t.logger = noopScriptLogger{}
			return
		}
		t.logger = logger
	}
}

// WithScriptClock overrides the time exposed as `now`.
func WithScriptClock(clock func() time.Time) ScriptTransformOption {
	return func(t *ScriptTransform) {
		t.clock = clock
	}
}

// ScriptTransform is a Transform whose directions are expressions. Each
// expression sees `value`, `direction`, `options`, `args` and `now`. A nil
// value passes through without evaluation and an empty expression is the
// identity.
type ScriptTransform struct {
	name            string
	engine          string
	serializeExpr   string
	deserializeExpr string
	serialize       CompiledScript
	deserialize     CompiledScript
	args            map[string]any
	logger          ScriptLogger
	clock           func() time.Time
}

// NewScriptTransform compiles both expressions with evaluator.
func NewScriptTransform(evaluator Evaluator, serializeExpr, deserializeExpr string, opts ...ScriptTransformOption) (*ScriptTransform, error) {
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	t := &ScriptTransform{
		engine:          evaluatorEngineName(evaluator),
		serializeExpr:   strings.TrimSpace(serializeExpr),
		deserializeExpr: strings.TrimSpace(deserializeExpr),
		logger:          noopScriptLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	var err error
	if t.serializeExpr != "" {
		if t.serialize, err = evaluator.Compile(t.serializeExpr); err != nil {
			return nil, wrapScriptError(t.engine, t.serializeExpr, DirectionSerialize, err)
		}
	}
	if t.deserializeExpr != "" {
		if t.deserialize, err = evaluator.Compile(t.deserializeExpr); err != nil {
			return nil, wrapScriptError(t.engine, t.deserializeExpr, DirectionDeserialize, err)
		}
	}
	return t, nil
}

// Name returns the label set with WithScriptName.
func (t *ScriptTransform) Name() string {
	return t.name
}

// Engine returns the engine name of the evaluator that compiled the scripts.
func (t *ScriptTransform) Engine() string {
	return t.engine
}

// Serialize implements Transform.
func (t *ScriptTransform) Serialize(_ Context, opts Options, value any) (any, error) {
	return t.run(DirectionSerialize, t.serialize, t.serializeExpr, opts, value)
}

// Deserialize implements Transform.
func (t *ScriptTransform) Deserialize(_ Context, opts Options, value any) (any, error) {
	return t.run(DirectionDeserialize, t.deserialize, t.deserializeExpr, opts, value)
}

func (t *ScriptTransform) run(direction Direction, script CompiledScript, expr string, opts Options, value any) (any, error) {
	if script == nil || value == nil {
		return value, nil
	}
	ctx := ScriptContext{
		Value:     value,
		Direction: direction,
		Options:   opts,
		Args:      t.args,
	}
	if t.clock != nil {
		now := t.clock()
		ctx.Now = &now
	}
	start := time.Now()
	out, err := script.Evaluate(ctx)
	err = wrapScriptError(t.engine, expr, direction, err)
	t.logger.LogScript(ScriptLogEvent{
		Transform: t.name,
		Engine:    t.engine,
		Expr:      expr,
		Direction: direction,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return nil, err
	}
	return normalizeScriptResult(out), nil
}

// normalizeScriptResult folds engine-specific numeric types into float64 so
// script output composes with the number transform.
func normalizeScriptResult(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}

func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for key, value := range args {
		out[key] = value
	}
	return out
}
