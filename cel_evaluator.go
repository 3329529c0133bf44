package attrs

import (
	"fmt"
	"reflect"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registry functions through call(name, ...).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Every script
// variable is declared dyn, so numeric literals must match the value's type
// (use 100.0 against float values).
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx ScriptContext, expression string) (any, error) {
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *celEvaluator) Compile(expression string) (CompiledScript, error) {
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celCompiledScript{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, wrapEngineError("cel", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapScriptError("cel", expression, "", issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapScriptError("cel", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("direction", celgo.StringType),
		celgo.Variable("options", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", e.callOverloads()...))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(ctx ScriptContext, expression string, program celgo.Program) (any, error) {
	ctx = ctx.withDefaults()
	out, _, err := program.Eval(ctx.binding())
	if err != nil {
		return nil, wrapScriptError("cel", expression, ctx.Direction, err)
	}
	return celNative(out), nil
}

// celNative unwraps CEL values, converting lists and maps into plain Go
// containers so downstream transforms see []any and map[string]any.
func celNative(out ref.Val) any {
	switch out.Type() {
	case types.NullType:
		return nil
	case types.ListType:
		if native, err := out.ConvertToNative(reflect.TypeOf([]any{})); err == nil {
			return native
		}
	case types.MapType:
		if native, err := out.ConvertToNative(reflect.TypeOf(map[string]any{})); err == nil {
			return native
		}
	}
	return out.Value()
}

type celCompiledScript struct {
	evaluator  *celEvaluator
	expression string
	program    celgo.Program
}

func (s *celCompiledScript) Evaluate(ctx ScriptContext) (any, error) {
	if s.evaluator == nil {
		return nil, wrapEngineError("cel", fmt.Errorf("compiled script missing evaluator"))
	}
	return s.evaluator.run(ctx, s.expression, s.program)
}

// maxCallArgs bounds the arity of call(name, ...) overloads.
const maxCallArgs = 4

func (e *celEvaluator) callOverloads() []celgo.FunctionOpt {
	binding := celgo.FunctionBinding(e.callBinding())
	overloads := make([]celgo.FunctionOpt, 0, maxCallArgs+1)
	params := []*celgo.Type{celgo.StringType}
	for arity := 0; arity <= maxCallArgs; arity++ {
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("call_string_dyn%d", arity),
			append([]*celgo.Type(nil), params...),
			celgo.DynType,
			binding,
		))
		params = append(params, celgo.DynType)
	}
	return overloads
}

func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if len(values) == 0 {
			return types.NewErr("attrs: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("attrs: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
