package attrs

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes registry functions to expressions.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprEvaluator executes script expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx ScriptContext, expression string) (any, error) {
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *exprEvaluator) Compile(expression string) (CompiledScript, error) {
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledScript{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			fn := name
			options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}))
		}
		options = append(options, exprlang.Function("call", e.call))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapScriptError("expr", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *exprEvaluator) run(ctx ScriptContext, expression string, program *exprvm.Program) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(program, ctx.binding())
	if err != nil {
		return nil, wrapScriptError("expr", expression, ctx.Direction, err)
	}
	return result, nil
}

// call dispatches call(name, args...) to the function registry.
func (e *exprEvaluator) call(arguments ...any) (any, error) {
	if len(arguments) == 0 {
		return nil, fmt.Errorf("attrs: call requires function name")
	}
	name, ok := arguments[0].(string)
	if !ok {
		return nil, fmt.Errorf("attrs: call name must be string")
	}
	return e.registry.Call(name, arguments[1:]...)
}

type exprCompiledScript struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (s *exprCompiledScript) Evaluate(ctx ScriptContext) (any, error) {
	if s.evaluator == nil {
		return nil, wrapEngineError("expr", fmt.Errorf("compiled script missing evaluator"))
	}
	return s.evaluator.run(ctx, s.expression, s.program)
}
