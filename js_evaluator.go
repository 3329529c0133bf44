//go:build js_eval

package attrs

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsEvaluator) Evaluate(ctx ScriptContext, expression string) (any, error) {
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsEvaluator) Compile(expression string) (CompiledScript, error) {
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledScript{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapJSExpression(expression), false)
	if err != nil {
		return nil, wrapScriptError("js", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

// run executes program in a fresh runtime; goja runtimes are not safe to
// share between goroutines.
func (e *jsEvaluator) run(ctx ScriptContext, expression string, program *goja.Program) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	e.inject(vm, ctx)
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapScriptError("js", expression, ctx.Direction, err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) inject(vm *goja.Runtime, ctx ScriptContext) {
	for name, value := range ctx.binding() {
		_ = vm.Set(name, value)
	}
	if e.registry == nil {
		return
	}
	_ = vm.Set("call", func(name string, arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	})
	for _, name := range e.registry.Names() {
		fn := name
		_ = vm.Set(fn, func(arguments ...any) (any, error) {
			return e.registry.Call(fn, arguments...)
		})
	}
}

func wrapJSExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledScript struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (s *jsCompiledScript) Evaluate(ctx ScriptContext) (any, error) {
	if s.evaluator == nil {
		return nil, wrapEngineError("js", fmt.Errorf("compiled script missing evaluator"))
	}
	return s.evaluator.run(ctx, s.expression, s.program)
}

func jsEvaluatorAvailable() bool {
	return true
}
