package attrs

import "time"

// ScriptContext carries the inputs a script transform expression sees.
type ScriptContext struct {
	Value     any
	Direction Direction
	Options   Options
	Args      map[string]any
	Now       *time.Time
}

func (ctx ScriptContext) withDefaults() ScriptContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx ScriptContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

// binding is the variable set every engine exposes: value, direction,
// options, args and now.
func (ctx ScriptContext) binding() map[string]any {
	return map[string]any{
		"value":     ctx.Value,
		"direction": string(ctx.Direction),
		"options":   optionsBinding(ctx.Options),
		"args":      ctx.Args,
		"now":       ctx.timestamp(),
	}
}

func optionsBinding(opts Options) map[string]any {
	return map[string]any{
		"default":   opts.Default,
		"read_only": opts.ReadOnly,
		"item_type": opts.ItemType,
	}
}

// Evaluator runs script expressions against a ScriptContext.
type Evaluator interface {
	Evaluate(ctx ScriptContext, expr string) (any, error)
	Compile(expr string) (CompiledScript, error)
}

// CompiledScript is a reusable expression program.
type CompiledScript interface {
	Evaluate(ctx ScriptContext) (any, error)
}
