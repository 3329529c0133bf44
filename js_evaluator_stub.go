//go:build !js_eval

package attrs

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
