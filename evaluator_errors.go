package attrs

import (
	"errors"
	"fmt"
	"strings"
)

// ScriptError captures script metadata alongside the originating error.
type ScriptError struct {
	Engine    string
	Expr      string
	Direction Direction
	Err       error
}

func (e *ScriptError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("attrs: %s script %s direction=%s: %v", e.Engine, describeExpression(e.Expr), describeDirection(e.Direction), e.Err)
}

func (e *ScriptError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func describeDirection(direction Direction) string {
	if direction == "" {
		return "compile"
	}
	return string(direction)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "attrs:") {
		return err
	}
	return fmt.Errorf("attrs: %s evaluator: %w", engine, err)
}

// wrapScriptError attaches metadata, filling only the fields an existing
// ScriptError left empty.
func wrapScriptError(engine, expr string, direction Direction, err error) error {
	if err == nil {
		return nil
	}
	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		if scriptErr.Engine == "" {
			scriptErr.Engine = engine
		}
		if scriptErr.Expr == "" {
			scriptErr.Expr = expr
		}
		if scriptErr.Direction == "" {
			scriptErr.Direction = direction
		}
		return scriptErr
	}
	return &ScriptError{
		Engine:    engine,
		Expr:      expr,
		Direction: direction,
		Err:       err,
	}
}
