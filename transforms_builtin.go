package attrs

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Built-in transform names.
const (
	BooleanType = "boolean"
	NumberType  = "number"
	StringType  = "string"
	ArrayType   = "array"
)

// DefaultTransform passes values through unchanged in both directions.
type DefaultTransform struct{}

func (DefaultTransform) Serialize(_ Context, _ Options, value any) (any, error) {
	return value, nil
}

func (DefaultTransform) Deserialize(_ Context, _ Options, value any) (any, error) {
	return value, nil
}

// BooleanTransform serializes by truthiness and deserializes from a small set
// of accepted spellings.
type BooleanTransform struct{}

var truthyPattern = regexp.MustCompile(`(?i)^(true|t|1)$`)

func (BooleanTransform) Serialize(_ Context, _ Options, value any) (any, error) {
	return truthy(value), nil
}

func (BooleanTransform) Deserialize(_ Context, _ Options, value any) (any, error) {
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case string:
		return truthyPattern.MatchString(typed), nil
	}
	if number, ok := numericValue(value); ok {
		return number == 1, nil
	}
	return false, nil
}

// NumberTransform coerces values to float64. Empty values become nil and
// values that do not parse become NaN.
type NumberTransform struct{}

func (NumberTransform) Serialize(_ Context, _ Options, value any) (any, error) {
	return toNumber(value), nil
}

func (NumberTransform) Deserialize(_ Context, _ Options, value any) (any, error) {
	return toNumber(value), nil
}

// StringTransform coerces values to their textual form. nil stays nil.
type StringTransform struct{}

func (StringTransform) Serialize(_ Context, _ Options, value any) (any, error) {
	return toText(value), nil
}

func (StringTransform) Deserialize(_ Context, _ Options, value any) (any, error) {
	return toText(value), nil
}

// ArrayTransform maps every element through the transform named by
// Options.ItemType. Non-sequence input is a programming error and panics
// with *AssertionError.
type ArrayTransform struct{}

func (ArrayTransform) Serialize(ctx Context, opts Options, value any) (any, error) {
	return convertArray(DirectionSerialize, ctx, opts, value)
}

func (ArrayTransform) Deserialize(ctx Context, opts Options, value any) (any, error) {
	return convertArray(DirectionDeserialize, ctx, opts, value)
}

func convertArray(direction Direction, ctx Context, opts Options, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		panic(&AssertionError{
			Transform: ArrayType,
			Message:   fmt.Sprintf("can only %s arrays, got %T", direction, value),
		})
	}

	itemType := opts.ItemType
	if itemType == "" {
		itemType = DefaultType
	}
	var item Transform = DefaultTransform{}
	if ctx != nil {
		item = ctx.ResolveTransform(itemType)
	}

	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		converted, err := Convert(item, direction, ctx, opts, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("attrs: array item %d: %w", i, err)
		}
		out[i] = converted
	}
	return out, nil
}

// truthy mirrors loose boolean coercion: nil, false, zero, NaN and the empty
// string are false, everything else is true.
func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		return typed != ""
	}
	if number, ok := numericValue(value); ok {
		return number != 0 && !math.IsNaN(number)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

func toNumber(value any) any {
	if isEmpty(value) {
		return nil
	}
	if number, ok := numericValue(value); ok {
		return number
	}
	switch typed := value.(type) {
	case bool:
		if typed {
			return float64(1)
		}
		return float64(0)
	case string:
		return parseNumber(typed)
	case fmt.Stringer:
		return parseNumber(typed.String())
	}
	return math.NaN()
}

// parseNumber accepts surrounding whitespace, decimal and exponent notation
// and 0x/0o/0b prefixed integers. A blank string is zero.
func parseNumber(raw string) float64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	switch lower {
	case "infinity", "+infinity":
		return math.Inf(1)
	case "-infinity":
		return math.Inf(-1)
	case "inf", "+inf", "-inf", "nan":
		return math.NaN()
	}
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		n, err := strconv.ParseUint(lower, 0, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if strings.ContainsRune(lower, '_') {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

func toText(value any) any {
	if value == nil {
		return nil
	}
	return formatText(value)
}

func formatText(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return formatFloat(typed)
	case float32:
		return formatFloat(float64(typed))
	case nil:
		return ""
	}
	if number, ok := numericValue(value); ok {
		return formatFloat(number)
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatText(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(value)
}

func formatFloat(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	if abs := math.Abs(n); abs >= 1e21 || abs < 1e-6 {
		return exponentForm(n)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// exponentForm renders n as 1.5e+21 / 1e-7: shortest mantissa, explicit
// exponent sign, no zero padding.
func exponentForm(n float64) string {
	text := strconv.FormatFloat(n, 'e', -1, 64)
	mantissa, exponent, _ := strings.Cut(text, "e")
	sign := exponent[:1]
	digits := strings.TrimLeft(exponent[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

func numericValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	}
	return 0, false
}

// isEmpty reports whether value counts as absent: nil, the empty string, or a
// zero-length slice, map or array.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if text, ok := value.(string); ok {
		return text == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// sameValue compares raw store values. Numbers compare as float64 whatever
// their Go type, and NaN equals NaN. Other comparable values use ==,
// everything else falls back to reflect.DeepEqual.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := numericValue(a); ok {
		if y, ok := numericValue(b); ok {
			return x == y || (math.IsNaN(x) && math.IsNaN(y))
		}
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() && ta.Kind() != reflect.Struct && ta.Kind() != reflect.Array {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
