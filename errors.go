package attrs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAttribute is returned for keys the record type never declared.
	ErrUnknownAttribute = errors.New("attrs: unknown attribute")
	// ErrDuplicateAttribute is returned when a type declares a name twice.
	ErrDuplicateAttribute = errors.New("attrs: duplicate attribute")
	// ErrDuplicateTransform is returned when a transform name is registered twice.
	ErrDuplicateTransform = errors.New("attrs: duplicate transform")
)

// AttributeError captures the record type and attribute an operation failed on.
type AttributeError struct {
	Type      string
	Attribute string
	Op        string
	Err       error
}

func (e *AttributeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("attrs: %s %s.%s: %v", e.Op, describeType(e.Type), e.Attribute, e.Err)
}

func (e *AttributeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeType(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func wrapAttributeError(typeName, attribute, op string, err error) error {
	if err == nil {
		return nil
	}
	var attrErr *AttributeError
	if errors.As(err, &attrErr) {
		if attrErr.Type == "" {
			attrErr.Type = typeName
		}
		if attrErr.Attribute == "" {
			attrErr.Attribute = attribute
		}
		if attrErr.Op == "" {
			attrErr.Op = op
		}
		return err
	}
	return &AttributeError{
		Type:      typeName,
		Attribute: attribute,
		Op:        op,
		Err:       err,
	}
}

// AssertionError is the panic value raised when a transform receives input
// it has no defined behaviour for.
type AssertionError struct {
	Transform string
	Message   string
}

func (e *AssertionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("attrs: %s transform assertion failed: %s", e.Transform, e.Message)
}
