package xdoc

import (
	"errors"
	"fmt"
)

// Sentinels to match component errors with errors.Is.
var (
	ErrResourceLoad = errors.New("resource cannot be loaded")
	ErrXML          = errors.New("xml processing error")
	ErrExpression   = errors.New("xpath expression error")
)

// ResourceLoadError is returned when resource cannot be fetched or is not
// well-formed XML.
type ResourceLoadError struct {
	Location string
	Err      error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("unable to load resource %q: %v", e.Location, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }

func (e *ResourceLoadError) Is(target error) bool { return target == ErrResourceLoad }

// XMLError reports problems with XML nodes or documents which are not
// related to any particular expression.
type XMLError struct {
	Err error
}

func (e *XMLError) Error() string {
	return fmt.Sprintf("xml: %v", e.Err)
}

func (e *XMLError) Unwrap() error { return e.Err }

func (e *XMLError) Is(target error) bool { return target == ErrXML }

// ExpressionError is returned when XPath expression cannot be compiled,
// fails during evaluation or selects nothing.
type ExpressionError struct {
	Expression string
	Err        error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("xpath %q: %v", e.Expression, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

func (e *ExpressionError) Is(target error) bool { return target == ErrExpression }
