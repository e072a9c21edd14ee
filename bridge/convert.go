package bridge

import (
	"errors"
	"fmt"
)

// ErrConversion matches every *ConversionError with errors.Is.
var ErrConversion = errors.New("bridge: conversion failed")

// ConversionError reports a value whose runtime type does not fit the
// requested wrapper. Message is the wrapper's fixed ErrorMessage.
type ConversionError struct {
	Message string
	Actual  ValueType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s (got %s)", e.Message, e.Actual)
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// VerifiedObject is a wrapper that can check a value before wrapping it.
//
// IsCorrectType must be pure: it may read type tags and walk the class
// hierarchy but never sends a message. ErrorMessage is the same string for
// every failed conversion to T. Both are called on T's zero value.
type VerifiedObject[T any] interface {
	Object
	FromValue(Value) T
	IsCorrectType(Object) bool
	ErrorMessage() string
}

// TryConvertTo views o as a T. It never panics and never dispatches: a
// mismatched (or collected) value yields a *ConversionError carrying T's
// ErrorMessage.
func TryConvertTo[T VerifiedObject[T]](o Object) (T, error) {
	var zero T
	if o == nil {
		return zero, &ConversionError{Message: zero.ErrorMessage(), Actual: TypeNone}
	}
	if !zero.IsCorrectType(o) {
		return zero, &ConversionError{Message: zero.ErrorMessage(), Actual: o.Value().Type()}
	}
	return zero.FromValue(o.Value()), nil
}

// IsA reports whether o converts to T.
func IsA[T VerifiedObject[T]](o Object) bool {
	var zero T
	return o != nil && zero.IsCorrectType(o)
}

// ConvertAll converts every element of arr to T, stopping at the first
// mismatch. The error names the offending index.
func ConvertAll[T VerifiedObject[T]](arr RArray) ([]T, error) {
	elems := arr.Elements()
	out := make([]T, 0, len(elems))
	for i, e := range elems {
		t, err := TryConvertTo[T](e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
