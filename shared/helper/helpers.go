package helper

import "fmt"

// TypedValue asserts the result of a getter to the expected type T.
// Returns an error when the getter fails or the assertion does not hold.
func TypedValue[T any](getFn func() (any, error)) (T, error) {
	var zero T

	raw, err := getFn()
	if err != nil {
		return zero, fmt.Errorf("failed to get value: %w", err)
	}

	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type: %T", raw)
	}
	return val, nil
}

// TypedValueOk is the ok-flag variant of TypedValue for getters that signal
// absence instead of failure.
func TypedValueOk[T any](getFn func() (any, bool)) (val T, ok bool) {
	var raw any
	if raw, ok = getFn(); ok {
		val, ok = raw.(T)
	}
	return
}
