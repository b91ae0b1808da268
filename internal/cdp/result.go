package cdp

// Result is the outcome of one remote evaluation. It keeps "the call failed"
// distinct from "the call succeeded and returned a falsy value": transport
// errors, malformed responses, and responses without a value all collapse to
// the failed marker, while a legitimate null/false/empty result stays a
// success. Callers branch on OK before interpreting the value.
type Result struct {
	value any
	ok    bool
}

// Ok wraps a decoded evaluation value.
func Ok(value any) Result {
	return Result{value: value, ok: true}
}

// Failed is the marker for an evaluation that produced no usable value.
func Failed() Result {
	return Result{}
}

// OK reports whether the evaluation produced a value at all.
func (r Result) OK() bool {
	return r.ok
}

// Value returns the decoded value. Only meaningful when OK.
func (r Result) Value() any {
	return r.value
}

// Truthy interprets the value the way JavaScript would in a boolean
// context. A failed result is never truthy.
func (r Result) Truthy() bool {
	if !r.ok {
		return false
	}
	switch v := r.value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		// Arrays and objects are truthy in JavaScript, empty or not.
		return true
	}
}

// AsString returns the value as a string when the evaluation succeeded and
// produced one.
func (r Result) AsString() (string, bool) {
	if !r.ok {
		return "", false
	}
	s, ok := r.value.(string)
	return s, ok
}

// AsStrings returns the value as a slice of strings when the evaluation
// succeeded and produced an array whose elements are all strings.
func (r Result) AsStrings() ([]string, bool) {
	if !r.ok {
		return nil, false
	}
	items, ok := r.value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
