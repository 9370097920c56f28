package schemaconf

import "fmt"

type valueState uint8

const (
	stateNotProvided valueState = iota
	stateRequired
	stateProvided
)

// Value is the per-field variant used for defaults and current values.
// The zero Value is NotProvided.
type Value struct {
	state valueState
	v     any
}

// NotProvided returns the "no value supplied" variant.
func NotProvided() Value { return Value{} }

// Required returns the variant marking a field that must be supplied.
func Required() Value { return Value{state: stateRequired} }

// Provided wraps a concrete value, including nil.
func Provided(v any) Value { return Value{state: stateProvided, v: v} }

// IsProvided reports whether the variant holds a concrete value.
func (v Value) IsProvided() bool { return v.state == stateProvided }

// IsRequired reports whether the variant is the Required marker.
func (v Value) IsRequired() bool { return v.state == stateRequired }

// Get returns the wrapped value and whether one is present.
func (v Value) Get() (any, bool) {
	if v.state != stateProvided {
		return nil, false
	}
	return v.v, true
}

func (v Value) String() string {
	switch v.state {
	case stateRequired:
		return "<required>"
	case stateProvided:
		return fmt.Sprintf("%v", v.v)
	default:
		return "<not provided>"
	}
}
