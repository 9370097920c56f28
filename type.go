package schemaconf

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Kind classifies how a Type receives command-line and environment text.
type Kind uint8

const (
	// KindScalar types receive flag text verbatim and coerce it themselves.
	KindScalar Kind = iota
	// KindComposite types receive flag text parsed as a YAML literal.
	KindComposite
	// KindAny accepts any value unchanged.
	KindAny
)

// ConvertFunc coerces a raw value to a field's declared type.
type ConvertFunc func(raw any) (any, error)

// Type describes a field's declared type: a name for messages, a kind for
// the command-line surface and a conversion step applied on every Set.
type Type struct {
	name    string
	kind    Kind
	convert ConvertFunc
}

// NewType creates a custom field type. A nil convert stores raw values unchanged.
func NewType(name string, kind Kind, convert ConvertFunc) Type {
	return Type{name: name, kind: kind, convert: convert}
}

// Name returns the type name used in error messages.
func (t Type) Name() string {
	if t.name == "" {
		return "any"
	}
	return t.name
}

// Kind returns the type's kind.
func (t Type) Kind() Kind { return t.kind }

// IsComposite reports whether command-line text for this type is a YAML literal.
func (t Type) IsComposite() bool { return t.kind == KindComposite }

// Convert applies the type's conversion to raw.
func (t Type) Convert(raw any) (any, error) {
	if t.convert == nil {
		return raw, nil
	}
	return t.convert(raw)
}

// Built-in field types.
var (
	String   = NewType("string", KindScalar, func(raw any) (any, error) { return toString(raw) })
	Int      = NewType("int", KindScalar, func(raw any) (any, error) { return toInt(raw) })
	Float    = NewType("float", KindScalar, func(raw any) (any, error) { return toFloat64(raw) })
	Bool     = NewType("bool", KindScalar, func(raw any) (any, error) { return toBool(raw) })
	Duration = NewType("duration", KindScalar, func(raw any) (any, error) { return toDuration(raw) })
	List     = NewType("list", KindComposite, func(raw any) (any, error) { return toList(raw) })
	Map      = NewType("map", KindComposite, func(raw any) (any, error) { return toMap(raw) })
	Any      = NewType("any", KindAny, nil)
)

// ListOf returns a list type converting every element with elem.
func ListOf(elem Type) Type {
	return NewType("list["+elem.Name()+"]", KindComposite, func(raw any) (any, error) {
		items, err := toList(raw)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := elem.Convert(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	})
}

// MapOf returns a mapping type converting every value with elem.
func MapOf(elem Type) Type {
	return NewType("map[string]"+elem.Name(), KindComposite, func(raw any) (any, error) {
		m, err := toMap(raw)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m))
		for k, item := range m {
			v, err := elem.Convert(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	})
}

// TypeOf returns a type that decodes raw values into T using weakly typed
// decoding with the package decode hooks (durations, times, IPs, URLs,
// comma-separated slices).
func TypeOf[T any]() Type {
	return decoderType(reflect.TypeOf((*T)(nil)).Elem())
}

func decoderType(rt reflect.Type) Type {
	return NewType(rt.String(), kindOf(rt), func(raw any) (any, error) {
		target := reflect.New(rt)
		if err := decodeValue(raw, target.Interface()); err != nil {
			return nil, err
		}
		return target.Elem().Interface(), nil
	})
}

func kindOf(rt reflect.Type) Kind {
	switch rt.Kind() {
	case reflect.Interface:
		return KindAny
	case reflect.Slice, reflect.Array, reflect.Map:
		// net.IP and similar byte slices arrive as plain text
		if rt.Elem().Kind() == reflect.Uint8 && rt.PkgPath() != "" {
			return KindScalar
		}
		return KindComposite
	case reflect.Struct:
		if rt == timeType || rt == urlType {
			return KindScalar
		}
		return KindComposite
	case reflect.Ptr:
		return kindOf(rt.Elem())
	default:
		return KindScalar
	}
}

// typeForValue classifies a literal default: strings, booleans, floats,
// integers, durations, lists and mappings are recognized; nil is Any.
func typeForValue(v any) (Type, bool) {
	switch v.(type) {
	case nil:
		return Any, true
	case time.Duration:
		return Duration, true
	case string:
		return String, true
	case bool:
		return Bool, true
	case float32, float64:
		return Float, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int, true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return List, true
	case reflect.Map:
		return Map, true
	}
	return Type{}, false
}

// typeFromReflect maps a Go field type to a field Type for struct-derived schemas.
func typeFromReflect(rt reflect.Type) (Type, bool) {
	if rt == durationType {
		return Duration, true
	}
	if rt.PkgPath() != "" && rt.Kind() != reflect.Interface {
		return decoderType(rt), true
	}
	switch rt.Kind() {
	case reflect.String:
		return String, true
	case reflect.Bool:
		return Bool, true
	case reflect.Float32, reflect.Float64:
		return Float, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int, true
	case reflect.Interface:
		return Any, true
	case reflect.Slice, reflect.Array:
		elem, ok := typeFromReflect(rt.Elem())
		if !ok {
			return Type{}, false
		}
		return ListOf(elem), true
	case reflect.Map:
		if rt.Key().Kind() != reflect.String {
			return Type{}, false
		}
		elem, ok := typeFromReflect(rt.Elem())
		if !ok {
			return Type{}, false
		}
		return MapOf(elem), true
	case reflect.Ptr:
		return decoderType(rt), true
	}
	return Type{}, false
}

// toString converts scalars to their textual form. nil becomes "".
func toString(val any) (string, error) {
	if val == nil {
		return "", nil
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case time.Duration:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("cannot convert type %T to string", val)
}

// toInt converts numbers and integer strings. Fractional floats are rejected.
func toInt(val any) (int, error) {
	if val == nil {
		return 0, fmt.Errorf("nil cannot be converted to int")
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("unsigned integer %d overflows int", u)
		}
		return int(u), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("float %v is not integral", f)
		}
		// float64(math.MaxInt64) rounds up to 2^63
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("float %v overflows int", f)
		}
		return int(f), nil
	case reflect.String:
		i, err := strconv.ParseInt(v.String(), 0, 64)
		if err != nil {
			return 0, err
		}
		return int(i), nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert type %T to int", val)
}

// toFloat64 converts numbers and numeric strings.
func toFloat64(val any) (float64, error) {
	if val == nil {
		return 0, fmt.Errorf("nil cannot be converted to float")
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		return strconv.ParseFloat(v.String(), 64)
	case reflect.Bool:
		if v.Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	}
	return 0, fmt.Errorf("cannot convert type %T to float", val)
}

// toBool converts booleans, parsable strings and numbers (non-zero is true).
func toBool(val any) (bool, error) {
	if val == nil {
		return false, fmt.Errorf("nil cannot be converted to bool")
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		return strconv.ParseBool(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}
	return false, fmt.Errorf("cannot convert type %T to bool", val)
}

// toDuration parses duration strings; bare numbers are nanoseconds.
func toDuration(val any) (time.Duration, error) {
	switch v := val.(type) {
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(v)
	case nil:
		return 0, fmt.Errorf("nil cannot be converted to duration")
	}
	n, err := toInt(val)
	if err != nil {
		return 0, err
	}
	return time.Duration(n), nil
}

// toList accepts any slice or array. Strings are rejected rather than split.
func toList(val any) ([]any, error) {
	if items, ok := val.([]any); ok {
		out := make([]any, len(items))
		copy(out, items)
		return out, nil
	}
	if val == nil {
		return nil, fmt.Errorf("nil cannot be converted to list")
	}
	v := reflect.ValueOf(val)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot convert type %T to list", val)
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, nil
}

func toMap(val any) (map[string]any, error) {
	m, ok := normalizeMap(val)
	if !ok {
		return nil, fmt.Errorf("cannot convert type %T to map", val)
	}
	return m, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)
