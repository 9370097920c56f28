package schemaconf

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSchema marks invalid schema declarations, policies and nested value shapes.
	ErrSchema = errors.New("schema error")
	// ErrUnknownKey marks access to a path absent from the schema.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrConversion marks a value rejected by a field's declared type.
	ErrConversion = errors.New("config value conversion failed")
	// ErrExtraValues marks unconsumed input under the raise policy.
	ErrExtraValues = errors.New("unexpected config values")
	// ErrSourceFormat marks a source whose top-level document is not a mapping.
	ErrSourceFormat = errors.New("config source is not a mapping")
	// ErrMissingRequired marks required fields left without a value.
	ErrMissingRequired = errors.New("missing required config values")
	// ErrConfigNotFound is returned when a config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrCLIParse wraps command-line parsing failures.
	ErrCLIParse = errors.New("failed to parse command-line arguments")
)

// SchemaError reports an invalid declaration or a nested key fed a non-mapping value.
type SchemaError struct {
	Path string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema error: %s", e.Msg)
	}
	return fmt.Sprintf("schema error at %q: %s", e.Path, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// UnknownKeyError reports read or write access to a path the schema does not declare.
type UnknownKeyError struct {
	Path string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("config does not have key %q", e.Path)
}

func (e *UnknownKeyError) Unwrap() error { return ErrUnknownKey }

// ConversionError reports a raw value the field's type could not coerce.
type ConversionError struct {
	Path  string
	Type  string
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %v (%T) to %s for %q: %v", e.Value, e.Value, e.Type, e.Path, e.Err)
}

func (e *ConversionError) Unwrap() []error { return []error{ErrConversion, e.Err} }

// ExtraValuesError carries the full payload of unconsumed input values.
type ExtraValuesError struct {
	Path   string
	Values map[string]any
}

func (e *ExtraValuesError) Error() string {
	where := ""
	if e.Path != "" {
		where = fmt.Sprintf(" under %q", e.Path)
	}
	return fmt.Sprintf("received unexpected config values%s: %s", where, formatExtras(e.Values))
}

func (e *ExtraValuesError) Unwrap() error { return ErrExtraValues }

// Keys returns the unexpected keys in sorted order.
func (e *ExtraValuesError) Keys() []string {
	return sortedKeys(e.Values)
}

// SourceFormatError reports a source that did not decode to a mapping.
type SourceFormatError struct {
	Source string
	Got    string
}

func (e *SourceFormatError) Error() string {
	return fmt.Sprintf("provided source (%s) is not a mapping, got %s", e.Source, e.Got)
}

func (e *SourceFormatError) Unwrap() error { return ErrSourceFormat }

// MissingRequiredError lists every required path still unresolved.
type MissingRequiredError struct {
	Paths []string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Paths, ", "))
}

func (e *MissingRequiredError) Unwrap() error { return ErrMissingRequired }

func formatExtras(values map[string]any) string {
	parts := make([]string, 0, len(values))
	for _, k := range sortedKeys(values) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, values[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
