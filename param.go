package schemaconf

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Param is one leaf field of a configuration: its key, declared type,
// default, required flag, description and current value.
type Param struct {
	key      string
	typ      Type
	def      Value
	required bool
	desc     string
	current  Value
}

// ParamOption customizes a Param at declaration time.
type ParamOption func(*Param)

// WithDesc sets the help text shown for the field's flag.
func WithDesc(desc string) ParamOption {
	return func(p *Param) { p.desc = desc }
}

// WithRequired overrides the required flag derived from the default.
func WithRequired(required bool) ParamOption {
	return func(p *Param) { p.required = required }
}

// NewParam declares a field. It is required when def is Required() unless
// WithRequired says otherwise.
func NewParam(key string, typ Type, def Value, opts ...ParamOption) *Param {
	p := &Param{
		key:      key,
		typ:      typ,
		def:      def,
		required: def.IsRequired(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the field name within its owning level.
func (p *Param) Key() string { return p.key }

// Type returns the declared type.
func (p *Param) Type() Type { return p.typ }

// Default returns the declared default.
func (p *Param) Default() Value { return p.def }

// IsRequired reports whether the field must be supplied.
func (p *Param) IsRequired() bool { return p.required }

// Desc returns the field description.
func (p *Param) Desc() string { return p.desc }

// IsSet reports whether a value has been assigned since the copy was made.
func (p *Param) IsSet() bool { return p.current.IsProvided() }

// Copy returns a fresh descriptor with the same declaration and no current value.
// Mutable defaults are shared with p.
func (p *Param) Copy() *Param {
	return &Param{
		key:      p.key,
		typ:      p.typ,
		def:      p.def,
		required: p.required,
		desc:     p.desc,
	}
}

// clone is Copy that also keeps the current value.
func (p *Param) clone() *Param {
	c := p.Copy()
	c.current = p.current
	return c
}

// Value returns the current value when set, otherwise the default.
// A Required result means the field is still unresolved.
func (p *Param) Value() Value {
	if p.current.IsProvided() {
		return p.current
	}
	return p.def
}

// Get returns the resolved value, failing for an unresolved required field.
func (p *Param) Get() (any, error) {
	v := p.Value()
	if v.IsRequired() {
		return nil, &MissingRequiredError{Paths: []string{p.key}}
	}
	raw, _ := v.Get()
	return raw, nil
}

// Set converts raw with the declared type and stores it as the current value.
func (p *Param) Set(raw any) error {
	v, err := p.typ.Convert(raw)
	if err != nil {
		return &ConversionError{Path: p.key, Type: p.typ.Name(), Value: raw, Err: err}
	}
	p.current = Provided(v)
	return nil
}

// Serialized returns the value as emitted by the serializers.
func (p *Param) Serialized() (any, error) {
	return p.Get()
}

func (p *Param) String() string {
	return fmt.Sprintf("Param(%s : %s = %s)", p.key, p.typ.Name(), p.Value())
}

// FlagStyle controls how dotted field paths become flag names.
type FlagStyle struct {
	Hyphenate bool // replace '_' with '-'
	Lowercase bool
}

// FlagSpec describes how one field maps to a command-line flag.
type FlagSpec struct {
	Name     string // flag name without leading dashes
	Dest     string // dotted path in the configuration
	Usage    string
	Required bool
	IsBool   bool
	Parse    func(string) (any, error)
}

// FlagSpec returns the command-line description of this field under prefix.
// Composite types parse their flag text as a YAML literal; scalar text is
// passed through for the field's own conversion.
func (p *Param) FlagSpec(prefix string, style FlagStyle) FlagSpec {
	dest := prefix + p.key
	name := dest
	if style.Hyphenate {
		name = strings.ReplaceAll(name, "_", "-")
	}
	if style.Lowercase {
		name = strings.ToLower(name)
	}

	parse := func(s string) (any, error) { return s, nil }
	if p.typ.IsComposite() {
		parse = parseYAMLLiteral
	}

	return FlagSpec{
		Name:     name,
		Dest:     dest,
		Usage:    p.desc,
		Required: p.required,
		IsBool:   p.typ.Name() == Bool.Name(),
		Parse:    parse,
	}
}

// parseYAMLLiteral decodes text such as "[a, b]" or "{k: v}" into plain values.
func parseYAMLLiteral(s string) (any, error) {
	var out any
	if err := yaml.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("invalid YAML literal %q: %w", s, err)
	}
	if m, ok := out.(map[string]any); ok {
		return m, nil
	}
	if m, ok := normalizeMap(out); ok {
		return m, nil
	}
	return out, nil
}
