package schemaconf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Option configures tree construction.
type Option func(*options)

type options struct {
	extra    ExtraPolicy
	extraSet bool
	logger   *zap.Logger
}

// WithExtra sets the extra-keys policy, overriding SCHEMACONF_EXTRA.
func WithExtra(p ExtraPolicy) Option {
	return func(o *options) {
		o.extra = p
		o.extraSet = true
	}
}

// WithLogger sets the logger receiving extra-keys warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func resolveOptions(opts []Option) (options, error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var err error
	if o.extraSet {
		o.extra, err = ParseExtraPolicy(string(o.extra))
	} else {
		o.extra, err = DefaultExtraPolicy()
	}
	if err != nil {
		return o, err
	}

	if o.logger == nil {
		o.logger = Logger()
	}
	return o, nil
}

// Tree is a resolved configuration: an ordered mapping from key to either a
// leaf Param or a nested Tree. Its key set is fixed at construction; leaf
// values may be reassigned through Set, which re-runs type conversion.
type Tree struct {
	schema   *Schema
	prefix   string
	keys     []string
	params   map[string]*Param
	sections map[string]*Tree
	opts     options
}

// New builds a tree from schema and a raw values mapping. Every schema key is
// present in the result; values for leaves are converted by the field type,
// values for sections must be mappings. Keys the schema does not declare are
// handled by the extra-keys policy. values is not modified.
func New(schema *Schema, values map[string]any, opts ...Option) (*Tree, error) {
	if schema == nil {
		return nil, &SchemaError{Msg: "nil schema"}
	}
	if err := schema.Err(); err != nil {
		return nil, err
	}
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return build(schema, "", values, o)
}

func build(schema *Schema, prefix string, values map[string]any, o options) (*Tree, error) {
	remaining := make(map[string]any, len(values))
	for k, v := range values {
		remaining[k] = v
	}

	fields := schema.Fields()
	t := &Tree{
		schema:   schema,
		prefix:   prefix,
		keys:     make([]string, 0, len(fields)),
		params:   make(map[string]*Param),
		sections: make(map[string]*Tree),
		opts:     o,
	}

	for _, f := range fields {
		raw, supplied := remaining[f.Key]
		delete(remaining, f.Key)
		path := joinPath(prefix, f.Key)

		if f.Param != nil {
			p := f.Param
			if supplied {
				if err := p.Set(raw); err != nil {
					return nil, qualify(err, path)
				}
			}
			t.params[f.Key] = p
		} else {
			sub := map[string]any{}
			if supplied {
				m, ok := normalizeMap(raw)
				if !ok {
					return nil, &SchemaError{
						Path: path,
						Msg:  fmt.Sprintf("section must be a mapping, received %s", typeName(raw)),
					}
				}
				sub = m
			}
			child, err := build(f.Section, path, sub, o)
			if err != nil {
				return nil, err
			}
			t.sections[f.Key] = child
		}
		t.keys = append(t.keys, f.Key)
	}

	if len(remaining) > 0 {
		if err := t.handleExtras(remaining); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tree) handleExtras(extra map[string]any) error {
	switch t.opts.extra {
	case ExtraRaise:
		return &ExtraValuesError{Path: t.prefix, Values: extra}
	case ExtraWarn:
		keys := sortedKeys(extra)
		for i, k := range keys {
			keys[i] = joinPath(t.prefix, k)
		}
		t.opts.logger.Warn("received unexpected config values",
			zap.String("path", t.prefix),
			zap.Strings("keys", keys),
			zap.Any("values", extra),
			zap.String("hint", fmt.Sprintf("to disable this warning use WithExtra(%q) or set %s=%s", ExtraIgnore, EnvExtraPolicy, ExtraIgnore)),
		)
	}
	return nil
}

// qualify rewrites leaf-relative error paths to full dotted paths.
func qualify(err error, path string) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		ce.Path = path
	}
	var me *MissingRequiredError
	if errors.As(err, &me) {
		me.Paths = []string{path}
	}
	return err
}

// Schema returns the schema the tree was built from.
func (t *Tree) Schema() *Schema { return t.schema }

// Path returns the dotted path of this tree from the root; "" for the root.
func (t *Tree) Path() string { return t.prefix }

// Keys returns the tree's keys in schema order.
func (t *Tree) Keys() []string {
	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// locate walks path down to the tree owning its last segment.
func (t *Tree) locate(path string) (*Tree, string, error) {
	segments := strings.Split(path, ".")
	current := t
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current.sections[segment]
		if !ok {
			return nil, "", &UnknownKeyError{Path: joinPath(t.prefix, path)}
		}
		current = next
	}

	last := segments[len(segments)-1]
	if _, ok := current.params[last]; ok {
		return current, last, nil
	}
	if _, ok := current.sections[last]; ok {
		return current, last, nil
	}
	return nil, "", &UnknownKeyError{Path: joinPath(t.prefix, path)}
}

// Has reports whether path names a field or section.
func (t *Tree) Has(path string) bool {
	_, _, err := t.locate(path)
	return err == nil
}

// Get returns the resolved value at a dotted path, or the nested *Tree for a
// section. An unresolved required field fails with MissingRequiredError.
func (t *Tree) Get(path string) (any, error) {
	owner, key, err := t.locate(path)
	if err != nil {
		return nil, err
	}
	if sub, ok := owner.sections[key]; ok {
		return sub, nil
	}
	v, err := owner.params[key].Get()
	if err != nil {
		return nil, qualify(err, joinPath(owner.prefix, key))
	}
	return v, nil
}

// Set assigns a value at a dotted path. Leaves convert value with their type.
// A section accepts a *Tree built from the same schema, or a mapping which is
// rebuilt through the section schema.
func (t *Tree) Set(path string, value any) error {
	owner, key, err := t.locate(path)
	if err != nil {
		return err
	}
	full := joinPath(owner.prefix, key)

	if p, ok := owner.params[key]; ok {
		if err := p.Set(value); err != nil {
			return qualify(err, full)
		}
		return nil
	}

	current := owner.sections[key]
	switch v := value.(type) {
	case *Tree:
		if v == nil || v.schema != current.schema {
			return &SchemaError{Path: full, Msg: fmt.Sprintf("replacement must be a tree of schema %q", current.schema.Name())}
		}
		replacement := v.Clone()
		replacement.rebase(full)
		owner.sections[key] = replacement
		return nil
	default:
		m, ok := normalizeMap(value)
		if !ok {
			return &SchemaError{Path: full, Msg: fmt.Sprintf("section must be a mapping, received %s", typeName(value))}
		}
		replacement, err := build(current.schema, full, m, owner.opts)
		if err != nil {
			return err
		}
		owner.sections[key] = replacement
		return nil
	}
}

func (t *Tree) rebase(prefix string) {
	t.prefix = prefix
	for key, sub := range t.sections {
		sub.rebase(joinPath(prefix, key))
	}
}

// Section returns the nested tree at path.
func (t *Tree) Section(path string) (*Tree, error) {
	owner, key, err := t.locate(path)
	if err != nil {
		return nil, err
	}
	sub, ok := owner.sections[key]
	if !ok {
		return nil, &SchemaError{Path: joinPath(owner.prefix, key), Msg: "not a section"}
	}
	return sub, nil
}

// Param returns the leaf descriptor at path.
func (t *Tree) Param(path string) (*Param, error) {
	owner, key, err := t.locate(path)
	if err != nil {
		return nil, err
	}
	p, ok := owner.params[key]
	if !ok {
		return nil, &SchemaError{Path: joinPath(owner.prefix, key), Msg: "not a field"}
	}
	return p, nil
}

// Walk calls fn for every leaf in schema order, depth first, with its full path.
func (t *Tree) Walk(fn func(path string, p *Param) error) error {
	for _, key := range t.keys {
		if sub, ok := t.sections[key]; ok {
			if err := sub.Walk(fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(joinPath(t.prefix, key), t.params[key]); err != nil {
			return err
		}
	}
	return nil
}

// Validate fails with MissingRequiredError listing every required field
// that has neither a supplied value nor a default.
func (t *Tree) Validate() error {
	var missing []string
	_ = t.Walk(func(path string, p *Param) error {
		if p.IsRequired() && p.Value().IsRequired() {
			missing = append(missing, path)
		}
		return nil
	})
	if len(missing) > 0 {
		return &MissingRequiredError{Paths: missing}
	}
	return nil
}

// Clone returns a deep copy sharing only the schema templates.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		schema:   t.schema,
		prefix:   t.prefix,
		keys:     t.Keys(),
		params:   make(map[string]*Param, len(t.params)),
		sections: make(map[string]*Tree, len(t.sections)),
		opts:     t.opts,
	}
	for k, p := range t.params {
		c.params[k] = p.clone()
	}
	for k, sub := range t.sections {
		c.sections[k] = sub.Clone()
	}
	return c
}

func (t *Tree) String() string {
	out, err := t.ToYAML()
	if err != nil {
		return fmt.Sprintf("%s(<%v>)", t.schema.Name(), err)
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return fmt.Sprintf("%s(\n  %s\n)", t.schema.Name(), strings.Join(lines, "\n  "))
}

// GetString retrieves a leaf as a string, converting scalars.
func (t *Tree) GetString(path string) (string, error) {
	val, err := t.leafValue(path)
	if err != nil {
		return "", err
	}
	s, err := toString(val)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// GetInt retrieves a leaf as an int, converting numbers and numeric strings.
func (t *Tree) GetInt(path string) (int, error) {
	val, err := t.leafValue(path)
	if err != nil {
		return 0, err
	}
	i, err := toInt(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return i, nil
}

// GetFloat retrieves a leaf as a float64.
func (t *Tree) GetFloat(path string) (float64, error) {
	val, err := t.leafValue(path)
	if err != nil {
		return 0, err
	}
	f, err := toFloat64(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// GetBool retrieves a leaf as a bool.
func (t *Tree) GetBool(path string) (bool, error) {
	val, err := t.leafValue(path)
	if err != nil {
		return false, err
	}
	b, err := toBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// GetDuration retrieves a leaf as a time.Duration.
func (t *Tree) GetDuration(path string) (time.Duration, error) {
	val, err := t.leafValue(path)
	if err != nil {
		return 0, err
	}
	d, err := toDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (t *Tree) leafValue(path string) (any, error) {
	val, err := t.Get(path)
	if err != nil {
		return nil, err
	}
	if _, ok := val.(*Tree); ok {
		return nil, &SchemaError{Path: joinPath(t.prefix, path), Msg: "not a field"}
	}
	return val, nil
}
