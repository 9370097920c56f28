package schemaconf

import (
	"fmt"
	"strings"
)

// Field is one ordered schema entry: either a leaf Param or a nested Section.
type Field struct {
	Key     string
	Param   *Param
	Section *Schema
}

// IsSection reports whether the field refers to a nested schema.
func (f Field) IsSection() bool { return f.Section != nil }

// Schema declares configuration fields in order. Schemas are read-only
// templates once built: trees copy their params and never mutate them.
//
//	server := schemaconf.NewSchema("Server").
//	    Field("host", schemaconf.String, "localhost").
//	    Field("port", schemaconf.Int, 8080)
//	app := schemaconf.NewSchema("App").
//	    Require("name", schemaconf.String).
//	    Section("server", server)
type Schema struct {
	name  string
	bases []*Schema
	decls []Field
	err   error
}

// NewSchema creates an empty schema. Fields of bases are inherited in order,
// with later bases and the schema's own declarations overriding earlier ones.
func NewSchema(name string, bases ...*Schema) *Schema {
	s := &Schema{name: name}
	for _, base := range bases {
		if base == nil {
			s.fail("", "nil base schema")
			continue
		}
		s.bases = append(s.bases, base)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Err returns the first declaration error of this schema or any schema it references.
func (s *Schema) Err() error {
	return s.check(map[*Schema]bool{})
}

func (s *Schema) check(visiting map[*Schema]bool) error {
	if visiting[s] {
		return &SchemaError{Msg: fmt.Sprintf("schema %q references itself", s.name)}
	}
	visiting[s] = true
	defer delete(visiting, s)

	if s.err != nil {
		return s.err
	}
	for _, base := range s.bases {
		if err := base.check(visiting); err != nil {
			return err
		}
	}
	for _, d := range s.decls {
		if d.Section != nil {
			if err := d.Section.check(visiting); err != nil {
				return err
			}
		}
	}
	return nil
}

// Field declares a typed field. def may be a Value variant; any other value is its default.
func (s *Schema) Field(key string, typ Type, def any, opts ...ParamOption) *Schema {
	dv, ok := def.(Value)
	if !ok {
		dv = Provided(def)
	}
	return s.AddParam(NewParam(key, typ, dv, opts...))
}

// Require declares a field that has no default and must be supplied.
func (s *Schema) Require(key string, typ Type, opts ...ParamOption) *Schema {
	return s.AddParam(NewParam(key, typ, Required(), opts...))
}

// AddParam declares a prebuilt descriptor. Trees receive fresh copies of it.
func (s *Schema) AddParam(p *Param) *Schema {
	if p == nil {
		s.fail("", "nil param")
		return s
	}
	return s.declare(Field{Key: p.Key(), Param: p.Copy()})
}

// Section declares a nested schema under key.
func (s *Schema) Section(key string, sub *Schema) *Schema {
	if sub == nil {
		s.fail(key, "nil section schema")
		return s
	}
	return s.declare(Field{Key: key, Section: sub})
}

// Declare classifies an untyped value the way a literal default would be read:
// a *Schema becomes a section, a *Param is copied, nil becomes an Any field,
// and strings, booleans, numbers, durations, lists and mappings take their own
// type. Any other value is not a configuration field and is ignored.
func (s *Schema) Declare(key string, v any) *Schema {
	switch val := v.(type) {
	case *Schema:
		return s.Section(key, val)
	case *Param:
		if val == nil {
			return s
		}
		c := val.Copy()
		c.key = key
		return s.declare(Field{Key: key, Param: c})
	}
	typ, ok := typeForValue(v)
	if !ok {
		return s
	}
	return s.AddParam(NewParam(key, typ, Provided(v)))
}

func (s *Schema) declare(f Field) *Schema {
	if strings.HasPrefix(f.Key, "_") {
		return s
	}
	if !isValidKeySegment(f.Key) {
		s.fail(f.Key, "invalid field key")
		return s
	}
	s.decls = append(s.decls, f)
	return s
}

func (s *Schema) fail(key, msg string) {
	if s.err == nil {
		s.err = &SchemaError{Path: key, Msg: fmt.Sprintf("%s in schema %q", msg, s.name)}
	}
}

// Fields returns the ordered field list: bases first, then own declarations.
// A redeclared key keeps the position where it was first seen and takes the
// last declaration's value. Params are fresh copies on every call.
func (s *Schema) Fields() []Field {
	var order []string
	merged := make(map[string]Field)
	s.collect(&order, merged)

	fields := make([]Field, 0, len(order))
	for _, key := range order {
		f := merged[key]
		if f.Param != nil {
			f.Param = f.Param.Copy()
		}
		fields = append(fields, f)
	}
	return fields
}

func (s *Schema) collect(order *[]string, merged map[string]Field) {
	for _, base := range s.bases {
		base.collect(order, merged)
	}
	for _, d := range s.decls {
		if _, seen := merged[d.Key]; !seen {
			*order = append(*order, d.Key)
		}
		merged[d.Key] = d
	}
}

// Lookup returns the resolved field for key.
func (s *Schema) Lookup(key string) (Field, bool) {
	for _, f := range s.Fields() {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Keys returns field keys in order.
func (s *Schema) Keys() []string {
	fields := s.Fields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}
