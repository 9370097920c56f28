package schemaconf

import (
	"fmt"
	"reflect"
	"strings"
)

// SchemaOf derives a schema from a struct value whose field values are the defaults.
//
// Field keys come from the `yaml` tag or the Go field name; `yaml:"-"` and
// unexported fields are skipped. Nested structs (or non-nil pointers to
// them) become sections. Embedded structs, and fields tagged `yaml:",inline"`,
// become base schemas, so an outer field with the same key overrides the
// embedded default while keeping the embedded position. A `required:"true"`
// tag drops the default; `desc:"..."` sets the description. Fields of
// unsupported kinds (funcs, channels, complex numbers) are not configuration
// fields and are ignored.
func SchemaOf(structWithDefaults any) (*Schema, error) {
	v := reflect.ValueOf(structWithDefaults)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, &SchemaError{Msg: "SchemaOf requires a non-nil struct pointer or value"}
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, &SchemaError{Msg: fmt.Sprintf("SchemaOf requires a struct or struct pointer, got %T", structWithDefaults)}
	}

	var errs []string
	s := schemaFromStruct(v, "", &errs)

	if len(errs) > 0 {
		return nil, &SchemaError{Msg: fmt.Sprintf("failed to register %d field(s): %s", len(errs), strings.Join(errs, "; "))}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// schemaFromStruct handles the recursive field registration.
func schemaFromStruct(v reflect.Value, fieldPath string, errs *[]string) *Schema {
	t := v.Type()

	var bases []*Schema
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if _, inline, skip := fieldKey(field); !skip && inline {
			if nested, ok := sectionValue(v.Field(i)); ok {
				bases = append(bases, schemaFromStruct(nested, fieldPath+field.Name+".", errs))
			}
		}
	}

	name := t.Name()
	if name == "" {
		name = strings.TrimSuffix(fieldPath, ".")
	}
	s := NewSchema(name, bases...)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		key, inline, skip := fieldKey(field)
		if skip || inline {
			continue
		}

		if nested, ok := sectionValue(fieldValue); ok {
			s.Section(key, schemaFromStruct(nested, fieldPath+field.Name+".", errs))
			continue
		}

		typ, ok := typeFromReflect(field.Type)
		if !ok {
			continue
		}

		opts := []ParamOption{WithDesc(field.Tag.Get("desc"))}

		if field.Tag.Get("required") == "true" {
			s.AddParam(NewParam(key, typ, Required(), opts...))
			continue
		}

		def := fieldValue.Interface()
		if field.Type.PkgPath() == "" && field.Type.Kind() != reflect.Interface && field.Type.Kind() != reflect.Ptr {
			// unnamed kinds share the representation values get after Set
			converted, err := typ.Convert(def)
			if err != nil {
				*errs = append(*errs, fmt.Sprintf("field %s%s (key %s): %v", fieldPath, field.Name, key, err))
				continue
			}
			def = converted
		}
		s.AddParam(NewParam(key, typ, Provided(def), opts...))
	}

	return s
}

// fieldKey resolves the config key of a struct field.
// Embedded structs without an explicit name are inlined.
func fieldKey(field reflect.StructField) (key string, inline bool, skip bool) {
	tag := field.Tag.Get(TagName)
	if tag == "-" {
		return "", false, true
	}

	key = field.Name
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		key = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "inline" {
			inline = true
		}
	}
	if field.Anonymous && parts[0] == "" {
		if _, ok := sectionType(field.Type); ok {
			inline = true
		}
	}
	return key, inline, false
}

// sectionType reports whether t is a struct (or pointer to one) treated as a
// nested section rather than a leaf value.
func sectionType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	switch t {
	case timeType, urlType, ipNetType:
		return nil, false
	}
	return t, true
}

// sectionValue returns the struct value of a section field. Nil pointers
// yield the zero struct so the section still exists with zero defaults.
func sectionValue(v reflect.Value) (reflect.Value, bool) {
	st, ok := sectionType(v.Type())
	if !ok {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.New(st).Elem(), true
		}
		return v.Elem(), true
	}
	return v, true
}
