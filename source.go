package schemaconf

import "io"

// FromMap builds a tree from an in-memory mapping. It is New under the
// factory naming used by the other sources.
func FromMap(schema *Schema, values map[string]any, opts ...Option) (*Tree, error) {
	return New(schema, values, opts...)
}

// Load builds a tree from a configuration file (YAML, JSON or TOML by extension).
func Load(schema *Schema, path string, opts ...Option) (*Tree, error) {
	values, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(schema, values, opts...)
}

// LoadReader builds a tree from a YAML stream.
func LoadReader(schema *Schema, r io.Reader, opts ...Option) (*Tree, error) {
	values, err := ReadYAML(r, "<reader>")
	if err != nil {
		return nil, err
	}
	return New(schema, values, opts...)
}

// Parse builds a tree from YAML text.
func Parse(schema *Schema, data []byte, opts ...Option) (*Tree, error) {
	values, err := Decode(data, FormatYAML, "<string>")
	if err != nil {
		return nil, err
	}
	return New(schema, values, opts...)
}
