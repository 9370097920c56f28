package schemaconf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ToMap serializes the tree into plain nested maps of resolved values.
// It fails when a required field is still unresolved.
func (t *Tree) ToMap() (map[string]any, error) {
	out := make(map[string]any, len(t.keys))
	for _, key := range t.keys {
		if sub, ok := t.sections[key]; ok {
			m, err := sub.ToMap()
			if err != nil {
				return nil, err
			}
			out[key] = m
			continue
		}
		v, err := t.params[key].Serialized()
		if err != nil {
			return nil, qualify(err, joinPath(t.prefix, key))
		}
		out[key] = v
	}
	return out, nil
}

// Flatten returns resolved leaf values keyed by full dotted path.
func (t *Tree) Flatten() (map[string]any, error) {
	m, err := t.ToMap()
	if err != nil {
		return nil, err
	}
	return flattenMap(m, t.prefix), nil
}

// yamlNode renders the tree as a mapping node keeping schema order.
func (t *Tree) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range t.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}

		var valueNode *yaml.Node
		if sub, ok := t.sections[key]; ok {
			n, err := sub.yamlNode()
			if err != nil {
				return nil, err
			}
			valueNode = n
		} else {
			v, err := t.params[key].Serialized()
			if err != nil {
				return nil, qualify(err, joinPath(t.prefix, key))
			}
			valueNode = &yaml.Node{}
			if err := valueNode.Encode(v); err != nil {
				return nil, fmt.Errorf("failed to encode %q: %w", joinPath(t.prefix, key), err)
			}
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// YAML renders the tree as a YAML document in schema order.
func (t *Tree) YAML() ([]byte, error) {
	node, err := t.yamlNode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("failed to marshal config data to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal config data to YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ToYAML returns the YAML text of the tree.
func (t *Tree) ToYAML() (string, error) {
	data, err := t.YAML()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteYAML writes the YAML text to w and also returns it.
func (t *Tree) WriteYAML(w io.Writer) (string, error) {
	data, err := t.YAML()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("failed to write YAML: %w", err)
	}
	return string(data), nil
}

// SaveYAML atomically writes the YAML text to path and also returns it.
func (t *Tree) SaveYAML(path string) (string, error) {
	data, err := t.YAML()
	if err != nil {
		return "", err
	}
	if err := atomicWriteFile(path, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// JSON renders the tree as indented JSON. Key order is alphabetical.
func (t *Tree) JSON() ([]byte, error) {
	m, err := t.ToMap()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config data to JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// TOML renders the tree as a TOML document.
func (t *Tree) TOML() ([]byte, error) {
	m, err := t.ToMap()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to marshal config data to TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// Save atomically writes the tree to path in the format implied by its
// extension, defaulting to YAML.
func (t *Tree) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch detectFileFormat(path) {
	case FormatJSON:
		data, err = t.JSON()
	case FormatTOML:
		data, err = t.TOML()
	default:
		data, err = t.YAML()
	}
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data)
}
