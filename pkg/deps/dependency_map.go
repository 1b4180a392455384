package deps

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// DependencyMap maps a project identity to the identities it imports
// directly. Keys keep the order in which the traversal first recorded them.
type DependencyMap struct {
	keys    []string
	entries map[string][]string
}

// NewDependencyMap returns an empty map.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{entries: make(map[string][]string)}
}

// Add records imports under name unless name already has an entry. It
// reports whether the entry was added.
func (m *DependencyMap) Add(name string, imports []string) bool {
	if _, ok := m.entries[name]; ok {
		return false
	}
	if imports == nil {
		imports = []string{}
	}
	m.keys = append(m.keys, name)
	m.entries[name] = imports
	return true
}

// Get returns the imports recorded for name.
func (m *DependencyMap) Get(name string) ([]string, bool) {
	imports, ok := m.entries[name]
	return imports, ok
}

// Has reports whether name has an entry.
func (m *DependencyMap) Has(name string) bool {
	_, ok := m.entries[name]
	return ok
}

// Keys returns the recorded identities in insertion order.
func (m *DependencyMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *DependencyMap) Len() int {
	return len(m.keys)
}

// Clear removes every entry.
func (m *DependencyMap) Clear() {
	m.keys = nil
	m.entries = make(map[string][]string)
}

// Map returns a copy as a plain map. Key order is lost.
func (m *DependencyMap) Map() map[string][]string {
	out := make(map[string][]string, len(m.keys))
	for _, k := range m.keys {
		out[k] = append([]string{}, m.entries[k]...)
	}
	return out
}

// MarshalJSON writes the map as a JSON object in insertion order.
func (m *DependencyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes the map as a YAML mapping in insertion order.
func (m *DependencyMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.keys {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, imp := range m.entries[k] {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: imp})
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			seq)
	}
	return node, nil
}
