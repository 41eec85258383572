package materialize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ManifestFileName is the name of the package manifest files.
const ManifestFileName = "package.json"

// Dependency sections of a manifest.
const (
	Dependencies    = "dependencies"
	DevDependencies = "devDependencies"
)

// Manifest is a package.json document which keeps the order of its top
// level fields when written back.
type Manifest struct {
	keys   []string
	values map[string]json.RawMessage
}

// ParseManifest parses a package.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing manifest: expected object")
	}

	m := &Manifest{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing manifest: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing manifest field %q: %w", key, err)
		}
		if _, dup := m.values[key]; !dup {
			m.keys = append(m.keys, key)
		}
		m.values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// Name returns the package name, or "" when absent.
func (m *Manifest) Name() string {
	var name string
	_, _ = m.Get("name", &name)
	return name
}

// SetName sets the package name.
func (m *Manifest) SetName(name string) error {
	return m.Set("name", name)
}

// Has reports whether the field is present.
func (m *Manifest) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Get decodes the field into v and reports whether it was present.
func (m *Manifest) Get(key string, v interface{}) (bool, error) {
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding manifest field %q: %w", key, err)
	}
	return true, nil
}

// Set stores v under key. New fields are appended after existing ones.
func (m *Manifest) Set(key string, v interface{}) error {
	raw, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encoding manifest field %q: %w", key, err)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = raw
	return nil
}

// Delete removes the field.
func (m *Manifest) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Dependencies returns the dependency map of the given section. The result
// is never nil.
func (m *Manifest) Dependencies(section string) (map[string]string, error) {
	deps := make(map[string]string)
	if _, err := m.Get(section, &deps); err != nil {
		return nil, err
	}
	return deps, nil
}

// SetDependencies replaces the dependency map of the given section. An empty
// map is only written when the section already exists.
func (m *Manifest) SetDependencies(section string, deps map[string]string) error {
	if len(deps) == 0 && !m.Has(section) {
		return nil
	}
	// encoding/json writes map keys sorted.
	return m.Set(section, deps)
}

// Marshal encodes the manifest with two-space indentation and a trailing
// newline.
func (m *Manifest) Marshal() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		k, err := marshal(key)
		if err != nil {
			return nil, err
		}
		compact.Write(k)
		compact.WriteByte(':')
		compact.Write(m.values[key])
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
