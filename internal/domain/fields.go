package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fields is an insertion-ordered mapping from header name to value. Setting
// an existing key replaces its value in place. The zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]string
}

// Set stores value under key.
func (f *Fields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f Fields) Len() int { return len(f.keys) }

// Merge copies every key of other into f. Keys absent from other are left
// untouched.
func (f *Fields) Merge(other Fields) {
	for _, k := range other.keys {
		f.Set(k, other.values[k])
	}
}

// Clone returns an independent copy of f.
func (f Fields) Clone() Fields {
	var out Fields
	out.Merge(f)
	return out
}

// Map returns the fields as a plain map.
func (f Fields) Map() map[string]string {
	out := make(map[string]string, len(f.keys))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the fields as an object with keys in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of string values, keeping key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}

	*f = Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: expected string key, got %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("fields: value for %q: %w", key, err)
		}
		f.Set(key, value)
	}
	_, err = dec.Token()
	return err
}
