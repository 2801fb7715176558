package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// errNotAnObject is returned when a Record is decoded from anything but a JSON object.
var errNotAnObject = errors.New("json value is not an object")

// nullLiteral is the JSON null token.
var nullLiteral = []byte("null")

// Record is a JSON object that remembers the order of its keys.
// The zero value is an empty record ready to use.
type Record struct {
	// keys holds the key order; a key appears once, at its first position.
	keys []string
	// values maps keys to their raw JSON values.
	values map[string]json.RawMessage
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{
		values: make(map[string]json.RawMessage),
	}
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.keys)
}

// Keys returns a copy of the keys in order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the raw value stored under key.
func (r *Record) Get(key string) (json.RawMessage, bool) {
	value, ok := r.values[key]

	return value, ok
}

// Set stores value under key. An existing key keeps its position.
func (r *Record) Set(key string, value json.RawMessage) {
	if r.values == nil {
		r.values = make(map[string]json.RawMessage)
	}

	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.values[key] = append(json.RawMessage(nil), value...)
}

// HasValue reports whether key is present and not null.
func (r *Record) HasValue(key string) bool {
	value, ok := r.values[key]

	return ok && !isNull(value)
}

// UnmarshalJSON decodes a JSON object keeping its key order.
// Duplicate keys keep their first position and their last value.
func (r *Record) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errNotAnObject
	}

	r.keys = nil
	r.values = make(map[string]json.RawMessage)

	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return err
		}

		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", token)
		}

		var value json.RawMessage
		if err = decoder.Decode(&value); err != nil {
			return fmt.Errorf("decode value of %q: %w", key, err)
		}

		r.Set(key, value)
	}

	// Closing brace.
	if _, err = decoder.Token(); err != nil {
		return err
	}

	return nil
}

// MarshalJSON encodes the record with keys in their original order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := writeString(&buf, key); err != nil {
			return nil, err
		}

		buf.WriteByte(':')

		value := r.values[key]
		if len(value) == 0 {
			value = nullLiteral
		}

		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(s); err != nil {
		return err
	}

	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)

	return nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), nullLiteral)
}
