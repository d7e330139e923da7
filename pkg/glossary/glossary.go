// Package glossary corrects transcribed text against a user-maintained
// list of known misspellings and their canonical forms.
package glossary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEmptyKey is returned when an entry has a blank key
	ErrEmptyKey = errors.New("glossary key cannot be empty")

	// ErrEmptyValue is returned when an entry has a blank canonical value
	ErrEmptyValue = errors.New("glossary value cannot be empty")

	// ErrKeyNotFound is returned when removing a key that is not present
	ErrKeyNotFound = errors.New("glossary key not found")
)

// Entry maps an incorrect surface form to its canonical spelling
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Glossary is an ordered set of entries with case-insensitively unique keys.
// Insertion order is kept; it breaks ties between keys of equal length.
type Glossary struct {
	entries []Entry
	index   map[string]int
}

// New builds a glossary from entries. A later entry whose key matches an
// earlier one case-insensitively replaces its value in place.
func New(entries ...Entry) (*Glossary, error) {
	g := &Glossary{index: make(map[string]int)}
	for _, e := range entries {
		if err := g.Set(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// MustNew is like New but panics on invalid entries
func MustNew(entries ...Entry) *Glossary {
	g, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return g
}

func foldKey(key string) string {
	return strings.ToLower(key)
}

// Len returns the number of entries
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Entries returns a copy of the entries in insertion order
func (g *Glossary) Entries() []Entry {
	if g == nil {
		return nil
	}
	return append([]Entry(nil), g.entries...)
}

// Get looks up the canonical value for key, ignoring case
func (g *Glossary) Get(key string) (string, bool) {
	if g == nil {
		return "", false
	}
	i, ok := g.index[foldKey(strings.TrimSpace(key))]
	if !ok {
		return "", false
	}
	return g.entries[i].Value, true
}

// Set adds an entry or replaces the value of an existing key.
// Keys and values are trimmed and must not be empty.
func (g *Glossary) Set(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return ErrEmptyKey
	}
	if value == "" {
		return fmt.Errorf("%w: key %q", ErrEmptyValue, key)
	}

	if g.index == nil {
		g.index = make(map[string]int)
	}

	folded := foldKey(key)
	if i, ok := g.index[folded]; ok {
		g.entries[i] = Entry{Key: key, Value: value}
		return nil
	}

	g.index[folded] = len(g.entries)
	g.entries = append(g.entries, Entry{Key: key, Value: value})
	return nil
}

// Delete removes key, ignoring case. It reports whether the key existed.
func (g *Glossary) Delete(key string) bool {
	if g == nil {
		return false
	}
	folded := foldKey(strings.TrimSpace(key))
	i, ok := g.index[folded]
	if !ok {
		return false
	}

	g.entries = append(g.entries[:i], g.entries[i+1:]...)
	delete(g.index, folded)
	for j := i; j < len(g.entries); j++ {
		g.index[foldKey(g.entries[j].Key)] = j
	}
	return true
}

// Clone returns an independent copy
func (g *Glossary) Clone() *Glossary {
	c := &Glossary{index: make(map[string]int, g.Len())}
	if g == nil {
		return c
	}
	c.entries = append([]Entry(nil), g.entries...)
	for k, v := range g.index {
		c.index[k] = v
	}
	return c
}

// MarshalJSON writes the glossary as a JSON object in insertion order
func (g *Glossary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range g.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(e.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshalString(e.Value)
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

// marshalString encodes s without escaping HTML characters
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads a JSON object of string pairs, keeping key order
func (g *Glossary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read glossary: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("glossary must be a JSON object")
	}

	parsed := &Glossary{index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read glossary key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("glossary key must be a string")
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("glossary value for %q must be a string: %w", key, err)
		}
		if err := parsed.Set(key, value); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read glossary: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after glossary object")
	}

	*g = *parsed
	return nil
}

// Encode writes g as indented JSON
func Encode(w io.Writer, g *Glossary) error {
	data, err := g.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode glossary: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("failed to indent glossary: %w", err)
	}
	buf.WriteByte('\n')

	_, err = w.Write(buf.Bytes())
	return err
}
