package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Object is a decoded JSON object whose fields are read on demand. The
// catalog is loose about types (numbers arrive as strings and vice versa), so
// accessors coerce where it is unambiguous.
type Object map[string]json.RawMessage

var jsonNull = []byte("null")

// Has reports whether key is present and not null.
func (o Object) Has(key string) bool {
	raw, ok := o[key]
	return ok && len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// Identifies reports whether o names a catalog entry: a type, a title or an
// external id. A parsed but empty reply does not.
func (o Object) Identifies() bool {
	for _, key := range []string{"type", "title", "imdbID", "tmdbID"} {
		if o.String(key) != "" {
			return true
		}
	}
	return false
}

// Raw returns the undecoded value for key, or nil when absent or null.
func (o Object) Raw(key string) json.RawMessage {
	if !o.Has(key) {
		return nil
	}
	return o[key]
}

// String returns a string or number value as text.
func (o Object) String(key string) string {
	if !o.Has(key) {
		return ""
	}
	raw := o[key]
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Int64 returns a numeric value, accepting numeric strings.
func (o Object) Int64(key string) (int64, bool) {
	text := o.String(key)
	if text == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// Int is Int64 narrowed to int.
func (o Object) Int(key string) (int, bool) {
	v, ok := o.Int64(key)
	return int(v), ok
}

// Float returns a numeric value as float64.
func (o Object) Float(key string) (float64, bool) {
	text := o.String(key)
	if text == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	return f, err == nil
}

// Bool returns a boolean value.
func (o Object) Bool(key string) (bool, bool) {
	if !o.Has(key) {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(o[key], &b); err != nil {
		return false, false
	}
	return b, true
}

// Strings returns an array of strings. Non-string elements are skipped.
func (o Object) Strings(key string) []string {
	if !o.Has(key) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(o[key], &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// List returns an array, or a comma-separated string split into items.
func (o Object) List(key string) []string {
	if items := o.Strings(key); items != nil {
		return items
	}
	text := o.String(key)
	if text == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Objects returns an array of objects.
func (o Object) Objects(key string) []Object {
	if !o.Has(key) {
		return nil
	}
	var out []Object
	if err := json.Unmarshal(o[key], &out); err != nil {
		return nil
	}
	return out
}

// Set replaces key with a JSON-encoded value.
func (o Object) Set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	o[key] = data
}
