package models

import (
	"bytes"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// Layouts accepted when reading timestamps. Records written by older
// versions of the service carry naive local times without an offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Timestamp is a creation time that reads RFC 3339, naive ISO 8601, and
// epoch milliseconds, and always writes RFC 3339. Values it cannot
// interpret are kept verbatim so a rewrite of the store never loses them.
type Timestamp struct {
	time.Time
	raw json.RawMessage
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// IsZero reports whether no time, parsed or verbatim, is held.
func (t Timestamp) IsZero() bool {
	return t.raw == nil && t.Time.IsZero()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, ok := parseTimestamp(s); ok {
			t.Time = parsed
			return nil
		}
		t.raw = append(json.RawMessage(nil), data...)
		return nil
	}

	var ms json.Number
	if err := json.Unmarshal(data, &ms); err == nil {
		if n, err := ms.Int64(); err == nil {
			t.Time = time.UnixMilli(n).UTC()
		}
	}
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (t Timestamp) MarshalYAML() (any, error) {
	if t.raw != nil {
		var v any
		if err := json.Unmarshal(t.raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return t.Time, nil
}

func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	*t = Timestamp{}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if parsed, ok := parseTimestamp(s); ok {
		t.Time = parsed
	}
	return nil
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		loc := time.Local
		if layout == time.RFC3339Nano {
			loc = time.UTC
		}
		if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
