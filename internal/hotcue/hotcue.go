package hotcue

import (
	"encoding/json"
	"sort"
)

// Alphabet is the fixed set of keys a hotcue can be bound to.
const Alphabet = "abcdefghijklmnopqrstuvwxyz"

// IsCueKey reports whether r is a bindable hotcue key.
func IsCueKey(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// Cue is a single timestamp marker bound to a key.
type Cue struct {
	Time  float64
	Label string
}

// wireCue is the structured wire form. Legacy entries are bare numbers
// (seconds); both are accepted on read, only this form is written.
type wireCue struct {
	Time float64 `json:"time"`
	Name string  `json:"name"`
}

// MarshalJSON always emits the structured {time, name} form.
func (c Cue) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireCue{Time: c.Time, Name: c.Label})
}

// UnmarshalJSON accepts either a bare number or a {time, name} object.
func (c *Cue) UnmarshalJSON(data []byte) error {
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err == nil {
		*c = Cue{Time: seconds}
		return nil
	}
	var w wireCue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Cue{Time: w.Time, Label: w.Name}
	return nil
}

// Set maps hotcue keys to cues. Keys are single lowercase letters.
type Set map[string]Cue

// Clone returns a structurally independent copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return Set{}
	}
	out := make(Set, len(s))
	for k, c := range s {
		out[k] = c
	}
	return out
}

// Equal reports exact equality of key sets, times, and labels.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for k, c := range s {
		o, ok := other[k]
		if !ok || o.Time != c.Time || o.Label != c.Label {
			return false
		}
	}
	return true
}

// Keys returns the bound keys in alphabet order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize decodes a raw wire mapping into a well-formed Set. Entries that
// are neither a number nor an object with a numeric time, entries with
// negative times, and entries whose key is not a single letter from the
// alphabet are dropped silently. Normalize is idempotent: re-encoding the
// result and normalizing again yields an equal set.
func Normalize(raw []byte) Set {
	out := Set{}
	if len(raw) == 0 {
		return out
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}
	for key, data := range entries {
		if len(key) != 1 || !IsCueKey(rune(key[0])) {
			continue
		}
		cue, ok := decodeEntry(data)
		if !ok {
			continue
		}
		out[key] = cue
	}
	return out
}

func decodeEntry(data []byte) (Cue, bool) {
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err == nil {
		if seconds < 0 {
			return Cue{}, false
		}
		return Cue{Time: seconds}, true
	}

	// Decode the object form by hand so a missing or non-numeric time is
	// distinguishable from a zero one.
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return Cue{}, false
	}
	rawTime, ok := obj["time"]
	if !ok {
		return Cue{}, false
	}
	var t float64
	if err := json.Unmarshal(rawTime, &t); err != nil || t < 0 {
		return Cue{}, false
	}
	var name string
	if rawName, ok := obj["name"]; ok {
		// A non-string name degrades to an empty label rather than
		// dropping the whole entry.
		_ = json.Unmarshal(rawName, &name)
	}
	return Cue{Time: t, Label: name}, true
}
