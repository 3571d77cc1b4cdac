package buildorder

import (
	"bytes"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EntryUnit is the only entry type that takes part in worker counting.
const EntryUnit = "Unit"

// legacyIndex is the key inside an entry's "unknown" object under which older
// summaries recorded creation timestamps for some units.
const legacyIndex = "14"

// Timestamps is a leniently decoded list of event times (seconds into the game).
// A field that is missing or null is absent; a field of the wrong shape decodes
// as empty and is flagged malformed instead of failing the whole payload.
type Timestamps struct {
	values    []float64
	present   bool
	malformed bool
}

// Times builds a present Timestamps list from the given values.
func Times(values ...float64) Timestamps {
	return Timestamps{values: values, present: true}
}

// Values returns the decoded timestamps in source order.
func (t Timestamps) Values() []float64 { return t.values }

// Present reports whether the field existed in the payload.
func (t Timestamps) Present() bool { return t.present }

// Malformed reports whether the field was present but not a list of numbers.
func (t Timestamps) Malformed() bool { return t.malformed }

// Len returns the number of decoded timestamps.
func (t Timestamps) Len() int { return len(t.values) }

// UnmarshalJSON never returns an error.
func (t *Timestamps) UnmarshalJSON(data []byte) error {
	*t = Timestamps{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	t.present = true

	// null elements would silently decode as 0
	if !bytes.Contains(data, []byte("null")) {
		var fast []float64
		if err := json.Unmarshal(data, &fast); err == nil {
			t.values = fast
			return nil
		}
	}

	var raw []jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.malformed = true
		return nil
	}

	// Keep whatever numbers are there
	t.values = make([]float64, 0, len(raw))
	for _, r := range raw {
		var v float64
		if bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			t.malformed = true
			continue
		}
		if err := json.Unmarshal(r, &v); err != nil {
			t.malformed = true
			continue
		}
		t.values = append(t.values, v)
	}
	return nil
}

// Entry is one unit/technology/building line of a player's build order.
type Entry struct {
	ID        string
	Type      string
	Icon      string
	Finished  Timestamps // primary creation times
	Legacy    Timestamps // creation times from unknown["14"]
	Destroyed Timestamps
}

// IsUnit reports whether the entry describes a produced unit.
func (e Entry) IsUnit() bool {
	return strings.EqualFold(e.Type, EntryUnit)
}

// UnmarshalJSON decodes an entry field by field so that one badly shaped
// field does not discard the others. It only fails when data is not an object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*e = Entry{}
	decodeString(fields["type"], &e.Type)
	decodeString(fields["icon"], &e.Icon)
	decodeID(fields["id"], &e.ID)

	e.Finished.UnmarshalJSON(fields["finished"])
	e.Destroyed.UnmarshalJSON(fields["destroyed"])

	if raw, ok := fields["unknown"]; ok {
		var indexed map[string]jsoniter.RawMessage
		if err := json.Unmarshal(raw, &indexed); err != nil {
			// "unknown" is not an object
			e.Legacy = Timestamps{present: true, malformed: true}
		} else {
			e.Legacy.UnmarshalJSON(indexed[legacyIndex])
		}
	}

	return nil
}

func decodeString(raw jsoniter.RawMessage, dst *string) {
	if len(raw) == 0 {
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*dst = s
	}
}

// decodeID accepts both string and numeric ids.
func decodeID(raw jsoniter.RawMessage, dst *string) {
	if len(raw) == 0 {
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*dst = s
		return
	}
	var n jsoniter.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		*dst = n.String()
	}
}
