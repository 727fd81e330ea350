package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

const dateField = "date"

// HabitMarks maps category id to "done" for a single day and keeps the
// insertion order of ids. A missing id reads as false.
type HabitMarks struct {
	order []string
	done  map[string]bool
}

func (m HabitMarks) Get(id string) bool {
	return m.done[id]
}

func (m HabitMarks) Has(id string) bool {
	_, ok := m.done[id]
	return ok
}

func (m *HabitMarks) Set(id string, v bool) {
	if m.done == nil {
		m.done = make(map[string]bool)
	}
	if _, ok := m.done[id]; !ok {
		m.order = append(m.order, id)
	}
	m.done[id] = v
}

func (m HabitMarks) Len() int {
	return len(m.order)
}

func (m HabitMarks) IDs() []string {
	return append([]string(nil), m.order...)
}

func (m HabitMarks) Clone() HabitMarks {
	out := HabitMarks{order: append([]string(nil), m.order...)}
	if m.done != nil {
		out.done = make(map[string]bool, len(m.done))
		for k, v := range m.done {
			out.done[k] = v
		}
	}
	return out
}

// DailyHabitEntry holds the habit-category marks of one date. On the wire it
// is the flat object {"date": "...", "<category id>": bool}.
type DailyHabitEntry struct {
	Date  string
	Marks HabitMarks
}

func NewDailyHabitEntry(date string) DailyHabitEntry {
	return DailyHabitEntry{Date: date}
}

func (e DailyHabitEntry) Done(id string) bool {
	return e.Marks.Get(id)
}

// Toggle flips id, or marks it done when it has never been set.
// The date field is not a habit and is ignored.
func (e DailyHabitEntry) Toggle(id string) DailyHabitEntry {
	if id == dateField || id == "" {
		return e
	}
	next := DailyHabitEntry{Date: e.Date, Marks: e.Marks.Clone()}
	if next.Marks.Has(id) {
		next.Marks.Set(id, !next.Marks.Get(id))
	} else {
		next.Marks.Set(id, true)
	}
	return next
}

func (e DailyHabitEntry) Clone() DailyHabitEntry {
	return DailyHabitEntry{Date: e.Date, Marks: e.Marks.Clone()}
}

func (e DailyHabitEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	date, err := json.Marshal(e.Date)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"date":`)
	buf.Write(date)

	for _, id := range e.Marks.order {
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		if e.Marks.done[id] {
			buf.WriteString(":true")
		} else {
			buf.WriteString(":false")
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps boolean fields only; anything else is not a habit mark.
// Ids are ordered alphabetically since JSON objects carry no order.
func (e *DailyHabitEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := DailyHabitEntry{}
	if d, ok := raw[dateField]; ok {
		_ = json.Unmarshal(d, &out.Date)
	}

	ids := make([]string, 0, len(raw))
	for k := range raw {
		if k != dateField {
			ids = append(ids, k)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		var v bool
		if bytes.Equal(raw[id], []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw[id], &v); err != nil {
			continue
		}
		out.Marks.Set(id, v)
	}

	*e = out
	return nil
}
