package todo

import (
	"encoding/json"
	"fmt"
	"time"
)

// Rejection records why one element of a stored todos payload was dropped.
type Rejection struct {
	Index  int
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("[%d]: %s", r.Index, r.Reason)
}

// ValidateTodos rebuilds a well-typed collection from an arbitrary stored
// payload. A payload that is not a JSON array yields an empty collection.
// Elements that are not objects with string id/title/date, boolean
// completed, and description absent or a string are dropped; the returned
// rejections say which and why. Timestamps are parsed best-effort: an
// unparseable createdAt/updatedAt becomes the zero time, which formatting
// downstream must tolerate.
func ValidateTodos(data []byte) ([]Todo, []Rejection) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return []Todo{}, nil
	}

	todos := make([]Todo, 0, len(elems))
	var rejected []Rejection
	for i, elem := range elems {
		t, reason := parseTodo(elem)
		if reason != "" {
			rejected = append(rejected, Rejection{Index: i, Reason: reason})
			continue
		}
		todos = append(todos, t)
	}
	return todos, rejected
}

func parseTodo(elem json.RawMessage) (Todo, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return Todo{}, "not an object"
	}

	var t Todo
	if !stringField(fields, "id", &t.ID) {
		return Todo{}, "id missing or not a string"
	}
	if !stringField(fields, "title", &t.Title) {
		return Todo{}, "title missing or not a string"
	}
	if !stringField(fields, "date", &t.Date) {
		return Todo{}, "date missing or not a string"
	}
	raw, ok := fields["completed"]
	if !ok || isNull(raw) || json.Unmarshal(raw, &t.Completed) != nil {
		return Todo{}, "completed missing or not a boolean"
	}
	if raw, ok := fields["description"]; ok {
		if isNull(raw) || json.Unmarshal(raw, &t.Description) != nil {
			return Todo{}, "description present but not a string"
		}
	}
	t.CreatedAt = parseTimestamp(fields["createdAt"])
	t.UpdatedAt = parseTimestamp(fields["updatedAt"])
	return t, ""
}

func stringField(fields map[string]json.RawMessage, name string, out *string) bool {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// encoding/json leaves the target untouched on null, which would let a null
// id or completed slip through the type checks.
func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// parseTimestamp is best-effort: a missing, mistyped, or unparseable
// timestamp becomes the zero time sentinel rather than dropping the todo.
func parseTimestamp(raw json.RawMessage) time.Time {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, DateLayout} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// MigrateTodos fills in missing timestamps on an already-validated
// collection, stamping now where the stored payload had none.
func MigrateTodos(todos []Todo, now time.Time) []Todo {
	for i := range todos {
		if todos[i].CreatedAt.IsZero() {
			todos[i].CreatedAt = now
		}
		if todos[i].UpdatedAt.IsZero() {
			todos[i].UpdatedAt = now
		}
	}
	return todos
}

// ValidateTheme returns the stored theme if its mode is strictly "light" or
// "dark", and the light default otherwise.
func ValidateTheme(data []byte) Theme {
	defaultTheme := Theme{Mode: ModeLight}

	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return defaultTheme
	}
	if t.Mode != ModeLight && t.Mode != ModeDark {
		return defaultTheme
	}
	return t
}
