// Package todo holds the canonical todo collection: the Todo and Theme
// types, validation of untrusted stored data, the repository that owns the
// list, and the pure derivations (grouping, ordering, filtering,
// highlighting) everything else renders from.
package todo

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Storage keys the app persists under.
const (
	KeyTodos = "todos"
	KeyTheme = "theme"
)

// DateLayout is the calendar-date form used for due dates.
const DateLayout = "2006-01-02"

// Todo is a single dated task.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ThemeMode is the persisted appearance choice.
type ThemeMode string

const (
	ModeLight ThemeMode = "light"
	ModeDark  ThemeMode = "dark"
)

// Theme is the persisted appearance preference.
type Theme struct {
	Mode         ThemeMode `json:"mode"`
	PrimaryColor string    `json:"primaryColor,omitempty"`
}

// Input is what the entry point collects before a todo exists.
type Input struct {
	Title       string
	Description string
	Date        string
}

// Length bounds enforced on user input. The repository itself stores
// whatever it is given; callers validate first.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// ValidateInput rejects input the repository must never see: an empty or
// over-long title, an over-long description, or a date that is not a real
// calendar date in YYYY-MM-DD form.
func ValidateInput(in Input) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("title is empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters", MaxTitleLen)
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLen)
	}
	if in.Date == "" {
		return fmt.Errorf("date is empty")
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return fmt.Errorf("date %q is not a valid YYYY-MM-DD date", in.Date)
	}
	return nil
}
