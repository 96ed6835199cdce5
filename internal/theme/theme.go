// Package theme keeps the persisted light/dark preference, falling back to
// the terminal's own background while nothing has been chosen explicitly.
package theme

import (
	"github.com/muesli/termenv"

	"haru/internal/todo"
)

// Storage is the slice of the kv store the controller needs.
type Storage interface {
	GetRaw(key string) ([]byte, bool)
	Set(key string, v any) bool
}

// Controller owns the current theme. Until a choice is persisted it tracks
// the terminal background on every Refresh; after the first explicit choice
// the persisted value wins and the terminal is ignored.
type Controller struct {
	store    Storage
	theme    todo.Theme
	explicit bool

	// darkBackground reports the terminal's current preference.
	darkBackground func() bool
}

func NewController(store Storage) *Controller {
	c := &Controller{
		store:          store,
		darkBackground: termenv.HasDarkBackground,
	}
	c.load()
	return c
}

func (c *Controller) load() {
	raw, ok := c.store.GetRaw(todo.KeyTheme)
	if !ok {
		c.explicit = false
		c.theme = todo.Theme{Mode: todo.ModeLight}
		if c.darkBackground() {
			c.theme.Mode = todo.ModeDark
		}
		return
	}
	c.explicit = true
	c.theme = todo.ValidateTheme(raw)
}

// Theme returns the current preference.
func (c *Controller) Theme() todo.Theme {
	return c.theme
}

// Mode returns the current mode.
func (c *Controller) Mode() todo.ThemeMode {
	return c.theme.Mode
}

// IsDark reports whether the current mode is dark.
func (c *Controller) IsDark() bool {
	return c.theme.Mode == todo.ModeDark
}

// Toggle flips between light and dark and persists the choice.
func (c *Controller) Toggle() {
	if c.theme.Mode == todo.ModeDark {
		c.set(todo.ModeLight)
		return
	}
	c.set(todo.ModeDark)
}

// SetLight persists an explicit light preference.
func (c *Controller) SetLight() {
	c.set(todo.ModeLight)
}

// SetDark persists an explicit dark preference.
func (c *Controller) SetDark() {
	c.set(todo.ModeDark)
}

func (c *Controller) set(mode todo.ThemeMode) {
	c.theme.Mode = mode
	c.explicit = true
	c.store.Set(todo.KeyTheme, c.theme)
}

// Refresh re-samples the terminal background. It only has an effect while
// no explicit choice has ever been persisted. It reports whether the mode
// changed.
func (c *Controller) Refresh() bool {
	if c.explicit {
		return false
	}
	mode := todo.ModeLight
	if c.darkBackground() {
		mode = todo.ModeDark
	}
	if mode == c.theme.Mode {
		return false
	}
	c.theme.Mode = mode
	return true
}
