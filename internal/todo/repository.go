package todo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Storage is the slice of the kv store the repository needs. Reads hand back
// the raw stored document so validation stays in this package.
type Storage interface {
	GetRaw(key string) ([]byte, bool)
	Set(key string, v any) bool
	DataVersion() int64
}

// Repository owns the canonical todo collection. The in-memory slice is
// authoritative for the session; every mutation rewrites the whole stored
// document. Derived views are computed from List and never stored.
type Repository struct {
	store Storage

	mu    sync.Mutex
	todos []Todo
	subs  []func()

	now func() time.Time
}

func NewRepository(store Storage) *Repository {
	r := &Repository{store: store, now: time.Now}
	r.todos = r.loadValidated()
	return r
}

// loadValidated reads the stored payload through validation, so a corrupted
// document degrades to a partial or empty collection instead of an error.
func (r *Repository) loadValidated() []Todo {
	raw, ok := r.store.GetRaw(KeyTodos)
	if !ok {
		return []Todo{}
	}
	todos, _ := ValidateTodos(raw)
	return MigrateTodos(todos, r.now())
}

// List returns a copy of the canonical collection in insertion order.
func (r *Repository) List() []Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Todo, len(r.todos))
	copy(out, r.todos)
	return out
}

// Get looks a todo up by id.
func (r *Repository) Get(id string) (Todo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.todos {
		if t.ID == id {
			return t, true
		}
	}
	return Todo{}, false
}

// Add appends a new todo with a fresh id and both timestamps set to now.
// Input is trusted here; callers run ValidateInput first.
func (r *Repository) Add(in Input) Todo {
	now := r.now()
	t := Todo{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.mu.Lock()
	r.todos = append(r.todos, t)
	r.persistLocked()
	r.mu.Unlock()
	r.notify()
	return t
}

// Patch carries the fields Update may change. Nil fields are left alone;
// id and createdAt are immutable.
type Patch struct {
	Title       *string
	Description *string
	Date        *string
	Completed   *bool
}

// Update merges patch into the todo with the given id and refreshes
// updatedAt. A missing id is a no-op.
func (r *Repository) Update(id string, patch Patch) {
	r.mutate(id, func(t *Todo) {
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Date != nil {
			t.Date = *patch.Date
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
	})
}

// Toggle flips completed and refreshes updatedAt. A missing id is a no-op.
func (r *Repository) Toggle(id string) {
	r.mutate(id, func(t *Todo) {
		t.Completed = !t.Completed
	})
}

func (r *Repository) mutate(id string, fn func(*Todo)) {
	r.mu.Lock()
	changed := false
	for i := range r.todos {
		if r.todos[i].ID == id {
			fn(&r.todos[i])
			r.todos[i].UpdatedAt = r.now()
			changed = true
			break
		}
	}
	if changed {
		r.persistLocked()
	}
	r.mu.Unlock()
	if changed {
		r.notify()
	}
}

// Delete removes the todo with the given id. A missing id is a no-op.
func (r *Repository) Delete(id string) {
	r.removeWhere(func(t Todo) bool { return t.ID == id })
}

// DeleteAllForDate removes every todo due on the given date, completed or not.
func (r *Repository) DeleteAllForDate(date string) {
	r.removeWhere(func(t Todo) bool { return t.Date == date })
}

// DeleteAllCompleted removes every completed todo.
func (r *Repository) DeleteAllCompleted() {
	r.removeWhere(func(t Todo) bool { return t.Completed })
}

// DeleteAll empties the collection.
func (r *Repository) DeleteAll() {
	r.mu.Lock()
	r.todos = []Todo{}
	r.persistLocked()
	r.mu.Unlock()
	r.notify()
}

func (r *Repository) removeWhere(match func(Todo) bool) {
	r.mu.Lock()
	kept := r.todos[:0]
	removed := false
	for _, t := range r.todos {
		if match(t) {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	r.todos = kept
	if removed {
		r.persistLocked()
	}
	r.mu.Unlock()
	if removed {
		r.notify()
	}
}

// Stats are derived fresh from the current collection.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

func (r *Repository) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Stats{Total: len(r.todos)}
	for _, t := range r.todos {
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	return s
}

// Subscribe registers fn to run after every change to the collection,
// including reloads triggered by an external writer.
func (r *Repository) Subscribe(fn func()) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

func (r *Repository) notify() {
	r.mu.Lock()
	subs := make([]func(), len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Reload replaces the in-memory collection with the stored one.
func (r *Repository) Reload() {
	todos := r.loadValidated()
	r.mu.Lock()
	r.todos = todos
	r.mu.Unlock()
	r.notify()
}

// Watch polls the store's data version and reloads when another writer
// touched the database. There is no merge: the last writer wins. The
// returned func stops the watcher and may be called more than once.
func (r *Repository) Watch(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := r.store.DataVersion()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				v := r.store.DataVersion()
				if v != last {
					last = v
					r.Reload()
				}
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

// persistLocked rewrites the whole collection; callers hold r.mu. A failed
// write is already logged by the store and the in-memory collection stays
// authoritative for the session.
func (r *Repository) persistLocked() {
	r.store.Set(KeyTodos, r.todos)
}
