package todo

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"haru/internal/kvstore"
)

func newTestRepo(t *testing.T) (*Repository, *kvstore.Store) {
	t.Helper()
	store, err := kvstore.Open(filepath.Join(t.TempDir(), "haru.db"), log.New(io.Discard))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	repo := NewRepository(store)
	// A strictly advancing clock so timestamp assertions are deterministic.
	tick := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return repo, store
}

func TestAddThenLookup(t *testing.T) {
	repo, _ := newTestRepo(t)

	in := Input{Title: "Buy milk", Description: "2%", Date: "2024-06-10"}
	created := repo.Add(in)

	if created.ID == "" {
		t.Fatalf("created todo has no id")
	}
	got, ok := repo.Get(created.ID)
	if !ok {
		t.Fatalf("added todo not found by id")
	}
	if got.Title != in.Title || got.Description != in.Description || got.Date != in.Date {
		t.Fatalf("fields do not match input: %+v", got)
	}
	if got.Completed {
		t.Fatalf("new todo should start pending")
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("createdAt %v != updatedAt %v on creation", got.CreatedAt, got.UpdatedAt)
	}
}

func TestAddAssignsUniqueIDsAndAppends(t *testing.T) {
	repo, _ := newTestRepo(t)

	a := repo.Add(Input{Title: "a", Date: "2024-06-10"})
	b := repo.Add(Input{Title: "b", Date: "2024-06-09"})
	if a.ID == b.ID {
		t.Fatalf("ids collide: %s", a.ID)
	}
	list := repo.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("insertion order not preserved: %v", list)
	}
}

func TestToggleTwiceRestoresAndAdvancesUpdatedAt(t *testing.T) {
	repo, _ := newTestRepo(t)

	created := repo.Add(Input{Title: "t", Date: "2024-06-10"})

	repo.Toggle(created.ID)
	first, _ := repo.Get(created.ID)
	if !first.Completed {
		t.Fatalf("first toggle should complete")
	}
	if !first.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt did not advance on first toggle")
	}

	repo.Toggle(created.ID)
	second, _ := repo.Get(created.ID)
	if second.Completed {
		t.Fatalf("second toggle should restore pending")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updatedAt did not advance on second toggle")
	}
	if !second.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt changed on toggle")
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	repo, _ := newTestRepo(t)

	created := repo.Add(Input{Title: "old", Description: "keep", Date: "2024-06-10"})

	title := "new"
	date := "2024-06-12"
	repo.Update(created.ID, Patch{Title: &title, Date: &date})

	got, _ := repo.Get(created.ID)
	if got.Title != "new" || got.Date != "2024-06-12" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Description != "keep" {
		t.Fatalf("nil patch field overwrote description: %q", got.Description)
	}
	if !got.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt did not advance on update")
	}
}

func TestMissingIDIsNoOp(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.Add(Input{Title: "t", Date: "2024-06-10"})

	title := "x"
	repo.Update("nope", Patch{Title: &title})
	repo.Toggle("nope")
	repo.Delete("nope")

	list := repo.List()
	if len(list) != 1 || list[0].Title != "t" {
		t.Fatalf("missing-id operations changed state: %v", list)
	}
}

func TestDeleteAllForDate(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.Add(Input{Title: "a", Date: "2024-06-10"})
	done := repo.Add(Input{Title: "b", Date: "2024-06-10"})
	repo.Toggle(done.ID)
	keep := repo.Add(Input{Title: "c", Date: "2024-06-11"})
	keepDone := repo.Add(Input{Title: "d", Date: "2024-06-11"})
	repo.Toggle(keepDone.ID)

	repo.DeleteAllForDate("2024-06-10")

	list := repo.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 survivors, got %v", list)
	}
	if list[0].ID != keep.ID || list[1].ID != keepDone.ID {
		t.Fatalf("wrong todos removed: %v", list)
	}
}

func TestDeleteAllCompletedAndDeleteAll(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.Add(Input{Title: "a", Date: "2024-06-10"})
	done := repo.Add(Input{Title: "b", Date: "2024-06-10"})
	repo.Toggle(done.ID)

	repo.DeleteAllCompleted()
	if list := repo.List(); len(list) != 1 || list[0].Title != "a" {
		t.Fatalf("expected only the pending todo, got %v", list)
	}

	repo.DeleteAll()
	if list := repo.List(); len(list) != 0 {
		t.Fatalf("expected empty collection, got %v", list)
	}
}

func TestStats(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.Add(Input{Title: "a", Date: "2024-06-10"})
	repo.Add(Input{Title: "b", Date: "2024-06-10"})
	done := repo.Add(Input{Title: "c", Date: "2024-06-11"})
	repo.Toggle(done.ID)

	s := repo.Stats()
	if s.Total != 3 || s.Completed != 1 || s.Pending != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestMutationsPersistAcrossRepositories(t *testing.T) {
	repo, store := newTestRepo(t)
	created := repo.Add(Input{Title: "persisted", Description: "d", Date: "2024-06-10"})
	repo.Toggle(created.ID)

	reopened := NewRepository(store)
	got, ok := reopened.Get(created.ID)
	if !ok {
		t.Fatalf("todo not found after reopen")
	}
	if got.Title != "persisted" || !got.Completed {
		t.Fatalf("persisted state wrong: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("timestamps lost in round trip: %+v", got)
	}
}

func TestCorruptedPayloadDegradesGracefully(t *testing.T) {
	repo, store := newTestRepo(t)
	repo.Add(Input{Title: "t", Date: "2024-06-10"})

	store.Set(KeyTodos, map[string]string{"not": "an array"})
	reopened := NewRepository(store)
	if list := reopened.List(); len(list) != 0 {
		t.Fatalf("corrupted payload should load as empty, got %v", list)
	}

	store.Set(KeyTodos, []any{
		map[string]any{"id": "ok", "title": "t", "date": "2024-06-10", "completed": false},
		map[string]any{"title": "broken"},
	})
	reopened = NewRepository(store)
	list := reopened.List()
	if len(list) != 1 || list[0].ID != "ok" {
		t.Fatalf("partial payload should keep the valid entry, got %v", list)
	}
}

func TestWatchPicksUpExternalWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haru.db")
	store, err := kvstore.Open(path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	repo := NewRepository(store)

	stop := repo.Watch(10 * time.Millisecond)
	stop() // stopping twice must be safe
	stop()
	stop = repo.Watch(10 * time.Millisecond)
	defer stop()

	// A second connection plays the role of another process.
	other, err := kvstore.Open(path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("open second store: %v", err)
	}
	defer other.Close()
	other.Set(KeyTodos, []map[string]any{
		{"id": "ext", "title": "from elsewhere", "date": "2024-06-10", "completed": false},
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if list := repo.List(); len(list) == 1 && list[0].ID == "ext" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("external write never reflected, have %v", repo.List())
}

func TestSubscribeFiresOnMutationAndReload(t *testing.T) {
	repo, _ := newTestRepo(t)

	fired := 0
	repo.Subscribe(func() { fired++ })

	repo.Add(Input{Title: "a", Date: "2024-06-10"})
	if fired != 1 {
		t.Fatalf("expected 1 notification after add, got %d", fired)
	}
	repo.Toggle("missing") // no-op must not notify
	if fired != 1 {
		t.Fatalf("no-op notified: %d", fired)
	}
	repo.Reload()
	if fired != 2 {
		t.Fatalf("expected notification on reload, got %d", fired)
	}
}
