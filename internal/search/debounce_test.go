package search

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	commits []string
}

func (r *recorder) commit(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, q)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commits))
	copy(out, r.commits)
	return out
}

func (r *recorder) waitFor(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d commits, have %v", n, r.snapshot())
	return nil
}

func TestBurstCommitsOnlyLatestOnce(t *testing.T) {
	rec := &recorder{}
	d := New(30*time.Millisecond, rec.commit)
	defer d.Stop()

	d.Update("m")
	d.Update("mi")
	d.Update("mil")

	got := rec.waitFor(t, 1)
	if len(got) != 1 || got[0] != "mil" {
		t.Fatalf("expected single commit of %q, got %v", "mil", got)
	}

	// Quiet afterwards: no stray second commit.
	time.Sleep(80 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("extra commits after quiet period: %v", got)
	}
}

func TestStaleTimerGenerationDoesNotCommit(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.commit) // timers must never fire on their own
	defer d.Stop()

	d.Update("old")
	staleGen := d.gen
	d.Update("new")

	// A timer armed for the first update may fire only after the second
	// update has re-armed; it must then commit nothing, and certainly not
	// the second update's query ahead of its quiet period.
	d.onTimer(staleGen)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("stale timer committed: %v", got)
	}

	d.onTimer(d.gen)
	got := rec.snapshot()
	if len(got) != 1 || got[0] != "new" {
		t.Fatalf("expected single commit of %q, got %v", "new", got)
	}
}

func TestSeparateBurstsCommitSeparately(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.commit)
	defer d.Stop()

	d.Update("first")
	rec.waitFor(t, 1)
	d.Update("second")
	got := rec.waitFor(t, 2)
	if got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected commits: %v", got)
	}
}

func TestClearCommitsEmptyImmediately(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.commit) // timer must never fire on its own
	defer d.Stop()

	d.Update("pending")
	d.Clear()

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "" {
		t.Fatalf("expected immediate empty commit, got %v", got)
	}

	// The superseded "pending" commit must never land.
	time.Sleep(50 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("cancelled commit fired anyway: %v", got)
	}
}

func TestStopIsIdempotentAndSilencesPending(t *testing.T) {
	rec := &recorder{}
	d := New(100*time.Millisecond, rec.commit)

	d.Update("doomed")
	d.Stop()
	d.Stop()
	d.Update("ignored")

	time.Sleep(200 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("stopped debouncer committed: %v", got)
	}
}
