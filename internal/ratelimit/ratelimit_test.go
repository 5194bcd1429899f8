package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCheckAllowsUpToMax(t *testing.T) {
	l := New(0)
	for i := 0; i < 5; i++ {
		res := l.Check("login:1.2.3.4", 5, time.Minute)
		if !res.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		if res.Remaining != 5-(i+1) {
			t.Errorf("attempt %d remaining = %d, want %d", i+1, res.Remaining, 5-(i+1))
		}
	}
	res := l.Check("login:1.2.3.4", 5, time.Minute)
	if res.Allowed {
		t.Error("sixth attempt should be denied")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", res.RetryAfter)
	}
}

func TestResetClearsCounter(t *testing.T) {
	l := New(0)
	for i := 0; i < 6; i++ {
		l.Check("k", 5, time.Minute)
	}
	if l.Check("k", 5, time.Minute).Allowed {
		t.Fatal("should still be denied before reset")
	}
	l.Reset("k")
	if !l.Check("k", 5, time.Minute).Allowed {
		t.Error("first attempt after reset should be allowed")
	}
}

func TestWindowExpiryResetsLazily(t *testing.T) {
	l := New(0)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 6; i++ {
		l.Check("k", 5, time.Minute)
	}
	if l.Check("k", 5, time.Minute).Allowed {
		t.Fatal("should be denied inside window")
	}

	now = now.Add(61 * time.Second)
	res := l.Check("k", 5, time.Minute)
	if !res.Allowed {
		t.Error("attempt in a fresh window should be allowed")
	}
	if res.Remaining != 4 {
		t.Errorf("remaining = %d, want 4", res.Remaining)
	}
}

func TestDeniedAttemptsKeepCounting(t *testing.T) {
	// Retrying while denied must not shorten the lockout: the counter
	// keeps growing, never resets mid-window.
	l := New(0)
	now := time.Unix(2000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		l.Check("k", 3, time.Minute)
	}
	if l.Check("k", 3, time.Minute).Allowed {
		t.Error("still inside window, must stay denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(0)
	for i := 0; i < 6; i++ {
		l.Check("login:a", 5, time.Minute)
	}
	if !l.Check("login:b", 5, time.Minute).Allowed {
		t.Error("key b should be unaffected by key a")
	}
}

func TestMaxKeysEviction(t *testing.T) {
	l := New(3)
	now := time.Unix(3000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Check(fmt.Sprintf("k%d", i), 5, time.Minute)
		now = now.Add(time.Second)
	}
	// A fourth key evicts k0 (oldest window).
	l.Check("k3", 5, time.Minute)

	l.mu.Lock()
	_, k0 := l.entries["k0"]
	_, k3 := l.entries["k3"]
	n := len(l.entries)
	l.mu.Unlock()

	if k0 {
		t.Error("oldest key should have been evicted")
	}
	if !k3 {
		t.Error("new key should be tracked")
	}
	if n != 3 {
		t.Errorf("tracked keys = %d, want 3", n)
	}
}

func TestConcurrentIncrementsDoNotUndercount(t *testing.T) {
	l := New(0)
	const workers = 50
	var wg sync.WaitGroup
	denied := make([]bool, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			denied[i] = !l.Check("shared", 10, time.Minute).Allowed
		}(i)
	}
	wg.Wait()

	var deniedCount int
	for _, d := range denied {
		if d {
			deniedCount++
		}
	}
	if deniedCount != workers-10 {
		t.Errorf("denied = %d, want %d (no lost increments)", deniedCount, workers-10)
	}
}
