package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestNew_InvalidArgsMeansUnlimited(t *testing.T) {
	for _, tc := range []struct {
		rps   float64
		burst int
	}{{0, 1}, {1, 0}, {-1, 5}} {
		l := New(tc.rps, tc.burst, 0)
		if l != nil {
			t.Fatalf("New(%v, %d) should return nil", tc.rps, tc.burst)
		}
		for i := 0; i < 100; i++ {
			if !l.Allow("alice", time.Now()) {
				t.Fatal("nil limiter must allow")
			}
		}
	}
}

func TestAllow_BurstThenRefill(t *testing.T) {
	l := New(1, 3, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if !l.Allow("alice", now) {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if l.Allow("alice", now) {
		t.Fatal("request beyond burst was allowed")
	}
	if !l.Allow("bob", now) {
		t.Fatal("keys must not share a bucket")
	}
	if !l.Allow("alice", now.Add(1100*time.Millisecond)) {
		t.Fatal("token was not refilled after one second")
	}
}

func TestAllow_BlankKeyUnlimited(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 10; i++ {
		if !l.Allow("  ", now) {
			t.Fatal("blank key must not be limited")
		}
	}
	if l.Len() != 0 {
		t.Fatalf("blank key should not be tracked, have %d keys", l.Len())
	}
}

func TestAllow_EvictsIdleKeys(t *testing.T) {
	l := New(100, 100, time.Second)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < evictEvery-1; i++ {
		l.Allow(fmt.Sprintf("user-%d", i), start)
	}
	// The sweep runs on the next hit; everything above is older than the TTL.
	l.Allow("fresh", start.Add(time.Minute))
	if got := l.Len(); got != 1 {
		t.Fatalf("expected only the fresh key to survive, have %d", got)
	}
}
