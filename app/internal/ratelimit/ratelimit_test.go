package ratelimit

import (
	"testing"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	l := New(5)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("6th request should be denied")
	}
}

func TestAllow_KeysIsolated(t *testing.T) {
	l := New(1)
	defer l.Stop()

	if !l.Allow("a") {
		t.Fatal("first request for a")
	}
	if l.Allow("a") {
		t.Error("a is exhausted")
	}
	if !l.Allow("b") {
		t.Error("b has its own bucket")
	}
}

func TestRemaining(t *testing.T) {
	l := New(10)
	defer l.Stop()

	if got := l.Remaining("x"); got != 10 {
		t.Errorf("fresh key remaining = %d", got)
	}
	l.Allow("x")
	l.Allow("x")
	if got := l.Remaining("x"); got != 8 {
		t.Errorf("remaining after 2 = %d", got)
	}
}

func TestReset(t *testing.T) {
	l := New(1)
	defer l.Stop()

	l.Allow("x")
	if l.Allow("x") {
		t.Fatal("should be exhausted")
	}
	l.Reset("x")
	if !l.Allow("x") {
		t.Error("reset should refill the bucket")
	}
}
