package ratelimit

import (
	"testing"
	"time"
)

func TestInProcessLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := newInProcessLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("operator@example.com") {
			t.Fatalf("request %d unexpectedly blocked", i)
		}
	}
	if l.Allow("operator@example.com") {
		t.Fatal("4th request should be rate limited")
	}
}

func TestInProcessLimiterTracksKeysIndependently(t *testing.T) {
	l := newInProcessLimiter(1, time.Hour)
	if !l.Allow("a@example.com") {
		t.Fatal("first request for a should be allowed")
	}
	if !l.Allow("b@example.com") {
		t.Fatal("first request for b should be allowed independently of a")
	}
	if l.Allow("a@example.com") {
		t.Fatal("second request for a should be blocked")
	}
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	tb := newTokenBucket(1, 10*time.Millisecond)
	if !tb.takeToken() {
		t.Fatal("first token should be available")
	}
	if tb.takeToken() {
		t.Fatal("bucket should be empty immediately after")
	}
	time.Sleep(20 * time.Millisecond)
	if !tb.takeToken() {
		t.Fatal("token should have refilled after the refill interval")
	}
}
