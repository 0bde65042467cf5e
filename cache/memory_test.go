package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStoreExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 20*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.Advance(19 * time.Second)
	if got, ok := s.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("expected hit before expiry, got %q %v", got, ok)
	}

	clock.Advance(time.Second)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("expected miss once ttl elapsed")
	}
	if n := s.Len(); n != 0 {
		t.Fatalf("expired entry still counted: %d", n)
	}
}

func TestMemoryStoreClearAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"), time.Minute)
	_ = s.Set(ctx, "b", []byte("2"), time.Minute)

	_ = s.Delete(ctx, "a")
	if _, ok := s.Get(ctx, "a"); ok {
		t.Fatal("deleted key still present")
	}
	if _, ok := s.Get(ctx, "b"); !ok {
		t.Fatal("unrelated key removed by Delete")
	}

	_ = s.Clear(ctx)
	if s.Len() != 0 {
		t.Fatalf("clear left %d entries", s.Len())
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	src := []byte("abc")
	_ = s.Set(ctx, "k", src, 0)
	src[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("store aliased caller buffer: %q", got)
	}
	got[1] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("store aliased returned buffer: %q", again)
	}
}
