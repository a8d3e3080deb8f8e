package cache

import (
	"testing"
	"time"
)

func TestTTL_GetSet(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := New[string](5*time.Minute, func() time.Time { return now })

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache returned a hit")
	}

	c.Set("pulse:m1", "market steady")
	if v, ok := c.Get("pulse:m1"); !ok || v != "market steady" {
		t.Errorf("got (%q, %v)", v, ok)
	}

	// Just inside the TTL.
	now = now.Add(5*time.Minute - time.Second)
	if _, ok := c.Get("pulse:m1"); !ok {
		t.Error("entry expired early")
	}

	// At the TTL boundary the entry is gone.
	now = now.Add(time.Second)
	if _, ok := c.Get("pulse:m1"); ok {
		t.Error("entry survived past TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len=%d", c.Len())
	}
}

func TestTTL_SetResetsClock(t *testing.T) {
	now := time.Unix(0, 0)
	c := New[int](time.Minute, func() time.Time { return now })
	c.Set("k", 1)
	now = now.Add(50 * time.Second)
	c.Set("k", 2)
	now = now.Add(50 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 2 {
		t.Errorf("rewrite did not reset TTL: (%d, %v)", v, ok)
	}
}
