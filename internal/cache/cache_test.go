// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"testing"
	"time"
)

func TestGroupCacheGetPut(t *testing.T) {
	c := New(time.Minute, 100)

	if _, ok := c.Get("content", "g1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("content", "g1", GroupMembers{"en": 1, "fr": 2})

	members, ok := c.Get("content", "g1")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if members["en"] != 1 || members["fr"] != 2 {
		t.Errorf("unexpected members: %v", members)
	}

	// Same group id under a different kind is a separate entry
	if _, ok := c.Get("term", "g1"); ok {
		t.Error("kinds must not share entries")
	}
}

func TestGroupCacheReturnsCopy(t *testing.T) {
	c := New(time.Minute, 100)
	c.Put("content", "g1", GroupMembers{"en": 1})

	members, _ := c.Get("content", "g1")
	members["de"] = 99

	again, _ := c.Get("content", "g1")
	if _, ok := again["de"]; ok {
		t.Error("mutating a returned map must not affect the cached entry")
	}
}

func TestGroupCacheTTL(t *testing.T) {
	c := New(10*time.Millisecond, 100)
	c.Put("content", "g1", GroupMembers{"en": 1})

	if _, ok := c.Get("content", "g1"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("content", "g1"); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestGroupCacheInvalidate(t *testing.T) {
	c := New(time.Minute, 100)
	c.Put("content", "g1", GroupMembers{"en": 1})
	c.Put("content", "g2", GroupMembers{"en": 2})
	c.Put("term", "g1", GroupMembers{"en": 3})

	c.Invalidate("content", "g1")

	if _, ok := c.Get("content", "g1"); ok {
		t.Error("invalidated entry still present")
	}
	if _, ok := c.Get("content", "g2"); !ok {
		t.Error("unrelated entry was dropped")
	}
	if _, ok := c.Get("term", "g1"); !ok {
		t.Error("entry of another kind was dropped")
	}

	c.InvalidateKind("content")
	if _, ok := c.Get("content", "g2"); ok {
		t.Error("InvalidateKind left an entry behind")
	}

	c.InvalidateAll()
	if _, ok := c.Get("term", "g1"); ok {
		t.Error("InvalidateAll left an entry behind")
	}
}

func TestGroupCacheStats(t *testing.T) {
	c := New(time.Minute, 100)
	c.Put("content", "g1", GroupMembers{"en": 1})

	c.Get("content", "g1")
	c.Get("content", "g1")
	c.Get("content", "missing")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("sets = %d, want 1", stats.Sets)
	}
	if stats.Items != 1 {
		t.Errorf("items = %d, want 1", stats.Items)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Sets != 0 {
		t.Errorf("counters not reset: %+v", s)
	}
}

func TestGroupCacheCapacity(t *testing.T) {
	c := New(time.Minute, 4)
	c.Put("content", "g1", GroupMembers{"en": 1})
	c.Put("content", "g2", GroupMembers{"en": 2})
	c.Put("content", "g3", GroupMembers{"en": 3})
	c.Put("content", "g4", GroupMembers{"en": 4})
	c.Put("content", "g5", GroupMembers{"en": 5})

	if items := c.Stats().Items; items > 4 {
		t.Errorf("cache grew past its bound: %d items", items)
	}
}
