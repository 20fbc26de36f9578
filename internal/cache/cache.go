// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the process-scoped translation group cache.
// Entries map a (kind, group id) pair to the group's language->entity table.
// The cache is request/process local with explicit invalidation on writes;
// it is never shared across processes.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// GroupMembers maps language code to entity id within one translation group.
type GroupMembers map[string]int64

// Stats holds cache statistics.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hit_rate"`
}

// GroupCache is a thread-safe cache of translation group memberships with TTL.
type GroupCache struct {
	mu         sync.RWMutex
	groups     map[string]map[string]groupEntry // kind -> group id -> entry
	ttl        time.Duration
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

type groupEntry struct {
	members   GroupMembers
	expiresAt time.Time
}

// New creates a group cache with the given TTL and entry bound.
func New(ttl time.Duration, maxEntries int) *GroupCache {
	return &GroupCache{
		groups:     make(map[string]map[string]groupEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns the cached members of a group, or nil and false on a miss.
// The returned map is a copy; callers may modify it freely.
func (c *GroupCache) Get(kind, groupID string) (GroupMembers, bool) {
	c.mu.RLock()
	entry, ok := c.groups[kind][groupID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	out := make(GroupMembers, len(entry.members))
	for lang, id := range entry.members {
		out[lang] = id
	}
	return out, true
}

// Put stores the members of a group.
func (c *GroupCache) Put(kind, groupID string, members GroupMembers) {
	stored := make(GroupMembers, len(members))
	for lang, id := range members {
		stored[lang] = id
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureCapacity()

	if c.groups[kind] == nil {
		c.groups[kind] = make(map[string]groupEntry)
	}
	c.groups[kind][groupID] = groupEntry{
		members:   stored,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.sets.Add(1)
}

// Invalidate drops a single group. Called whenever a new member links in.
func (c *GroupCache) Invalidate(kind, groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if byGroup, ok := c.groups[kind]; ok {
		delete(byGroup, groupID)
	}
}

// InvalidateKind drops every group of one entity kind.
func (c *GroupCache) InvalidateKind(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.groups, kind)
}

// InvalidateAll clears the cache.
func (c *GroupCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = make(map[string]map[string]groupEntry)
}

// ensureCapacity keeps the cache below maxEntries. Must be called with the
// write lock held. Eviction drops half of each kind, which is crude but keeps
// the hot path free of bookkeeping.
func (c *GroupCache) ensureCapacity() {
	total := 0
	for _, byGroup := range c.groups {
		total += len(byGroup)
	}
	if total < c.maxEntries {
		return
	}

	for kind, byGroup := range c.groups {
		count := 0
		for id := range byGroup {
			if count > len(byGroup)/2 {
				break
			}
			delete(byGroup, id)
			count++
		}
		if len(byGroup) == 0 {
			delete(c.groups, kind)
		}
	}
}

// Stats returns cache statistics.
func (c *GroupCache) Stats() Stats {
	stats := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
	c.mu.RLock()
	for _, byGroup := range c.groups {
		stats.Items += len(byGroup)
	}
	c.mu.RUnlock()

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// ResetStats resets the hit/miss/set counters.
func (c *GroupCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
}
