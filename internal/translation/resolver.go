// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"fmt"

	"polyglot/internal/cache"
	"polyglot/internal/model"
	"polyglot/internal/store"
)

// Resolver answers "which siblings does this entity have, per language".
// Single-group lookups are memoized through the injected group cache;
// batch lookups run in a fixed number of queries regardless of input size.
type Resolver struct {
	queries *store.Queries
	groups  *cache.GroupCache
}

// NewResolver creates a Resolver.
func NewResolver(queries *store.Queries, groups *cache.GroupCache) *Resolver {
	return &Resolver{queries: queries, groups: groups}
}

// GetTranslations returns the members of a translation group as a
// language -> entity id map. Results are memoized per group id until the
// translation services invalidate them on write.
func (r *Resolver) GetTranslations(ctx context.Context, kind, groupID string) (cache.GroupMembers, error) {
	if groupID == "" {
		return cache.GroupMembers{}, nil
	}

	if members, ok := r.groups.Get(kind, groupID); ok {
		return members, nil
	}

	rows, err := r.listGroupMembers(ctx, kind, []string{groupID})
	if err != nil {
		return nil, fmt.Errorf("loading group %s: %w", groupID, err)
	}

	members := make(cache.GroupMembers, len(rows))
	for _, row := range rows {
		if row.Language == "" {
			continue
		}
		members[row.Language] = row.ID
	}

	r.groups.Put(kind, groupID, members)
	return members, nil
}

// GetBatchTranslations resolves entity id -> (language -> sibling id) for a
// set of ids of one kind. It always executes exactly two queries: one mapping
// ids to their groups and one fetching all members of the distinct groups.
// The join happens in memory. Every input id appears in the result, with an
// empty map for ids that have no group.
func (r *Resolver) GetBatchTranslations(ctx context.Context, kind string, ids []int64) (map[int64]cache.GroupMembers, error) {
	result := make(map[int64]cache.GroupMembers, len(ids))
	for _, id := range ids {
		result[id] = cache.GroupMembers{}
	}
	if len(ids) == 0 {
		return result, nil
	}

	groupRows, err := r.listEntityGroups(ctx, kind, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving groups: %w", err)
	}

	groupOf := make(map[int64]string, len(groupRows))
	distinct := make([]string, 0, len(groupRows))
	seen := make(map[string]bool, len(groupRows))
	for _, row := range groupRows {
		if row.TranslationGroup == "" {
			continue
		}
		groupOf[row.ID] = row.TranslationGroup
		if !seen[row.TranslationGroup] {
			seen[row.TranslationGroup] = true
			distinct = append(distinct, row.TranslationGroup)
		}
	}

	memberRows, err := r.listGroupMembers(ctx, kind, distinct)
	if err != nil {
		return nil, fmt.Errorf("loading group members: %w", err)
	}

	byGroup := make(map[string]cache.GroupMembers, len(distinct))
	for _, row := range memberRows {
		if row.Language == "" {
			continue
		}
		if byGroup[row.TranslationGroup] == nil {
			byGroup[row.TranslationGroup] = cache.GroupMembers{}
		}
		byGroup[row.TranslationGroup][row.Language] = row.ID
	}

	for id, group := range groupOf {
		if members, ok := byGroup[group]; ok {
			result[id] = members
		}
	}

	// Warm the per-group cache as a side effect
	for group, members := range byGroup {
		r.groups.Put(kind, group, members)
	}

	return result, nil
}

func (r *Resolver) listEntityGroups(ctx context.Context, kind string, ids []int64) ([]store.ContentGroupRow, error) {
	switch kind {
	case model.EntityKindContent:
		return r.queries.GetContentGroups(ctx, ids)
	case model.EntityKindTerm:
		return r.queries.GetTermGroups(ctx, ids)
	default:
		return nil, &ValidationError{Field: "kind", Reason: "unknown entity kind " + kind}
	}
}

func (r *Resolver) listGroupMembers(ctx context.Context, kind string, groups []string) ([]store.GroupMemberRow, error) {
	switch kind {
	case model.EntityKindContent:
		return r.queries.ListContentByGroups(ctx, groups)
	case model.EntityKindTerm:
		return r.queries.ListTermsByGroups(ctx, groups)
	default:
		return nil, &ValidationError{Field: "kind", Reason: "unknown entity kind " + kind}
	}
}
