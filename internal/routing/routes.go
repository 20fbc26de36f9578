// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package routing computes language-prefixed localized URL paths and the
// route patterns that match them.
package routing

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"polyglot/internal/model"
)

// RoutePattern matches one localized URL shape and maps it back to a content
// type lookup with an implicit language parameter.
type RoutePattern struct {
	Raw         string
	Pattern     *regexp.Regexp
	ContentType string
	Language    string
}

// Resolver computes localized paths from the language configuration.
// Route patterns are an expensive global product of (types x languages x
// bases); they are rebuilt lazily behind a dirty flag, never per request.
type Resolver struct {
	mu           sync.RWMutex
	settings     model.Settings
	contentTypes []string
	dirty        bool
	patterns     []RoutePattern
}

// NewResolver creates a Resolver for the given settings and content types.
func NewResolver(settings model.Settings, contentTypes []string) *Resolver {
	if len(contentTypes) == 0 {
		contentTypes = []string{model.ContentTypePost, model.ContentTypePage}
	}
	return &Resolver{settings: settings, contentTypes: contentTypes, dirty: true}
}

// UpdateSettings replaces the language configuration and marks the pattern
// table dirty.
func (r *Resolver) UpdateSettings(settings model.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	r.dirty = true
}

// Invalidate marks the pattern table dirty; the next Patterns call rebuilds it.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}

// ContentPath returns the localized path for a content item. Items in the
// default language, or with permalink localization disabled, keep their
// canonical path unmodified.
func (r *Resolver) ContentPath(item model.ContentItem) string {
	r.mu.RLock()
	s := r.settings
	r.mu.RUnlock()

	canonical := joinPath(s.PermalinkBase(item.Type, ""), item.Slug)
	if !s.PermalinksEnabled || item.Language == "" || item.Language == s.DefaultLanguage {
		return canonical
	}

	base := s.PermalinkBase(item.Type, item.Language)
	return joinPath(item.Language, joinPath(base, item.Slug))
}

// TermPath localizes an existing term path by substituting the taxonomy's
// base segment (anchored prefix replace) and prepending the language segment.
func (r *Resolver) TermPath(term model.Term, currentPath string) string {
	r.mu.RLock()
	s := r.settings
	r.mu.RUnlock()

	currentPath = strings.TrimPrefix(currentPath, "/")
	if !s.PermalinksEnabled || term.Language == "" || term.Language == s.DefaultLanguage {
		return currentPath
	}

	defaultBase := s.TaxonomyBase(term.Taxonomy, "")
	localBase := s.TaxonomyBase(term.Taxonomy, term.Language)
	if defaultBase != "" && localBase != defaultBase {
		re := regexp.MustCompile(`^` + regexp.QuoteMeta(defaultBase) + `/`)
		currentPath = re.ReplaceAllString(currentPath, localBase+"/")
	}
	return joinPath(term.Language, currentPath)
}

// Patterns returns the localized route pattern table, rebuilding it first if
// the configuration changed since the last build.
func (r *Resolver) Patterns() []RoutePattern {
	r.mu.RLock()
	if !r.dirty {
		defer r.mu.RUnlock()
		return r.patterns
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirty {
		r.patterns = r.build()
		r.dirty = false
	}
	return r.patterns
}

// Match resolves a request path against the pattern table, returning the
// content type, slug and language of the first match.
func (r *Resolver) Match(path string) (contentType, slug, lang string, ok bool) {
	path = strings.TrimPrefix(path, "/")
	for _, p := range r.Patterns() {
		if m := p.Pattern.FindStringSubmatch(path); m != nil {
			return p.ContentType, m[1], p.Language, true
		}
	}
	return "", "", "", false
}

// build produces one pattern per (content type, non-default language).
func (r *Resolver) build() []RoutePattern {
	if !r.settings.PermalinksEnabled {
		return nil
	}

	var out []RoutePattern
	for _, contentType := range r.contentTypes {
		for _, lang := range r.settings.Languages {
			if lang == r.settings.DefaultLanguage {
				continue
			}
			base := r.settings.PermalinkBase(contentType, lang)
			raw := fmt.Sprintf(`^%s/%s/([^/]+)/?$`, regexp.QuoteMeta(lang), regexp.QuoteMeta(base))
			if base == "" {
				raw = fmt.Sprintf(`^%s/([^/]+)/?$`, regexp.QuoteMeta(lang))
			}
			out = append(out, RoutePattern{
				Raw:         raw,
				Pattern:     regexp.MustCompile(raw),
				ContentType: contentType,
				Language:    lang,
			})
		}
	}
	return out
}

func joinPath(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
