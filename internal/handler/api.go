// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler exposes the translation engine over a JSON API. It is a
// thin layer: decode the record, call the service, encode the result.
package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"polyglot/internal/audit"
	"polyglot/internal/model"
	"polyglot/internal/routing"
	"polyglot/internal/service"
	"polyglot/internal/store"
	"polyglot/internal/taxonomy"
	"polyglot/internal/translation"
	"polyglot/internal/util"
)

// APIHandler bundles the services behind the JSON routes.
type APIHandler struct {
	db       *sql.DB
	queries  *store.Queries
	content  *translation.ContentService
	terms    *translation.TermService
	resolver *translation.Resolver
	saves    *service.ContentService
	settings *service.SettingsService
	routes   *routing.Resolver
	auditor  *audit.Registry
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(
	db *sql.DB,
	content *translation.ContentService,
	terms *translation.TermService,
	resolver *translation.Resolver,
	saves *service.ContentService,
	settings *service.SettingsService,
	routes *routing.Resolver,
	auditor *audit.Registry,
) *APIHandler {
	return &APIHandler{
		db:       db,
		queries:  store.New(db),
		content:  content,
		terms:    terms,
		resolver: resolver,
		saves:    saves,
		settings: settings,
		routes:   routes,
		auditor:  auditor,
	}
}

// Routes mounts every API route on the given router.
func (h *APIHandler) Routes(r chi.Router) {
	r.Post("/content", h.SaveContent)
	r.Put("/content/{id}", h.SaveContent)
	r.Post("/content/{id}/translations", h.CreateContentTranslation)
	r.Post("/terms/{id}/translations", h.CreateTermTranslation)
	r.Get("/terms", h.ListTerms)
	r.Get("/translations/{kind}/{group}", h.GetTranslations)
	r.Post("/translations/batch", h.GetBatchTranslations)
	r.Post("/groups", h.CreateGroup)
	r.Get("/groups/orphans", h.ListOrphanGroups)
	r.Get("/languages", h.ListLanguages)
	r.Post("/languages", h.AddLanguage)
	r.Get("/events", h.ListEvents)
	r.Get("/routes/resolve", h.ResolvePath)
	r.Post("/audit/run", h.RunAudit)
	r.Get("/audit/issues", h.ListAuditIssues)
	r.Get("/audit/issues/{uid}/fix", h.PreviewFix)
	r.Post("/audit/issues/{uid}/fix", h.ApplyFix)
}

// CreateContentTranslation handles POST /content/{id}/translations.
func (h *APIHandler) CreateContentTranslation(w http.ResponseWriter, r *http.Request) {
	sourceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Language string `json:"language"`
		AuthorID int64  `json:"author_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.content.CreateTranslation(r.Context(), sourceID, req.Language, req.AuthorID)
	if err != nil {
		h.writeTranslationError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"item": item})
}

// CreateTermTranslation handles POST /terms/{id}/translations.
func (h *APIHandler) CreateTermTranslation(w http.ResponseWriter, r *http.Request) {
	sourceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Language string `json:"language"`
		Taxonomy string `json:"taxonomy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	term, err := h.terms.CreateTranslation(r.Context(), sourceID, req.Language, req.Taxonomy)
	if err != nil {
		h.writeTranslationError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"term": term})
}

// SaveContent handles POST /content and PUT /content/{id}.
func (h *APIHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type             string             `json:"type"`
		Title            string             `json:"title"`
		Slug             string             `json:"slug"`
		Body             string             `json:"body"`
		Excerpt          string             `json:"excerpt"`
		Status           string             `json:"status"`
		AuthorID         int64              `json:"author_id"`
		Language         string             `json:"language"`
		TranslationGroup string             `json:"translation_group"`
		TermIDs          map[string][]int64 `json:"term_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeJSONError(w, http.StatusBadRequest, "title is required")
		return
	}

	var id int64
	if raw := chi.URLParam(r, "id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid id")
			return
		}
		id = parsed
	}

	item, err := h.saves.Save(r.Context(), service.SaveParams{
		ID:               id,
		Type:             req.Type,
		Title:            req.Title,
		Slug:             req.Slug,
		Body:             req.Body,
		Excerpt:          req.Excerpt,
		Status:           req.Status,
		AuthorID:         req.AuthorID,
		Language:         req.Language,
		TranslationGroup: req.TranslationGroup,
		TermIDs:          req.TermIDs,
	})
	if err != nil {
		slog.Error("content save failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"item": item})
}

// ListTerms handles GET /terms. When content_id is present the listing is
// hard-scoped to that item's language (site default if the item has none).
func (h *APIHandler) ListTerms(w http.ResponseWriter, r *http.Request) {
	taxonomyName := r.URL.Query().Get("taxonomy")
	if taxonomyName == "" {
		writeJSONError(w, http.StatusBadRequest, "taxonomy is required")
		return
	}

	q := taxonomy.NewTermQuery(taxonomyName)
	q.OrderBy = r.URL.Query().Get("order_by")

	if raw := r.URL.Query().Get("content_id"); raw != "" {
		contentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid content_id")
			return
		}
		lang := h.itemLanguage(r, contentID)
		q.ApplyLanguageScope(lang)
	}
	q.ApplyCustomOrder()

	terms, err := q.Run(r.Context(), h.db)
	if err != nil {
		slog.Error("term listing failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"terms": terms})
}

// GetTranslations handles GET /translations/{kind}/{group}.
func (h *APIHandler) GetTranslations(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	group := chi.URLParam(r, "group")
	if kind != model.EntityKindContent && kind != model.EntityKindTerm {
		writeJSONError(w, http.StatusBadRequest, "unknown entity kind")
		return
	}

	members, err := h.resolver.GetTranslations(r.Context(), kind, group)
	if err != nil {
		slog.Error("translation lookup failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"translations": members})
}

// GetBatchTranslations handles POST /translations/batch.
func (h *APIHandler) GetBatchTranslations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string  `json:"kind"`
		IDs  []int64 `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Kind != model.EntityKindContent && req.Kind != model.EntityKindTerm {
		writeJSONError(w, http.StatusBadRequest, "unknown entity kind")
		return
	}

	result, err := h.resolver.GetBatchTranslations(r.Context(), req.Kind, req.IDs)
	if err != nil {
		slog.Error("batch translation lookup failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"translations": result})
}

// CreateGroup handles POST /groups. It mints an empty translation group that
// later saves can link content or terms into.
func (h *APIHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Kind != model.EntityKindContent && req.Kind != model.EntityKindTerm {
		writeJSONError(w, http.StatusBadRequest, "unknown entity kind")
		return
	}

	groupID := uuid.NewString()
	if err := h.queries.CreateOrphanGroup(r.Context(), store.CreateOrphanGroupParams{
		GroupID:   groupID,
		Kind:      req.Kind,
		CreatedAt: time.Now(),
	}); err != nil {
		slog.Error("group registration failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "group registration failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"group": groupID})
}

// ListOrphanGroups handles GET /groups/orphans?kind=content|term.
func (h *APIHandler) ListOrphanGroups(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != model.EntityKindContent && kind != model.EntityKindTerm {
		writeJSONError(w, http.StatusBadRequest, "unknown entity kind")
		return
	}

	groups, err := h.queries.ListOrphanGroups(r.Context(), kind)
	if err != nil {
		slog.Error("orphan group listing failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"groups": groups})
}

// ListLanguages handles GET /languages.
func (h *APIHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.settings.ListLanguages(r.Context())
	if err != nil {
		slog.Error("language listing failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	out := make([]map[string]any, 0, len(langs))
	for i := range langs {
		l := &langs[i]
		out = append(out, map[string]any{
			"code":        l.Code,
			"name":        l.Name,
			"native_name": l.NativeName,
			"is_default":  l.IsDefault,
			"rtl":         l.IsRTL(),
			"position":    l.Position,
		})
	}
	writeJSONSuccess(w, map[string]any{"languages": out})
}

// AddLanguage handles POST /languages.
func (h *APIHandler) AddLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !util.IsValidLangCode(req.Code) {
		writeJSONError(w, http.StatusBadRequest, "invalid language code")
		return
	}

	lang, err := h.settings.AddLanguage(r.Context(), req.Code)
	switch {
	case errors.Is(err, service.ErrLanguageExists):
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, service.ErrUnknownLanguage):
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("language activation failed", "category", "config", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "language activation failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"language": lang})
}

// ListEvents handles GET /events.
func (h *APIHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	events, err := h.queries.ListRecentEvents(r.Context(), limit)
	if err != nil {
		slog.Error("event listing failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"events": events})
}

// ResolvePath handles GET /routes/resolve?content_id=N.
func (h *APIHandler) ResolvePath(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("content_id")
	contentID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid content_id")
		return
	}

	item, err := h.queries.GetContentItem(r.Context(), contentID)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "content item not found")
		return
	}
	if err != nil {
		slog.Error("content lookup failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSONSuccess(w, map[string]any{"path": h.routes.ContentPath(item)})
}

// RunAudit handles POST /audit/run.
func (h *APIHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	summary, err := h.auditor.RunAll(r.Context())
	if err != nil {
		slog.Error("audit run failed", "category", "audit", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "audit run failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"summary": summary})
}

// ListAuditIssues handles GET /audit/issues.
func (h *APIHandler) ListAuditIssues(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	issues, err := h.queries.ListAuditIssues(r.Context(), store.ListAuditIssuesParams{Limit: limit})
	if err != nil {
		slog.Error("issue listing failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSONSuccess(w, map[string]any{"issues": issues})
}

// PreviewFix handles GET /audit/issues/{uid}/fix.
func (h *APIHandler) PreviewFix(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	desc, can, err := h.auditor.FixPreview(r.Context(), uid)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "issue not found")
		return
	}
	writeJSONSuccess(w, map[string]any{"can_fix": can, "description": desc})
}

// ApplyFix handles POST /audit/issues/{uid}/fix.
func (h *APIHandler) ApplyFix(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := h.auditor.ApplyFix(r.Context(), uid); err != nil {
		slog.Warn("audit fix failed", "category", "audit", "uid", uid, "error", err)
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSONSuccess(w, nil)
}

// itemLanguage resolves a content item's language, falling back to the site
// default when the item has none yet.
func (h *APIHandler) itemLanguage(r *http.Request, contentID int64) string {
	item, err := h.queries.GetContentItem(r.Context(), contentID)
	if err == nil && item.Language != "" {
		return item.Language
	}
	lang, err := h.queries.GetDefaultLanguage(r.Context())
	if err != nil {
		return model.DefaultSettings().DefaultLanguage
	}
	return lang.Code
}

// writeTranslationError maps service errors onto HTTP statuses.
func (h *APIHandler) writeTranslationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, translation.ErrConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, translation.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case translation.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("translation creation failed", "category", "translation", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "translation creation failed")
	}
}

// pathID parses the {name} chi URL parameter as an entity id.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
