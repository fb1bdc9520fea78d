package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	bundleerrors "github.com/nikbrunner/bundles/internal/errors"
	"github.com/nikbrunner/bundles/internal/logger"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/present"
)

type handlers struct {
	deps Deps
}

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// bundleRequest is the body of POST /bundles.
type bundleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URLs        []string `json:"urls"`
	Pinned      bool     `json:"pinned"`
}

// patchRequest is the body of PATCH /bundles/{name}. Absent fields are kept.
type patchRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	URLs        []string `json:"urls"`
	Pinned      *bool    `json:"pinned"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps store errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case bundleerrors.Is(err, bundleerrors.ErrInvalidBundle), bundleerrors.Is(err, bundleerrors.ErrInvalidConfig):
		return http.StatusBadRequest
	case bundleerrors.Is(err, bundleerrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Code: "INTERNAL", Message: err.Error()}

	var be *bundleerrors.Error
	if errors.As(err, &be) {
		resp.Code = string(be.Code)
		resp.Message = be.Message
		resp.Fields = be.Fields
	}
	if status == http.StatusInternalServerError {
		h.deps.Logger.Error("request failed", logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthzResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.deps.StartTime).Seconds(),
	})
}

// list returns the ranked and sectioned bundles for ?q=.
func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.deps.Store.GetAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	query := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, present.Build(query, all, h.deps.Threshold, h.deps.Search))
}

// nameParam returns the unescaped {name} segment. chi matches on the raw
// path when it carries escapes such as %2F, so the segment is decoded here.
func nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, true
	}
	unescaped, err := url.PathUnescape(name)
	if err != nil {
		badRequest(w, fmt.Sprintf("invalid bundle name %q", name))
		return "", false
	}
	return unescaped, true
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	b, err := h.deps.Store.Get(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	b := model.Bundle{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		URLs:        req.URLs,
		Pinned:      req.Pinned,
	}
	if err := h.deps.Store.Add(r.Context(), b); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondWith(w, r, http.StatusCreated, b.Name)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	patch := model.Patch{
		Name:        req.Name,
		Description: req.Description,
		URLs:        req.URLs,
		Pinned:      req.Pinned,
	}
	if err := h.deps.Store.Update(r.Context(), name, patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Name != nil {
		name = *req.Name
	}
	h.respondWith(w, r, http.StatusOK, name)
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	if err := h.deps.Store.Delete(r.Context(), name); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) setPinned(pinned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := nameParam(w, r)
		if !ok {
			return
		}
		if err := h.deps.Store.SetPinned(r.Context(), name, pinned); err != nil {
			h.fail(w, r, err)
			return
		}
		h.respondWith(w, r, http.StatusOK, name)
	}
}

func (h *handlers) moveToTop(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	if err := h.deps.Store.MoveToTop(r.Context(), name); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondWith(w, r, http.StatusOK, name)
}

func (h *handlers) moveToBottom(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	if err := h.deps.Store.MoveToBottom(r.Context(), name); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondWith(w, r, http.StatusOK, name)
}

// respondWith writes the stored state of the named bundle.
func (h *handlers) respondWith(w http.ResponseWriter, r *http.Request, status int, name string) {
	b, err := h.deps.Store.Get(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, b)
}
