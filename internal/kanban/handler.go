// Package kanban implements the HTTP handlers for the tracker service.
//
// All routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	GET    /applications[?status=S]        → list user's applications
//	POST   /applications                   → create an application
//	GET    /applications/{id}              → fetch one application
//	PUT    /applications/{id}              → edit an application
//	DELETE /applications/{id}              → delete an application
//	PATCH  /applications/{id}/move         → drag a card to a column/position
package kanban

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// UserIDHeader carries the caller's identity, resolved by the Gateway.
const UserIDHeader = "x-user-id"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all tracker-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /applications", h.withUser(h.listApplications))
	mux.HandleFunc("POST /applications", h.withUser(h.createApplication))
	mux.HandleFunc("GET /applications/{id}", h.withUser(h.getApplication))
	mux.HandleFunc("PUT /applications/{id}", h.withUser(h.updateApplication))
	mux.HandleFunc("DELETE /applications/{id}", h.withUser(h.deleteApplication))
	mux.HandleFunc("PATCH /applications/{id}/move", h.withUser(h.moveCard))
}

type userHandlerFunc func(w http.ResponseWriter, r *http.Request, userID string)

// withUser rejects requests the Gateway did not stamp with a user.
func (h *Handler) withUser(next userHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
			return
		}
		next(w, r, userID)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request, userID string) {
	apps, err := h.svc.ListApplications(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, "listApplications", err)
		return
	}
	jsonOK(w, apps)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request, userID string) {
	app, err := h.svc.GetApplication(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "getApplication", err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request, userID string) {
	var body CreateRequest
	if !decodeBody(w, r, &body) {
		return
	}

	app, err := h.svc.CreateApplication(r.Context(), userID, body)
	if err != nil {
		writeServiceError(w, r, "createApplication", err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) updateApplication(w http.ResponseWriter, r *http.Request, userID string) {
	var body UpdateRequest
	if !decodeBody(w, r, &body) {
		return
	}

	app, err := h.svc.UpdateApplication(r.Context(), userID, r.PathValue("id"), body)
	if err != nil {
		writeServiceError(w, r, "updateApplication", err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.svc.DeleteApplication(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, "deleteApplication", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveCard(w http.ResponseWriter, r *http.Request, userID string) {
	var body MoveRequest
	if !decodeBody(w, r, &body) {
		return
	}

	app, err := h.svc.MoveCard(r.Context(), userID, r.PathValue("id"), body)
	if err != nil {
		writeServiceError(w, r, "moveCard", err)
		return
	}
	jsonOK(w, app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// decodeBody parses a JSON body of at most maxBodyBytes into dst. On failure
// it writes the error response and returns false. Field validation happens
// in the Service.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		jsonError(w, ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		jsonError(w, ve.Msg, http.StatusBadRequest)
		return
	}
	slog.ErrorContext(r.Context(), "[tracker] request failed", "op", op, "err", err)
	jsonError(w, "database error", http.StatusInternalServerError)
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
