package assignment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
	"github.com/caseflow-app/caseflow/internal/shared"
)

// Handler exposes the bulk assignment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers assignment routes under the admin prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/roles/{roleID}/permissions", h.listRolePermissions)
	r.Put("/roles/{roleID}/permissions", h.setRolePermissions)
	r.Get("/users/{userID}/permissions", h.listUserPermissions)
	r.Put("/users/{userID}/permissions", h.setUserPermissions)
	r.Get("/users/{userID}/roles", h.listUserRoles)
	r.Put("/users/{userID}/roles", h.setUserRoles)
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	links, err := h.service.repo.ListRolePermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list role permissions", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	out := make([]PermissionUpdate, 0, len(links))
	for _, link := range links {
		out = append(out, PermissionUpdate{PermissionID: link.PermissionID, IsAllowed: link.IsAllowed})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	var body struct {
		Updates []PermissionUpdate `json:"updates"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	report, err := h.service.SetRolePermissions(r.Context(), id, body.Updates)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) listUserPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	links, err := h.service.repo.ListUserPermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list user permissions", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	out := make([]PermissionUpdate, 0, len(links))
	for _, link := range links {
		out = append(out, PermissionUpdate{PermissionID: link.PermissionID, IsAllowed: link.IsAllowed})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) setUserPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var body struct {
		Updates []PermissionUpdate `json:"updates"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	report, err := h.service.SetUserPermissions(r.Context(), id, body.Updates)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) listUserRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	links, err := h.service.repo.ListUserRoles(r.Context(), id)
	if err != nil {
		h.logger.Error("list user roles", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	out := make([]int64, 0, len(links))
	for _, link := range links {
		out = append(out, link.RoleID)
	}
	httpx.JSON(w, http.StatusOK, map[string][]int64{"role_ids": out})
}

func (h *Handler) setUserRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var body struct {
		RoleIDs []int64 `json:"role_ids"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	report, err := h.service.SetUserRoles(r.Context(), id, body.RoleIDs)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	httpx.RespondError(w, err)
}
