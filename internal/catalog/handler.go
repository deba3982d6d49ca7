package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
	"github.com/caseflow-app/caseflow/internal/shared"
)

// Handler exposes catalog administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	registrar *Registrar
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, registrar *Registrar) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		registrar: registrar,
		validator: validator.New(),
	}
}

// MountRoutes registers catalog admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/pages", func(r chi.Router) {
		r.Get("/", h.listPages)
		r.Post("/", h.createPage)
		r.Post("/sync", h.syncPages)
		r.Put("/{pageID}", h.updatePage)
		r.Post("/{pageID}/deactivate", h.deactivatePage)
		r.Delete("/{pageID}", h.deletePage)
	})
	r.Route("/permissions", func(r chi.Router) {
		r.Get("/", h.listPermissions)
		r.Post("/", h.createPermission)
		r.Post("/generate", h.generatePermissions)
		r.Post("/{permissionID}/deactivate", h.deactivatePermission)
	})
}

type pageResponse struct {
	ID         int64  `json:"id"`
	PageKey    string `json:"page_key"`
	PageName   string `json:"page_name"`
	RoutePath  string `json:"route_path"`
	SectionKey string `json:"section_key,omitempty"`
	SortOrder  int    `json:"sort_order"`
	IsActive   bool   `json:"is_active"`
}

func toPageResponse(page Page) pageResponse {
	return pageResponse{
		ID:         page.ID,
		PageKey:    page.PageKey,
		PageName:   page.PageName,
		RoutePath:  page.RoutePath,
		SectionKey: page.SectionKey,
		SortOrder:  page.SortOrder,
		IsActive:   page.IsActive,
	}
}

type permissionResponse struct {
	ID        int64  `json:"id"`
	PermKey   string `json:"perm_key"`
	ActionKey string `json:"action_key"`
	PageID    int64  `json:"page_id"`
	IsActive  bool   `json:"is_active"`
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListPages(r.Context())
	if err != nil {
		h.logger.Error("list pages", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	out := make([]pageResponse, 0, len(pages))
	for _, page := range pages {
		out = append(out, toPageResponse(page))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createPage(w http.ResponseWriter, r *http.Request) {
	var input PageInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	page, err := h.service.CreatePage(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPageResponse(page))
}

func (h *Handler) syncPages(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pages []PageInput `json:"pages"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	report, err := h.registrar.SyncPages(r.Context(), body.Pages)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) updatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "pageID")
	if !ok {
		return
	}
	var input PageInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.UpdatePage(r.Context(), id, input); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deactivatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "pageID")
	if !ok {
		return
	}
	if err := h.service.DeactivatePage(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "pageID")
	if !ok {
		return
	}
	if err := h.service.DeletePage(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, perm := range perms {
		out = append(out, permissionResponse{
			ID:        perm.ID,
			PermKey:   perm.PermKey,
			ActionKey: perm.ActionKey,
			PageID:    perm.PageID,
			IsActive:  perm.IsActive,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PageID    int64  `json:"page_id" validate:"required,gt=0"`
		ActionKey string `json:"action_key" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	key, err := h.service.CreatePermission(r.Context(), body.PageID, body.ActionKey)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"perm_key": key})
}

func (h *Handler) generatePermissions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ActionKeys []string `json:"action_keys"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	report, err := h.registrar.GeneratePermissions(r.Context(), body.ActionKeys)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) deactivatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.service.DeactivatePermission(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
