package categories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	catshared "github.com/fcgregorio/jbj-trading/internal/catalog/shared"
	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/platform/httpx"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// Handler wires HTTP endpoints for the categories module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	hist     *history.Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, hist *history.Service) *Handler {
	return &Handler{logger: logger, service: service, hist: hist, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.softDelete)
	r.Post("/{id}/restore", h.restore)
	r.Get("/{id}/history", h.history)
}

type categoryPayload struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	filters := catshared.ListFilters{
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("showDeleted") == "true",
		SortDir:        q.Get("dir"),
		PageSize:       pageSize,
		Cursor:         q.Get("cursor"),
	}
	categories, page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Data []Category `json:"data"`
		shared.Page
	}{Data: categories, Page: page})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	category, err := h.service.Create(r.Context(), payload.Name, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("create category", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid category id")
		return
	}
	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid category id")
		return
	}
	var payload categoryPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	category, err := h.service.Update(r.Context(), id, payload.Name, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("update category", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid category id")
		return
	}
	category, err := h.service.SoftDelete(r.Context(), id, shared.ActorID(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid category id")
		return
	}
	category, err := h.service.Restore(r.Context(), id, shared.ActorID(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid category id")
		return
	}
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	entries, page, err := h.hist.List(r.Context(), history.EntityCategory, id, q.Get("cursor"), pageSize)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Data []history.Entry `json:"data"`
		shared.Page
	}{Data: entries, Page: page})
}

func asValidationError(err error) error {
	fields := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return &shared.ValidationError{Fields: fields}
}
