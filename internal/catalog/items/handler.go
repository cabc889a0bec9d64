package items

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

// Handler wires HTTP endpoints for the item catalog.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	hist     *history.Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, hist *history.Service) *Handler {
	return &Handler{logger: logger, service: service, hist: hist, validate: validator.New()}
}

// MountRoutes registers item routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/alerts", h.alerts)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.softDelete)
	r.Post("/{id}/restore", h.restore)
	r.Get("/{id}/history", h.history)
}

type itemPayload struct {
	Name        string    `json:"name" validate:"required,max=255"`
	SafetyStock int       `json:"safetyStock" validate:"gte=0"`
	Stock       int       `json:"stock" validate:"gte=0"`
	Remarks     string    `json:"remarks"`
	UnitID      uuid.UUID `json:"unit" validate:"required"`
	CategoryID  uuid.UUID `json:"category" validate:"required"`
}

func (p itemPayload) input() Input {
	return Input{
		Name:        p.Name,
		SafetyStock: p.SafetyStock,
		Stock:       p.Stock,
		Remarks:     p.Remarks,
		UnitID:      p.UnitID,
		CategoryID:  p.CategoryID,
	}
}

type listResponse struct {
	Data []Item `json:"data"`
	shared.Page
}

func itemFilters(r *http.Request) catshared.ListFilters {
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	return catshared.ListFilters{
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("showDeleted") == "true",
		SortBy:         q.Get("sortBy"),
		SortDir:        q.Get("dir"),
		PageSize:       pageSize,
		Cursor:         q.Get("cursor"),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.service.List(r.Context(), itemFilters(r))
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: items, Page: page})
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.service.ListAlerts(r.Context(), itemFilters(r))
	if err != nil {
		h.logger.Error("list item alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: items, Page: page})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	item, err := h.service.Create(r.Context(), payload.input(), shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("create item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	var payload itemPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	item, err := h.service.Update(r.Context(), id, payload.input(), shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("update item", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	item, err := h.service.SoftDelete(r.Context(), id, shared.ActorID(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	item, err := h.service.Restore(r.Context(), id, shared.ActorID(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	entries, page, err := h.hist.List(r.Context(), history.EntityItem, id, q.Get("cursor"), pageSize)
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
