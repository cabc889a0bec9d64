package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/platform/httpx"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// Handler wires HTTP endpoints for movements and the unified feeds.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	hist     *history.Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, hist *history.Service) *Handler {
	return &Handler{logger: logger, service: service, hist: hist, validate: validator.New()}
}

// MountInbound registers receipt routes.
func (h *Handler) MountInbound(r chi.Router) {
	r.Get("/", h.listInbound)
	r.Post("/", h.createInbound)
	r.Get("/{id}", h.getInbound)
	r.Put("/{id}", h.updateInbound)
	r.Put("/{id}/void", h.setInboundVoid)
	r.Get("/{id}/history", h.inboundHistory)
}

// MountOutbound registers delivery routes.
func (h *Handler) MountOutbound(r chi.Router) {
	r.Get("/", h.listOutbound)
	r.Post("/", h.createOutbound)
	r.Get("/{id}", h.getOutbound)
	r.Put("/{id}", h.updateOutbound)
	r.Put("/{id}/void", h.setOutboundVoid)
	r.Get("/{id}/history", h.outboundHistory)
}

// MountMovements registers the unified header feed.
func (h *Handler) MountMovements(r chi.Router) {
	r.Get("/", h.listMovements)
}

// MountTransfers registers the unified line feed.
func (h *Handler) MountTransfers(r chi.Router) {
	r.Get("/", h.listMovementLines)
}

type linePayload struct {
	Item     uuid.UUID `json:"item" validate:"required"`
	Quantity int       `json:"quantity" validate:"gt=0"`
}

type inboundPayload struct {
	Supplier              string        `json:"supplier" validate:"required,max=255"`
	DeliveryReceipt       *string       `json:"deliveryReceipt"`
	DateOfDeliveryReceipt *string       `json:"dateOfDeliveryReceipt"`
	DateReceived          *string       `json:"dateReceived"`
	Lines                 []linePayload `json:"transfers" validate:"min=1,dive"`
}

type inboundUpdatePayload struct {
	Supplier              string  `json:"supplier" validate:"required,max=255"`
	DeliveryReceipt       *string `json:"deliveryReceipt"`
	DateOfDeliveryReceipt *string `json:"dateOfDeliveryReceipt"`
	DateReceived          *string `json:"dateReceived"`
}

type outboundPayload struct {
	Customer              string        `json:"customer" validate:"required,max=255"`
	DeliveryReceipt       *string       `json:"deliveryReceipt"`
	DateOfDeliveryReceipt *string       `json:"dateOfDeliveryReceipt"`
	Lines                 []linePayload `json:"transfers" validate:"min=1,dive"`
}

type outboundUpdatePayload struct {
	Customer              string  `json:"customer" validate:"required,max=255"`
	DeliveryReceipt       *string `json:"deliveryReceipt"`
	DateOfDeliveryReceipt *string `json:"dateOfDeliveryReceipt"`
}

type voidPayload struct {
	Void *bool `json:"void" validate:"required"`
}

func parseDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, shared.NewValidationError(field, "must be a date in YYYY-MM-DD form")
	}
	return &t, nil
}

func lineInputs(lines []linePayload) []LineInput {
	inputs := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, LineInput{ItemID: line.Item, Quantity: line.Quantity})
	}
	return inputs
}

func feedFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	filters := ListFilters{
		Search:   q.Get("search"),
		SortDir:  q.Get("dir"),
		PageSize: pageSize,
		Cursor:   q.Get("cursor"),
	}
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		filters.From = from
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		filters.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	return filters
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

func (h *Handler) createInbound(w http.ResponseWriter, r *http.Request) {
	var payload inboundPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	input := InboundInput{Supplier: payload.Supplier, DeliveryReceipt: payload.DeliveryReceipt, Lines: lineInputs(payload.Lines)}
	var err error
	if input.DateOfDeliveryReceipt, err = parseDate(payload.DateOfDeliveryReceipt, "dateOfDeliveryReceipt"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if input.DateReceived, err = parseDate(payload.DateReceived, "dateReceived"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	header, err := h.service.CreateInbound(r.Context(), input, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("create inbound", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, header)
}

func (h *Handler) createOutbound(w http.ResponseWriter, r *http.Request) {
	var payload outboundPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	input := OutboundInput{Customer: payload.Customer, DeliveryReceipt: payload.DeliveryReceipt, Lines: lineInputs(payload.Lines)}
	var err error
	if input.DateOfDeliveryReceipt, err = parseDate(payload.DateOfDeliveryReceipt, "dateOfDeliveryReceipt"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	header, err := h.service.CreateOutbound(r.Context(), input, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("create outbound", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, header)
}

func (h *Handler) getInbound(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	header, err := h.service.GetInbound(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) getOutbound(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	header, err := h.service.GetOutbound(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) updateInbound(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	var payload inboundUpdatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	update := InboundUpdate{Supplier: payload.Supplier, DeliveryReceipt: payload.DeliveryReceipt}
	if update.DateOfDeliveryReceipt, err = parseDate(payload.DateOfDeliveryReceipt, "dateOfDeliveryReceipt"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if update.DateReceived, err = parseDate(payload.DateReceived, "dateReceived"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	header, err := h.service.UpdateInbound(r.Context(), id, update, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("update inbound", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) updateOutbound(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	var payload outboundUpdatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	update := OutboundUpdate{Customer: payload.Customer, DeliveryReceipt: payload.DeliveryReceipt}
	if update.DateOfDeliveryReceipt, err = parseDate(payload.DateOfDeliveryReceipt, "dateOfDeliveryReceipt"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	header, err := h.service.UpdateOutbound(r.Context(), id, update, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("update outbound", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) setInboundVoid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	var payload voidPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	header, err := h.service.SetInboundVoid(r.Context(), id, *payload.Void, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("void inbound", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) setOutboundVoid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	var payload voidPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, asValidationError(err))
		return
	}
	header, err := h.service.SetOutboundVoid(r.Context(), id, *payload.Void, shared.ActorID(r.Context()))
	if err != nil {
		h.logger.Error("void outbound", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) listInbound(w http.ResponseWriter, r *http.Request) {
	headers, page, err := h.service.ListInbound(r.Context(), feedFilters(r))
	if err != nil {
		h.logger.Error("list inbound", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Data []InTransaction `json:"data"`
		shared.Page
	}{Data: headers, Page: page})
}

func (h *Handler) listOutbound(w http.ResponseWriter, r *http.Request) {
	headers, page, err := h.service.ListOutbound(r.Context(), feedFilters(r))
	if err != nil {
		h.logger.Error("list outbound", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Data []OutTransaction `json:"data"`
		shared.Page
	}{Data: headers, Page: page})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	movements, page, err := h.service.ListMovements(r.Context(), feedFilters(r))
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Data []Movement `json:"data"`
		shared.Page
	}{Data: movements, Page: page})
}

func (h *Handler) listMovementLines(w http.ResponseWriter, r *http.Request) {
	lines, page, err := h.service.ListMovementLines(r.Context(), feedFilters(r))
	if err != nil {
		h.logger.Error("list movement lines", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Data []MovementLine `json:"data"`
		shared.Page
	}{Data: lines, Page: page})
}

func (h *Handler) inboundHistory(w http.ResponseWriter, r *http.Request) {
	h.entityHistory(w, r, history.EntityInTransaction)
}

func (h *Handler) outboundHistory(w http.ResponseWriter, r *http.Request) {
	h.entityHistory(w, r, history.EntityOutTransaction)
}

func (h *Handler) entityHistory(w http.ResponseWriter, r *http.Request, entity history.EntityKind) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	entries, page, err := h.hist.List(r.Context(), entity, id, q.Get("cursor"), pageSize)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Data []history.Entry `json:"data"`
		shared.Page
	}{Data: entries, Page: page})
}
