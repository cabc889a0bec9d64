package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fcgregorio/jbj-trading/internal/platform/httpx"
	"github.com/fcgregorio/jbj-trading/internal/shared"
	"github.com/fcgregorio/jbj-trading/internal/users"
)

// Handler wires the token endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountPublic registers the unauthenticated token-issue route.
func (h *Handler) MountPublic(r chi.Router) {
	r.Post("/tokens", h.issue)
}

// MountProtected registers routes that need a resolved actor.
func (h *Handler) MountProtected(r chi.Router) {
	r.Delete("/tokens", h.revoke)
	r.Get("/me", h.me)
}

type credentialsPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token Token      `json:"token"`
	User  users.User `json:"user"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	token, user, err := h.service.Issue(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.logger.Warn("token issue failed", slog.String("username", payload.Username))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := TokenFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Revoke(r.Context(), tokenID); err != nil {
		h.logger.Error("token revoke", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, actor)
}
