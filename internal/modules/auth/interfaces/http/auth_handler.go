package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/brokeradda/portal/internal/gateway/middleware"
	"github.com/brokeradda/portal/internal/modules/auth/application"
	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/brokeradda/portal/internal/shared/utils"
	"go.uber.org/zap"
)

type StartFlowRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type DigitRequest struct {
	Index *int   `json:"index" validate:"required,min=0,max=5"`
	Value string `json:"value" validate:"max=1"`
}

type BackspaceRequest struct {
	Index *int `json:"index" validate:"required,min=0,max=5"`
}

type PasteRequest struct {
	Text string `json:"text" validate:"max=64"`
}

type SubmitRequest struct {
	Code string `json:"code"`
}

type ResendResponse struct {
	Sent bool             `json:"sent"`
	Flow application.View `json:"flow"`
}

type SessionResponse struct {
	Session  domain.Session `json:"session"`
	Redirect string         `json:"redirect"`
}

type AuthHandler struct {
	manager   *application.Manager
	validator *utils.Validator
	logger    *zap.Logger
}

func NewAuthHandler(manager *application.Manager, v *utils.Validator, logger *zap.Logger) *AuthHandler {
	if v == nil {
		v = utils.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{manager: manager, validator: v, logger: logger}
}

// clientID returns the caller identity, writing a 400 when the request
// did not pass through the identity middleware.
func (h *AuthHandler) clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.ClientIDFromContext(r.Context())
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing client id", nil)
		return "", false
	}
	return id, true
}

func (h *AuthHandler) flow(w http.ResponseWriter, r *http.Request) (*application.Flow, bool) {
	owner, ok := h.clientID(w, r)
	if !ok {
		return nil, false
	}
	f, err := h.manager.Get(owner, r.PathValue("id"))
	if err != nil {
		writeFlowError(w, err)
		return nil, false
	}
	return f, true
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted when allowEmpty is set.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
			return false
		}
	}
	if err := h.validator.Validate(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

func (h *AuthHandler) StartFlow(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.clientID(w, r)
	if !ok {
		return
	}
	var req StartFlowRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	f, err := h.manager.Start(owner, req.Phone)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, f.View())
}

func (h *AuthHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, f.View())
}

func (h *AuthHandler) EndFlow(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.clientID(w, r)
	if !ok {
		return
	}
	if err := h.manager.End(owner, r.PathValue("id")); err != nil {
		writeFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) SetDigit(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req DigitRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	h.respond(w, f, func() (application.View, error) {
		return f.SetDigit(r.Context(), *req.Index, req.Value)
	})
}

func (h *AuthHandler) Backspace(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req BackspaceRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	h.respond(w, f, func() (application.View, error) {
		return f.Backspace(r.Context(), *req.Index)
	})
}

func (h *AuthHandler) Paste(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req PasteRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	h.respond(w, f, func() (application.View, error) {
		return f.Paste(r.Context(), req.Text)
	})
}

// Submit verifies the posted code, or the entered cells when the body
// carries none.
func (h *AuthHandler) Submit(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req SubmitRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	h.respond(w, f, func() (application.View, error) {
		return f.Submit(r.Context(), req.Code)
	})
}

func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	sent, err := f.Resend(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ResendResponse{Sent: sent, Flow: f.View()})
}

func (h *AuthHandler) respond(w http.ResponseWriter, f *application.Flow, op func() (application.View, error)) {
	v, err := op()
	if err != nil {
		h.logger.Debug("otp flow operation failed", zap.String("flow_id", f.ID()), zap.Error(err))
		writeFlowError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

// Session returns the session persisted for the caller.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.clientID(w, r)
	if !ok {
		return
	}
	session, err := h.manager.Session(r.Context(), owner)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, SessionResponse{Session: session, Redirect: h.manager.Redirect(session.Role)})
}

// Logout clears the caller's persisted session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.clientID(w, r)
	if !ok {
		return
	}
	if err := h.manager.Logout(r.Context(), owner); err != nil {
		writeFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor maps an auth error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPhone):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrServerRejected):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrFlowNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSubmissionInProgress), errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusConflict
	case errors.Is(err, domain.ErrFlowClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrTokenIntegrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeFlowError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := domain.UserMessage(err)
	switch {
	case errors.Is(err, domain.ErrFlowNotFound), errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrFlowClosed), errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrAlreadyVerified):
		message = err.Error()
	}
	utils.WriteError(w, status, message, err)
}
