package http

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/brokeradda/portal/internal/modules/notification/application"
	"github.com/brokeradda/portal/internal/modules/notification/domain"
	"github.com/brokeradda/portal/internal/modules/notification/infrastructure/websocket"
	"github.com/brokeradda/portal/internal/shared/utils"
	"go.uber.org/zap"
)

var surfacePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type CreateToastRequest struct {
	Type          string          `json:"type" validate:"omitempty,oneof=blank error success loading custom"`
	Message       string          `json:"message" validate:"max=500"`
	Payload       json.RawMessage `json:"payload"`
	ID            string          `json:"id" validate:"omitempty,max=64"`
	DurationMs    *int64          `json:"duration_ms" validate:"omitempty,min=-1"`
	RemoveDelayMs *int64          `json:"remove_delay_ms" validate:"omitempty,min=0"`
	Position      string          `json:"position" validate:"omitempty,oneof=top-left top-center top-right bottom-left bottom-center bottom-right"`
}

type UpdateToastRequest struct {
	Type    *string  `json:"type" validate:"omitempty,oneof=blank error success loading custom"`
	Message *string  `json:"message" validate:"omitempty,max=500"`
	Visible *bool    `json:"visible"`
	Height  *float64 `json:"height" validate:"omitempty,min=0"`
}

type CreateToastResponse struct {
	ID string `json:"id"`
	websocket.Snapshot
}

type ToastHandler struct {
	store     *application.Store
	hub       *websocket.Hub
	validator *utils.Validator
	layout    domain.LayoutOptions
	logger    *zap.Logger
}

func NewToastHandler(store *application.Store, hub *websocket.Hub, v *utils.Validator, layout domain.LayoutOptions, logger *zap.Logger) *ToastHandler {
	if v == nil {
		v = utils.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToastHandler{store: store, hub: hub, validator: v, layout: layout, logger: logger}
}

// notifier resolves the surface path value, writing a 400 when it is malformed.
func (h *ToastHandler) notifier(w http.ResponseWriter, r *http.Request) (*application.Notifier, bool) {
	surface := r.PathValue("surface")
	if !surfacePattern.MatchString(surface) {
		utils.WriteError(w, http.StatusBadRequest, "invalid surface", nil)
		return nil, false
	}
	return application.NewNotifier(h.store, surface), true
}

func (h *ToastHandler) snapshot(n *application.Notifier) websocket.Snapshot {
	return websocket.NewSnapshot(n.Surface(), n.State(), h.layout)
}

func (h *ToastHandler) List(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

func (h *ToastHandler) Create(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}

	var req CreateToastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	typ := domain.ToastType(req.Type)
	if typ == "" {
		typ = domain.TypeBlank
	}
	opts := domain.Options{
		ID:       req.ID,
		Position: domain.Position(req.Position),
		Payload:  req.Payload,
	}
	if req.DurationMs != nil {
		d := domain.Forever
		if *req.DurationMs >= 0 {
			d = time.Duration(*req.DurationMs) * time.Millisecond
		}
		opts.Duration = &d
	}
	if req.RemoveDelayMs != nil {
		d := time.Duration(*req.RemoveDelayMs) * time.Millisecond
		opts.RemoveDelay = &d
	}

	id, err := n.Create(typ, req.Message, opts)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid toast", err)
		return
	}
	h.logger.Debug("toast created", zap.String("surface", n.Surface()), zap.String("id", id), zap.String("type", string(typ)))

	utils.WriteJSON(w, http.StatusCreated, CreateToastResponse{ID: id, Snapshot: h.snapshot(n)})
}

func (h *ToastHandler) Update(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, found := n.State().Find(id); !found {
		utils.WriteError(w, http.StatusNotFound, "toast not found", nil)
		return
	}

	var req UpdateToastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	patch := domain.Patch{Message: req.Message, Visible: req.Visible, Height: req.Height}
	if req.Type != nil {
		t := domain.ToastType(*req.Type)
		patch.Type = &t
	}
	n.Update(id, patch)

	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

func (h *ToastHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	n.Dismiss(r.PathValue("id"))
	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

func (h *ToastHandler) DismissAll(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	n.DismissAll()
	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

func (h *ToastHandler) Remove(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	n.Remove(r.PathValue("id"))
	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

func (h *ToastHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	n.RemoveAll()
	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

func (h *ToastHandler) Pause(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	n.Pause()
	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

func (h *ToastHandler) Resume(w http.ResponseWriter, r *http.Request) {
	n, ok := h.notifier(w, r)
	if !ok {
		return
	}
	n.Resume()
	utils.WriteJSON(w, http.StatusOK, h.snapshot(n))
}

// Subscribe upgrades to a websocket streaming the surface snapshots.
func (h *ToastHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	surface := r.PathValue("surface")
	if !surfacePattern.MatchString(surface) {
		utils.WriteError(w, http.StatusBadRequest, "invalid surface", nil)
		return
	}
	websocket.ServeWs(h.hub, w, r, surface)
}
