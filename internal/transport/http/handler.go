package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"payguard/internal/model"
	"payguard/internal/service"
)

type Handler struct {
	svc service.PaymentService
	log zerolog.Logger
}

func NewHandler(svc service.PaymentService, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /agents", h.CreateAgent)
	mux.HandleFunc("GET /agents", h.ListAgents)
	mux.HandleFunc("POST /agents/{id}/deactivate", h.DeactivateAgent)
	mux.HandleFunc("GET /agents/{id}/transactions", h.ListTransactions)

	mux.HandleFunc("POST /requests", h.SubmitRequest)
	mux.HandleFunc("POST /requests/{id}/decide", h.Decide)

	mux.HandleFunc("GET /pending", h.ListPending)
	mux.HandleFunc("GET /history", h.History)

	mux.HandleFunc("GET /events", h.StreamNotifications)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	res, err := h.svc.CreateAgent(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, res)
}

// agentView adds the computed fields callers render.
type agentView struct {
	model.Agent
	RemainingBudget int64   `json:"remaining_budget"`
	Utilization     float64 `json:"utilization"`
}

func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	agents, err := h.svc.ListAgents(r.Context(), owner)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	views := make([]agentView, len(agents))
	for i, a := range agents {
		views[i] = agentView{
			Agent:           a,
			RemainingBudget: a.RemainingBudget(),
			Utilization:     a.Utilization(),
		}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"agents": views, "count": len(views)})
}

func (h *Handler) DeactivateAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerAddress string `json:"owner_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := h.svc.DeactivateAgent(r.Context(), r.PathValue("id"), req.OwnerAddress); err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"transactions": txs, "count": len(txs)})
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	res, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	var body struct {
		Action          model.DecisionAction `json:"action"`
		ApproverAddress string               `json:"approver_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	res, err := h.svc.Decide(r.Context(), model.DecideRequest{
		RequestID:       requestID,
		Action:          body.Action,
		ApproverAddress: body.ApproverAddress,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListPending(r.Context(), q.Get("owner"), q.Get("agent_id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"pending": items, "count": len(items)})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	page, err := h.svc.History(r.Context(), model.HistoryFilter{
		OwnerAddress: q.Get("owner"),
		AgentID:      q.Get("agent_id"),
		Status:       model.RequestStatus(q.Get("status")),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, page)
}

// respondServiceError maps the error taxonomy to status codes. Store
// failures get a generic message so internals never leak to callers.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrAlreadyProcessed):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrStore):
		h.log.Error().Err(err).Msg("store failure")
		h.respondError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		h.log.Error().Err(err).Msg("unhandled service error")
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
