package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payguard/internal/model"
)

// mockService scripts PaymentService responses per test.
type mockService struct {
	createAgentFn func(model.CreateAgentRequest) (*model.CreateAgentResult, error)
	listAgentsFn  func(string) ([]model.Agent, error)
	submitFn      func(model.SubmitRequest) (*model.SubmitResult, error)
	decideFn      func(model.DecideRequest) (*model.DecideResult, error)
	listPendingFn func(string, string) ([]model.PendingItem, error)
	historyFn     func(model.HistoryFilter) (*model.HistoryPage, error)
}

func (m *mockService) CreateAgent(ctx context.Context, req model.CreateAgentRequest) (*model.CreateAgentResult, error) {
	return m.createAgentFn(req)
}
func (m *mockService) ListAgents(ctx context.Context, owner string) ([]model.Agent, error) {
	return m.listAgentsFn(owner)
}
func (m *mockService) DeactivateAgent(ctx context.Context, agentID, owner string) error { return nil }
func (m *mockService) Submit(ctx context.Context, req model.SubmitRequest) (*model.SubmitResult, error) {
	return m.submitFn(req)
}
func (m *mockService) Decide(ctx context.Context, req model.DecideRequest) (*model.DecideResult, error) {
	return m.decideFn(req)
}
func (m *mockService) ListPending(ctx context.Context, owner, agentID string) ([]model.PendingItem, error) {
	return m.listPendingFn(owner, agentID)
}
func (m *mockService) History(ctx context.Context, f model.HistoryFilter) (*model.HistoryPage, error) {
	return m.historyFn(f)
}
func (m *mockService) ListTransactions(ctx context.Context, agentID string) ([]model.Transaction, error) {
	return nil, nil
}
func (m *mockService) PullNotifications(ctx context.Context, recipient string) ([]model.Notification, int64, error) {
	return nil, 0, nil
}
func (m *mockService) SettleApproval(ctx context.Context, ev model.ApprovalEvent) error { return nil }

func newTestServer(svc *mockService) *httptest.Server {
	mux := http.NewServeMux()
	NewHandler(svc, zerolog.Nop()).Register(mux)
	return httptest.NewServer(mux)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&mockService{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAgent_Created(t *testing.T) {
	svc := &mockService{
		createAgentFn: func(req model.CreateAgentRequest) (*model.CreateAgentResult, error) {
			return &model.CreateAgentResult{AgentID: "a1", WalletAddress: "W", WalletSecret: "S"}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/agents", "application/json",
		strings.NewReader(`{"name":"bot","owner_address":"OWNER1","spending_limit":100}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out model.CreateAgentResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "a1", out.AgentID)
	assert.Equal(t, "S", out.WalletSecret)
}

func TestCreateAgent_InvalidJSON(t *testing.T) {
	srv := newTestServer(&mockService{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/agents", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmit_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: amount must be positive", model.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: agent x", model.ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("%w: key", model.ErrAlreadyProcessed), http.StatusConflict},
		{"store down", fmt.Errorf("%w: connect", model.ErrStore), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				submitFn: func(req model.SubmitRequest) (*model.SubmitResult, error) {
					return nil, tt.err
				},
			}
			srv := newTestServer(svc)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/requests", "application/json",
				strings.NewReader(`{"agent_id":"a1","amount":10,"recipient_address":"R","reason":"x"}`))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestSubmit_StoreErrorHidesDetail(t *testing.T) {
	svc := &mockService{
		submitFn: func(req model.SubmitRequest) (*model.SubmitResult, error) {
			return nil, fmt.Errorf("%w: dial tcp 10.0.0.5:5432", model.ErrStore)
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/requests", "application/json",
		strings.NewReader(`{"agent_id":"a1","amount":10,"recipient_address":"R","reason":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "storage unavailable", body["error"])
	assert.NotContains(t, body["error"], "10.0.0.5")
}

func TestSubmit_Success(t *testing.T) {
	svc := &mockService{
		submitFn: func(req model.SubmitRequest) (*model.SubmitResult, error) {
			assert.Equal(t, "a1", req.AgentID)
			assert.Equal(t, int64(10), req.Amount)
			return &model.SubmitResult{RequestID: 42, Status: model.StatusApproved, AutoApproved: true}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/requests", "application/json",
		strings.NewReader(`{"agent_id":"a1","amount":10,"recipient_address":"R","reason":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.SubmitResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(42), out.RequestID)
	assert.True(t, out.AutoApproved)
}

func TestDecide(t *testing.T) {
	svc := &mockService{
		decideFn: func(req model.DecideRequest) (*model.DecideResult, error) {
			assert.Equal(t, int64(7), req.RequestID)
			assert.Equal(t, model.ActionApprove, req.Action)
			assert.Equal(t, "OWNER1", req.ApproverAddress)
			return &model.DecideResult{RequestID: 7, Action: req.Action, Status: model.StatusApproved}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/requests/7/decide", "application/json",
		strings.NewReader(`{"action":"approve","approver_address":"OWNER1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDecide_WrongOwner(t *testing.T) {
	svc := &mockService{
		decideFn: func(req model.DecideRequest) (*model.DecideResult, error) {
			return nil, fmt.Errorf("%w: request 7", model.ErrUnauthorized)
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/requests/7/decide", "application/json",
		strings.NewReader(`{"action":"approve","approver_address":"INTRUDER"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDecide_BadRequestID(t *testing.T) {
	srv := newTestServer(&mockService{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/requests/notanumber/decide", "application/json",
		strings.NewReader(`{"action":"approve","approver_address":"OWNER1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAgents_ComputedFields(t *testing.T) {
	svc := &mockService{
		listAgentsFn: func(owner string) ([]model.Agent, error) {
			return []model.Agent{
				{ID: "a1", SpendingLimit: 100, TotalSpent: 25, IsActive: true},
			}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/agents?owner=OWNER1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Agents []struct {
			RemainingBudget int64   `json:"remaining_budget"`
			Utilization     float64 `json:"utilization"`
		} `json:"agents"`
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, int64(75), out.Agents[0].RemainingBudget)
	assert.InDelta(t, 25.0, out.Agents[0].Utilization, 0.001)
}

func TestHistory_QueryParams(t *testing.T) {
	svc := &mockService{
		historyFn: func(f model.HistoryFilter) (*model.HistoryPage, error) {
			assert.Equal(t, "OWNER1", f.OwnerAddress)
			assert.Equal(t, model.StatusDenied, f.Status)
			assert.Equal(t, 20, f.Limit)
			assert.Equal(t, 40, f.Offset)
			return &model.HistoryPage{Limit: f.Limit, Offset: f.Offset}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/history?owner=OWNER1&status=denied&limit=20&offset=40")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListPending(t *testing.T) {
	svc := &mockService{
		listPendingFn: func(owner, agentID string) ([]model.PendingItem, error) {
			assert.Equal(t, "OWNER1", owner)
			return []model.PendingItem{{RemainingBudget: 40}}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pending?owner=OWNER1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Count)
}
