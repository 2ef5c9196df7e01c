package model

import "time"

type CreateAgentRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	OwnerAddress  string `json:"owner_address"`
	SpendingLimit int64  `json:"spending_limit"`
}

type CreateAgentResult struct {
	AgentID       string `json:"agent_id"`
	WalletAddress string `json:"wallet_address"`
	// WalletSecret is returned once at creation and never persisted.
	WalletSecret string `json:"wallet_secret"`
}

type SubmitRequest struct {
	AgentID          string `json:"agent_id"`
	Amount           int64  `json:"amount"`
	RecipientAddress string `json:"recipient_address"`
	Reason           string `json:"reason"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`
}

type SubmitResult struct {
	RequestID    int64         `json:"request_id"`
	Status       RequestStatus `json:"status"`
	AutoApproved bool          `json:"auto_approved"`
}

// DecisionAction is an owner's verdict on a pending request.
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionDeny    DecisionAction = "deny"
)

type DecideRequest struct {
	RequestID       int64          `json:"request_id"`
	Action          DecisionAction `json:"action"`
	ApproverAddress string         `json:"approver_address"`
}

type DecideResult struct {
	RequestID int64          `json:"request_id"`
	Action    DecisionAction `json:"action"`
	Status    RequestStatus  `json:"status"`
}

// PendingItem is a pending request joined with its agent's budget state.
type PendingItem struct {
	PaymentRequest
	AgentName       string `json:"agent_name"`
	WalletAddress   string `json:"wallet_address"`
	SpendingLimit   int64  `json:"spending_limit"`
	TotalSpent      int64  `json:"total_spent"`
	RemainingBudget int64  `json:"remaining_budget"`
}

type HistoryFilter struct {
	OwnerAddress string
	AgentID      string
	Status       RequestStatus
	Limit        int
	Offset       int
}

// HistoryItem is a request joined with its agent and, when one exists,
// the ledger transaction it produced.
type HistoryItem struct {
	PaymentRequest
	AgentName           string  `json:"agent_name"`
	WalletAddress       string  `json:"wallet_address"`
	OwnerAddress        string  `json:"owner_address"`
	SettlementReference *string `json:"settlement_reference,omitempty"`
	TransactionStatus   *string `json:"transaction_status,omitempty"`
}

type HistoryStats struct {
	PendingCount  int64 `json:"pending_count"`
	ApprovedCount int64 `json:"approved_count"`
	DeniedCount   int64 `json:"denied_count"`
	TotalVolume   int64 `json:"total_volume"`
}

type HistoryPage struct {
	Items   []HistoryItem `json:"items"`
	Total   int64         `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"has_more"`
	Stats   HistoryStats  `json:"stats"`
}

// ApprovalEvent is published on the bus after an approval commits.
// The settlement worker consumes it and appends the ledger row.
type ApprovalEvent struct {
	RequestID        int64     `json:"request_id"`
	AgentID          string    `json:"agent_id"`
	WalletAddress    string    `json:"wallet_address"`
	Amount           int64     `json:"amount"`
	RecipientAddress string    `json:"recipient_address"`
	Reason           string    `json:"reason"`
	ApprovedBy       string    `json:"approved_by"`
	ApprovedAt       time.Time `json:"approved_at"`
}
