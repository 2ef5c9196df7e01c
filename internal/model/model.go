package model

import "time"

// RequestStatus is the lifecycle state of a payment request.
// A request is created as approved or pending, never as denied.
// approved and denied are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
)

// ProcessedByAuto marks requests approved by the budget gate at submit time.
const ProcessedByAuto = "auto"

// Agent is a bounded-authority identity that requests payments on behalf
// of its owner. All amounts are in the smallest currency unit.
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	WalletAddress string    `json:"wallet_address"`
	OwnerAddress  string    `json:"owner_address"`
	SpendingLimit int64     `json:"spending_limit"`
	TotalSpent    int64     `json:"total_spent"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RemainingBudget is the headroom left before requests stop auto-approving.
// Owner overrides can push TotalSpent past the limit, so this may be negative.
func (a *Agent) RemainingBudget() int64 {
	return a.SpendingLimit - a.TotalSpent
}

// Utilization is for display only; decisions never touch floating point.
func (a *Agent) Utilization() float64 {
	if a.SpendingLimit == 0 {
		return 0
	}
	return float64(a.TotalSpent) / float64(a.SpendingLimit) * 100
}

type PaymentRequest struct {
	ID               int64         `json:"id"`
	AgentID          string        `json:"agent_id"`
	Amount           int64         `json:"amount"`
	RecipientAddress string        `json:"recipient_address"`
	Reason           string        `json:"reason"`
	Status           RequestStatus `json:"status"`
	RequestedAt      time.Time     `json:"requested_at"`
	ProcessedAt      *time.Time    `json:"processed_at,omitempty"`
	ProcessedBy      *string       `json:"processed_by,omitempty"`
}

// Transaction is an append-only ledger row, written exactly once per
// approval event and never updated afterward.
type Transaction struct {
	ID                  int64     `json:"id"`
	AgentID             string    `json:"agent_id"`
	RequestID           int64     `json:"request_id"`
	Amount              int64     `json:"amount"`
	RecipientAddress    string    `json:"recipient_address"`
	SettlementReference *string   `json:"settlement_reference,omitempty"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

const (
	TxStatusSettled          = "settled"
	TxStatusSettlementFailed = "settlement_failed"
)

type Notification struct {
	ID               int64     `json:"id"`
	RecipientAddress string    `json:"recipient_address"`
	Kind             string    `json:"kind"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	Payload          []byte    `json:"payload,omitempty"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// Notification kinds, one per lifecycle transition.
const (
	KindAgentCreated     = "agent_created"
	KindAgentDeactivated = "agent_deactivated"
	KindAutoApproved     = "payment_auto_approved"
	KindPendingApproval  = "payment_pending"
	KindApproved         = "payment_approved"
	KindDenied           = "payment_denied"
)
