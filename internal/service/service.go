// Package service holds the payment authorization engine and the
// interfaces it is built from. Transports (HTTP, NATS) and the settlement
// worker depend on PaymentService, never on the concrete store.
package service

import (
	"context"

	"payguard/internal/model"
)

// PaymentService is the business surface of the authorization core.
type PaymentService interface {
	CreateAgent(ctx context.Context, req model.CreateAgentRequest) (*model.CreateAgentResult, error)
	ListAgents(ctx context.Context, owner string) ([]model.Agent, error)
	DeactivateAgent(ctx context.Context, agentID, owner string) error

	Submit(ctx context.Context, req model.SubmitRequest) (*model.SubmitResult, error)
	Decide(ctx context.Context, req model.DecideRequest) (*model.DecideResult, error)

	ListPending(ctx context.Context, owner, agentID string) ([]model.PendingItem, error)
	History(ctx context.Context, f model.HistoryFilter) (*model.HistoryPage, error)
	ListTransactions(ctx context.Context, agentID string) ([]model.Transaction, error)

	// PullNotifications drains unread notifications for a principal,
	// marking them read, and reports the pending-request count.
	PullNotifications(ctx context.Context, recipient string) ([]model.Notification, int64, error)

	// SettleApproval is the worker entrypoint: attempt the transfer and
	// append the ledger row for a committed approval.
	SettleApproval(ctx context.Context, ev model.ApprovalEvent) error
}

// Store is what the engine needs from persistence. *repository.Repo
// implements it; tests substitute an in-memory fake.
type Store interface {
	CreateAgent(ctx context.Context, a *model.Agent) error
	GetAgent(ctx context.Context, id string) (*model.Agent, error)
	ListAgentsByOwner(ctx context.Context, owner string) ([]model.Agent, error)
	DeactivateAgent(ctx context.Context, agentID, owner string) (*model.Agent, error)

	SubmitPaymentRequest(ctx context.Context, req model.SubmitRequest) (*model.PaymentRequest, *model.Agent, error)
	DecidePaymentRequest(ctx context.Context, req model.DecideRequest) (*model.PaymentRequest, *model.Agent, error)

	InsertTransaction(ctx context.Context, t *model.Transaction) (bool, error)
	InsertNotification(ctx context.Context, n *model.Notification) error

	ListPending(ctx context.Context, owner, agentID string) ([]model.PendingItem, error)
	CountPending(ctx context.Context, owner string) (int64, error)
	History(ctx context.Context, f model.HistoryFilter) (*model.HistoryPage, error)
	ListTransactionsByAgent(ctx context.Context, agentID string) ([]model.Transaction, error)

	UnreadNotifications(ctx context.Context, recipient string, limit int) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context, ids []int64) error

	ReserveIdempotencyKey(ctx context.Context, key string) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// MessageBus publishes lifecycle events for out-of-band processing.
type MessageBus interface {
	Publish(topic string, data []byte) error
}

// TopicApproved carries ApprovalEvent payloads to the settlement worker.
const TopicApproved = "payments.approved"
