package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"payguard/internal/metrics"
	"payguard/internal/model"
	"payguard/internal/settlement"
	"payguard/internal/wallet"
)

// Engine drives the payment request lifecycle. The status write inside
// the store is the commit point of every transition; bus publishes and
// notifications are best-effort follow-ups that never reverse it.
type Engine struct {
	store   Store
	bus     MessageBus
	gateway settlement.Gateway
	wallets wallet.Generator
	log     zerolog.Logger

	settleTimeout time.Duration
}

func NewEngine(store Store, bus MessageBus, gw settlement.Gateway, wg wallet.Generator, log zerolog.Logger) *Engine {
	return &Engine{
		store:         store,
		bus:           bus,
		gateway:       gw,
		wallets:       wg,
		log:           log.With().Str("component", "engine").Logger(),
		settleTimeout: 30 * time.Second,
	}
}

// SetSettlementTimeout overrides the budget for a single settlement
// attempt cycle, retries included.
func (e *Engine) SetSettlementTimeout(d time.Duration) {
	if d > 0 {
		e.settleTimeout = d
	}
}

func (e *Engine) CreateAgent(ctx context.Context, req model.CreateAgentRequest) (*model.CreateAgentResult, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if req.OwnerAddress == "" {
		return nil, fmt.Errorf("%w: owner_address is required", model.ErrValidation)
	}
	if req.SpendingLimit <= 0 {
		return nil, fmt.Errorf("%w: spending_limit must be positive", model.ErrValidation)
	}

	kp, err := e.wallets.Generate()
	if err != nil {
		return nil, fmt.Errorf("allocate wallet: %w", err)
	}

	agent := &model.Agent{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		WalletAddress: kp.Address,
		OwnerAddress:  req.OwnerAddress,
		SpendingLimit: req.SpendingLimit,
	}
	if err := e.store.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}
	metrics.AgentsCreated.Inc()

	e.notify(ctx, req.OwnerAddress, model.KindAgentCreated,
		"Agent Created",
		fmt.Sprintf("Your agent %q has been created with a spending limit of %s", req.Name, formatAmount(req.SpendingLimit)),
		map[string]any{"agent_id": agent.ID, "wallet_address": kp.Address},
	)

	return &model.CreateAgentResult{
		AgentID:       agent.ID,
		WalletAddress: kp.Address,
		WalletSecret:  kp.Secret,
	}, nil
}

func (e *Engine) ListAgents(ctx context.Context, owner string) ([]model.Agent, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner_address is required", model.ErrValidation)
	}
	return e.store.ListAgentsByOwner(ctx, owner)
}

func (e *Engine) DeactivateAgent(ctx context.Context, agentID, owner string) error {
	if agentID == "" || owner == "" {
		return fmt.Errorf("%w: agent_id and owner_address are required", model.ErrValidation)
	}
	agent, err := e.store.DeactivateAgent(ctx, agentID, owner)
	if err != nil {
		return err
	}
	e.notify(ctx, owner, model.KindAgentDeactivated,
		"Agent Deactivated",
		fmt.Sprintf("Agent %q no longer accepts payment requests", agent.Name),
		map[string]any{"agent_id": agentID},
	)
	return nil
}

// Submit is the core decision entrypoint. The store serializes the budget
// check and the spend increment per agent; by the time this returns, the
// decision is committed.
func (e *Engine) Submit(ctx context.Context, req model.SubmitRequest) (*model.SubmitResult, error) {
	if req.AgentID == "" {
		return nil, fmt.Errorf("%w: agent_id is required", model.ErrValidation)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	}
	if req.RecipientAddress == "" {
		return nil, fmt.Errorf("%w: recipient_address is required", model.ErrValidation)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", model.ErrValidation)
	}

	if req.IdempotencyKey != "" {
		ok, err := e.store.ReserveIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: idempotency key %s", model.ErrAlreadyProcessed, req.IdempotencyKey)
		}
	}

	pr, agent, err := e.store.SubmitPaymentRequest(ctx, req)
	if err != nil {
		if req.IdempotencyKey != "" {
			// The decision never committed; let the agent retry.
			if relErr := e.store.ReleaseIdempotencyKey(ctx, req.IdempotencyKey); relErr != nil {
				e.log.Warn().Err(relErr).Str("key", req.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	autoApproved := pr.Status == model.StatusApproved
	if autoApproved {
		metrics.RequestsSubmitted.WithLabelValues("auto_approved").Inc()
		e.publishApproval(pr, agent, model.ProcessedByAuto)
		e.notify(ctx, agent.OwnerAddress, model.KindAutoApproved,
			"Payment Auto-Approved",
			fmt.Sprintf("Payment of %s to %s was automatically approved", formatAmount(pr.Amount), pr.RecipientAddress),
			requestPayload(pr),
		)
	} else {
		metrics.RequestsSubmitted.WithLabelValues("pending").Inc()
		e.notify(ctx, agent.OwnerAddress, model.KindPendingApproval,
			"Payment Approval Required",
			fmt.Sprintf("Payment of %s to %s requires your approval", formatAmount(pr.Amount), pr.RecipientAddress),
			requestPayload(pr),
		)
	}

	return &model.SubmitResult{
		RequestID:    pr.ID,
		Status:       pr.Status,
		AutoApproved: autoApproved,
	}, nil
}

// Decide applies an owner's approve/deny to a pending request. Approval
// is an owner override: it increments spend without re-checking the limit.
func (e *Engine) Decide(ctx context.Context, req model.DecideRequest) (*model.DecideResult, error) {
	if req.RequestID <= 0 {
		return nil, fmt.Errorf("%w: request_id is required", model.ErrValidation)
	}
	if req.Action != model.ActionApprove && req.Action != model.ActionDeny {
		return nil, fmt.Errorf("%w: action must be approve or deny", model.ErrValidation)
	}
	if req.ApproverAddress == "" {
		return nil, fmt.Errorf("%w: approver_address is required", model.ErrValidation)
	}

	pr, agent, err := e.store.DecidePaymentRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.RequestsDecided.WithLabelValues(string(req.Action)).Inc()

	if req.Action == model.ActionApprove {
		e.publishApproval(pr, agent, req.ApproverAddress)
		e.notify(ctx, agent.OwnerAddress, model.KindApproved,
			"Payment Approved",
			fmt.Sprintf("Payment of %s to %s has been approved", formatAmount(pr.Amount), pr.RecipientAddress),
			requestPayload(pr),
		)
	} else {
		e.notify(ctx, agent.OwnerAddress, model.KindDenied,
			"Payment Denied",
			fmt.Sprintf("Payment of %s to %s has been denied", formatAmount(pr.Amount), pr.RecipientAddress),
			requestPayload(pr),
		)
	}

	return &model.DecideResult{
		RequestID: pr.ID,
		Action:    req.Action,
		Status:    pr.Status,
	}, nil
}

func (e *Engine) ListPending(ctx context.Context, owner, agentID string) ([]model.PendingItem, error) {
	return e.store.ListPending(ctx, owner, agentID)
}

func (e *Engine) History(ctx context.Context, f model.HistoryFilter) (*model.HistoryPage, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" && f.Status != model.StatusPending && f.Status != model.StatusApproved && f.Status != model.StatusDenied {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrValidation, f.Status)
	}
	return e.store.History(ctx, f)
}

// ListTransactions returns an agent's ledger rows, newest first.
func (e *Engine) ListTransactions(ctx context.Context, agentID string) ([]model.Transaction, error) {
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent_id is required", model.ErrValidation)
	}
	return e.store.ListTransactionsByAgent(ctx, agentID)
}

func (e *Engine) PullNotifications(ctx context.Context, recipient string) ([]model.Notification, int64, error) {
	notifs, err := e.store.UnreadNotifications(ctx, recipient, 10)
	if err != nil {
		return nil, 0, err
	}
	if len(notifs) > 0 {
		ids := make([]int64, len(notifs))
		for i, n := range notifs {
			ids[i] = n.ID
		}
		if err := e.store.MarkNotificationsRead(ctx, ids); err != nil {
			return nil, 0, err
		}
	}
	pending, err := e.store.CountPending(ctx, recipient)
	if err != nil {
		return nil, 0, err
	}
	return notifs, pending, nil
}

// SettleApproval attempts the external transfer for a committed approval
// and appends the ledger row. Settlement failure is recorded, never
// propagated back into the approval: the budget commitment stands.
func (e *Engine) SettleApproval(ctx context.Context, ev model.ApprovalEvent) error {
	settleCtx, cancel := context.WithTimeout(ctx, e.settleTimeout)
	defer cancel()

	var reference string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(settleCtx, backoff, func(ctx context.Context) error {
		ref, err := e.gateway.AttemptTransfer(ctx, settlement.Transfer{
			SourceWallet: ev.WalletAddress,
			Recipient:    ev.RecipientAddress,
			Amount:       ev.Amount,
			Memo:         ev.Reason,
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		reference = ref
		return nil
	})

	tx := &model.Transaction{
		AgentID:          ev.AgentID,
		RequestID:        ev.RequestID,
		Amount:           ev.Amount,
		RecipientAddress: ev.RecipientAddress,
	}
	if err != nil {
		e.log.Warn().Err(err).Int64("request_id", ev.RequestID).Msg("settlement failed")
		metrics.SettlementAttempts.WithLabelValues("failed").Inc()
		tx.Status = model.TxStatusSettlementFailed
	} else {
		metrics.SettlementAttempts.WithLabelValues("settled").Inc()
		tx.Status = model.TxStatusSettled
		if reference != "" {
			tx.SettlementReference = &reference
		}
	}

	inserted, insErr := e.store.InsertTransaction(ctx, tx)
	if insErr != nil {
		return insErr
	}
	if !inserted {
		e.log.Debug().Int64("request_id", ev.RequestID).Msg("transaction already recorded, skipping")
	}
	return nil
}

func (e *Engine) publishApproval(pr *model.PaymentRequest, agent *model.Agent, approvedBy string) {
	ev := model.ApprovalEvent{
		RequestID:        pr.ID,
		AgentID:          agent.ID,
		WalletAddress:    agent.WalletAddress,
		Amount:           pr.Amount,
		RecipientAddress: pr.RecipientAddress,
		Reason:           pr.Reason,
		ApprovedBy:       approvedBy,
		ApprovedAt:       time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		e.log.Error().Err(err).Int64("request_id", pr.ID).Msg("failed to encode approval event")
		return
	}
	if err := e.bus.Publish(TopicApproved, data); err != nil {
		e.log.Error().Err(err).Int64("request_id", pr.ID).Msg("failed to publish approval event")
	}
}

// notify appends a notification row. Delivery is not part of the payment
// decision's correctness contract: failures are logged and swallowed.
func (e *Engine) notify(ctx context.Context, recipient, kind, title, message string, payload map[string]any) {
	if recipient == "" {
		return
	}
	data, _ := json.Marshal(payload)
	n := &model.Notification{
		RecipientAddress: recipient,
		Kind:             kind,
		Title:            title,
		Message:          message,
		Payload:          data,
	}
	if err := e.store.InsertNotification(ctx, n); err != nil {
		e.log.Warn().Err(err).Str("kind", kind).Str("recipient", recipient).Msg("failed to emit notification")
		return
	}
	metrics.NotificationsEmitted.Inc()
}

func requestPayload(pr *model.PaymentRequest) map[string]any {
	return map[string]any{
		"request_id": pr.ID,
		"agent_id":   pr.AgentID,
		"amount":     pr.Amount,
		"recipient":  pr.RecipientAddress,
		"reason":     pr.Reason,
	}
}

// formatAmount renders a base-unit amount in whole currency units for
// notification text. Display only; decisions stay integer.
func formatAmount(n int64) string {
	whole := n / 1_000_000
	frac := n % 1_000_000
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := fmt.Sprintf("%d.%06d", whole, frac)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}
