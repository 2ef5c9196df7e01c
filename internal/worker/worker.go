// Package worker consumes committed approval events and performs the
// out-of-band side effects: the settlement attempt and the append-only
// ledger row. Settlement latency never holds a database transaction and
// never blocks the authorization path.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"payguard/internal/model"
	"payguard/internal/service"
)

const settlementQueueGroup = "settlement_workers"

type SettlementWorker struct {
	svc service.PaymentService
	nc  *nats.Conn
	log zerolog.Logger
}

func NewSettlementWorker(svc service.PaymentService, nc *nats.Conn, log zerolog.Logger) *SettlementWorker {
	return &SettlementWorker{
		svc: svc,
		nc:  nc,
		log: log.With().Str("component", "settlement_worker").Logger(),
	}
}

// handle decodes one approval event and records its settlement.
func (w *SettlementWorker) handle(ctx context.Context, data []byte) error {
	var ev model.ApprovalEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("worker: decode approval event: %w", err)
	}

	if err := w.svc.SettleApproval(ctx, ev); err != nil {
		return fmt.Errorf("worker: settle request %d: %w", ev.RequestID, err)
	}

	w.log.Info().
		Int64("request_id", ev.RequestID).
		Str("agent_id", ev.AgentID).
		Msg("approval settled")
	return nil
}

// Run subscribes to the approval topic and blocks until ctx is cancelled.
// Queue-group delivery means each event reaches one worker instance;
// redeliveries are absorbed by the ledger's per-request uniqueness.
func (w *SettlementWorker) Run(ctx context.Context) error {
	sub, err := w.nc.QueueSubscribe(service.TopicApproved, settlementQueueGroup, func(m *nats.Msg) {
		if err := w.handle(ctx, m.Data); err != nil {
			w.log.Error().Err(err).Msg("failed to process approval event")
		}
	})
	if err != nil {
		return fmt.Errorf("worker: failed to subscribe: %w", err)
	}

	w.log.Info().Msg("settlement worker is running")

	<-ctx.Done()

	w.log.Info().Msg("settlement worker shutting down, draining subscription")
	return sub.Drain()
}

// Start implements the infrastructure.Server interface.
func (w *SettlementWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop implements the infrastructure.Server interface (shutdown is via ctx).
func (w *SettlementWorker) Stop(ctx context.Context) error {
	return nil
}
