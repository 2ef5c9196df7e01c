package nats

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"payguard/internal/model"
	"payguard/internal/service"
)

// Command topics for agents that speak the bus instead of HTTP.
const (
	TopicSubmitCommand = "payguard.commands.submit"
	TopicDecideCommand = "payguard.commands.decide"
	commandQueueGroup  = "payguard_commands"
)

// Handler subscribes to command topics and delegates to the payment
// service. Commands are fire-and-forget: outcomes surface through the
// notification feed, not a reply.
type Handler struct {
	svc  service.PaymentService
	nc   *nats.Conn
	log  zerolog.Logger
	subs []*nats.Subscription
}

func NewHandler(svc service.PaymentService, nc *nats.Conn, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, nc: nc, log: log.With().Str("component", "nats_commands").Logger()}
}

// Start subscribes to command topics and blocks until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) error {
	s1, err := h.nc.QueueSubscribe(TopicSubmitCommand, commandQueueGroup, func(m *nats.Msg) {
		var req model.SubmitRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			h.log.Error().Err(err).Msg("failed to decode submit command")
			return
		}
		if _, err := h.svc.Submit(ctx, req); err != nil {
			h.log.Error().Err(err).Str("agent_id", req.AgentID).Msg("submit command failed")
		}
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, s1)

	s2, err := h.nc.QueueSubscribe(TopicDecideCommand, commandQueueGroup, func(m *nats.Msg) {
		var req model.DecideRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			h.log.Error().Err(err).Msg("failed to decode decide command")
			return
		}
		if _, err := h.svc.Decide(ctx, req); err != nil {
			h.log.Error().Err(err).Int64("request_id", req.RequestID).Msg("decide command failed")
		}
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, s2)

	h.log.Info().Msg("command handler is running")

	<-ctx.Done()
	h.log.Info().Msg("command handler shutting down, draining subscriptions")

	for _, s := range h.subs {
		_ = s.Drain()
	}
	return nil
}

func (h *Handler) Stop(ctx context.Context) error {
	for _, s := range h.subs {
		_ = s.Unsubscribe()
	}
	return nil
}
