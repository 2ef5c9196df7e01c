package infrastructure

import (
	"context"

	"github.com/rs/zerolog"

	"payguard/internal/config"
	"payguard/internal/repository"
	"payguard/internal/service"
	"payguard/internal/settlement"
	transportHTTP "payguard/internal/transport/http"
	transportNATS "payguard/internal/transport/nats"
	"payguard/internal/wallet"
	"payguard/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the
// application. Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context, log zerolog.Logger) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	db, err := connectPostgres(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	rdb, err := connectRedis(cfg.RedisAddr())
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	var cleanupFns []func()
	cleanupFns = append(cleanupFns, func() {
		db.Close()
		_ = rdb.Close()
	})

	nc, err := connectNats(cfg.NatsAddr())
	if err != nil {
		return nil, runCleanup(cleanupFns), err
	}
	cleanupFns = append(cleanupFns, nc.Close)

	var gateway settlement.Gateway = settlement.Noop{}
	if cfg.SettlementURL != "" {
		gateway = settlement.NewHTTPGateway(cfg.SettlementURL, cfg.SettlementTimeout)
		log.Info().Str("url", cfg.SettlementURL).Msg("settlement gateway configured")
	} else {
		log.Info().Msg("no settlement gateway configured, running authorization-only")
	}

	repo := repository.New(db, rdb)
	engine := service.NewEngine(repo, transportNATS.NewBus(nc), gateway, wallet.NewGenerator(), log)
	engine.SetSettlementTimeout(cfg.SettlementTimeout)
	var svc service.PaymentService = engine

	servers := []Server{
		worker.NewSettlementWorker(svc, nc, log),
		transportNATS.NewHandler(svc, nc, log),
		transportHTTP.NewServer(cfg.ApiAddr(), svc, log),
	}

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
