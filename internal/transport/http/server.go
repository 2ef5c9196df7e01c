package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"payguard/internal/service"
)

type Server struct {
	srv *http.Server
	log zerolog.Logger
}

func NewServer(addr string, svc service.PaymentService, log zerolog.Logger) *Server {
	mux := http.NewServeMux()
	h := NewHandler(svc, log)
	h.Register(mux)

	return &Server{
		log: log,
		srv: &http.Server{
			Addr:         addr,
			Handler:      RequestLogger(log)(Metrics(mux)),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 0, // SSE streams stay open
			IdleTimeout:  120 * time.Second,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
