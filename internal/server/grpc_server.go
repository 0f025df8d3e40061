package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/config"
)

const shutdownGrace = 5 * time.Second

// Server is the gRPC server with every registrar attached.
type Server struct {
	addr   string
	grpc   *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// New builds a gRPC server with the recovery, logging, auth and rate-limit
// interceptors and registers all provided services.
func New(cfg *config.Config, log *slog.Logger, tokens *auth.Tokens, registrars ...Registrar) *Server {
	limiter := NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryUnary(log),
			LoggingUnary(log),
			AuthUnary(tokens),
			limiter.Unary(),
		),
		grpc.ChainStreamInterceptor(
			RecoveryStream(log),
			LoggingStream(log),
			AuthStream(tokens),
			limiter.Stream(),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	for name := range grpcServer.GetServiceInfo() {
		healthServer.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return &Server{
		addr:   fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port),
		grpc:   grpcServer,
		health: healthServer,
		log:    log,
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.health.Shutdown()
		s.log.Info("stopping gRPC server")

		// open watch streams never finish on their own
		graceful := make(chan struct{})
		go func() {
			s.grpc.GracefulStop()
			close(graceful)
		}()
		select {
		case <-graceful:
		case <-time.After(shutdownGrace):
			s.grpc.Stop()
		}
	}()

	err := s.grpc.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		err = nil
	}
	if ctx.Err() != nil {
		<-stopped
	}
	return err
}
