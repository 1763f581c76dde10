// Package server hosts the meeting coordination gRPC server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	grpcauth "github.com/expohall/expohall/internal/api/grpc/auth"
	"github.com/expohall/expohall/internal/api/grpc/interceptors"
	grpcmeta "github.com/expohall/expohall/internal/api/grpc/metadata"
	"github.com/expohall/expohall/internal/auth/token"
	"github.com/expohall/expohall/internal/meeting/service"
	"github.com/expohall/expohall/internal/platform/config"
	"github.com/expohall/expohall/internal/ratelimit"
	storagesqlite "github.com/expohall/expohall/internal/storage/sqlite"
)

// rateLimitEnv holds throttle tuning from the environment.
type rateLimitEnv struct {
	EventsPerSecond float64 `env:"EXPOHALL_RATE_LIMIT_RPS"`
	Burst           int     `env:"EXPOHALL_RATE_LIMIT_BURST"`
}

// Server hosts the meeting coordination service.
type Server struct {
	listener    net.Listener
	grpcServer  *grpc.Server
	health      *health.Server
	store       *storagesqlite.Store
	coordinator *service.Coordinator
}

// New creates a configured server listening on the provided port.
func New(port int) (*Server, error) {
	tokenConfig, err := token.LoadConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}
	limiter, err := newLimiterFromEnv()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}
	store, err := openMeetingStore()
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	coordinator := service.NewCoordinator(store, store)

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			grpcauth.UnaryServerInterceptor(tokenConfig),
			interceptors.ThrottleInterceptor(limiter),
		),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("expohall.v1.MeetingService", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:    listener,
		grpcServer:  grpcServer,
		health:      healthServer,
		store:       store,
		coordinator: coordinator,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Coordinator returns the meeting coordinator backed by the server's store.
func (s *Server) Coordinator() *service.Coordinator {
	if s == nil {
		return nil
	}
	return s.coordinator
}

// Run creates and serves a server until the context ends.
func Run(ctx context.Context, port int) error {
	grpcServer, err := New(port)
	if err != nil {
		return err
	}
	return grpcServer.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("meeting server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		return handleErr(err)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func newLimiterFromEnv() (*ratelimit.Limiter, error) {
	var raw rateLimitEnv
	if err := config.ParseEnv(&raw); err != nil {
		return nil, fmt.Errorf("parse rate limit env: %w", err)
	}
	return ratelimit.New(ratelimit.Config{
		EventsPerSecond: raw.EventsPerSecond,
		Burst:           raw.Burst,
	}), nil
}

func openMeetingStore() (*storagesqlite.Store, error) {
	path := strings.TrimSpace(os.Getenv("EXPOHALL_DB_PATH"))
	if path == "" {
		path = filepath.Join("data", "meetings.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := storagesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close meeting store: %v", err)
	}
}
