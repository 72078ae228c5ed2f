// Package app wires the tutoring runtime and HTTP lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/louisbranch/studyhall/internal/payments"
	"github.com/louisbranch/studyhall/internal/platform/config"
	"github.com/louisbranch/studyhall/internal/services/tutoring"
	"github.com/louisbranch/studyhall/internal/services/tutoring/api"
	tutoringsqlite "github.com/louisbranch/studyhall/internal/services/tutoring/storage/sqlite"
)

type serverEnv struct {
	DBPath      string `env:"STUDYHALL_DB_PATH"`
	FundsCap    int64  `env:"STUDYHALL_FUNDS_CAP"`
	JWTSecret   string `env:"STUDYHALL_JWT_SECRET"`
	JWTIssuer   string `env:"STUDYHALL_JWT_ISSUER"`
	JWTAudience string `env:"STUDYHALL_JWT_AUDIENCE"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "tutoring.db")
	}
	return cfg
}

// Server hosts the tutoring HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *tutoringsqlite.Store
}

// New creates a configured tutoring server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured tutoring server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	store, err := openTutoringStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	svc := tutoring.New(store, store, payments.NewLedgerGateway(store), tutoring.Options{
		FundsCap: env.FundsCap,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	if env.JWTSecret == "" {
		log.Printf("WARNING: STUDYHALL_JWT_SECRET is not set; trusting the X-Actor-ID header")
	}
	auth := api.AuthMiddleware(api.AuthConfig{
		Secret:   []byte(env.JWTSecret),
		Issuer:   env.JWTIssuer,
		Audience: env.JWTAudience,
	})
	api.NewHandler(svc).RegisterRoutes(e, auth)

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: e},
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a tutoring server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("tutoring server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown tutoring server: %v", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

// Close releases tutoring server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close tutoring store: %v", err)
		}
	}
}

func openTutoringStore(path string) (*tutoringsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := tutoringsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tutoring store: %w", err)
	}
	return store, nil
}
