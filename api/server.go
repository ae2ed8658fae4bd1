package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// Server is the HTTP gateway in front of the settlement executor
type Server struct {
	router    *gin.Engine
	handler   http.Handler
	app       *app.SettlementApp
	msgServer types.MsgServer
	config    *Config
	auth      *AuthService
	logger    log.Logger
}

// Config holds server configuration
type Config struct {
	ListenAddress   string        `mapstructure:"listen_address"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimitRPS    int           `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxPageSize     uint64        `mapstructure:"max_page_size"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:   "0.0.0.0:1317",
		TokenTTL:        24 * time.Hour,
		CORSOrigins:     []string{"http://localhost:3000"},
		RateLimitRPS:    50,
		RateLimitBurst:  100,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxPageSize:     100,
	}
}

// Validate checks the server configuration
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.ListenAddress, err)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits cannot be negative")
	}
	if c.MaxPageSize == 0 {
		return fmt.Errorf("max page size must be positive")
	}
	return nil
}

// NewServer creates a gateway over settlementApp
func NewServer(settlementApp *app.SettlementApp, logger log.Logger, config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger = logger.With("module", "api")
	secret := []byte(config.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		logger.Info("generated ephemeral JWT secret; tokens will not survive a restart",
			"secret_hex", hex.EncodeToString(secret))
	}

	s := &Server{
		app:       settlementApp,
		msgServer: keeper.NewMsgServerImpl(*settlementApp.SettlementKeeper),
		config:    config,
		auth:      NewAuthService(secret, config.TokenTTL),
		logger:    logger,
	}
	s.setupRouter()
	return s, nil
}

// setupRouter configures the gin router with all routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()

	// Recovery first so panics in later middleware are caught
	s.router.Use(gin.Recovery())
	s.router.Use(SecurityHeadersMiddleware())
	s.router.Use(RequestSizeLimitMiddleware(MaxRequestSize))
	s.router.Use(RequestIDMiddleware())
	s.router.Use(TracingMiddleware())
	s.router.Use(LoggerMiddleware(s.logger))
	if s.config.RateLimitRPS > 0 {
		s.router.Use(RateLimitMiddleware(s.config.RateLimitRPS, s.config.RateLimitBurst))
	}

	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	s.handler = c.Handler(s.router)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Auth returns the token service
func (s *Server) Auth() *AuthService {
	return s.auth
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", s.config.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
