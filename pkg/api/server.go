package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fadedpez/wagerescrow/internal/logging"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/services/wager"
	"github.com/fadedpez/wagerescrow/pkg/services/wallet"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Options tunes a Server
type Options struct {
	// AllowFunding exposes POST /v1/wallet/fund
	AllowFunding bool
	Logger       *logging.Logger
}

// Server exposes the lifecycle operations over HTTP
type Server struct {
	games        *wager.Service
	wallets      wallet.WalletService
	tokens       *JWTManager
	allowFunding bool
	logger       *logging.Logger
	engine       *gin.Engine
}

func NewServer(games *wager.Service, wallets wallet.WalletService, tokens *JWTManager, opts Options) *Server {
	s := &Server{
		games:        games,
		wallets:      wallets,
		tokens:       tokens,
		allowFunding: opts.AllowFunding,
		logger:       opts.Logger,
	}
	if s.logger == nil {
		s.logger = logging.Default.WithPrefix("API")
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger)

	v1 := engine.Group("/v1", s.RequireAuthMiddleware)
	v1.POST("/games", s.createGame)
	v1.GET("/games/:type/:code", s.getGame)
	v1.POST("/games/:type/:code/join", s.joinGame)
	v1.POST("/games/:type/:code/resolve", s.resolveGame)
	v1.GET("/games/:type/:code/events", s.gameEvents)
	v1.GET("/wallet", s.getWallet)
	if s.allowFunding {
		v1.POST("/wallet/fund", s.fundWallet)
	}
	return engine
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RequireAuthMiddleware resolves the caller identity from a bearer token
func (s *Server) RequireAuthMiddleware(ctx *gin.Context) {
	header := ctx.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorMissingTokenJson)
		return
	}

	id, err := s.tokens.Verify(token)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorInvalidTokenJson)
		return
	}

	ctx.Set(identityKey, id)
	ctx.Next()
}

func (s *Server) requestLogger(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()
	s.logger.Debug("%s %s %d %s", ctx.Request.Method, ctx.Request.URL.Path, ctx.Writer.Status(), time.Since(start))
}

func caller(ctx *gin.Context) entities.Identity {
	id, _ := ctx.Get(identityKey)
	identity, _ := id.(entities.Identity)
	return identity
}
