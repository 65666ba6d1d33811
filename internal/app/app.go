package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	transporthttp "github.com/vovakirdan/wirechat-client/internal/transport/http"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// App wires together the session, its transport and the optional view bridge.
type App struct {
	cfg             config.Config
	session         *core.Session
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	return NewWithTransport(cfg, ws.NewDialer(cfg.ServerURL, cfg.HandshakeTimeout, cfg.MaxMessageBytes, logger), logger)
}

// NewWithTransport is New with a caller-supplied transport.
func NewWithTransport(cfg *config.Config, transport core.Transport, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	session := core.NewSession(transport, logger, core.Options{
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		JoinTimeout:       cfg.JoinTimeout,
		SendTimeout:       cfg.SendTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		SystemMessages:    cfg.SystemMessages,
		Chronological:     cfg.Chronological,
	})

	a := &App{
		cfg:             *cfg,
		session:         session,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
	if cfg.BridgeAddr != "" {
		a.server = transporthttp.NewServer(session, *cfg, logger)
	}
	return a, nil
}

// Session returns the chat session driven by Run.
func (a *App) Session() *core.Session {
	return a.session
}

// Run opens the session, joins the configured room and blocks until context
// cancellation, a fatal session error or a bridge failure.
func (a *App) Run(ctx context.Context) error {
	sessionCtx, cancelSession := context.WithCancel(ctx)
	defer cancelSession()
	go a.session.Run(sessionCtx)
	defer a.session.Close()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			a.log.Info().Str("addr", a.server.Addr).Msg("view bridge listening")
			if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
		defer a.shutdownServer()
	}

	identity := a.identity()
	if err := a.session.Open(ctx, a.cfg.Token, identity); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("open session: %w", err)
	}
	a.log.Info().Str("server", a.cfg.ServerURL).Str("user", identity.DisplayName).Msg("connected")

	if a.cfg.Room != "" {
		if err := a.session.Join(ctx, a.cfg.Room); err != nil {
			if core.IsFatal(err) {
				return fmt.Errorf("join %s: %w", a.cfg.Room, err)
			}
			a.log.Warn().Err(err).Str("room", a.cfg.Room).Msg("initial join failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("view bridge: %w", err)
			}
			serverErr = nil
		case <-a.session.Done():
			return nil
		}
	}
}

// identity reads the display identity from the token. An unreadable token
// still goes to the server, which is the authority on it.
func (a *App) identity() core.Identity {
	id, err := auth.IdentityFromToken(a.cfg.Token, time.Now())
	if err != nil && !errors.Is(err, core.ErrCredentialMissing) {
		a.log.Warn().Err(err).Msg("cannot read identity from token")
	}
	return id
}

func (a *App) shutdownServer() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down view bridge")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("view bridge shutdown")
	}
}
