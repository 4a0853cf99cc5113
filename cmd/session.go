package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"uniq/cli/internal/auth"
	"uniq/cli/internal/backend"
	"uniq/cli/internal/config"
	"uniq/cli/internal/keychain"
	"uniq/cli/internal/logging"
	"uniq/cli/internal/telemetry"
)

// session is everything a command needs to talk to the backend as the
// current user.
type session struct {
	cfg      config.Config
	log      *pterm.Logger
	jar      *backend.PersistentJar
	api      *backend.HTTP
	auth     *auth.Provider
	shutdown func(context.Context) error
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logging.New(level, cfg.LogFormat, nil)

	shutdown, err := telemetry.Setup(ctx, "uniq-cli", Version)
	if err != nil {
		log.Warn("tracing disabled", logging.Err(log, err))
	}

	var store backend.CookieStore
	if km, err := keychain.GetManager(); err == nil {
		store = km
	} else {
		log.Warn("keychain unavailable; the session will not outlive this command", logging.Err(log, err))
	}

	jar, err := backend.NewPersistentJar(cfg.APIBaseURL, store, log)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	api := backend.New(cfg.APIBaseURL,
		backend.WithJar(jar),
		backend.WithUserAgent("uniq-cli/"+Version),
		backend.WithLogger(log),
	)

	return &session{
		cfg:      cfg,
		log:      log,
		jar:      jar,
		api:      api,
		auth:     auth.NewProvider(api, auth.WithLogger(log)),
		shutdown: shutdown,
	}, nil
}

// start runs the initial session check behind a spinner.
func (s *session) start(ctx context.Context) {
	stop := startSpinner("Checking session").Stop
	s.auth.Start(ctx)
	stop()
}

func (s *session) errArg(err error) []pterm.LoggerArgument {
	return logging.Err(s.log, err)
}

// Close flushes traces.
func (s *session) Close(ctx context.Context) {
	if err := s.shutdown(ctx); err != nil {
		s.log.Debug("trace flush failed", s.errArg(err))
	}
}

func printNotLoggedIn() {
	fmt.Println("🔒 You're not logged in yet!")
	fmt.Println("   Run 'uniq login' to get started.")
}
