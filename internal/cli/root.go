package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/app"
	"github.com/rebeliceyang/lazyca/internal/auth"
	"github.com/rebeliceyang/lazyca/internal/config"
	"github.com/rebeliceyang/lazyca/internal/history"
	"github.com/rebeliceyang/lazyca/internal/logging"
	"github.com/rebeliceyang/lazyca/internal/presets"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ErrNoCredentials is returned when a command needs a login that is not stored
var ErrNoCredentials = errors.New("no stored credentials, run 'lazyca login' first")

// flags are the persistent options shared by all commands
type flags struct {
	configFile string
	baseURL    string
	user       string
	token      string
	insecure   bool
	curl       bool
	logLevel   string
}

// Env is what a command runs with once configuration is loaded
type Env struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Client  *api.Client
	Secrets *auth.SecretStore

	closers []io.Closer
}

// Close releases files opened for the command
func (e *Env) Close() {
	for _, c := range e.closers {
		_ = c.Close()
	}
}

// NewRootCmd returns the lazyca command. Without a subcommand it starts the
// terminal UI.
func NewRootCmd(version string) *cobra.Command {
	f := &flags{}
	env := &Env{}

	root := &cobra.Command{
		Use:           "lazyca",
		Short:         "Terminal front-end for certificate management",
		Long:          `Browse, filter and administer certificate requests and certificates of a ca3s backend.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setup(f)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			env.Close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), env)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "config file (default searches the user config dir)")
	pf.StringVar(&f.baseURL, "base-url", "", "backend base URL")
	pf.StringVarP(&f.user, "user", "u", "", "login name")
	pf.StringVar(&f.token, "token", os.Getenv("LAZYCA_TOKEN"), "bearer token")
	pf.BoolVar(&f.insecure, "insecure", false, "skip TLS certificate verification")
	pf.BoolVar(&f.curl, "curl", false, "log requests as curl commands at debug level")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newLoginCmd(env),
		newNotifyCmd(env),
		newDownloadCmd(env),
		newCSVCmd(env),
		newAdminCmd(env),
		newPresetsCmd(env),
		newHistoryCmd(env),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the client
func (e *Env) setup(f *flags) error {
	cfg, err := config.LoadFrom(f.configFile)
	if err != nil {
		return err
	}
	if f.baseURL != "" {
		cfg.Server.BaseURL = f.baseURL
	}
	if f.user != "" {
		cfg.Auth.User = f.user
	}
	if f.insecure {
		cfg.Server.InsecureSkipVerify = true
	}
	if f.curl {
		cfg.Server.Curl = true
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	e.Config = cfg

	logger, closer, err := logging.Open(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return err
	}
	e.Logger = logger
	e.closers = append(e.closers, closer)

	e.Client, err = api.NewClient(api.Config{
		BaseURL:            cfg.Server.BaseURL,
		InsecureSkipVerify: cfg.Server.InsecureSkipVerify,
		Timeout:            cfg.Server.RequestTimeout,
		CurlFlag:           cfg.Server.Curl,
		Token:              f.token,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	configDir, err := config.GetConfigPath()
	if err != nil {
		configDir = filepath.Dir(cfg.Log.File)
	}
	if e.Secrets, err = auth.NewSecretStore(configDir); err != nil {
		// commands still work with a token from the flag or environment
		logger.Warn().Err(err).Msg("keyring unavailable")
	}
	return nil
}

// authenticate makes the client ready for requests. It reports false when
// a password is needed that is not stored.
func (e *Env) authenticate(ctx context.Context) (bool, error) {
	cfg := e.Config
	switch api.AuthMode(cfg.Auth.Mode) {
	case api.AuthNone:
		return true, nil
	case api.AuthBearer:
		if e.Client.Token() != "" {
			return true, nil
		}
		if e.Secrets != nil && cfg.Auth.User != "" {
			token, err := e.Secrets.Get(cfg.Server.BaseURL, cfg.Auth.User, auth.KindToken)
			if err == nil {
				if _, err := auth.AccountFromToken(token, time.Now()); err == nil {
					e.Client.SetToken(token)
					return true, nil
				}
			}
		}
	}

	if e.Secrets == nil || cfg.Auth.User == "" {
		return false, nil
	}
	password, err := e.Secrets.Get(cfg.Server.BaseURL, cfg.Auth.User, auth.KindPassword)
	if errors.Is(err, auth.ErrSecretNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	token, err := e.Client.Authenticate(ctx, cfg.Auth.User, password)
	if err != nil {
		if api.IsUnauthorized(err) {
			return false, nil
		}
		return false, err
	}
	if err := e.Secrets.Save(cfg.Server.BaseURL, cfg.Auth.User, auth.KindToken, token); err != nil {
		e.Logger.Debug().Err(err).Msg("failed to store token")
	}
	return true, nil
}

// requireAuth authenticates a non-interactive command
func (e *Env) requireAuth(ctx context.Context) error {
	ok, err := e.authenticate(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoCredentials
	}
	return nil
}

func (e *Env) openHistory() (*history.Store, error) {
	if !e.Config.History.Enabled {
		return nil, nil
	}
	return history.NewStore(e.Config.History.Path, e.Config.History.MaxEntries)
}

func runTUI(ctx context.Context, env *Env) error {
	ready, err := env.authenticate(ctx)
	if err != nil {
		env.Logger.Warn().Err(err).Msg("stored login failed")
	}

	presetManager, err := presets.NewManager(env.Config.Filters.PresetsFile)
	if err != nil {
		return err
	}
	historyStore, err := env.openHistory()
	if err != nil {
		env.Logger.Warn().Err(err).Msg("history unavailable")
		historyStore = nil
	}
	if historyStore != nil {
		defer func() { _ = historyStore.Close() }()
	}

	model := app.New(app.Options{
		Config:    env.Config,
		Client:    env.Client,
		Secrets:   env.Secrets,
		Presets:   presetManager,
		History:   historyStore,
		Logger:    env.Logger,
		NeedLogin: !ready,
	})
	defer model.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if env.Config.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	env.Logger.Info().Str("server", env.Config.Server.BaseURL).Msg("starting")
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
