package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/five82/ladle/internal/api"
	"github.com/five82/ladle/internal/config"
	"github.com/five82/ladle/internal/httpclient"
	"github.com/five82/ladle/internal/logging"
	"github.com/five82/ladle/internal/prefs"
	"github.com/five82/ladle/internal/router"
	"github.com/five82/ladle/internal/session"
	"github.com/five82/ladle/internal/store"
)

// Options configure a ladle run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/ladle/prefs.toml
	PollEvery  int    // seconds; zero uses the configured value
	// Ephemeral keeps the session in memory for this run only.
	Ephemeral bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var (
	// ErrUsage marks a malformed command line.
	ErrUsage = errors.New("usage")
	// ErrSignInRequired is returned when a command needs a session and there is none.
	ErrSignInRequired = errors.New("sign in required")
	// ErrForbidden is returned when a staff-only command runs without staff access.
	ErrForbidden = errors.New("staff access required")
)

// runtime is everything a command needs.
type runtime struct {
	cfg       config.Config
	log       *zap.Logger
	client    *httpclient.Client
	api       *api.Service
	store     *store.Store
	routes    *router.Table
	prefsPath string
	interval  time.Duration

	stdin  io.Reader
	out    io.Writer
	errOut io.Writer
}

// Run executes one ladle command described by args.
func Run(ctx context.Context, opts Options, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: ladle <command> [args]; run \"ladle help\" for commands", ErrUsage)
	}
	if args[0] == "help" {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		printHelp(out)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	rt, closeRuntime, err := newRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer closeRuntime()

	rt.log.Debug("running command", zap.String("command", args[0]), zap.Int("args", len(args)-1))
	if err := rt.admit(cmd, args[1:]); err != nil {
		return err
	}
	err = cmd.run(ctx, rt, args[1:])
	if errors.Is(err, httpclient.ErrSessionExpired) && cmd.route != nil {
		rt.rememberRedirect(cmd.route(args[1:]))
		return fmt.Errorf("%s; sign in again with \"ladle login\"", store.SessionExpiredMessage)
	}
	return err
}

func newRuntime(ctx context.Context, opts Options) (*runtime, func(), error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	cleanup := []func(){func() { _ = closeLog() }}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	storage, closeStorage, err := openStorage(ctx, cfg, opts.Ephemeral)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	cleanup = append(cleanup, closeStorage)

	vault := session.NewVault(storage)
	if err := vault.Load(ctx); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	rt := &runtime{
		cfg:       cfg,
		log:       logger,
		routes:    router.NewTable(router.DefaultRoutes()),
		prefsPath: opts.PrefsPath,
		interval:  cfg.PollInterval(),
		stdin:     opts.Stdin,
		out:       opts.Stdout,
		errOut:    opts.Stderr,
	}
	if opts.PollEvery > 0 {
		rt.interval = time.Duration(opts.PollEvery) * time.Second
	}
	if rt.stdin == nil {
		rt.stdin = os.Stdin
	}
	if rt.out == nil {
		rt.out = os.Stdout
	}
	if rt.errOut == nil {
		rt.errOut = os.Stderr
	}

	client, err := httpclient.NewClient(httpclient.Options{
		BaseURL:   cfg.APIURL,
		Vault:     vault,
		Timeout:   cfg.RequestTimeout(),
		RateLimit: cfg.RateLimit,
		Logger:    logger,
		OnSessionExpired: func() {
			if rt.store != nil {
				rt.store.HandleSessionExpired()
			}
		},
	})
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("init api client: %w", err)
	}
	rt.client = client
	rt.api = api.New(client, logger)
	rt.store = store.New(rt.api, logger)

	if exp, ok := client.AccessExpiry(); ok {
		logger.Debug("stored access token", zap.Time("expires", exp), zap.Bool("expired", time.Now().After(exp)))
	}
	return rt, closeAll, nil
}

func openStorage(ctx context.Context, cfg config.Config, ephemeral bool) (session.Storage, func(), error) {
	noop := func() {}
	if ephemeral {
		return session.NewMemoryStorage(session.Record{}), noop, nil
	}
	switch cfg.SessionBackend {
	case config.BackendRedis:
		client, err := session.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return session.NewRedisStorage(client, cfg.RedisKey), func() { _ = client.Close() }, nil
	default:
		storage, err := session.NewFileStorage(cfg.SessionPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return storage, noop, nil
	}
}

// rememberRedirect stores target as the place to continue after the next
// sign-in.
func (rt *runtime) rememberRedirect(target string) {
	if target == "" || target == router.LoginPath {
		return
	}
	p, _ := prefs.Load(rt.prefsPath)
	p.PendingRedirect = target
	if err := prefs.Save(rt.prefsPath, p); err != nil {
		rt.log.Warn("save pending redirect", zap.Error(err))
	}
}
