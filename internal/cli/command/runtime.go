package command

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yndnr/dashlink/internal/cli/auth"
	"github.com/yndnr/dashlink/internal/cli/config"
	"github.com/yndnr/dashlink/internal/cli/connection"
	"github.com/yndnr/dashlink/internal/cli/navigation"
	"github.com/yndnr/dashlink/internal/cli/output"
	"github.com/yndnr/dashlink/internal/core/domain"
	"github.com/yndnr/dashlink/internal/core/eventbus"
	"github.com/yndnr/dashlink/internal/core/expiry"
	"github.com/yndnr/dashlink/internal/infra/shutdown"
	"github.com/yndnr/dashlink/internal/infra/tlsroots"
	"github.com/yndnr/dashlink/internal/storage"
	"github.com/yndnr/dashlink/internal/storage/memory"
	"github.com/yndnr/dashlink/internal/storage/redisstore"
	"github.com/yndnr/dashlink/internal/telemetry/logger"
	"github.com/yndnr/dashlink/internal/telemetry/metric"
)

// redirectMargin is added to the redirect delay when a one-shot command
// waits for a pending redirect before exiting.
const redirectMargin = 500 * time.Millisecond

// RuntimeOptions are the process-level inputs of a Runtime.
type RuntimeOptions struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	TTY    bool
	Clock  clockwork.Clock
	Logger logger.Logger
	// ConfigPath is the file the REPL watches for log level changes.
	ConfigPath string
}

// Runtime is the "page": one coordinator, one pair of stores, one current
// location, shared by every command of a process or REPL session.
type Runtime struct {
	Config  *config.CLIConfig
	Paths   domain.Paths
	Logger  logger.Logger
	Metrics *metric.Registry

	Durable storage.KV
	Session storage.KV
	Events  *eventbus.Bus
	Browser *navigation.Browser
	Toaster *output.Toaster
	Expiry  *expiry.Coordinator
	Auth    *auth.Service
	Conn    *connection.Manager

	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	ConfigPath string

	tls      *tls.Config
	shutdown *shutdown.Handler
}

// NewRuntime wires the stores, the coordinator and the client for cfg and
// connects to cfg.Server.
func NewRuntime(ctx context.Context, cfg *config.CLIConfig, opts RuntimeOptions) (rt *Runtime, err error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger, err = logger.New(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: opts.Err,
		})
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	rt = &Runtime{
		Config:     cfg,
		Paths:      domain.NewPaths(cfg.BasePath),
		Logger:     opts.Logger,
		Metrics:    metric.NewRegistry(),
		In:         opts.In,
		Out:        opts.Out,
		Err:        opts.Err,
		ConfigPath: opts.ConfigPath,
		shutdown:   shutdown.NewHandler(5 * time.Second),
	}
	defer func() {
		if err != nil {
			_ = rt.shutdown.Shutdown()
		}
	}()

	if rt.Durable, err = rt.openDurable(); err != nil {
		return nil, err
	}
	if rt.Session, err = rt.openSession(ctx, opts.Clock); err != nil {
		return nil, err
	}

	if rt.tls, err = tlsroots.ClientConfig(cfg.TLS.CAFile); err != nil {
		return nil, err
	}

	rt.Events = eventbus.New(eventbus.WithLogger(logger.Slog(rt.Logger)))
	rt.Browser = navigation.New(cfg.Location)
	rt.Toaster = output.NewToaster(opts.Err, output.WithTTY(opts.TTY), output.WithToastClock(opts.Clock))

	rt.Expiry = expiry.New(expiry.Config{
		TokenKey:      cfg.Storage.TokenKey,
		UserKey:       cfg.Storage.UserKey,
		ReturnKey:     cfg.Storage.ReturnKey,
		Paths:         rt.Paths,
		RedirectDelay: cfg.Expiry.RedirectDelay,
		ToastDuration: cfg.Expiry.ToastDuration,
	}, expiry.Deps{
		Durable:   rt.Durable,
		Session:   rt.Session,
		Events:    rt.Events,
		Toaster:   rt.Toaster,
		Navigator: rt.Browser,
	},
		expiry.WithClock(opts.Clock),
		expiry.WithLogger(rt.Logger),
		expiry.WithMetrics(rt.Metrics),
	)

	rt.Auth = auth.NewService(auth.Config{
		TokenKey:      cfg.Storage.TokenKey,
		UserKey:       cfg.Storage.UserKey,
		ReturnKey:     cfg.Storage.ReturnKey,
		LoginEndpoint: "/login",
		Paths:         rt.Paths,
	}, auth.Deps{
		Durable: rt.Durable,
		Session: rt.Session,
		Expiry:  rt.Expiry,
		Browser: rt.Browser,
		Events:  rt.Events,
		Logger:  rt.Logger,
	})
	rt.shutdown.OnClose(func() error {
		rt.Auth.Close()
		return nil
	})

	classifier := connection.NewClassifier(rt.Expiry)
	rt.Conn = connection.NewManager(func(server string) *connection.HTTPClient {
		hc := connection.NewTransport(connection.TransportConfig{
			Server:  server,
			TLS:     rt.tls,
			Timeout: cfg.Timeout,
		})
		client := connection.NewHTTPClient(server, classifier,
			connection.WithHTTPClient(hc),
			connection.WithHeaderSource(rt.Auth.Authorize),
			connection.WithMetrics(rt.Metrics),
			connection.WithLogger(rt.Logger),
		)
		// Login shares the transport but not the classifier.
		rt.Auth.SetServer(client.URL(cfg.APIPath), hc)
		return client
	})
	if _, err := rt.Conn.Connect(cfg.Server); err != nil {
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		rt.serveMetrics(cfg.Metrics.Addr)
	}

	return rt, nil
}

func (rt *Runtime) openDurable() (storage.KV, error) {
	cfg := rt.Config.Storage.Durable

	var kv storage.KV
	switch cfg.Backend {
	case config.BackendMemory:
		kv = memory.New()
	default:
		store, err := storage.OpenBadger(storage.DefaultBadgerConfig(cfg.Dir), logger.Slog(rt.Logger))
		if err != nil {
			return nil, fmt.Errorf("open durable storage: %w", err)
		}
		kv = store.RegisterMetrics(rt.Metrics)
	}
	rt.shutdown.OnClose(kv.Close)

	if cfg.EncryptionKey == "" {
		return kv, nil
	}
	key, err := storage.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return storage.NewSealed(kv, key)
}

func (rt *Runtime) openSession(ctx context.Context, clock clockwork.Clock) (storage.KV, error) {
	cfg := rt.Config.Storage.Session

	var kv storage.KV
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("open session storage: %w", err)
		}
		kv = store
	default:
		kv = memory.New(memory.WithTTL(cfg.TTL), memory.WithClock(clock))
	}
	rt.shutdown.OnClose(kv.Close)
	return kv, nil
}

func (rt *Runtime) serveMetrics(addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           rt.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	rt.shutdown.OnShutdown(srv.Shutdown)
	rt.Logger.Info("serving metrics", "addr", addr)
}

// Client returns the current client.
func (rt *Runtime) Client() (*connection.HTTPClient, error) {
	client := rt.Conn.Current()
	if client == nil {
		return nil, errors.New("not connected, run connect SERVER first")
	}
	return client, nil
}

// Formatter returns the formatter for the configured output format.
func (rt *Runtime) Formatter(wide bool) output.Formatter {
	format, err := output.ParseFormat(rt.Config.Output)
	if err != nil {
		format = output.FormatTable
	}
	return output.NewFormatter(format, wide)
}

// Print formats data to Out.
func (rt *Runtime) Print(data any) error {
	return rt.Formatter(false).Format(rt.Out, data)
}

// WaitRedirect blocks until a pending redirect ran, at most the redirect
// delay plus a margin.
func (rt *Runtime) WaitRedirect(ctx context.Context) {
	if !rt.Expiry.Pending() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, rt.Config.Expiry.RedirectDelay+redirectMargin)
	defer cancel()
	if err := rt.Expiry.Wait(ctx); err != nil {
		rt.Logger.Warn("redirect did not finish before exit", "error", err)
	}
}

// Close runs the shutdown hooks once.
func (rt *Runtime) Close() error {
	return rt.shutdown.Shutdown()
}
