package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/reactive/internal/config"
	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/inspect"
	"github.com/vango-dev/reactive/pkg/observe"
	"github.com/vango-dev/reactive/pkg/reactive"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logLevel   string
		noInspect  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a live demo runtime with the inspect server",
		Long: `Run a runtime whose demo state changes on a timer, and serve its
dependency graph for inspection.

Endpoints:
  • /deps     dependency snapshot
  • /stats    dependency store size
  • /metrics  Prometheus metrics
  • /events   WebSocket stream of triggers and effect runs

Configuration is read from reactive.json or reactive.yaml in the
working directory when present.

Examples:
  reactive serve
  reactive serve --addr=:7070 --log-level=debug
  reactive serve --config=./deploy/reactive.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if addr != "" {
				cfg.Inspect.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if noInspect {
				cfg.Inspect.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printBanner(out)
			info(out, "serve")
			if cfg.Inspect.Enabled {
				success(out, "Inspect server on http://%s", cfg.Inspect.Addr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: reactive.json or reactive.yaml if present)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Inspect server address (default from config)")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (default from config)")
	cmd.Flags().BoolVar(&noInspect, "no-inspect", false, "Do not start the inspect server")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrDefault(".")
	}
	return config.LoadFile(path)
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// services is the wiring of one serve run.
type services struct {
	rt       *reactive.Runtime
	hub      *inspect.Hub
	registry *prometheus.Registry
	metrics  *observe.Metrics
	server   *inspect.Server
}

func newServices(cfg *config.Config, logger *slog.Logger) *services {
	s := &services{}
	observers := []reactive.Observer{observe.NewLogger(logger)}

	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		s.metrics = observe.NewMetrics(
			observe.WithRegistry(s.registry),
			observe.WithNamespace(cfg.Metrics.Namespace),
			observe.WithSubsystem(cfg.Metrics.Subsystem),
		)
		observers = append(observers, s.metrics)
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, observe.NewTracer(
			observe.WithTracerName(cfg.Tracing.TracerName),
			observe.WithTriggerSpans(cfg.Tracing.TriggerSpans),
		))
	}
	if cfg.Inspect.Enabled {
		s.hub = inspect.NewHub(inspect.WithTrackEvents(cfg.Inspect.TrackEvents))
		observers = append(observers, s.hub)
	}

	s.rt = reactive.New(
		reactive.WithLogger(logger),
		reactive.WithObserver(observe.Multi(observers...)),
	)
	if s.metrics != nil {
		s.metrics.ObserveRuntime(s.rt)
	}

	if cfg.Inspect.Enabled {
		opts := []inspect.ServerOption{
			inspect.WithAddress(cfg.Inspect.Addr),
			inspect.WithEventBuffer(cfg.Inspect.EventBuffer),
			inspect.WithServerLogger(logger),
		}
		if s.registry != nil {
			opts = append(opts, inspect.WithGatherer(s.registry))
		}
		s.server = inspect.NewServer(s.rt, s.hub, opts...)
	}
	return s
}

func runServe(ctx context.Context, cfg *config.Config, logw io.Writer) error {
	logger := newLogger(cfg, logw)
	svc := newServices(cfg, logger)
	state := newDemoState(svc.rt, logger)
	defer state.stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return state.run(gctx, cfg.DemoInterval())
	})
	if svc.server != nil {
		g.Go(func() error {
			if err := svc.server.Run(gctx); err != nil {
				return errors.New("R200").Wrap(err)
			}
			return nil
		})
	}
	return g.Wait()
}

// demoState is the state driven by serve: a counter, a user record, and a
// read-only view of the settings, with effects watching them.
type demoState struct {
	rt       *reactive.Runtime
	logger   *slog.Logger
	state    *reactive.Proxy
	settings *reactive.Proxy
	summary  *reactive.Computed[string]
	effects  []*reactive.Effect
	ticks    int
}

func newDemoState(rt *reactive.Runtime, logger *slog.Logger) *demoState {
	d := &demoState{
		rt:     rt,
		logger: logger,
		state: rt.Reactive(reactive.ObjectOf(
			"ticks", 0,
			"user", reactive.ObjectOf("name", "ada", "visits", 0),
		)),
		settings: rt.Readonly(reactive.ObjectOf("theme", "dark")),
	}

	d.summary = reactive.NewComputed(rt, func() (string, error) {
		user := d.state.Nested("user")
		return user.Get("name").(string) + " visited " + strconv.Itoa(user.Get("visits").(int)) + " times", nil
	}, reactive.EffectName("summary"))

	d.effects = append(d.effects,
		rt.CreateEffect(func() {
			s, _ := d.summary.Get()
			logger.Info("summary changed", "summary", s)
		}, reactive.EffectName("log-summary")),
		rt.CreateEffect(func() {
			logger.Debug("keys changed", "keys", d.state.Keys())
		}, reactive.EffectName("log-keys")),
		rt.CreateEffect(func() {
			logger.Debug("tick", "ticks", d.state.Get("ticks"))
		}, reactive.EffectName("log-ticks")),
	)
	return d
}

// tick applies one round of demo writes.
func (d *demoState) tick() error {
	d.ticks++
	if err := d.state.Set("ticks", d.ticks); err != nil {
		return err
	}
	if d.ticks%2 == 0 {
		user := d.state.Nested("user")
		if err := user.Set("visits", user.Get("visits").(int)+1); err != nil {
			return err
		}
	}
	if d.ticks%3 == 0 {
		var err error
		if d.state.Has("flag") {
			err = d.state.Delete("flag")
		} else {
			err = d.state.Set("flag", true)
		}
		if err != nil {
			return err
		}
	}
	if d.ticks%5 == 0 {
		// Refused; shows up as a warning and a readonly event.
		return d.settings.Set("theme", "light")
	}
	return nil
}

func (d *demoState) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.tick(); err != nil {
				return errors.New("R201").Wrap(err)
			}
		}
	}
}

func (d *demoState) stop() {
	for _, e := range d.effects {
		e.Stop()
	}
	d.summary.Stop()
}
