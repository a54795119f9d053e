package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"cotask/internal/app"
	"cotask/internal/logging"
	"cotask/internal/metrics"
	"cotask/internal/sched"
)

type runOptions struct {
	config      string
	duration    time.Duration
	policy      string
	csv         string
	metricsAddr string
	logLevel    string
	report      bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulated robot under the scheduler",
		Long: `Load the configuration, build the tasks and dispatch them until the
duration elapses or the process is interrupted. A missing config file
falls back to the built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runApp(ctx, cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "config.yml", "path to the YAML config")
	f.DurationVarP(&opts.duration, "duration", "d", 0, "stop after this long (0 = until interrupted)")
	f.StringVar(&opts.policy, "policy", "", "dispatch policy, priority or round_robin (overrides config)")
	f.StringVar(&opts.csv, "csv", "", "record scheduler events to this CSV file")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :2112")
	f.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	f.BoolVar(&opts.report, "report", true, "print the task table and traces on exit")
	return cmd
}

func runApp(ctx context.Context, cmd *cobra.Command, opts *runOptions) error {
	log := logging.NewDefaultLogger(cmd.ErrOrStderr(), logging.ParseLevel(opts.logLevel))

	cfg, err := app.LoadFile(opts.config)
	switch {
	case app.Missing(err):
		log.Warn("config not found, using defaults", logging.F("path", opts.config))
	case err != nil:
		log.Warn("config unusable, using defaults", logging.F("path", opts.config), logging.F("error", err))
	}
	if opts.policy != "" {
		if _, err := sched.ParsePolicy(opts.policy); err != nil {
			return err
		}
		cfg.Policy = opts.policy
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	if opts.csv != "" {
		rec, err := sched.OpenCSV(opts.csv)
		if err != nil {
			return err
		}
		a.Tasks().SetObserver(rec)
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error("closing event log", logging.F("path", opts.csv), logging.F("error", err))
			}
		}()
	}

	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	if opts.metricsAddr != "" {
		stop, err := serveMetrics(ctx, opts.metricsAddr, a, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := a.Run(ctx); err != nil {
		return err
	}
	if opts.report {
		fmt.Fprint(cmd.OutOrStdout(), a.Report())
	}
	return nil
}

// serveMetrics exports the application's statistics on addr until the
// returned function is called.
func serveMetrics(ctx context.Context, addr string, a *app.App, log logging.Logger) (func(), error) {
	reg := prom.NewRegistry()
	exp, err := metrics.NewExporter("cotask", reg)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		exp.Poll(pollCtx, time.Second, a.Tasks(), a.Shares())
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", logging.F("addr", addr), logging.F("error", err))
		}
	}()
	log.Info("serving metrics", logging.F("addr", addr))

	return func() {
		cancel()
		<-polled
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
