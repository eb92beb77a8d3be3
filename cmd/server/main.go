package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"aqdash/internal/api"
	"aqdash/internal/config"
	"aqdash/internal/engine"
	"aqdash/internal/logging"
	"aqdash/internal/metrics"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	dataPath   string
	cfg        *config.Config
	logger     logging.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "airq",
		Short:         "Explore reported air-quality modelling activities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.dataPath != "" {
				cfg.Data.Path = opts.dataPath
			}
			logger, err := logging.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			opts.cfg, opts.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.dataPath, "data", "", "path to the CSV extract (overrides data.path)")

	root.AddCommand(newServeCommand(opts), newViewsCommand(opts), newReportCommand(opts))
	return root
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	logger := opts.logger.Named("server")
	m := metrics.New()

	// 1. Handler starts without data; data routes answer 503 until loaded
	h := api.NewHandler(nil, m, logger.Named("api"), opts.cfg.Segmentation.DefaultK)
	e := api.NewServer(h, logger.Named("http"))

	// 2. Load the dataset in the background
	go func() {
		t0 := time.Now()
		store, err := engine.LoadColumnar(opts.cfg.Data.Path, logger.Named("loader"))
		if err != nil {
			logger.Fatal("dataset load failed", logging.Err(err))
		}
		h.SetStore(store)
		logger.Info("dataset ready", logging.Duration("elapsed", time.Since(t0)))
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.String("addr", opts.cfg.Server.Addr))
		errc <- e.Start(opts.cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}

type queryFlags struct {
	pollutants []string
	from, to   int
	country    string
	k          int
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&q.pollutants, "pollutant", "p", nil, "pollutants to include (repeatable)")
	cmd.Flags().IntVar(&q.from, "from", 0, "first year, inclusive")
	cmd.Flags().IntVar(&q.to, "to", 0, "last year, inclusive")
	cmd.Flags().StringVar(&q.country, "country", engine.AllCountries, "country, or ALL")
	cmd.Flags().IntVar(&q.k, "k", 0, "number of segments (defaults to segmentation.default_k)")
}

// params leaves the year range absent unless both ends were given.
func (q *queryFlags) params(cmd *cobra.Command, defaultK int) engine.Params {
	p := engine.Params{
		Criteria: engine.Criteria{Pollutants: q.pollutants, Country: q.country},
		K:        q.k,
	}
	if cmd.Flags().Changed("from") && cmd.Flags().Changed("to") {
		p.Years = &engine.YearRange{Low: q.from, High: q.to}
	}
	if !cmd.Flags().Changed("k") {
		p.K = defaultK
	}
	return p
}

func computeFromFlags(cmd *cobra.Command, opts *rootOptions, q *queryFlags) (*engine.ColumnStore, engine.Params, error) {
	store, err := engine.LoadColumnar(opts.cfg.Data.Path, opts.logger.Named("loader"))
	if err != nil {
		return nil, engine.Params{}, err
	}
	return store, q.params(cmd, opts.cfg.Segmentation.DefaultK), nil
}

func newViewsCommand(opts *rootOptions) *cobra.Command {
	q := &queryFlags{}
	var indent bool
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Compute every view for a selection and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, p, err := computeFromFlags(cmd, opts, q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(engine.Compute(store, p))
		},
	}
	q.register(cmd)
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the JSON output")
	return cmd
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	q := &queryFlags{}
	var lang string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a readable summary of the views for a selection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, p, err := computeFromFlags(cmd, opts, q)
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), engine.Compute(store, p), lang)
		},
	}
	q.register(cmd)
	cmd.Flags().StringVar(&lang, "lang", "es", "BCP 47 tag used for number formatting")
	return cmd
}
