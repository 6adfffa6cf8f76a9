package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"reduction.dev/h2ofixture/clocks"
	cfg "reduction.dev/h2ofixture/config"
	"reduction.dev/h2ofixture/config/jsontemplate"
	"reduction.dev/h2ofixture/connectors"
	"reduction.dev/h2ofixture/connectors/h2odata"
	"reduction.dev/h2ofixture/logging"
	"reduction.dev/h2ofixture/workers/sourcerunner"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(clocks.NewSystemClock()).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. The clock paces every spout the app runs.
func newApp(clock clocks.Clock) *cli.App {
	return &cli.App{
		Name:  "h2ofixture",
		Usage: "Replay the H2O sample animal records as a paced stream",
		Commands: []*cli.Command{{
			Name:      "run",
			Usage:     "Run spout instances and write their records to a sink",
			Args:      true,
			ArgsUsage: "[config.json]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "distributed",
					Usage: "drop the single-instance hint so every requested instance runs",
				},
				&cli.IntFlag{
					Name:  "parallelism",
					Usage: "the number of spout instances to request",
				},
				&cli.IntFlag{
					Name:  "limit",
					Usage: "stop each instance after this many records",
				},
				&cli.StringFlag{
					Name:  "format",
					Usage: "record encoding, json or csv",
				},
				&cli.StringSliceFlag{
					Name:  "param",
					Usage: "set a config parameter as KEY=VALUE",
				},
				&cli.StringFlag{
					Name:  "metrics-addr",
					Usage: "serve Prometheus metrics on this address",
				},
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
					Usage: "one of debug, info, warn, or error",
				},
			},
			Action: func(ctx *cli.Context) error {
				level, err := logging.ParseLevel(ctx.String("log-level"))
				if err != nil {
					return err
				}
				logging.SetLevel(level)
				slog.SetDefault(slog.New(logging.NewTextHandler()))

				c, err := loadConfig(ctx)
				if err != nil {
					return err
				}
				if c.Sink.Stdio != nil && c.Sink.Stdio.Writer == nil {
					c.Sink.Stdio.Writer = ctx.App.Writer
				}
				if err := run(ctx.Context, c, clock, ctx.String("metrics-addr")); err != nil {
					slog.Error("terminated with error", "error", err)
					return err
				}
				return nil
			},
		}, {
			Name:  "schema",
			Usage: "Print the record field names and the spout's parallelism hint",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "distributed"},
			},
			Action: func(ctx *cli.Context) error {
				spout, err := h2odata.New(h2odata.SpoutConfig{Distributed: ctx.Bool("distributed")})
				if err != nil {
					return err
				}
				for i, field := range spout.DeclareSchema() {
					fmt.Fprintf(ctx.App.Writer, "%d\t%s\n", i, field)
				}
				if hint, ok := spout.ConfigurationHint(); ok {
					fmt.Fprintf(ctx.App.Writer, "max task parallelism: %d\n", hint.MaxTaskParallelism)
				} else {
					fmt.Fprintln(ctx.App.Writer, "max task parallelism: unset")
				}
				return nil
			},
		}, {
			Name:  "rows",
			Usage: "Print the fixture table once without pacing",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Value: string(connectors.FormatJSON)},
			},
			Action: func(ctx *cli.Context) error {
				return printRows(ctx.App.Writer, ctx.String("format"))
			},
		}},
	}
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(ctx *cli.Context) (*cfg.Config, error) {
	params := jsontemplate.NewParams()
	for _, kv := range ctx.StringSlice("param") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("param %q must be formatted as KEY=VALUE", kv)
		}
		params.Set(key, value)
	}

	c := cfg.Default()
	if path := ctx.Args().First(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		c, err = cfg.Unmarshal(data, params)
		if err != nil {
			return nil, err
		}
	}

	if ctx.IsSet("distributed") {
		c.Distributed = ctx.Bool("distributed")
	}
	if ctx.IsSet("parallelism") {
		c.Parallelism = ctx.Int("parallelism")
	}
	if ctx.IsSet("limit") {
		c.Limit = ctx.Int("limit")
	}
	if ctx.IsSet("format") {
		c.Format = ctx.String("format")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return c, nil
}

func run(ctx context.Context, c *cfg.Config, clock clocks.Clock, metricsAddr string) error {
	sinkConfig, err := c.Sink.Config()
	if err != nil {
		return err
	}
	sink, err := sinkConfig.NewSink()
	if err != nil {
		return fmt.Errorf("creating %s sink: %w", c.Sink.Name(), err)
	}
	if closer, ok := sink.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("closing sink", "err", err)
			}
		}()
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{
			Addr:    metricsAddr,
			Handler: logging.NewHTTPHandler(mux, slog.With("instanceID", "metrics")),
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "err", err)
			}
		}()
		defer server.Close()
		slog.Info("serving metrics", "addr", metricsAddr)
	}

	runners, err := sourcerunner.RunTopology(ctx, sourcerunner.TopologyParams{
		NewSpout: func(logger *slog.Logger) (connectors.Spout, error) {
			return h2odata.New(h2odata.SpoutConfig{Distributed: c.Distributed, Clock: clock, Logger: logger})
		},
		Sink:        sink,
		SinkName:    c.Sink.Name(),
		Format:      c.RecordFormat(),
		Parallelism: c.Parallelism,
		Limit:       c.Limit,
		Clock:       clock,
	})

	total := 0
	for _, r := range runners {
		total += r.Emitted()
	}
	slog.Info("topology stopped", "instances", len(runners), "emitted", total)
	return err
}

func printRows(w io.Writer, format string) error {
	f, err := connectors.ParseFormat(format)
	if err != nil {
		return err
	}
	for _, row := range h2odata.Rows {
		record, err := connectors.EncodeRecord(f, row)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", record.Value); err != nil {
			return err
		}
	}
	return nil
}
