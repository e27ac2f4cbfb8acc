// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/telecap/cmd/telecap/cli"
	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/clock"
	"github.com/bureau-foundation/telecap/lib/config"
	"github.com/bureau-foundation/telecap/lib/mcapfile"
	"github.com/bureau-foundation/telecap/lib/metrics"
	"github.com/bureau-foundation/telecap/lib/registry"
	"github.com/bureau-foundation/telecap/lib/sink"
)

type demoParams struct {
	configPath    string
	files         []string
	live          []string
	compression   string
	encoding      string
	sync          bool
	rate          float64
	duration      time.Duration
	frames        int
	width         int
	height        int
	logLevel      string
	metricsListen string
}

func demoCommand() *cli.Command {
	var params demoParams
	return &cli.Command{
		Name:    "demo",
		Summary: "Drive file and live sinks with a synthetic scene",
		Description: `Generate a synthetic robot scene and write it to every configured sink.

Sinks come from the config file (--config or TELECAP_CONFIG) plus any
--file and --live flags. The scene has a camera stream with
annotations, a moving 3D object with its frame transform and pose
track, IMU samples, diagnostics and log records.`,
		Usage: "telecap demo [flags]",
		Examples: []cli.Example{
			{
				Description: "Record ten seconds to a file",
				Command:     "telecap demo --file run.mcap --duration 10s",
			},
			{
				Description: "Stream live to a viewer on port 8765 and record with lz4",
				Command:     "telecap demo --live 0.0.0.0:8765 --file run.mcap --compression lz4",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("demo", pflag.ContinueOnError)
			flagSet.StringVar(&params.configPath, "config", "", "config file (default $TELECAP_CONFIG)")
			flagSet.StringArrayVar(&params.files, "file", nil, "record to an MCAP file (repeatable)")
			flagSet.StringArrayVar(&params.live, "live", nil, "serve live on host:port (repeatable)")
			flagSet.StringVar(&params.compression, "compression", "zstd", "chunk compression for --file sinks: none, lz4, zstd")
			flagSet.StringVar(&params.encoding, "encoding", sink.EncodingJSON, "message encoding for flag sinks: json, cbor")
			flagSet.BoolVar(&params.sync, "sync", false, "start flag sinks in sync mode")
			flagSet.Float64Var(&params.rate, "rate", 10, "frames per second")
			flagSet.DurationVar(&params.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
			flagSet.IntVar(&params.frames, "frames", 0, "stop after this many frames (0 for no limit)")
			flagSet.IntVar(&params.width, "width", 320, "camera image width")
			flagSet.IntVar(&params.height, "height", 240, "camera image height")
			flagSet.StringVar(&params.logLevel, "log-level", "", "log level (overrides config)")
			flagSet.StringVar(&params.metricsListen, "metrics-listen", "", "serve Prometheus /metrics on this address")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: demo takes no arguments", cli.ErrUsage)
			}
			cfg, err := loadDemoConfig(params)
			if err != nil {
				return err
			}
			level, _ := cfg.Level()
			logger := cli.NewLogger(level).With("command", "demo")
			return runDemo(ctx, cfg, params, clock.Real(), logger)
		},
	}
}

// loadDemoConfig reads the config file, if any, and adds the sinks and
// overrides given as flags.
func loadDemoConfig(params demoParams) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case params.configPath != "":
		cfg, err = config.LoadFile(params.configPath)
	case os.Getenv(config.EnvConfig) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if params.logLevel != "" {
		cfg.LogLevel = params.logLevel
	}
	if params.metricsListen != "" {
		cfg.Metrics.Listen = params.metricsListen
	}

	for _, path := range params.files {
		cfg.Sinks = append(cfg.Sinks, config.SinkConfig{
			Type:        config.SinkFile,
			Path:        path,
			Compression: params.compression,
			Encoding:    params.encoding,
			Sync:        params.sync,
		})
	}
	for _, address := range params.live {
		host, portText, err := net.SplitHostPort(address)
		if err != nil {
			return nil, fmt.Errorf("%w: --live %q: %v", cli.ErrUsage, address, err)
		}
		port, err := strconv.Atoi(portText)
		if err != nil {
			return nil, fmt.Errorf("%w: --live %q: invalid port", cli.ErrUsage, address)
		}
		cfg.Sinks = append(cfg.Sinks, config.SinkConfig{
			Name:     "live@" + address,
			Type:     config.SinkNetwork,
			Host:     host,
			Port:     port,
			Encoding: params.encoding,
			Sync:     params.sync,
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	if len(cfg.Sinks) == 0 {
		return nil, fmt.Errorf("%w: no sinks configured; pass --file or --live, or list sinks in the config file", cli.ErrUsage)
	}
	if frameInterval(params.rate) <= 0 {
		return nil, fmt.Errorf("%w: --rate must be positive and at most one frame per nanosecond", cli.ErrUsage)
	}
	if params.width <= 0 || params.height <= 0 {
		return nil, fmt.Errorf("%w: --width and --height must be positive", cli.ErrUsage)
	}
	return cfg, nil
}

func runDemo(ctx context.Context, cfg *config.Config, params demoParams, clk clock.Clock, logger *slog.Logger) error {
	var sinkMetrics *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		sinkMetrics = metrics.New(promRegistry)
		stop, err := serveMetrics(cfg.Metrics.Listen, promRegistry, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	connections := registry.New(registry.Options{
		Sink: sink.Options{
			FlushInterval:   cfg.Pipeline.FlushInterval,
			SyncTimeout:     cfg.Pipeline.SyncTimeout,
			PositionHistory: cfg.Pipeline.PositionHistory,
			ImageQuality:    cfg.Pipeline.ImageQuality,
			MaxImageWidth:   cfg.Pipeline.MaxImageWidth,
			Clock:           clk,
			Logger:          logger,
			Metrics:         sinkMetrics,
		},
	})
	defer func() {
		if err := connections.CloseAll(); err != nil {
			logger.Error("closing sinks", "error", err)
		}
	}()

	if err := openSinks(connections, cfg, logger); err != nil {
		return err
	}
	if err := registerSchemas(connections, cfg); err != nil {
		return err
	}

	generator := newGenerator(connections, registry.All(), params.width, params.height)
	if err := generator.setup(clock.UnixNano(clk)); err != nil {
		return fmt.Errorf("writing static scene: %w", err)
	}

	ticker := clk.NewTicker(frameInterval(params.rate))
	defer ticker.Stop()

	var deadline <-chan time.Time
	if params.duration > 0 {
		deadline = clk.After(params.duration)
	}

	logger.Info("demo running", "sinks", connections.Names(), "rate", params.rate)
	for {
		if err := generator.emit(clock.UnixNano(clk)); err != nil {
			logger.Warn("frame partially written", "frame", generator.frame-1, "error", err)
		}
		if generator.frame%progressEvery == 0 {
			logProgress(logger, connections)
		}
		if params.frames > 0 && generator.frame >= params.frames {
			return nil
		}

		select {
		case <-ctx.Done():
			logger.Info("demo interrupted", "frames", generator.frame)
			return nil
		case <-deadline:
			return nil
		case <-ticker.C:
		}
	}
}

// progressEvery is the number of frames between progress log lines.
const progressEvery = 100

func logProgress(logger *slog.Logger, connections *registry.Registry) {
	for _, stats := range connections.Stats() {
		logger.Info("sink progress",
			"sink", stats.Name,
			"kind", stats.Kind,
			"pending", stats.Pending,
			"written", stats.Written,
			"dropped", stats.Dropped,
			"write_errors", stats.WriteErrors,
		)
	}
}

func openSinks(connections *registry.Registry, cfg *config.Config, logger *slog.Logger) error {
	for _, entry := range cfg.Sinks {
		switch entry.Type {
		case config.SinkFile:
			options := connections.FileOptions(entry.Name)
			options.Encoding = entry.Encoding
			options.Sync = entry.Sync
			// Validate has already checked both names.
			options.Compression, _ = mcapfile.ParseCompression(entry.Compression)
			options.Level, _ = mcapfile.ParseLevel(entry.Level)
			options.ChunkSize = entry.ChunkSize

			fileSink, err := connections.OpenFileWith(entry.Path, options)
			if err != nil {
				return err
			}
			logger.Info("recording", "sink", fileSink.Name(), "path", fileSink.Path())

		case config.SinkNetwork:
			options := connections.NetworkOptions(entry.Host, entry.Port, entry.Name, entry.Label)
			options.Encoding = entry.Encoding
			options.Sync = entry.Sync

			networkSink, err := connections.OpenNetworkWith(options)
			if err != nil {
				return err
			}
			logger.Info("serving live", "sink", networkSink.Name(), "address", networkSink.Addr().String())
		}
	}
	return nil
}

func registerSchemas(connections *registry.Registry, cfg *config.Config) error {
	var errs []error
	for _, entry := range cfg.Schemas {
		data, err := cfg.LoadSchema(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		definition := catalog.NewDefinition(entry.SchemaName(), data)
		if err := definition.Compile(); err != nil {
			errs = append(errs, fmt.Errorf("schema for channel %q: %w", entry.Channel, err))
			continue
		}
		if err := connections.CreateSchema(registry.All(), entry.Channel, definition); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// serveMetrics serves /metrics in the background and returns a function
// that shuts the server down.
func serveMetrics(address string, gatherer prometheus.Gatherer, logger *slog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "address", listener.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}

// frameInterval returns the tick period for rate frames per second, or
// zero when rate is not positive or too high to tick.
func frameInterval(rate float64) time.Duration {
	if !(rate > 0) {
		return 0
	}
	interval := float64(time.Second) / rate
	if interval < 1 {
		return 0
	}
	return time.Duration(interval)
}
