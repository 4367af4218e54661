package main

import (
	"context"
	"fmt"

	"github.com/rcourtman/syroctl/internal/config"
	"github.com/rcourtman/syroctl/internal/logging"
	"github.com/rcourtman/syroctl/internal/metrics"
	"github.com/rcourtman/syroctl/pkg/syrotech"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [origin]",
		Short: "Report whether the router session is logged in, without logging in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			ctx, adapter, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer writeMetrics(cfg.MetricsFile)

			probe, err := adapter.Status(ctx)
			if err != nil {
				return err
			}

			if probe.State == syrotech.SessionAtLoginPage {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Already logged in.")
			}
			return nil
		},
	}
}

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := resolveConfig(cmd, opts, args)
	if err != nil {
		return err
	}
	ctx, adapter, err := setup(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer writeMetrics(cfg.MetricsFile)

	out := cmd.OutOrStdout()

	if opts.restart {
		result, err := adapter.Reboot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Triggered restart. It'll probably finish within next %d seconds\n",
			int(result.ExpectedWithin.Seconds()))
		return nil
	}

	outcome, err := adapter.Login(ctx)
	if err != nil {
		return err
	}
	if outcome.Performed() {
		fmt.Fprintln(out, "Successfully logged in")
	} else {
		fmt.Fprintln(out, "Already logged in.")
	}
	return nil
}

// resolveConfig layers explicitly set flags and the positional origin over
// the environment and built-in defaults.
func resolveConfig(cmd *cobra.Command, opts *rootOptions, args []string) (*config.Config, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Origin = args[0]
	}
	if flags.Changed("user") {
		cfg.Username = opts.user
	}
	if flags.Changed("pass") {
		cfg.Password = opts.pass
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup initializes logging for the run and builds the router adapter.
func setup(ctx context.Context, cfg *config.Config) (context.Context, *syrotech.Adapter, error) {
	logger := logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "syroctl",
	})

	ctx, runID := logging.WithRunID(ctx, "")
	ctx = logging.WithLogger(ctx, logger)

	adapter, err := syrotech.New(syrotech.Config{
		Origin: cfg.Origin,
		Credentials: syrotech.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Debug().
		Str("run_id", runID).
		Str("origin", adapter.Origin()).
		Str("user", cfg.Username).
		Dur("timeout", cfg.Timeout).
		Msg("Starting router run")

	return ctx, adapter, nil
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write metrics textfile")
	}
}
