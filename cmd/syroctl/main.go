package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rcourtman/syroctl/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// rootOptions holds flag values; a flag only overrides the environment
// when it was set explicitly.
type rootOptions struct {
	user        string
	pass        string
	restart     bool
	timeout     time.Duration
	logLevel    string
	logFormat   string
	metricsFile string
	envFile     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "syroctl [origin]",
		Short: "Log in to (and optionally reboot) a Syrotech router",
		Long: `syroctl logs in to a Syrotech router's web interface, scraping the captcha
and CSRF token from the login page, and can trigger a reboot. Requests are
always made over plain http to the given origin (default ` + config.DefaultOrigin + `).`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.user, "user", "u", config.DefaultUsername, "username to log in with (or SYROCTL_USER)")
	flags.StringVarP(&opts.pass, "pass", "p", config.DefaultPassword, "password to log in with (or SYROCTL_PASS)")
	flags.BoolVarP(&opts.restart, "restart", "r", false, "reboot the router after logging in")

	persistent := rootCmd.PersistentFlags()
	persistent.DurationVar(&opts.timeout, "timeout", config.DefaultTimeout, "per-request timeout (or SYROCTL_TIMEOUT)")
	persistent.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error (or SYROCTL_LOG_LEVEL)")
	persistent.StringVar(&opts.logFormat, "log-format", config.DefaultLogFormat, "log format: auto, console, json (or SYROCTL_LOG_FORMAT)")
	persistent.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here (or SYROCTL_METRICS_FILE)")
	persistent.StringVar(&opts.envFile, "env-file", "", "load environment from this file instead of ./.env")

	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "syroctl %s\n", Version)
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
