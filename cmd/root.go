// Package cmd defines the riceplot command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FranksOps/riceplot/internal/display"
	"github.com/FranksOps/riceplot/internal/fetch"
	"github.com/FranksOps/riceplot/internal/fingerprint"
	"github.com/FranksOps/riceplot/internal/metrics"
	"github.com/FranksOps/riceplot/internal/pipeline"
	"github.com/FranksOps/riceplot/internal/search"
	"github.com/FranksOps/riceplot/pkg/proxy"
	"github.com/FranksOps/riceplot/pkg/ratelimit"
)

var rootCmd = &cobra.Command{
	Use:   "riceplot <gene>",
	Short: "Look up a gene on RiceXPro and display its expression bar charts",
	Long: `riceplot searches the RiceXPro field-transcriptome database for a gene,
downloads the developmental-stage and tissue expression bar charts from the
result, concatenates them side by side and opens the combined image.

The same search repeats until the site reports no hits.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.Duration("timeout", 30*time.Second, "per-operation timeout for searches and downloads")
	f.Bool("headless", true, "run the browser without a visible window")
	f.String("fingerprint", "chrome", "TLS fingerprint for image downloads (chrome, firefox, go)")
	f.StringSlice("proxy", nil, "proxy URL for image downloads, repeatable for rotation")
	f.Duration("interval", 0, "minimum pause between repeated searches")
	f.Float64("jitter", 0.2, "random jitter fraction applied to --interval")
	f.String("output", "", "save the combined chart to this PNG path instead of opening a viewer")
	f.Int("metrics-port", 0, "expose Prometheus metrics on this port (0 = disabled)")
	f.BoolP("verbose", "v", false, "enable debug logging")

	if err := viper.BindPFlags(f); err != nil {
		panic(err)
	}
}

// Execute runs the root command and maps any error to a non-zero exit.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "riceplot: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	gene := args[0]

	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if port := viper.GetInt("metrics-port"); port > 0 {
		srv := metrics.Start(port)
		defer srv.Stop(context.Background())
		logger.Info("serving metrics", "port", port)
	}

	profile, err := fingerprint.Parse(viper.GetString("fingerprint"))
	if err != nil {
		return err
	}

	var proxies *proxy.Pool
	if raw := viper.GetStringSlice("proxy"); len(raw) > 0 {
		proxies, err = proxy.NewPool(raw)
		if err != nil {
			return err
		}
	}

	timeout := viper.GetDuration("timeout")

	fetcher, err := fetch.NewFetcher(fetch.Config{
		Timeout:     timeout,
		Fingerprint: profile,
		Proxies:     proxies,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	driver, err := search.NewDriver(search.DriverConfig{
		Headless: viper.GetBool("headless"),
		Timeout:  timeout,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	// The session lives for the whole run and is released on every exit path.
	defer driver.Close()

	var sink display.Sink = &display.Viewer{Logger: logger}
	if out := viper.GetString("output"); out != "" {
		sink = &display.File{Path: out}
	}

	p := &pipeline.Pipeline{
		Searcher: driver,
		Fetcher:  fetcher,
		Sink:     sink,
		Pacer:    ratelimit.NewPacer(viper.GetDuration("interval"), viper.GetFloat64("jitter")),
		Logger:   logger,
	}

	return p.Run(ctx, gene)
}
