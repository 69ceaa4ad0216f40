package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/lexfrei/gatus-ingress-operator/internal/config"
	"github.com/lexfrei/gatus-ingress-operator/internal/gatus"
	"github.com/lexfrei/gatus-ingress-operator/internal/helm"
	"github.com/lexfrei/gatus-ingress-operator/internal/kube"
	"github.com/lexfrei/gatus-ingress-operator/internal/metrics"
	"github.com/lexfrei/gatus-ingress-operator/internal/reconciler"
)

const metricsShutdownTimeout = 5 * time.Second

//nolint:gochecknoglobals // set by SetVersion from main
var (
	version = "development"
	gitsha  = "development"
)

func SetVersion(ver, sha string) {
	version = ver
	gitsha = sha
}

//nolint:gochecknoglobals // cobra command pattern
var rootCmd = &cobra.Command{
	Use:   "gatus-ingress-operator",
	Short: "Kubernetes operator that derives Gatus monitoring from Ingress resources",
	Long: `An operator that watches Ingress resources cluster-wide, derives a Gatus
monitoring configuration (one monitored endpoint per ingress rule and path),
and applies it by installing or upgrading the Gatus Helm chart.`,
	RunE:          runOperator,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	rootCmd.Flags().String("chart", config.DefaultChart, "Gatus Helm chart name")
	rootCmd.Flags().String("chart-repository", config.DefaultChartRepository, "Helm chart repository URL")
	rootCmd.Flags().String("chart-version", config.DefaultChartVersion, "Chart version to deploy (empty for latest)")
	rootCmd.Flags().String("helm-namespace", config.DefaultHelmNamespace, "Namespace for the Gatus release")
	rootCmd.Flags().String("helm-release", config.DefaultHelmRelease, "Helm release name")
	rootCmd.Flags().String("helm-values", "", "Chart value overrides as a JSON or YAML document")
	rootCmd.Flags().String("db-file", config.DefaultDBFile, "Gatus sqlite storage path")

	rootCmd.Flags().Duration("debounce-interval", config.DefaultDebounceInterval,
		"Quiet period between a watch event and the reconciliation pass it triggers")
	rootCmd.Flags().Duration("deploy-timeout", config.DefaultDeployTimeout, "Timeout for a single Helm deploy attempt")
	rootCmd.Flags().Int("deploy-attempts", config.DefaultDeployAttempts, "Retry ceiling for retryable deploy failures")

	rootCmd.Flags().String("metrics-addr", ":8080", "Address for metrics endpoint")

	_ = viper.BindPFlags(rootCmd.Flags())
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetEnvPrefix("GATUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func Execute() error {
	return errors.Wrap(rootCmd.Execute(), "command execution failed")
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo

	switch viper.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if viper.GetString("log-format") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

//nolint:funlen,noinlineerr // operator setup requires multiple steps
func runOperator(_ *cobra.Command, _ []string) error {
	logger := setupLogger()
	slog.SetDefault(logger)

	ctrl.SetLogger(logr.FromSlogHandler(logger.Handler()))

	logger.Info("starting gatus-ingress-operator",
		"version", version,
		"gitsha", gitsha,
	)

	cfg := &config.Config{
		Chart:            viper.GetString("chart"),
		ChartRepository:  viper.GetString("chart-repository"),
		ChartVersion:     viper.GetString("chart-version"),
		HelmNamespace:    viper.GetString("helm-namespace"),
		HelmRelease:      viper.GetString("helm-release"),
		HelmValues:       viper.GetString("helm-values"),
		DBFile:           viper.GetString("db-file"),
		DebounceInterval: viper.GetDuration("debounce-interval"),
		DeployTimeout:    viper.GetDuration("deploy-timeout"),
		DeployAttempts:   viper.GetInt("deploy-attempts"),
		MetricsAddr:      viper.GetString("metrics-addr"),
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	client, err := kube.NewClient()
	if err != nil {
		return errors.Wrap(err, "failed to create cluster client")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	overrides, err := cfg.ValuesOverride()
	if err != nil {
		return errors.Wrap(err, "failed to parse helm values")
	}

	builder := gatus.NewBuilder(cfg.DBFile, overrides, collector)
	manager := helm.NewManager(cfg, collector, logger)
	invoker := helm.NewInvoker(manager, client, cfg.HelmNamespace, cfg.DeployAttempts, cfg.DeployTimeout, logger)
	notifier := reconciler.NewNotifier()
	loop := reconciler.NewLoop(client, builder, invoker, notifier, cfg.DebounceInterval, collector, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsServer := startMetricsServer(cfg.MetricsAddr, registry, logger)

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer shutdownCancel()

		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	errCh := make(chan error, 2)

	go func() {
		errCh <- errors.Wrap(client.WatchIngresses(ctx, func(event kube.EventType) {
			collector.RecordWatchEvent(ctx, string(event))
			notifier.Notify()
		}), "ingress watch failed")
	}()

	go func() {
		errCh <- loop.Run(ctx)
	}()

	// First failure (or clean shutdown) stops everything; then wait for the
	// other goroutine so an in-flight deploy finishes before exit.
	runErr := <-errCh

	cancel()

	if secondErr := <-errCh; runErr == nil {
		runErr = secondErr
	}

	if runErr != nil {
		return errors.Wrap(runErr, "operator failed")
	}

	logger.Info("shutdown complete")

	return nil
}

func startMetricsServer(addr string, registry *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return server
}
