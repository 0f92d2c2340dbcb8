package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scaleout-labs/fednworker/internal/config"
	"github.com/scaleout-labs/fednworker/internal/discovery"
	"github.com/scaleout-labs/fednworker/internal/runtime"
	"github.com/scaleout-labs/fednworker/internal/types"
	"github.com/scaleout-labs/fednworker/internal/worker"
	"github.com/scaleout-labs/fednworker/pkg/log"
	"github.com/scaleout-labs/fednworker/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "fednworker",
	Short:   "fednworker attaches to a federated-training network and services train/validate tasks",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"fednworker version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the worker, attaching to the configured discovery service",
	RunE:  runWorker,
}

func init() {
	flags := runCmd.Flags()
	flags.String("config", "", "Path to a YAML worker manifest")
	flags.String("name", "", "Worker name (must match ^[A-Za-z0-9_-]*$)")
	flags.String("discover-host", "", "Discovery service host")
	flags.Int("discover-port", 0, "Discovery service port")
	flags.String("token", "", "Bearer token for discovery and combiner auth")
	flags.String("preferred-combiner", "", "Preferred combiner name, if any")
	flags.Bool("force-ssl", false, "Require TLS for the combiner channel")
	flags.Bool("secure", false, "Fetch the combiner's certificate on demand and use TLS")
	flags.Bool("verify", true, "Verify the combiner's certificate chain")
	flags.Bool("trainer", false, "Subscribe to model-update-request tasks")
	flags.Bool("validator", false, "Subscribe to model-validation-request tasks")
	flags.Bool("remote-compute-context", false, "Fetch the compute package from discovery rather than a local directory")
	flags.String("local-compute-dir", "client", "Local compute directory, used when remote-compute-context is false")
	flags.String("checksum", "", "Expected SHA-256 checksum of the compute package")
	flags.Duration("heartbeat-interval", 2*time.Second, "Interval between heartbeats")
	flags.Int("reconnect-after-missed-heartbeat", 3, "Consecutive missed heartbeats before detaching")
	flags.String("run-dir", "", "Run directory for the bound compute package and task scratch files (default: <cwd>/<YYYYmmdd-HHMMSS>)")
	flags.String("metrics-addr", ":9090", "Listen address for /metrics and /healthz")
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	runDir, err := resolveRunDir(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	identity := types.Identity{Name: cfg.Name, ClientID: uuid.NewString(), Role: types.RoleWorker}
	w, err := worker.New(identity, cfg, runDir)
	if err != nil {
		return fmt.Errorf("construct worker: %w", err)
	}

	baseURL := fmt.Sprintf("http://%s:%d", cfg.DiscoverHost, cfg.DiscoverPort)
	if cfg.Secure || cfg.ForceSSL {
		baseURL = fmt.Sprintf("https://%s:%d", cfg.DiscoverHost, cfg.DiscoverPort)
	}
	connector := discovery.New(baseURL, cfg.Token)

	supervisor := worker.NewSupervisor(w, cfg, connector, runDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsServer := startMetricsServer(cfg.MetricsAddr, w)
	defer shutdownMetricsServer(metricsServer)

	return supervisor.Run(ctx)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	applyFlagOverride(flags, "name", &cfg.Name)
	applyFlagOverride(flags, "discover-host", &cfg.DiscoverHost)
	applyFlagOverride(flags, "token", &cfg.Token)
	applyFlagOverride(flags, "preferred-combiner", &cfg.PreferredCombiner)
	applyFlagOverride(flags, "local-compute-dir", &cfg.LocalComputeDir)
	applyFlagOverride(flags, "checksum", &cfg.Checksum)
	applyFlagOverride(flags, "metrics-addr", &cfg.MetricsAddr)

	if flags.Changed("discover-port") {
		cfg.DiscoverPort, _ = flags.GetInt("discover-port")
	}
	if flags.Changed("force-ssl") {
		cfg.ForceSSL, _ = flags.GetBool("force-ssl")
	}
	if flags.Changed("secure") {
		cfg.Secure, _ = flags.GetBool("secure")
	}
	if flags.Changed("verify") {
		cfg.Verify, _ = flags.GetBool("verify")
	}
	if flags.Changed("trainer") {
		cfg.Trainer, _ = flags.GetBool("trainer")
	}
	if flags.Changed("validator") {
		cfg.Validator, _ = flags.GetBool("validator")
	}
	if flags.Changed("remote-compute-context") {
		cfg.RemoteComputeCtx, _ = flags.GetBool("remote-compute-context")
	}
	if flags.Changed("heartbeat-interval") {
		cfg.HeartbeatInterval, _ = flags.GetDuration("heartbeat-interval")
	}
	if flags.Changed("reconnect-after-missed-heartbeat") {
		cfg.MissedHeartbeats, _ = flags.GetInt("reconnect-after-missed-heartbeat")
	}
	return cfg, nil
}

func applyFlagOverride(flags *pflag.FlagSet, name string, dest *string) {
	if flags.Changed(name) {
		*dest, _ = flags.GetString(name)
	}
}

func resolveRunDir(cmd *cobra.Command) (string, error) {
	runDir, _ := cmd.Flags().GetString("run-dir")
	if runDir != "" {
		return runDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve run dir: %w", err)
	}
	return filepath.Join(cwd, time.Now().Format("20060102-150405")), nil
}

func startMetricsServer(addr string, w *worker.Worker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		if w.Attached() {
			rw.WriteHeader(http.StatusOK)
			fmt.Fprintln(rw, "attached")
			return
		}
		rw.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(rw, "detached")
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithComponent("metrics").Error().Err(err).Msg("metrics server exited")
		}
	}()
	return srv
}

func shutdownMetricsServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, worker.ErrUnauthorized):
		return 2
	case errors.Is(err, worker.ErrUnmatchedConfig):
		return 3
	case errors.Is(err, runtime.ErrChecksumMismatch):
		return 4
	default:
		return 1
	}
}
