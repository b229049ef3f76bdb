package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/japaniel/ownsync/pkg/config"
	"github.com/japaniel/ownsync/pkg/db"
	"github.com/japaniel/ownsync/pkg/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	version = "0.1.0"
	commit  = ""
)

// app carries what every subcommand shares. It is filled in by the root
// command's pre-run hook.
type app struct {
	flagConfig  string
	flagDB      string
	flagLevel   string
	flagFormat  string
	flagMetrics string

	cfg     config.Config
	log     *logrus.Logger
	runID   string
	metrics *metrics.Metrics

	stdout io.Writer
	stderr io.Writer
}

func versionString() string {
	if commit != "" {
		return fmt.Sprintf("ownsync version %s (commit: %s)", version, commit)
	}
	return fmt.Sprintf("ownsync version %s-dev", version)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "ownsync",
		Short:   "Audit and update a wordnet graph against its document dump",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", "", "YAML config file")
	pf.StringVar(&a.flagDB, "db", "", "SQLite graph database (env: "+config.EnvDatabase+")")
	pf.StringVar(&a.flagLevel, "log-level", "", "Log level: debug|info|warn|error (env: "+config.EnvLogLevel+")")
	pf.StringVar(&a.flagFormat, "log-format", "text", "Log format: text|json")
	pf.StringVar(&a.flagMetrics, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")

	root.AddCommand(newInitCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newCompareCmd(a))
	root.AddCommand(newUpdateCmd(a))
	return root
}

// setup resolves the configuration (flag, then env, then file) and builds
// the logger and metrics for this run.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flagConfig)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = a.flagDB
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flagLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = a.flagMetrics
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	a.runID = uuid.NewString()
	a.log = logrus.New()
	a.log.SetOutput(a.stderr)
	a.log.SetLevel(level)
	switch a.flagFormat {
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", a.flagFormat)
	}
	a.log.AddHook(fieldHook{"run_id": a.runID})
	a.metrics = metrics.New()
	return nil
}

// openStore opens and migrates the configured database. Read-only commands
// pass mustExist so a mistyped path fails instead of yielding an empty graph.
func (a *app) openStore(mustExist bool) (*db.Store, func(), error) {
	if mustExist && a.cfg.Database != ":memory:" {
		if _, err := os.Stat(a.cfg.Database); err != nil {
			return nil, nil, fmt.Errorf("open database %s: %w", a.cfg.Database, err)
		}
	}
	conn, err := db.Open(a.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", a.cfg.Database, err)
	}
	store := db.NewStore(conn)
	store.BatchSize = a.cfg.BatchSize
	store.Logger = a.log
	return store, func() { conn.Close() }, nil
}

// fieldHook stamps fixed fields on every entry that does not set them.
type fieldHook logrus.Fields

func (h fieldHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h fieldHook) Fire(e *logrus.Entry) error {
	for k, v := range h {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
