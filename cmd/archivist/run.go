package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"waveform-hq/archivist/pkg/config"
	"waveform-hq/archivist/pkg/ledger"
	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/remote/dublincore"
	"waveform-hq/archivist/pkg/remote/fdsnws"
	"waveform-hq/archivist/pkg/remote/objectstore"
	"waveform-hq/archivist/pkg/remote/pid"
	"waveform-hq/archivist/pkg/remote/psd"
	"waveform-hq/archivist/pkg/remote/replica"
	"waveform-hq/archivist/pkg/remote/wfcatalog"
	"waveform-hq/archivist/pkg/repack"
	"waveform-hq/archivist/pkg/rules"
	"waveform-hq/archivist/pkg/rules/actions"
	"waveform-hq/archivist/pkg/rules/conditions"
	"waveform-hq/archivist/pkg/schedule"
	"waveform-hq/archivist/pkg/sds"
	"waveform-hq/archivist/pkg/telemetry/logging"
	"waveform-hq/archivist/pkg/telemetry/metrics"
)

var runFlags struct {
	dir      string
	pattern  string
	ruleMaps []string
	ruleSeq  string
	workers  int
	daemon   bool
	dryRun   bool
	logLevel string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the rule sequence over the archive",
	Long: `Walk the SDS archive, select files by pattern, and evaluate the
configured rule sequence against each one.

By default the pipeline runs once and exits. With --daemon it keeps
running on the configured cron schedule and optionally reloads rule
maps when they change on disk.

Examples:
  # One pass over the whole archive
  archivist run

  # Restrict to one network and channel
  archivist run --pattern "NL.*.*.BHZ.D.2023.*"

  # Continuous operation
  archivist run --daemon

  # Show what would happen without side effects
  archivist run --dry-run`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.dir, "dir", "", "override the archive root directory")
	runCmd.Flags().StringVar(&runFlags.pattern, "pattern", "", "7-field selection pattern (NET.STA.LOC.CHA.Q.YYYY.DDD)")
	runCmd.Flags().StringArrayVar(&runFlags.ruleMaps, "rulemap", nil, "rule map file, repeatable")
	runCmd.Flags().StringVar(&runFlags.ruleSeq, "ruleseq", "", "rule sequence file")
	runCmd.Flags().IntVar(&runFlags.workers, "workers", 0, "number of files processed in parallel")
	runCmd.Flags().BoolVar(&runFlags.daemon, "daemon", false, "keep running on the configured schedule")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "log destructive actions instead of performing them")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// app holds the wired pipeline. The engine is swapped atomically when a
// rule map reload succeeds.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	registry  *rules.Registry
	book      ledger.Ledger

	mu     sync.Mutex
	engine *rules.Engine
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyRunFlags(cfg)

	logger, err := logging.New(cfg.Telemetry.Logging, nil)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.book.Close()

	if a.collector != nil {
		go func() {
			if err := a.collector.Serve(ctx); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	if !runFlags.daemon {
		return a.runOnce(ctx)
	}

	scheduler := schedule.NewScheduler(cfg.Schedule, a.runOnce, logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	if cfg.Schedule.WatchRuleMaps {
		paths := append([]string{}, cfg.Engine.RuleMaps...)
		paths = append(paths, cfg.Engine.Sequence)
		watcher, err := schedule.NewWatcher(paths, 0, logger)
		if err != nil {
			return err
		}
		go watcher.Watch(ctx, a.reload)
	}

	logger.Info("daemon started", "schedule", cfg.Schedule.Cron)
	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func applyRunFlags(cfg *config.Config) {
	if runFlags.dir != "" {
		cfg.Archive.RootPath = runFlags.dir
	}
	if runFlags.pattern != "" {
		cfg.Archive.Pattern = runFlags.pattern
	}
	if len(runFlags.ruleMaps) > 0 {
		cfg.Engine.RuleMaps = runFlags.ruleMaps
	}
	if runFlags.ruleSeq != "" {
		cfg.Engine.Sequence = runFlags.ruleSeq
	}
	if runFlags.workers > 0 {
		cfg.Engine.Workers = runFlags.workers
	}
	if runFlags.dryRun {
		cfg.Engine.DryRun = true
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
}

// buildApp wires the remote clients, the ledger, and the rule engine
// from the configuration.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var limiter *remote.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = remote.NewLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RequestsPerSecond)
	}

	var collector *metrics.Collector
	var reqObserver remote.RequestObserver
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
		reqObserver = collector
	}

	store, err := objectstore.New(ctx, objectstore.Config{
		Endpoint:       cfg.ObjectStore.Endpoint,
		Region:         cfg.ObjectStore.Region,
		Bucket:         cfg.ObjectStore.Bucket,
		Prefix:         cfg.ObjectStore.Prefix,
		AccessKey:      cfg.ObjectStore.AccessKey,
		SecretKey:      cfg.ObjectStore.SecretKey,
		ForcePathStyle: cfg.ObjectStore.ForcePathStyle,
		Limiter:        limiter,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}

	httpClient := func(service string, endpoint config.CatalogEndpoint) *remote.Client {
		return remote.NewClient(remote.ClientConfig{
			Service:  service,
			BaseURL:  endpoint.BaseURL,
			Timeout:  endpoint.Timeout,
			Limiter:  limiter,
			Observer: reqObserver,
			Logger:   logger,
		})
	}

	wfc := wfcatalog.New(httpClient("wfcatalog", cfg.Catalogs.Waveform))
	psds := psd.New(httpClient("psd", cfg.Catalogs.PSD))
	pids := pid.New(remote.NewClient(remote.ClientConfig{
		Service:  "pid",
		BaseURL:  cfg.PID.BaseURL,
		Timeout:  cfg.PID.Timeout,
		Limiter:  limiter,
		Observer: reqObserver,
		Logger:   logger,
	}), cfg.PID.Prefix)
	stations := fdsnws.New(remote.NewClient(remote.ClientConfig{
		Service:  "fdsnws",
		BaseURL:  cfg.FDSNWS.BaseURL,
		Timeout:  cfg.FDSNWS.Timeout,
		Limiter:  limiter,
		Observer: reqObserver,
		Logger:   logger,
	}))
	dcs := dublincore.New(httpClient("dublincore", cfg.Catalogs.DublinCore), pids, stations)
	replicas := replica.New(remote.NewClient(remote.ClientConfig{
		Service:  "replication",
		BaseURL:  cfg.Replication.BaseURL,
		Timeout:  cfg.Replication.Timeout,
		Limiter:  limiter,
		Observer: reqObserver,
		Logger:   logger,
	}), cfg.Replication.Root)

	book, err := ledger.NewSQLiteLedger(ledger.SQLiteConfig{
		Path:        cfg.Ledger.Path,
		BusyTimeout: cfg.Ledger.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("deletion ledger: %w", err)
	}

	registry := rules.NewRegistry()
	if err := conditions.Register(registry, conditions.Deps{
		ObjectStore: store,
		WFCatalog:   wfc,
		DublinCore:  dcs,
		PSD:         psds,
		PID:         pids,
		Replicator:  replicas,
		Ledger:      book,
		Logger:      logger,
	}); err != nil {
		return nil, err
	}
	if err := actions.Register(registry, actions.Deps{
		ObjectStore:    store,
		WFCatalog:      wfc,
		DublinCore:     dcs,
		PSD:            psds,
		PID:            pids,
		Replicator:     replicas,
		Ledger:         book,
		Repack:         repack.New(cfg.Repack.Binary, logger),
		RecordSize:     cfg.Repack.RecordSize,
		QuarantinePath: cfg.Quarantine.Path,
		DryRun:         cfg.Engine.DryRun,
		Logger:         logger,
	}); err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		registry:  registry,
		book:      book,
	}
	if err := a.reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// reload loads the rule maps and sequence and swaps in a fresh engine.
// A load failure keeps the previous engine running.
func (a *app) reload() error {
	ruleset, err := rules.Load(a.registry, a.cfg.Engine.RuleMaps, a.cfg.Engine.Sequence)
	if err != nil {
		return err
	}

	engineCfg := rules.EngineConfig{
		Workers:        a.cfg.Engine.Workers,
		DefaultTimeout: a.cfg.Engine.DefaultTimeout,
		Logger:         a.logger,
	}
	if a.collector != nil {
		engineCfg.Observer = a.collector
	}

	a.mu.Lock()
	a.engine = rules.NewEngine(ruleset, engineCfg)
	a.mu.Unlock()

	a.logger.Info("rule maps loaded",
		"rules", len(ruleset.Rules()), "maps", a.cfg.Engine.RuleMaps)
	return nil
}

// runOnce walks the archive and evaluates the sequence over the
// selection.
func (a *app) runOnce(ctx context.Context) error {
	logger := logging.ForRun(a.logger)

	collector, err := sds.NewCollector(a.cfg.Archive.RootPath, logger)
	if err != nil {
		return err
	}
	files, err := collector.FromWildcards(a.cfg.Archive.Pattern)
	if err != nil {
		return err
	}

	logger.Info("run starting",
		"archive", a.cfg.Archive.RootPath,
		"pattern", a.cfg.Archive.Pattern,
		"files", len(files),
		"dry_run", a.cfg.Engine.DryRun)

	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()

	report, err := engine.Run(ctx, files)
	if err != nil {
		return err
	}

	if a.collector != nil {
		a.collector.RunCompleted()
	}
	logger.Info("run complete",
		"items", report.Items,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"timed_out", report.TimedOut)
	return nil
}
