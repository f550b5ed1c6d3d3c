package cli

import (
	"fmt"
	"time"

	"github.com/glorpus-work/sigsync/internal/logger"
	"github.com/glorpus-work/sigsync/pkg/config"
	"github.com/glorpus-work/sigsync/pkg/download"
	"github.com/glorpus-work/sigsync/pkg/manifest"
	"github.com/glorpus-work/sigsync/pkg/model"
	"github.com/glorpus-work/sigsync/pkg/orchestrator"
	"github.com/glorpus-work/sigsync/pkg/runinfo"
	"github.com/glorpus-work/sigsync/pkg/sigcache"
	"github.com/glorpus-work/sigsync/pkg/wort"
	"github.com/spf13/cobra"
)

const userAgent = "sigsync/" + Version

type fetchFlags struct {
	runinfoPath  string
	outputPath   string
	cacheDir     string
	endpoint     string
	maxDownloads int
	timeout      time.Duration
	skipDownload bool
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	flags := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Reconcile the signature cache and write a catalog",
		Long: `Reconcile the local signature cache against the runs listed in a
run-info table, download any missing signatures from the remote service,
and write a catalog with one local signature path per line.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.runinfoPath, "runinfo", "", "run-info CSV listing the desired runs")
	cmd.Flags().StringVar(&flags.outputPath, "output", "", "catalog file to write")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "signature cache directory (default from config)")
	cmd.Flags().StringVar(&flags.endpoint, "endpoint", "", "signature service base URL (default from config)")
	cmd.Flags().IntVar(&flags.maxDownloads, "max-downloads", 0, "maximum concurrent downloads (default from config)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-request timeout (default from config)")
	cmd.Flags().BoolVar(&flags.skipDownload, "skip-download", false, "index-only mode: never contact the remote service")
	_ = cmd.MarkFlagRequired("runinfo")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runFetch(cmd *cobra.Command, flags *fetchFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFetchFlags(cfg, flags)

	accessions, err := runinfo.AccessionsFromFile(flags.runinfoPath, cfg.Settings.RunColumn)
	if err != nil {
		return fmt.Errorf("failed to read run info: %w", err)
	}
	logger.Info("Run info loaded", logger.Fields{"runs": len(accessions)})

	cache := sigcache.New(cfg.Settings.CacheDir)
	if err := cache.EnsureDir(); err != nil {
		// Nothing downstream is meaningful without the cache directory.
		return fmt.Errorf("failed to prepare cache directory: %w", err)
	}

	present, missing := cache.Split(accessions)
	logger.Info("Cache reconciled", logger.Fields{
		"cached":  len(present),
		"missing": len(missing),
	})

	var outcomes map[string]model.Outcome
	if cfg.Settings.SkipDownload {
		logger.Info("Skipping download phase", logger.Fields{"missing": len(missing)})
	} else if len(missing) > 0 {
		orch := &orchestrator.Orchestrator{
			Resolver: wort.NewClient(cfg.Settings.Endpoint, cfg.Settings.HTTPTimeout, userAgent),
			Fetcher:  download.NewFetcher(cfg.Settings.HTTPTimeout, userAgent),
			Cache:    cache,
			Hooks: orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
				logger.Debug("Fetch progress", logger.Fields{
					"phase":     e.Phase,
					"accession": e.ID,
					"msg":       e.Msg,
				})
			}},
		}
		outcomes = orch.Run(cmd.Context(), missing, orchestrator.Options{
			Concurrency: cfg.Settings.MaxDownloads,
		})

		summary := model.Summarize(outcomes)
		logger.Info("Download phase finished", logger.Fields{
			"fetched":   summary.Fetched,
			"not_found": summary.NotFound,
			"failed":    summary.Failed,
		})
		if summary.Failed > 0 {
			logger.Warnf("%d signatures failed to download; the catalog is best-effort", summary.Failed)
		}
	}

	written, err := manifest.WriteFile(flags.outputPath, present, outcomes)
	if err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	logger.Success("Catalog written", logger.Fields{
		"path":       flags.outputPath,
		"signatures": written,
	})
	return nil
}

// applyFetchFlags overrides config values with explicitly set flags.
func applyFetchFlags(cfg *config.Config, flags *fetchFlags) {
	if flags.cacheDir != "" {
		cfg.Settings.CacheDir = flags.cacheDir
	}
	if flags.endpoint != "" {
		cfg.Settings.Endpoint = flags.endpoint
	}
	if flags.maxDownloads > 0 {
		cfg.Settings.MaxDownloads = flags.maxDownloads
	}
	if flags.timeout > 0 {
		cfg.Settings.HTTPTimeout = flags.timeout
	}
	if flags.skipDownload {
		cfg.Settings.SkipDownload = true
	}
}
