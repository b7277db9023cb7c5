package cmd

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gorendir/gorendir/internal/config"
	"github.com/gorendir/gorendir/internal/logging"
	"github.com/gorendir/gorendir/internal/repository"
	"github.com/gorendir/gorendir/internal/service/batch"
	"github.com/gorendir/gorendir/internal/service/extractor"
	"github.com/gorendir/gorendir/internal/service/subtitle"
	"github.com/gorendir/gorendir/internal/service/transcript"
	"github.com/gorendir/gorendir/internal/storage"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [URL[=N]...]",
	Short: "Download videos and reconcile their subtitles",
	Long: `Download one or more videos or playlists into numbered folders and
save a subtitle file for every configured target language.

A reference may carry a starting sequence number: URL=5 numbers its
files from 05 upward. Already-processed URLs are skipped unless --force
is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringSlice("langs", nil, "target subtitle languages (defaults to the configured list)")
	downloadCmd.Flags().Int("max-resolution", 0, "cap video height in pixels (defaults to the configured value)")
	downloadCmd.Flags().Int("playlist-start", 0, "starting sequence number for references without their own =N")
	downloadCmd.Flags().Bool("skip-download", false, "reconcile subtitles without downloading media")
	downloadCmd.Flags().Bool("force", false, "reprocess URLs already in the dedup log")
	downloadCmd.Flags().Bool("reverse", false, "number playlist entries from last to first")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, _ := cmd.Flags().GetString("log-level")
	quiet, _ := cmd.Flags().GetBool("quiet")
	logger, err := logging.New(logging.Options{
		Level: level,
		Dir:   filepath.Join(cfg.SaveDirectory, "logs"),
		Quiet: quiet,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	langs, _ := cmd.Flags().GetStringSlice("langs")
	if len(langs) == 0 {
		langs = cfg.SubtitleLanguages
	}
	maxRes, _ := cmd.Flags().GetInt("max-resolution")
	if maxRes <= 0 {
		maxRes = cfg.MaxResolution
	}
	playlistStart, _ := cmd.Flags().GetInt("playlist-start")
	skipDownload, _ := cmd.Flags().GetBool("skip-download")
	force, _ := cmd.Flags().GetBool("force")
	reverse, _ := cmd.Flags().GetBool("reverse")

	requests, err := batch.ParseRequests(args)
	if err != nil {
		return err
	}
	if playlistStart > 0 {
		for i := range requests {
			if requests[i].StartIndex == 0 {
				requests[i].StartIndex = playlistStart
			}
		}
	}

	ex := extractor.NewService()
	tasks, err := batch.ResolveTasks(ctx, ex, requests, reverse)
	if err != nil {
		return fmt.Errorf("failed to resolve video references: %w", err)
	}

	urlLog, err := storage.NewURLLog(cfg.SaveDirectory)
	if err != nil {
		return err
	}

	delayMin, delayMax := cfg.TranslationDelayBounds()
	reconciler := subtitle.NewReconciler(
		transcript.NewClient(),
		storage.NewSubtitleStore(),
		logger,
		subtitle.Pacing{DelayMin: delayMin, DelayMax: delayMax, Cooldown: cfg.Cooldown()},
	)

	var archive repository.RunRepository
	if cfg.DatabaseURL != "" {
		pool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			logger.WithError(err).Warn("archive database unreachable, continuing without archive")
		} else {
			defer pool.Close()
			archive = repository.NewRunRepository(pool)
		}
	}

	driver := batch.NewDriver(
		ex,
		reconciler,
		storage.NewWorkspace(cfg.SaveDirectory),
		urlLog,
		archive,
		logger,
		cfg.RetryPolicy(),
	)

	result, err := driver.Run(ctx, tasks, batch.Options{
		Languages:     langs,
		MaxResolution: maxRes,
		SkipDownload:  skipDownload,
		Force:         force,
	})
	if err != nil {
		return err
	}

	if len(result.Success) == 0 && len(result.Failed) > 0 {
		return fmt.Errorf("all %d video(s) failed", len(result.Failed))
	}
	return nil
}
