package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	chiTransport "github.com/kailas-cloud/hybridsync/internal/transport/chi"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/hybridsync/internal/usecase/search"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Drop and recreate the hybrid collection",
	Long: `Drop the target collection if it exists and recreate it empty, with the
dense dimension of the source collection and one sparse (BM25) field.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Reset(ctx, cfg.Collections.Target, cfg.Collections.Source); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		fmt.Println(chiTransport.MessageInitialized)
		return nil
	},
}

var (
	migrateFailFast bool
	migrateResume   bool
	migrateQuiet    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every source record into the hybrid collection",
	Long: `Export the source collection page by page, attach a sparse document built
from page_content to every record, and upsert it into the target collection.
The target is created first if it does not exist.

Examples:
  hybridsync migrate               # Full migration
  hybridsync migrate --resume      # Continue from the last checkpoint
  hybridsync migrate --fail-fast   # Stop at the first failed batch`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var (
	searchQuery  string
	searchFilter string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one hybrid query with the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateFailFast, "fail-fast", false, "abort on the first failed batch")
	migrateCmd.Flags().BoolVar(&migrateResume, "resume", false, "resume from the saved checkpoint")
	migrateCmd.Flags().BoolVar(&migrateQuiet, "quiet", false, "disable the progress bar")

	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "query text (required)")
	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "", "metadata filter as a JSON object")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(initCmd, migrateCmd, searchCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.lifecycle.EnsureExists(ctx, cfg.Collections.Target, cfg.Collections.Source); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	opts := migrationuc.Options{FailFast: migrateFailFast, Resume: migrateResume}

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	if !migrateQuiet {
		// The source size is unknown up front: spinner mode.
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("records"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription("[cyan]Migrating[reset]"),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
		opts.Progress = func(p migrationuc.Progress) {
			barMu.Lock()
			defer barMu.Unlock()
			bar.Describe(fmt.Sprintf("[cyan]Migrating[reset] page %d, %d failed", p.Pages, p.Failed))
			_ = bar.Set(p.Loaded)
		}
	}

	rep, err := a.migrator.MigrateAll(ctx, cfg.Collections.Source, cfg.Collections.Target, opts)
	if bar != nil {
		_ = bar.Finish()
	}

	var pe *domain.PartialBatchError
	if err != nil && !errors.As(err, &pe) {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Printf("Pages: %d  Exported: %d  Loaded: %d  Failed: %d  Duration: %s\n",
		rep.Pages, rep.Exported, rep.Loaded, len(rep.Failed), rep.Duration.Round(1e6))
	if rep.ResumedFrom != "" {
		fmt.Printf("Resumed from cursor %s\n", rep.ResumedFrom)
	}
	if pe != nil {
		logger.Warn("Migration finished with failures", zap.Int("failed", len(pe.Failed)))
		return fmt.Errorf("migrate: %d record(s) failed: %s", len(pe.Failed), strings.Join(pe.Failed, ", "))
	}

	fmt.Println(chiTransport.MessagePopulated)
	return nil
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var rawFilter any
	if searchFilter != "" {
		dec := json.NewDecoder(strings.NewReader(searchFilter))
		dec.UseNumber()
		if err := dec.Decode(&rawFilter); err != nil {
			return fmt.Errorf("parse --filter: %w", err)
		}
	}

	a, err := buildApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.settings.Refresh(ctx)
	if err != nil {
		logger.Warn("Settings refresh failed", zap.Error(err))
		snapshot = a.settings.Current()
	}

	results, err := a.search.Search(ctx, searchuc.NewQuery(searchQuery, rawFilter, snapshot))
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	fmt.Printf("%d result(s) (k=%d, threshold=%g)\n", len(results), snapshot.K(), snapshot.Threshold())
	for i, r := range results {
		content := r.Payload.PageContent()
		if len(content) > 120 {
			content = content[:117] + "..."
		}
		fmt.Printf("%2d. [%.4f] %s  %s\n", i+1, r.Score, r.ID, content)
	}
	return nil
}
