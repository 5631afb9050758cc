package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"rustdocs/internal/crawler"
	"rustdocs/internal/extractor"
	"rustdocs/internal/git"
	"rustdocs/internal/pipeline"
	"rustdocs/internal/sanitize"
	"rustdocs/internal/storage"

	"github.com/spf13/cobra"
)

var runFlags struct {
	write          bool
	overwrite      bool
	dryRun         bool
	limit          int
	only           []string
	noCalls        bool
	noPaths        bool
	fnTemplate     string
	structTemplate string
	changed        string
	jobs           int
}

var runCmd = &cobra.Command{
	Use:   "run [targets...]",
	Short: "Harvest items, generate docs with the LLM and optionally patch them in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, root, err := loadConfig()
		if err != nil {
			return err
		}
		asker, fnTpl, structTpl, err := initAsker(ctx, cfg, root, runFlags.fnTemplate, runFlags.structTemplate)
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			Overwrite: runFlags.overwrite,
			Limit:     runFlags.limit,
			Only:      runFlags.only,
			NoCalls:   runFlags.noCalls,
			NoPaths:   runFlags.noPaths,
		}
		if runFlags.changed != "" {
			changes, err := git.GetChangedFiles(ctx, ".", runFlags.changed)
			if err != nil {
				return err
			}
			opts.Changed = git.ChangedSet(changes)
			lines := 0
			for _, c := range changes {
				lines += len(c.ChangedLines)
			}
			fmt.Printf("📝 %d changed Rust files (%d lines) since %s.\n", len(opts.Changed), lines, runFlags.changed)
			if len(opts.Changed) == 0 {
				return nil
			}
		}

		// 1. Harvest
		ext, err := extractor.NewExtractor("rust")
		if err != nil {
			return err
		}
		fmt.Println("🚀 Harvesting items...")
		start := time.Now()
		items, err := pipeline.Harvest(ctx, crawler.NewCrawler(ext, slog.Default()), args)
		if err != nil {
			return fmt.Errorf("harvest failed: %w", err)
		}
		fmt.Printf("✅ Found %d items in %v.\n", len(items), time.Since(start).Round(time.Millisecond))

		// 2. Generate
		gen := &pipeline.Generator{
			Asker:          asker,
			FnTemplate:     fnTpl,
			StructTemplate: structTpl,
			Sanitizer:      sanitize.New(),
			Options:        opts,
			Logger:         slog.Default(),
		}
		if cfg.Output.CacheDB != "" {
			store, err := storage.NewSQLiteStore(cfg.Output.CacheDB)
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			defer store.Close()
			if _, err := store.BeginRun(ctx, args); err != nil {
				return err
			}
			gen.Cache = store
		}

		fmt.Println("🧠 Generating docs...")
		results, genErr := gen.Run(ctx, items)

		// 3. Save whatever was produced, even on failure
		docsPath := filepath.Join(cfg.Output.Dir, storage.DocsFileName)
		if err := storage.WriteResults(docsPath, results); err != nil {
			return err
		}
		fmt.Printf("💾 Wrote %d doc results to %s\n", len(results), docsPath)
		if genErr != nil {
			return genErr
		}

		// 4. Patch
		if !runFlags.write && !runFlags.dryRun {
			return nil
		}
		jobs := runFlags.jobs
		if jobs == 0 {
			jobs = cfg.Patch.Jobs
		}
		return patchResults(ctx, results, runFlags.overwrite, runFlags.dryRun, jobs, cfg.Patch.Guard)
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runFlags.write, "write", false, "Patch the generated docs into the sources")
	f.BoolVar(&runFlags.overwrite, "overwrite", false, "Replace existing rustdoc blocks")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "Show the patch as a diff without writing")
	f.IntVar(&runFlags.limit, "limit", 0, "Stop after this many items (0 = no limit)")
	f.StringSliceVar(&runFlags.only, "only", nil, "Only these item names or fq paths")
	f.BoolVar(&runFlags.noCalls, "no-calls", false, "Leave call sites out of function prompts")
	f.BoolVar(&runFlags.noPaths, "no-paths", false, "Leave qualified paths out of function prompts")
	f.StringVar(&runFlags.fnTemplate, "fn-template", "", "Function template name or path")
	f.StringVar(&runFlags.structTemplate, "struct-template", "", "Struct template name or path")
	f.StringVar(&runFlags.changed, "changed", "", "Only files changed since this git ref")
	f.IntVar(&runFlags.jobs, "jobs", 0, "Files patched concurrently (0 = from config)")
}
