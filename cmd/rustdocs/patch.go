package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"rustdocs/internal/extractor"
	"rustdocs/internal/model"
	"rustdocs/internal/patch"
	"rustdocs/internal/sanitize"
	"rustdocs/internal/storage"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	skipColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

func patchResults(ctx context.Context, results []model.DocResult, overwrite, dryRun bool, jobs int, guard bool) error {
	opts := patch.Options{
		Overwrite: overwrite,
		DryRun:    dryRun,
		Jobs:      jobs,
		Logger:    slog.Default(),
	}
	if guard {
		opts.Guard = extractor.SyntaxGuard{}
	}

	reports, err := patch.New(opts).PatchFiles(ctx, results)
	edits := 0
	for _, r := range reports {
		switch {
		case r.Err != nil:
			errColor.Printf("✗ %s: %v\n", r.Path, r.Err)
		case r.Changed():
			edits += r.Edits
			okColor.Println("✔ " + r.Summary())
		default:
			skipColor.Println("· " + r.Summary())
		}
		if dryRun && r.Diff != "" {
			fmt.Print(r.Diff)
		}
	}
	if dryRun {
		fmt.Printf("🔍 Dry run: %d edits across %d files, nothing written.\n", edits, len(reports))
	} else {
		fmt.Printf("🎉 Applied %d edits across %d files.\n", edits, len(reports))
	}
	return err
}

var patchCmd = &cobra.Command{
	Use:   "patch [docs.json]",
	Short: "Apply a previously generated docs.json",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		overwrite, _ := cmd.Flags().GetBool("overwrite")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		jobs, _ := cmd.Flags().GetInt("jobs")

		path := ""
		guard := true
		if len(args) > 0 {
			path = args[0]
		}
		if cfg, _, err := loadConfig(); err == nil {
			if path == "" {
				path = filepath.Join(cfg.Output.Dir, storage.DocsFileName)
			}
			if jobs == 0 {
				jobs = cfg.Patch.Jobs
			}
			guard = cfg.Patch.Guard
		} else if path == "" {
			return err
		}

		results, err := storage.ReadResults(path)
		if err != nil {
			return err
		}
		fmt.Printf("📂 Loaded %d doc results from %s\n", len(results), path)
		return patchResults(ctx, results, overwrite, dryRun, jobs, guard)
	},
}

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [file|-]",
	Short: "Clean a raw model answer into a rustdoc block",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if len(args) == 0 || args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		if doc := sanitize.Sanitize(string(raw)); doc != "" {
			fmt.Fprintln(cmd.OutOrStdout(), doc)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded generation runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Output.CacheDB == "" {
			return fmt.Errorf("no cache_db configured")
		}
		store, err := storage.NewSQLiteStore(cfg.Output.CacheDB)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTARTED\tANSWERS\tTARGETS")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Answers, r.Targets)
		}
		return w.Flush()
	},
}

func init() {
	patchCmd.Flags().Bool("overwrite", false, "Replace existing rustdoc blocks")
	patchCmd.Flags().Bool("dry-run", false, "Show the patch as a diff without writing")
	patchCmd.Flags().Int("jobs", 0, "Files patched concurrently (0 = from config)")
}
