package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rustdocs/internal/config"
	"rustdocs/internal/knowledge"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "rustdocs",
		Short:         "Generate rustdoc comments with a local LLM and patch them into Rust sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}
	logLevel   string
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("RUSTDOCS_LOG"), "Log level: debug, info, warn or error (env RUSTDOCS_LOG)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (relative paths resolve against the config directory)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(sanitizeCmd)
	rootCmd.AddCommand(historyCmd)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// loadConfig reads the config file from the config root, or from --config.
func loadConfig() (*config.Config, string, error) {
	root, err := config.Root()
	if err != nil {
		return nil, "", err
	}
	path := config.ResolvePath(root, config.ConfigFileName)
	if configPath != "" {
		path = config.ResolvePath(root, configPath)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("config %s not found; run `rustdocs init` first", path)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// initAsker builds the model client and loads both chat templates.
func initAsker(ctx context.Context, cfg *config.Config, root, fnName, structName string) (knowledge.Asker, *knowledge.Template, *knowledge.Template, error) {
	if fnName == "" {
		fnName = cfg.Templates.Function
	}
	if structName == "" {
		structName = cfg.Templates.Struct
	}
	fnTpl, err := knowledge.LoadTemplate(config.TemplatePath(root, fnName))
	if err != nil {
		return nil, nil, nil, err
	}
	structTpl, err := knowledge.LoadTemplate(config.TemplatePath(root, structName))
	if err != nil {
		return nil, nil, nil, err
	}

	asker, err := knowledge.NewAsker(ctx, knowledge.AskerOptions{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		BaseURL:     cfg.AI.APIBase,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create asker: %w", err)
	}
	return asker, fnTpl, structTpl, nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and chat templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		root, err := config.Root()
		if err != nil {
			return err
		}
		files, err := config.Init(root, force, dryRun)
		for _, f := range files {
			switch {
			case dryRun:
				fmt.Printf("📝 would write %s\n", f.Path)
			case f.Written:
				fmt.Printf("✅ wrote %s\n", f.Path)
			default:
				fmt.Printf("⏭️  kept %s (use --force to replace)\n", f.Path)
			}
		}
		return err
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing files")
	initCmd.Flags().Bool("dry-run", false, "Only print the paths that would be written")
}
