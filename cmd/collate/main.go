package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/meigma/collate/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	tocPath    string
	basePath   string
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "collate",
	Short: "Pack resource files into collated pages and read them back",
	Long: `collate packs many small resource files into a few large page files plus a
plain-text table of contents, and reads resources back out of the pages by
their original path.

Pages are named <base>.0, <base>.1, ... and the table of contents holds one
line per resource: path, base, page index, offset and size.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("toc") {
			cfg.TableOfContents = tocPath
		}
		if cmd.Flags().Changed("base") {
			cfg.BasePath = basePath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level, _ := cfg.Level()
		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}
		slog.SetDefault(slog.New(handler))

		slog.Debug("configuration",
			"toc", cfg.TableOfContents,
			"base", cfg.BasePath,
			"page_size", cfg.PageSize,
			"read_size", cfg.ReadSize,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is collate.yaml in pwd or home)")
	rootCmd.PersistentFlags().StringVarP(&tocPath, "toc", "t", "", "table of contents path")
	rootCmd.PersistentFlags().StringVarP(&basePath, "base", "b", "", "collated page base path (pages are <base>.N)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")

	rootCmd.AddCommand(packCmd, listCmd, catCmd, verifyCmd)
}
