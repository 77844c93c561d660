package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tkoenig/jarusage/internal/analyzer"
	"github.com/tkoenig/jarusage/internal/cache"
	"github.com/tkoenig/jarusage/internal/manifest"
	"github.com/tkoenig/jarusage/internal/models"
	"github.com/tkoenig/jarusage/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [classes-dir]",
	Short: "Count bytecode references into each resolved dependency",
	Long: `Analyze decodes every .class file under the compiled-output root and counts
the symbolic references (method calls, field accesses, type operations) into
each dependency listed in the manifest.

The manifest is a JSON or YAML file listing the resolved dependency set:

  {"dependencies": [
    {"group": "org.apache.commons", "name": "commons-lang3",
     "version": "3.12.0", "archive": "libs/commons-lang3-3.12.0.jar"}
  ]}`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("manifest", "m", "", "Path to the resolved dependency manifest (JSON or YAML)")
	analyzeCmd.Flags().Int("top", 0, "Show only the top N artifacts (0 = all)")
	analyzeCmd.Flags().Bool("all", false, "Include artifacts with zero references in text output")
	analyzeCmd.Flags().Int("workers", 0, "Scan worker count (0 = 2x CPU cores)")
	analyzeCmd.Flags().Bool("no-cache", false, "Disable the archive listing cache")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath == "" {
		manifestPath = cfg.Analysis.Manifest
	}
	classesDir := cfg.Analysis.ClassesDir
	if len(args) > 0 {
		classesDir = args[0]
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = cfg.Analysis.Workers
	}

	noCache, _ := cmd.Flags().GetBool("no-cache")
	store := cache.Disabled()
	if cfg.Cache.Enabled && !noCache {
		store, err = cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
		if err != nil {
			return fmt.Errorf("initializing cache: %w", err)
		}
	}

	// Ctrl-C stops scheduling new class files and returns the context error.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := analyzer.New(
		analyzer.WithWorkers(workers),
		analyzer.WithExcludePatterns(cfg.Exclude.Patterns),
		analyzer.WithCache(store),
		analyzer.WithProgress(!noColor),
		analyzer.WithWarnFunc(func(format string, args ...any) {
			color.Yellow("warning: "+format, args...)
		}),
	)

	result, err := a.Analyze(ctx, m.Dependencies, classesDir)
	if err != nil {
		return err
	}

	if verbose || cfg.Output.Verbose {
		color.Cyan("indexed %d classes from %d archives (%d skipped, %d collisions)",
			result.Summary.ClassesIndexed, result.Summary.Artifacts,
			result.Summary.ArchivesSkipped, result.Summary.IndexCollisions)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(getFormat(cmd, cfg)), getOutputFile(cmd), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	showAll, _ := cmd.Flags().GetBool("all")
	topN, _ := cmd.Flags().GetInt("top")
	if topN == 0 {
		topN = cfg.Output.Top
	}

	return formatter.Output(usageTable(result, showAll || cfg.Output.ShowZero, topN))
}

// usageTable shapes the analysis into the rendered report. JSON output always
// carries the complete analysis including zero-count artifacts; the text table
// filters and truncates for readability.
func usageTable(result *models.UsageAnalysis, showZero bool, topN int) *output.Table {
	rows := result.Artifacts
	if !showZero {
		rows = result.Used()
	}
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}

	tableRows := make([][]string, 0, len(rows))
	for _, u := range rows {
		tableRows = append(tableRows, []string{
			u.Coordinate,
			fmt.Sprintf("%d", u.References),
		})
	}

	return output.NewTable(
		"Dependency References",
		[]string{"Artifact", "References"},
		tableRows,
		[]string{
			fmt.Sprintf("Artifacts Used: %d/%d", result.Summary.ArtifactsUsed, result.Summary.Artifacts),
			fmt.Sprintf("Total References: %d", result.Summary.TotalReferences),
		},
		result,
	)
}
