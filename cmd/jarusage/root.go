package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tkoenig/jarusage/internal/config"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "jarusage",
	Short: "Dependency usage analysis for JVM bytecode",
	Long: `Jarusage counts, for each resolved dependency of a JVM project, how many
bytecode references the project's own compiled classes make into it:
method invocations, field accesses, and type operations.

It answers "which of my declared dependencies are actually used, and how
heavily" without recompiling or running anything.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format: text, json, markdown")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Write output to file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// loadConfig resolves the effective configuration: an explicit --config file,
// otherwise the standard search locations, otherwise defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(), nil
}

// getFormat returns the effective output format (flag overrides config).
func getFormat(cmd *cobra.Command, cfg *config.Config) string {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return f
	}
	return cfg.Output.Format
}

// getOutputFile returns the output file path, empty for stdout.
func getOutputFile(cmd *cobra.Command) string {
	out, _ := cmd.Flags().GetString("output")
	return out
}
