package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	a := &app{}
	rootCmd := newRootCmd(a)

	err := rootCmd.Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coupler",
		Short:         "Coupling metrics for infrastructure dependency graphs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "configs/coupler.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format override (text, json)")

	var (
		inputPath  string
		outputPath string
		variant    string
		simplified bool
		format     string
		quiet      bool
	)
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a DOT dependency graph and write the coupling report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, analyzeFlags{
				input:      inputPath,
				output:     outputPath,
				variant:    variant,
				simplified: simplified,
				format:     format,
				quiet:      quiet,
			})
		},
	}
	analyzeCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "DOT file to analyze (- for stdin)")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report path (default stdout)")
	analyzeCmd.Flags().StringVar(&variant, "variant", "", "Variant label for the report")
	analyzeCmd.Flags().BoolVar(&simplified, "simplified", true, "Include the type-grouped simplified graph")
	analyzeCmd.Flags().StringVar(&format, "format", "json", "Report format (json, yaml)")
	analyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the summary to stderr")

	var compareSimplified bool
	compareCmd := &cobra.Command{
		Use:   "compare [name=]FILE [name=]FILE...",
		Short: "Analyze several variants in parallel and diff them against the first",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd, args, compareSimplified)
		},
	}
	compareCmd.Flags().BoolVar(&compareSimplified, "simplified", true, "Compare category counts as well")

	var (
		exportInput  string
		exportOutput string
		exportFormat string
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Render a graph as DOT, Mermaid, JSON or plain statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, exportInput, exportOutput, exportFormat)
		},
	}
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "-", "DOT file to read (- for stdin)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (default stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "dot", "Export format (dot, mermaid, stats, graph-dot, json)")

	var (
		gateInput   string
		gateVariant string
		gateJSON    bool
	)
	gateCmd := &cobra.Command{
		Use:   "gate",
		Short: "Evaluate quality gates against a graph (exit 2 on failure)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGate(cmd, gateInput, gateVariant, gateJSON)
		},
	}
	gateCmd.Flags().StringVarP(&gateInput, "input", "i", "-", "DOT file to evaluate (- for stdin)")
	gateCmd.Flags().StringVar(&gateVariant, "variant", "", "Variant label")
	gateCmd.Flags().BoolVar(&gateJSON, "json", false, "Output gate results as JSON")

	rootCmd.AddCommand(analyzeCmd, compareCmd, exportCmd, gateCmd,
		newSnapshotCmd(a), newPublishCmd(a), newDependentsCmd(a),
		newIndexCmd(a), newSimilarCmd(a), newSubmitCmd(a), newServeCmd(a))
	return rootCmd
}

// exitError carries a specific process exit status.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
