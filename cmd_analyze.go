package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"rigcheck/internal/bottleneck"
	"rigcheck/internal/config"
	"rigcheck/internal/middleware"
	"rigcheck/internal/models"

	"github.com/spf13/cobra"
)

var (
	analyzeCPU  string // CPU name as the user would type it
	analyzeGPU  string // GPU name
	analyzeRAM  string // RAM kit, e.g. "16GB DDR4-3200"
	analyzeJSON bool   // Print the API response shape instead of a report
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one build from the command line",
	Long: `Resolves the three components against the benchmark table and reports
the bottleneck, per-component impact and upgrade advice.

Examples:
  bottleneck analyze --cpu "Ryzen 5 3600" --gpu "RX 7900 XTX" --ram "16GB DDR4-3200"
  bottleneck analyze --cpu i9-14900k --gpu "rtx 4090" --ram "32gb ddr5 6000" --json`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCPU, "cpu", "", "CPU model")
	analyzeCmd.Flags().StringVar(&analyzeGPU, "gpu", "", "GPU model")
	analyzeCmd.Flags().StringVar(&analyzeRAM, "ram", "", "RAM kit")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output as JSON")
	_ = analyzeCmd.MarkFlagRequired("cpu")
	_ = analyzeCmd.MarkFlagRequired("gpu")
	_ = analyzeCmd.MarkFlagRequired("ram")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, "text")
	analysis, err := newAnalysisService(cfg, nil, logger)
	if err != nil {
		return err
	}

	req := models.AnalysisRequest{CPU: analyzeCPU, GPU: analyzeGPU, RAM: analyzeRAM}
	if err := middleware.NewInputValidator().ValidateRequest(req); err != nil {
		return err
	}
	result, err := analysis.Analyze(cmd.Context(), req)
	var unknown *bottleneck.UnknownComponentsError
	if errors.As(err, &unknown) {
		for _, c := range unknown.Components {
			fmt.Fprintf(cmd.ErrOrStderr(), "unknown %s %q\n", c.Kind, c.Input)
			if len(c.Suggestions) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "  did you mean: %s\n", strings.Join(c.Suggestions, ", "))
			}
		}
		return errors.New("unknown component")
	}
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printReport(cmd.OutOrStdout(), result)
	return nil
}

func printReport(w io.Writer, result models.AnalysisResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCOMPONENT\tSCORE\tIMPACT")
	for _, kind := range models.Kinds {
		c := result.Components[kind]
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.2f%%\n", kind, c.Name, c.BenchmarkScore, result.Impact.Get(kind))
	}
	tw.Flush()

	fmt.Fprintln(w)
	if result.Verdict.Balanced() {
		fmt.Fprintln(w, "Bottleneck: none (balanced build)")
	} else {
		fmt.Fprintf(w, "Bottleneck: %s\n", result.Verdict.Bottleneck)
	}
	agreement := "no"
	if result.Verdict.Agreement {
		agreement = "yes"
	}
	fmt.Fprintf(w, "Signals agree: %s\n", agreement)

	if len(result.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range result.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}
