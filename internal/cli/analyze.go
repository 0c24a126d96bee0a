package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"safesphere/internal/app"
	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services"
	"safesphere/internal/domain/services/analyzer"
)

func newAnalyzeCommand(opts *options) *cobra.Command {
	var (
		file   string
		asJSON bool
		failOn string
	)

	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Score one message",
		Long: `Score a single message and print the risk report.

  safesphere analyze "Your account is suspended, verify now"
  safesphere analyze -f message.txt --json
  pbpaste | safesphere analyze --fail-on medium`,
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := parseFailOn(failOn)
			if err != nil {
				return err
			}

			content, err := readContent(cmd, args, file)
			if err != nil {
				return err
			}

			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			svc, err := app.NewScanService(cfg, nil, nil, log)
			if err != nil {
				return err
			}

			result, err := svc.Scan(cmd.Context(), content, services.SourceCLI)
			if errors.Is(err, analyzer.ErrEmptyContent) {
				return &ExitCodeError{Code: ExitUsage, Err: err}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, result.AnalysisResult); err != nil {
					return err
				}
			} else {
				printReport(out, result.AnalysisResult, useColor(out, opts.noColor))
			}

			if threshold != "" && result.RiskLevel.Rank() >= threshold.Rank() {
				return &ExitCodeError{Code: ExitRiskHigh}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `Read the message from a file ("-" for stdin)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Exit with status 3 when the level is at least this (low, medium, high)")
	return cmd
}

func parseFailOn(s string) (models.RiskLevel, error) {
	if s == "" {
		return "", nil
	}
	level := models.RiskLevel(strings.ToLower(s))
	if !level.IsValid() {
		return "", &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("invalid --fail-on level %q", s)}
	}
	return level, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r *models.AnalysisResult, color bool) {
	fmt.Fprintf(w, "Risk:  %s (%d/100)\n", levelLabel(r.RiskLevel, color), r.RiskScore)
	fmt.Fprintf(w, "       %s\n", r.RiskMessage)

	if len(r.Flags) > 0 {
		flags := make([]string, len(r.Flags))
		for i, f := range r.Flags {
			flags[i] = string(f)
		}
		fmt.Fprintf(w, "Flags: %s\n", strings.Join(flags, ", "))
	}

	if len(r.Details) > 0 {
		fmt.Fprintln(w, "\nFindings:")
		for _, d := range r.Details {
			fmt.Fprintf(w, "  [%s] %s: %s\n", d.Severity, d.Title, d.Message)
		}
	}

	fmt.Fprintln(w, "\nRecommendations:")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
}
