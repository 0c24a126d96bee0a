package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"safesphere/internal/app"
	"safesphere/internal/domain/services"
)

// maxLineBytes bounds one input line
const maxLineBytes = 1 << 20

func newBatchCommand(opts *options) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Score many messages, one per line",
		Long: `Score every non-blank line of a file ("-" for stdin). A line may be plain
text, a JSON string, or a JSON object with a "content" field. Messages are
processed in chunks of analyzer.max_batch_size.

  safesphere batch inbox.jsonl > results.json
  cat messages.txt | safesphere batch - --summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			messages, err := readMessages(bufio.NewScanner(in))
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				return &ExitCodeError{Code: ExitUsage, Err: services.ErrEmptyBatch}
			}

			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			svc, err := app.NewScanService(cfg, nil, nil, log)
			if err != nil {
				return err
			}

			result := &services.BatchResult{Results: make([]services.BatchItem, 0, len(messages))}
			chunk := max(cfg.Analyzer.MaxBatchSize, 1)
			for start := 0; start < len(messages); start += chunk {
				end := min(start+chunk, len(messages))
				part, err := svc.ScanBatch(cmd.Context(), messages[start:end], services.SourceCLI)
				if err != nil {
					return err
				}
				for _, item := range part.Results {
					item.Index += start
					result.Results = append(result.Results, item)
				}
				result.SuspiciousCount += part.SuspiciousCount
				result.FailedCount += part.FailedCount
			}
			result.TotalCount = len(result.Results)
			result.AnalyzedAt = time.Now().UTC()

			out := cmd.OutOrStdout()
			if !summary {
				return writeJSON(out, result)
			}

			fmt.Fprintf(out, "%-6s %-7s %5s  %s\n", "LINE", "LEVEL", "SCORE", "FLAGS")
			for _, item := range result.Results {
				if item.Result == nil {
					fmt.Fprintf(out, "%-6d %-7s %5s  %s\n", item.Index+1, "error", "-", item.Error)
					continue
				}
				flags := make([]string, len(item.Result.Flags))
				for i, f := range item.Result.Flags {
					flags[i] = string(f)
				}
				fmt.Fprintf(out, "%-6d %-7s %5d  %s\n", item.Index+1, item.Result.RiskLevel, item.Result.RiskScore, strings.Join(flags, ","))
			}
			fmt.Fprintf(out, "\n%d scanned, %d suspicious, %d failed\n", result.TotalCount, result.SuspiciousCount, result.FailedCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Print a table instead of JSON")
	return cmd
}

// readMessages decodes one message per non-blank line
func readMessages(sc *bufio.Scanner) ([]string, error) {
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var messages []string
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch line[0] {
		case '{':
			var obj struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				return nil, fmt.Errorf("line %d: invalid JSON object: %w", lineNo, err)
			}
			messages = append(messages, obj.Content)
		case '"':
			var s string
			if err := json.Unmarshal([]byte(line), &s); err != nil {
				return nil, fmt.Errorf("line %d: invalid JSON string: %w", lineNo, err)
			}
			messages = append(messages, s)
		default:
			messages = append(messages, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return messages, nil
}
