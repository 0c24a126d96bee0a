// Package cli implements the safesphere command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"safesphere/internal/config"
	"safesphere/pkg/logger"
)

// Exit codes
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2 // empty or missing content
	ExitRiskHigh = 3 // --fail-on threshold reached
)

// ExitCodeError carries a process exit code. A nil Err exits silently.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error { return e.Err }

type options struct {
	configPath  string
	libraryPath string
	logLevel    string
	noColor     bool
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "safesphere",
		Short: "SafeSphere - scam and phishing risk scoring",
		Long: `SafeSphere scores messages for scam and phishing indicators: urgency,
financial bait, impersonation, suspicious links, requests for personal
information and formatting tricks. It runs fully offline unless the ai
command is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: ./config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.libraryPath, "library", "", "Path to a YAML or TOML pattern library (overrides analyzer.library_path)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newBatchCommand(opts),
		newPatternsCommand(opts),
		newAICommand(opts),
		newEventsCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}

// load reads the configuration and applies command line overrides
func (o *options) load(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.libraryPath != "" {
		cfg.Analyzer.LibraryPath = o.libraryPath
	}

	log := logger.New(logger.Config{
		Level:  o.logLevel,
		Format: "console",
		Output: cmd.ErrOrStderr(),
	})
	return cfg, log, nil
}
