package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"safesphere/internal/app"
	"safesphere/internal/domain/services/remote"
)

func newAICommand(opts *options) *cobra.Command {
	var (
		file     string
		provider string
		model    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "ai [text...]",
		Short: "Classify one message with a remote language model",
		Long: `Send a message to the configured language model provider and print its
assessment. Needs remote.api_key (or SAFESPHERE_REMOTE_API_KEY).

  SAFESPHERE_REMOTE_API_KEY=... safesphere ai --provider claude "Claim your prize"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, args, file)
			if err != nil {
				return err
			}

			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			cfg.Remote.Enabled = true
			if provider != "" {
				cfg.Remote.Provider = provider
			}
			if model != "" {
				cfg.Remote.Model = model
			}

			classifier, err := app.NewRemoteClassifier(cfg.Remote, log)
			if err != nil {
				return err
			}

			outcome, err := classifier.Classify(cmd.Context(), content)
			if errors.Is(err, remote.ErrEmptyContent) {
				return &ExitCodeError{Code: ExitUsage, Err: err}
			}
			if err != nil {
				return fmt.Errorf("failed to analyze content with AI: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, outcome)
			}
			fmt.Fprintf(out, "Provider: %s (%s)\n", outcome.Provider, outcome.Model)
			if outcome.IsFallback() {
				fmt.Fprintf(out, "Note:     the model reply was unusable (%s); showing a neutral result\n", outcome.Reason)
			}
			printReport(out, outcome.Result, useColor(out, opts.noColor))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `Read the message from a file ("-" for stdin)`)
	cmd.Flags().StringVar(&provider, "provider", "", "Provider: gemini, claude or openai (overrides remote.provider)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (overrides remote.model)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}
