package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"safesphere/internal/domain/services/analyzer"
)

func newPatternsCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Print the active pattern library",
		Long: `Print the active pattern library (built-in, or the file given with --library)
in a form that can be edited and loaded back with --library.

  safesphere patterns --format toml > patterns.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			lib, err := analyzer.LoadLibrary(cfg.Analyzer.LibraryPath)
			if err != nil {
				return err
			}

			spec := lib.Spec()
			var data []byte
			switch format {
			case "yaml", "yml":
				data, err = spec.EncodeYAML()
			case "toml":
				data, err = spec.EncodeTOML()
			case "json":
				return writeJSON(cmd.OutOrStdout(), spec)
			default:
				return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("unsupported format %q (yaml, toml, json)", format)}
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml, toml or json")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a pattern library file and report shared keywords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := analyzer.LoadLibrary(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok (%d url rules, %d legitimate domains)\n",
				args[0], len(lib.URLRules), len(lib.LegitimateDomains))
			for _, o := range lib.Overlaps() {
				fmt.Fprintf(out, "  note: %q is listed under %v\n", o.Keyword, o.Flags)
			}
			return nil
		},
	})

	return cmd
}
