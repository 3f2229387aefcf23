package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/factorytown/internal/presentation"
)

func newUnresolvedCmd(root *rootOptions) *cobra.Command {
	var (
		strict bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "unresolved",
		Short: "List names referenced but never defined",
		Long: `List every name the model references without defining it, with the
closest defined names as suggestions.

With --strict (or model.strict_references) the command fails when the
list is not empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.validated()
			if err != nil {
				return err
			}
			strict = strict || cfg.Model.StrictReferences
			cfg.Model.StrictReferences = false

			_, result, err := buildFromCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			f := root.formatter(cmd.OutOrStdout(), asJSON)
			if err := f.FormatUnresolved(presentation.FromUnresolved(result.Unresolved)); err != nil {
				return err
			}
			if strict && len(result.Unresolved) > 0 {
				return fmt.Errorf("%d unresolved references", len(result.Unresolved))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the list is not empty")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
