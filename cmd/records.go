package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/presentation"
)

func newRecordsCmd(root *rootOptions) *cobra.Command {
	var (
		tag    string
		kind   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List realized records",
		Long: `List every record the model defines, sorted by name.

Examples:
  # Everything
  factorytown records

  # Only buildings
  factorytown records --kind Building

  # Records carrying a tag, as JSON
  factorytown records --tag Coins --json | jq '.[].name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.validated()
			if err != nil {
				return err
			}
			cfg.Model.StrictReferences = false

			m, _, err := buildFromCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var records []model.Record
			if tag != "" {
				records = m.Records().RecordsWithTag(tag)
			} else {
				records = m.Records().Records()
			}
			if kind != "" {
				filtered := records[:0]
				for _, rec := range records {
					if rec.KindName() == kind {
						filtered = append(filtered, rec)
					}
				}
				records = filtered
			}

			return root.formatter(cmd.OutOrStdout(), asJSON).
				FormatRecords(presentation.FromRecords(records))
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only records carrying this tag")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only records of this kind (e.g. Building, Coins, Recipe)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
