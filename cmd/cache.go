package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/presentation"
)

func newCacheCmd(root *rootOptions) *cobra.Command {
	var ns string
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the page cache",
	}
	cmd.PersistentFlags().StringVarP(&ns, "ns", "n", "", "namespace: http or md (default: both)")

	namespaces := func() ([]string, error) {
		if ns == "" {
			return pagecache.Namespaces, nil
		}
		if err := pagecache.CheckNamespace(ns); err != nil {
			return nil, err
		}
		return []string{ns}, nil
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached page keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nss, err := namespaces()
			if err != nil {
				return err
			}
			cfg, err := root.validated()
			if err != nil {
				return err
			}
			store, err := pagecache.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries := []presentation.CacheEntryDTO{}
			for _, n := range nss {
				keys, err := store.List(cmd.Context(), n)
				if err != nil {
					return err
				}
				for _, k := range keys {
					entries = append(entries, presentation.CacheEntryDTO{Namespace: n, Key: k})
				}
			}
			return root.formatter(cmd.OutOrStdout(), asJSON).FormatCacheEntries(entries)
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nss, err := namespaces()
			if err != nil {
				return err
			}
			cfg, err := root.validated()
			if err != nil {
				return err
			}
			store, err := pagecache.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for _, n := range nss {
				removed, err := store.Clear(cmd.Context(), n)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d pages from %s\n", removed, n)
			}
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}
