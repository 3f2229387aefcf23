package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/factorytown/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or edit the config file",
	}

	// target is the file config commands write.
	target := func() string {
		if root.cfgFile != "" {
			return root.cfgFile
		}
		return config.DefaultConfigPath
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented default config",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := target()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	setCmd := &cobra.Command{
		Use:         "set <key> <value>",
		Short:       "Set a dotted key, e.g. cache.backend sqlite",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := target()
			if err := config.SetValue(path, args[0], args[1]); err != nil {
				return err
			}
			// The file is written either way; report values that leave it invalid.
			cfg, _, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s now holds an invalid configuration: %w", path, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "set %s = %s in %s\n", args[0], args[1], path)
			return nil
		},
	}

	cmd.AddCommand(initCmd, setCmd)
	return cmd
}
