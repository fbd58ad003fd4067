package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vango-dev/renderbridge/internal/config"
	"github.com/vango-dev/renderbridge/internal/errors"
)

func configCmd() *cobra.Command {
	var (
		configPath string
		writePath  string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Print the configuration serve would run with, defaults applied.

With --write, the configuration is saved to the given path instead,
which is a quick way to start a renderbridge.json.

Examples:
  renderbridge config
  renderbridge config --config=./deploy/renderbridge.json
  renderbridge config --write renderbridge.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if writePath != "" {
				if err := cfg.SaveTo(writePath); err != nil {
					return err
				}
				success(cmd, "Wrote %s", writePath)
				return nil
			}
			return printConfig(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to renderbridge.json")
	cmd.Flags().StringVarP(&writePath, "write", "w", "", "Save the configuration to this path")

	return cmd
}

func printConfig(cmd *cobra.Command, cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.New("R101").Wrap(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
