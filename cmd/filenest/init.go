package main

import (
	"os"
	"strings"

	"filenest/internal/config"
	"filenest/internal/errors"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		force   bool
		profile string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write the default configuration to the config file so it can be edited.
The file format follows its extension: .yaml, .toml or .json.

--profile starts from a preset rule set instead: ` + strings.Join(config.ProfileNames(), ", ") + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(a.cfgFile)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewFileError("config file already exists, use --force to replace it", path, errors.DestinationExists, nil)
			}

			cfg, err := config.ForProfile(profile)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}
			a.theme.success(cmd.OutOrStdout(), "Wrote %s with the %s profile", displayPath(path), cfg.Profile)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing config file")
	cmd.Flags().StringVarP(&profile, "profile", "p", config.DefaultProfile, "preset rule set: "+strings.Join(config.ProfileNames(), ", "))
	return cmd
}

// configPath resolves --config or the default location.
func configPath(flag string) (string, error) {
	if flag == "" {
		return config.DefaultConfigPath()
	}
	return config.ExpandPath(flag)
}
