package main

import (
	"fmt"
	"strings"

	"filenest/internal/config"
	"filenest/internal/log"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show or change the category rules",
		Long: `Show or change which extensions go to which category folder, the catch-all
folder, the duplicate strategy, the size limit and the default target directory.
'rules profile' swaps in a preset rule set. Changes are saved to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRules(a, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRules(a, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "add CATEGORY EXT...",
		Short:   "Add extensions to a category, creating it if needed",
		Example: "  filenest rules add ebooks .epub mobi",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRules(a, cmd, func(cfg *config.Config) (string, error) {
				name := categoryName(cfg, args[0])
				if err := cfg.AddExtensions(name, args[1:]...); err != nil {
					return "", err
				}
				return fmt.Sprintf("Added %s to %s", strings.Join(args[1:], ", "), name), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove CATEGORY [EXT...]",
		Short: "Remove extensions, or the whole category when none are given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRules(a, cmd, func(cfg *config.Config) (string, error) {
				name := categoryName(cfg, args[0])
				if err := cfg.RemoveExtensions(name, args[1:]...); err != nil {
					return "", err
				}
				if len(args) == 1 {
					return "Removed category " + name, nil
				}
				return fmt.Sprintf("Removed %s from %s", strings.Join(args[1:], ", "), name), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "catch-all NAME",
		Short: "Set the folder for files no category claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRules(a, cmd, func(cfg *config.Config) (string, error) {
				if err := cfg.SetCatchAll(args[0]); err != nil {
					return "", err
				}
				return "Catch-all folder is now " + cfg.OthersFolder, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "strategy rename|skip|overwrite",
		Short:     "Set what happens when the destination name is taken",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"rename", "skip", "overwrite"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRules(a, cmd, func(cfg *config.Config) (string, error) {
				if err := cfg.SetStrategy(args[0]); err != nil {
					return "", err
				}
				return "Duplicate strategy is now " + string(cfg.DuplicateStrategy), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "max-size SIZE",
		Short: "Skip files larger than SIZE, e.g. 500MB; 0 removes the limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRules(a, cmd, func(cfg *config.Config) (string, error) {
				if err := cfg.SetMaxFileSize(args[0]); err != nil {
					return "", err
				}
				if cfg.MaxFileSize == "" {
					return "Files of any size are organized", nil
				}
				return "Files larger than " + cfg.MaxFileSize + " are skipped", nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "profile [NAME]",
		Short: "List the preset rule sets, or replace the categories with one",
		Long: `Without NAME, list the preset rule sets. With NAME, replace the categories
with the preset's and add its exclude patterns. The target directory and the
other settings are kept.`,
		Example:   "  filenest rules profile developer",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: config.ProfileNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listProfiles(a, cmd)
			}
			return editRules(a, cmd, func(cfg *config.Config) (string, error) {
				if err := cfg.ApplyProfile(args[0]); err != nil {
					return "", err
				}
				return fmt.Sprintf("Applied the %s profile: %s", cfg.Profile, strings.Join(cfg.Categories.Names(), ", ")), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "target PATH",
		Short: "Set the directory organized by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRules(a, cmd, func(cfg *config.Config) (string, error) {
				if err := cfg.SetTarget(args[0]); err != nil {
					return "", err
				}
				return "Target directory is now " + displayPath(cfg.TargetPath), nil
			})
		},
	})

	return cmd
}

func listRules(a *app, cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(cfg.Categories)+1)
	for _, cat := range cfg.Categories {
		exts := make([]string, len(cat.Extensions))
		for i, ext := range cat.Extensions {
			if ext == "" {
				ext = "(no extension)"
			}
			exts[i] = ext
		}
		rows = append(rows, []string{cat.Name, strings.Join(exts, " ")})
	}
	rows = append(rows, []string{a.theme.paint(a.theme.Dim, cfg.OthersFolder), a.theme.paint(a.theme.Dim, "everything else")})
	fmt.Fprintln(out, a.theme.renderTable([]string{"Category", "Extensions"}, rows, nil))

	fmt.Fprintf(out, "Duplicate strategy: %s\n", cfg.DuplicateStrategy)
	fmt.Fprintf(out, "Target directory:   %s\n", displayPath(cfg.TargetPath))
	if cfg.MaxFileSize != "" {
		fmt.Fprintf(out, "Size limit:         %s\n", cfg.MaxFileSize)
	}
	if cfg.Profile != "" {
		fmt.Fprintf(out, "Profile:            %s\n", cfg.Profile)
	}
	if cfg.Path() != "" {
		fmt.Fprintf(out, "Config file:        %s\n", displayPath(cfg.Path()))
	}
	return nil
}

func listProfiles(a *app, cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(config.Profiles()))
	for _, p := range config.Profiles() {
		name := p.Name
		if strings.EqualFold(name, cfg.Profile) {
			name += " (current)"
		}
		rows = append(rows, []string{name, p.Description, strings.Join(p.Categories.Names(), ", ")})
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.theme.renderTable([]string{"Profile", "Description", "Categories"}, rows, nil))
	return nil
}

// editRules applies one change to the config and saves it.
func editRules(a *app, cmd *cobra.Command, edit func(*config.Config) (string, error)) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	msg, err := edit(cfg)
	if err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	log.LogWithFields(log.F("config", cfg.Path())).Debug("Configuration saved")
	a.theme.success(cmd.OutOrStdout(), "%s", msg)
	return nil
}

// categoryName resolves a user-typed category against the configured ones
// case-insensitively, so "images" edits "Images". Unknown names are title
// cased to match the stock folders.
func categoryName(cfg *config.Config, name string) string {
	for _, existing := range cfg.Categories.Names() {
		if strings.EqualFold(existing, name) {
			return existing
		}
	}
	return cases.Title(language.Und, cases.NoLower).String(name)
}
