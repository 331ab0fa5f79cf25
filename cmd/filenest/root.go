package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filenest",
		Short: "Sort the files of a directory into category folders",
		Long: `filenest moves each file of a directory into a subfolder named after its
category, chosen by file extension. Every action is appended to a move log
and the last run can be undone.

Running filenest without a command organizes the configured target directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/filenest/config.yaml, or $FILENEST_CONFIG)")
	flags.BoolVar(&a.debug, "debug", false, "print debug diagnostics")
	flags.BoolVar(&a.logJSON, "log-json", false, "print diagnostics as JSON")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&a.diagFile, "diagnostics-file", "", "also append diagnostics to this file")

	rootCmd.AddCommand(newOrganizeCmd(a))
	rootCmd.AddCommand(newUndoCmd(a))
	rootCmd.AddCommand(newLogCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newRulesCmd(a))
	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// withDefaultCommand routes invocations without a subcommand to organize,
// so "filenest", "filenest -n" and "filenest ~/Downloads" all organize.
func withDefaultCommand(root *cobra.Command, args []string) []string {
	for _, arg := range args {
		switch arg {
		case "-h", "--help", "-v", "--version":
			return args
		}
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			i++ // Skip the flag value
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if arg == "help" || arg == "completion" {
			return args
		}
		for _, c := range root.Commands() {
			if c.Name() == arg || c.HasAlias(arg) {
				return args
			}
		}
		break
	}
	return append([]string{"organize"}, args...)
}
