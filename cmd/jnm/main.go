/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * jnm command-line entry point: a root command with persistent flags
 * for logging verbosity, and one subcommand per operation this module
 * exposes.
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daviddrysdale/jnm/trace"
)

var logLevel string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jnm",
		Short:         "jnm decodes JVM class files and translates their bytecode",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return trace.SetLevel(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warning",
		"logging verbosity: trace, debug, info, warning, error")

	root.AddCommand(newDecodeCmd())
	root.AddCommand(newTranslateCmd())
	root.AddCommand(newRoundtripCmd())

	return root
}
