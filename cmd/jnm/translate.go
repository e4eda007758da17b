/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * "translate" subcommand: runs the bytecode translator over a .class
 * file (or every member of a .jar) and prints each translated method's
 * mangled name, constant pool, and instruction length.
 */

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/daviddrysdale/jnm/classfile"
	"github.com/daviddrysdale/jnm/config"
	"github.com/daviddrysdale/jnm/translate"
)

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <path>",
		Short: "Translate a class file's bytecode into Target-VM instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachClassFile(args[0], func(name string, data []byte) error {
				cf, err := classfile.Parse(data, config.Default())
				if err != nil {
					return errors.Wrapf(err, "translate %s", name)
				}
				methods, err := translate.New(cf).TranslateClass()
				if err != nil {
					return errors.Wrapf(err, "translate %s", name)
				}
				return printTranslation(cmd, name, methods)
			})
		},
	}
}

func printTranslation(cmd *cobra.Command, name string, methods []*translate.Method) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", name)
	for _, m := range methods {
		kind := "instance"
		if m.IsStatic {
			kind = "static"
		}
		fmt.Fprintf(out, "  %s (%s)\n", m.Name, kind)
		fmt.Fprintf(out, "    instructions: %d bytes\n", len(m.Code))
		fmt.Fprintf(out, "    constants:    %d\n", len(m.Constants))
		fmt.Fprintf(out, "    names:        %d\n", len(m.Names))
		fmt.Fprintf(out, "    max stack:    %d\n", m.MaxStackDepth)
		fmt.Fprintf(out, "    max locals:   %d\n", m.MaxLocals)
		if len(m.ExternalNames) > 0 {
			fmt.Fprintf(out, "    imports:      %v\n", m.ExternalNames)
		}
	}
	return nil
}
