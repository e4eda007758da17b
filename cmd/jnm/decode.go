/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * "decode" subcommand: parses a .class file (or every .class member of
 * a .jar) and prints a human-readable summary.
 */

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/daviddrysdale/jnm/archive"
	"github.com/daviddrysdale/jnm/classfile"
	"github.com/daviddrysdale/jnm/config"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <path>",
		Short: "Decode a .class file or every .class entry in a .jar and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachClassFile(args[0], func(name string, data []byte) error {
				cf, err := classfile.Parse(data, config.Default())
				if err != nil {
					return errors.Wrapf(err, "decode %s", name)
				}
				return printSummary(cmd, name, cf)
			})
		},
	}
}

func printSummary(cmd *cobra.Command, name string, cf *classfile.ClassFile) error {
	className, err := cf.Name()
	if err != nil {
		return err
	}
	superName, err := cf.SuperName()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", name)
	fmt.Fprintf(out, "  class:      %s\n", className)
	if superName != "" {
		fmt.Fprintf(out, "  super:      %s\n", superName)
	}
	fmt.Fprintf(out, "  version:    %d.%d\n", cf.Major, cf.Minor)
	fmt.Fprintf(out, "  interfaces: %d\n", len(cf.Interfaces))
	fmt.Fprintf(out, "  fields:     %d\n", len(cf.Fields))
	fmt.Fprintf(out, "  methods:\n")
	for _, m := range cf.Methods {
		mname, err := cf.MethodName(m)
		if err != nil {
			return err
		}
		desc, err := cf.MethodDescriptor(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "    %s%s\n", mname, desc.String())
	}
	return nil
}

// forEachClassFile dispatches to fn once per .class file named by path: a
// single read for a bare .class file, or once per archive member for a
// .jar.
func forEachClassFile(path string, fn func(name string, data []byte) error) error {
	if strings.HasSuffix(path, ".jar") {
		j, err := archive.Open(path)
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.Classes()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := fn(e.Name, e.Data); err != nil {
				return err
			}
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return fn(path, data)
}
