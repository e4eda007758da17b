/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * "roundtrip" subcommand: parses a class file and re-serializes it,
 * checking the result is byte-identical to the input.
 */

package main

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/daviddrysdale/jnm/classfile"
	"github.com/daviddrysdale/jnm/config"
)

func newRoundtripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <path>",
		Short: "Parse and re-serialize a class file, verifying byte-for-byte fidelity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mismatches := 0
			err := forEachClassFile(args[0], func(name string, data []byte) error {
				ok, err := roundtrip(name, data)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if ok {
					fmt.Fprintf(out, "%s: ok\n", name)
				} else {
					mismatches++
					fmt.Fprintf(out, "%s: MISMATCH\n", name)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if mismatches > 0 {
				return errors.Errorf("%d file(s) failed to round-trip", mismatches)
			}
			return nil
		},
	}
}

func roundtrip(name string, data []byte) (bool, error) {
	cf, err := classfile.Parse(data, config.Default())
	if err != nil {
		return false, errors.Wrapf(err, "roundtrip %s: decode", name)
	}
	out := cf.Serialize()
	return bytes.Equal(data, out), nil
}
