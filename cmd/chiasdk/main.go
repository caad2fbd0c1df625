// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"github.com/ava-labs/avalanchego/version"
)

const Name = "chiasdk"

var Version = version.NewDefaultVersion(0, 1, 0)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", Name, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           Name,
		Short:         "Chia puzzle, offer and coin tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := getViper(cmd.Flags())
			if err != nil {
				return err
			}
			return setupLogging(v.GetString(logLevelKey), v.GetString(logFormatKey))
		},
	}
	root.PersistentFlags().AddGoFlagSet(buildFlagSet())

	root.AddCommand(
		newServeCommand(),
		newVersionCommand(),
		newEncodeOfferCommand(),
		newDecodeOfferCommand(),
		newTreeHashCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version and quits",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s@%s\n", Name, Version)
		},
	}
}

func setupLogging(level, format string) error {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return err
	}
	var f log.Format
	switch format {
	case "terminal":
		f = log.TerminalFormat()
	case "logfmt":
		f = log.LogfmtFormat()
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, f)))
	return nil
}
