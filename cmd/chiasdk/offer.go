// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava-labs/chiasdk/offer"
	"github.com/ava-labs/chiasdk/protocol"
)

func newEncodeOfferCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encode-offer <spend bundle hex>",
		Short: "Compresses a serialized spend bundle into offer text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := protocol.ProgramFromHex(args[0])
			if err != nil {
				return err
			}
			o, err := offer.FromBytes(b)
			if err != nil {
				return err
			}
			text, err := o.Encode()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newDecodeOfferCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-offer <offer text>",
		Short: "Prints the serialized spend bundle of an offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := offer.Decode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), protocol.Program(o.Bytes()))
			return nil
		},
	}
}

func newTreeHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree-hash <program hex>",
		Short: "Prints the tree hash of a serialized program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := protocol.ProgramFromHex(args[0])
			if err != nil {
				return err
			}
			hash, err := p.TreeHash()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), protocol.Bytes32(hash))
			return nil
		},
	}
}
