// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/service"
	"github.com/ava-labs/chiasdk/store"
)

// Client defines chiasdk client operations.
type Client interface {
	// TreeHash hashes a serialized program
	TreeHash(ctx context.Context, program protocol.Program) (protocol.Bytes32, error)

	// Curry binds args to program and returns the result and its hash
	Curry(ctx context.Context, program protocol.Program, args ...protocol.Program) (protocol.Program, protocol.Bytes32, error)

	CoinID(ctx context.Context, coin protocol.Coin) (protocol.Bytes32, error)

	// EncodeOffer turns a spend bundle into offer text
	EncodeOffer(ctx context.Context, bundle protocol.SpendBundle) (string, error)

	// DecodeOffer parses offer text
	DecodeOffer(ctx context.Context, text string) (*protocol.SpendBundle, error)

	NftRoyalty(ctx context.Context, amount uint64, nftCount uint32, basisPoints uint16) (uint64, uint64, error)

	// AttachPuzzle supplies the reveal of a puzzle template
	AttachPuzzle(ctx context.Context, reveal protocol.Program) (protocol.Bytes32, error)

	AddCoin(ctx context.Context, record store.CoinRecord) (protocol.Bytes32, error)
	GetCoin(ctx context.Context, id protocol.Bytes32) (*store.CoinRecord, error)

	// SelectCoins picks tracked unspent coins of an asset covering amount
	SelectCoins(ctx context.Context, kind store.AssetKind, assetID protocol.Bytes32, amount uint64) ([]protocol.Coin, error)

	Network(ctx context.Context) (*service.NetworkReply, error)
}

// New creates a new client object for the node listening at uri.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, service.Endpoint, service.Name)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) TreeHash(ctx context.Context, program protocol.Program) (protocol.Bytes32, error) {
	resp := new(service.TreeHashReply)
	err := cli.req.SendRequest(ctx,
		"treeHash",
		&service.ProgramArgs{Program: program},
		resp,
	)
	return resp.Hash, err
}

func (cli *client) Curry(ctx context.Context, program protocol.Program, args ...protocol.Program) (protocol.Program, protocol.Bytes32, error) {
	resp := new(service.CurryReply)
	err := cli.req.SendRequest(ctx,
		"curry",
		&service.CurryArgs{Program: program, Args: args},
		resp,
	)
	if err != nil {
		return nil, protocol.Bytes32{}, err
	}
	return resp.Program, resp.Hash, nil
}

func (cli *client) CoinID(ctx context.Context, coin protocol.Coin) (protocol.Bytes32, error) {
	resp := new(service.CoinIDReply)
	err := cli.req.SendRequest(ctx,
		"coinID",
		&service.CoinArgs{Coin: coin},
		resp,
	)
	return resp.ID, err
}

func (cli *client) EncodeOffer(ctx context.Context, bundle protocol.SpendBundle) (string, error) {
	bytes, err := formatting.EncodeWithChecksum(formatting.Hex, bundle.Bytes())
	if err != nil {
		return "", err
	}

	resp := new(service.OfferReply)
	err = cli.req.SendRequest(ctx,
		"encodeOffer",
		&service.BytesArgs{Bytes: bytes},
		resp,
	)
	return resp.Offer, err
}

func (cli *client) DecodeOffer(ctx context.Context, text string) (*protocol.SpendBundle, error) {
	resp := new(service.BytesReply)
	err := cli.req.SendRequest(ctx,
		"decodeOffer",
		&service.OfferArgs{Offer: text},
		resp,
	)
	if err != nil {
		return nil, err
	}
	bytes, err := formatting.Decode(formatting.Hex, resp.Bytes)
	if err != nil {
		return nil, err
	}
	return protocol.ParseSpendBundle(bytes)
}

func (cli *client) NftRoyalty(ctx context.Context, amount uint64, nftCount uint32, basisPoints uint16) (uint64, uint64, error) {
	resp := new(service.NftRoyaltyReply)
	err := cli.req.SendRequest(ctx,
		"nftRoyalty",
		&service.NftRoyaltyArgs{
			Amount:      cjson.Uint64(amount),
			NftCount:    cjson.Uint32(nftCount),
			BasisPoints: cjson.Uint16(basisPoints),
		},
		resp,
	)
	if err != nil {
		return 0, 0, err
	}
	return uint64(resp.TradePrice), uint64(resp.Royalty), nil
}

func (cli *client) AttachPuzzle(ctx context.Context, reveal protocol.Program) (protocol.Bytes32, error) {
	resp := new(service.TreeHashReply)
	err := cli.req.SendRequest(ctx,
		"attachPuzzle",
		&service.ProgramArgs{Program: reveal},
		resp,
	)
	return resp.Hash, err
}

func (cli *client) AddCoin(ctx context.Context, record store.CoinRecord) (protocol.Bytes32, error) {
	resp := new(service.CoinIDReply)
	err := cli.req.SendRequest(ctx,
		"addCoin",
		&service.CoinRecordArgs{Record: record},
		resp,
	)
	return resp.ID, err
}

func (cli *client) GetCoin(ctx context.Context, id protocol.Bytes32) (*store.CoinRecord, error) {
	resp := new(service.CoinRecordReply)
	err := cli.req.SendRequest(ctx,
		"getCoin",
		&service.CoinIDArgs{ID: id},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return &resp.Record, nil
}

func (cli *client) SelectCoins(ctx context.Context, kind store.AssetKind, assetID protocol.Bytes32, amount uint64) ([]protocol.Coin, error) {
	resp := new(service.CoinsReply)
	err := cli.req.SendRequest(ctx,
		"selectCoins",
		&service.SelectCoinsArgs{
			AssetKind: kind,
			AssetID:   assetID,
			Amount:    cjson.Uint64(amount),
		},
		resp,
	)
	return resp.Coins, err
}

func (cli *client) Network(ctx context.Context) (*service.NetworkReply, error) {
	resp := new(service.NetworkReply)
	err := cli.req.SendRequest(ctx,
		"network",
		&struct{}{},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
