// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service exposes the module over JSON-RPC. Failures never leak
// their cause to callers: every error becomes ErrGeneric and the cause is
// logged.
package service

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/offer"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
	"github.com/ava-labs/chiasdk/store"
)

const (
	// Name is the name the service is registered under.
	Name = "chiasdk"

	// Endpoint is the path the node serves JSON-RPC requests on.
	Endpoint = "/rpc"
)

// Service is the API service.
type Service struct {
	network protocol.NetworkConstants
	state   store.State
	log     log.Logger

	requests *prometheus.CounterVec
}

// New returns a service for network. state may be nil, in which case the
// coin methods fail.
func New(network protocol.NetworkConstants, state store.State, logger log.Logger, registerer prometheus.Registerer) (*Service, error) {
	if logger == nil {
		logger = log.Root()
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Name,
		Name:      "requests",
		Help:      "Number of API requests by method and result",
	}, []string{"method", "result"})
	if err := registerer.Register(requests); err != nil {
		return nil, fmt.Errorf("failed to register request counter: %w", err)
	}
	return &Service{
		network:  network,
		state:    state,
		log:      logger,
		requests: requests,
	}, nil
}

// NewHandler serves s over JSON-RPC.
func NewHandler(s *Service) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(s, Name)
}

// done records the outcome of method and hides err from the caller.
func (s *Service) done(method string, err error) error {
	if err == nil {
		s.requests.WithLabelValues(method, "success").Inc()
		return nil
	}
	s.requests.WithLabelValues(method, "failure").Inc()
	s.log.Debug("request failed", "method", method, "err", err)
	return ErrGeneric
}

// ProgramArgs holds one serialized program.
type ProgramArgs struct {
	Program protocol.Program `json:"program"`
}

// TreeHashReply is the tree hash of a program.
type TreeHashReply struct {
	Hash protocol.Bytes32 `json:"hash"`
}

// TreeHash returns the tree hash of a program.
func (s *Service) TreeHash(_ *http.Request, args *ProgramArgs, reply *TreeHashReply) error {
	hash, err := args.Program.TreeHash()
	if err == nil {
		reply.Hash = protocol.Bytes32(hash)
	}
	return s.done("treeHash", err)
}

// CurryArgs binds Args to Program.
type CurryArgs struct {
	Program protocol.Program   `json:"program"`
	Args    []protocol.Program `json:"args"`
}

// CurryReply is a curried program and its tree hash.
type CurryReply struct {
	Program protocol.Program `json:"program"`
	Hash    protocol.Bytes32 `json:"hash"`
}

// Curry binds arguments to a program.
func (s *Service) Curry(_ *http.Request, args *CurryArgs, reply *CurryReply) error {
	return s.done("curry", func() error {
		if len(args.Program) == 0 {
			return errEmptyProgram
		}
		a := clvm.NewAllocator()
		mod, err := a.Deserialize(args.Program)
		if err != nil {
			return err
		}
		curried := make([]clvm.NodePtr, 0, len(args.Args))
		for _, arg := range args.Args {
			n, err := a.Deserialize(arg)
			if err != nil {
				return err
			}
			curried = append(curried, n)
		}
		program := a.Curry(mod, curried...)
		b, err := a.Serialize(program)
		if err != nil {
			return err
		}
		reply.Program = b
		reply.Hash = protocol.Bytes32(a.TreeHash(program))
		return nil
	}())
}

// CoinArgs holds one coin.
type CoinArgs struct {
	Coin protocol.Coin `json:"coin"`
}

// CoinIDReply is the id of a coin.
type CoinIDReply struct {
	ID protocol.Bytes32 `json:"id"`
}

// CoinID returns the id of a coin.
func (s *Service) CoinID(_ *http.Request, args *CoinArgs, reply *CoinIDReply) error {
	reply.ID = args.Coin.ID()
	return s.done("coinID", nil)
}

// BytesArgs holds hex encoded bytes.
type BytesArgs struct {
	Bytes string `json:"bytes"`
}

// BytesReply holds hex encoded bytes.
type BytesReply struct {
	Bytes string `json:"bytes"`
}

// OfferArgs holds a bech32m encoded offer.
type OfferArgs struct {
	Offer string `json:"offer"`
}

// OfferReply holds a bech32m encoded offer.
type OfferReply struct {
	Offer string `json:"offer"`
}

// EncodeOffer compresses and encodes a serialized spend bundle.
func (s *Service) EncodeOffer(_ *http.Request, args *BytesArgs, reply *OfferReply) error {
	return s.done("encodeOffer", func() error {
		b, err := formatting.Decode(formatting.Hex, args.Bytes)
		if err != nil {
			return err
		}
		o, err := offer.FromBytes(b)
		if err != nil {
			return err
		}
		reply.Offer, err = o.Encode()
		return err
	}())
}

// DecodeOffer returns the serialized spend bundle of an encoded offer.
func (s *Service) DecodeOffer(_ *http.Request, args *OfferArgs, reply *BytesReply) error {
	return s.done("decodeOffer", func() error {
		o, err := offer.Decode(args.Offer)
		if err != nil {
			return err
		}
		reply.Bytes, err = formatting.EncodeWithChecksum(formatting.Hex, o.Bytes())
		return err
	}())
}

// CompressOffer compresses a serialized spend bundle.
func (s *Service) CompressOffer(_ *http.Request, args *BytesArgs, reply *BytesReply) error {
	return s.done("compressOffer", s.transformBytes(args, reply, offer.CompressBytes))
}

// DecompressOffer reverses CompressOffer.
func (s *Service) DecompressOffer(_ *http.Request, args *BytesArgs, reply *BytesReply) error {
	return s.done("decompressOffer", s.transformBytes(args, reply, offer.DecompressBytes))
}

func (s *Service) transformBytes(args *BytesArgs, reply *BytesReply, f func([]byte) ([]byte, error)) error {
	b, err := formatting.Decode(formatting.Hex, args.Bytes)
	if err != nil {
		return err
	}
	out, err := f(b)
	if err != nil {
		return err
	}
	reply.Bytes, err = formatting.EncodeWithChecksum(formatting.Hex, out)
	return err
}

// NftRoyaltyArgs describes a trade of NftCount royalty paying NFTs.
type NftRoyaltyArgs struct {
	Amount      cjson.Uint64 `json:"amount"`
	NftCount    cjson.Uint32 `json:"nftCount"`
	BasisPoints cjson.Uint16 `json:"basisPoints"`
}

// NftRoyaltyReply is the price of each NFT and the royalty due on it.
type NftRoyaltyReply struct {
	TradePrice cjson.Uint64 `json:"tradePrice"`
	Royalty    cjson.Uint64 `json:"royalty"`
}

// NftRoyalty computes the royalty owed on each NFT of a trade.
func (s *Service) NftRoyalty(_ *http.Request, args *NftRoyaltyArgs, reply *NftRoyaltyReply) error {
	return s.done("nftRoyalty", func() error {
		price, err := offer.NftTradePrice(uint64(args.Amount), int(args.NftCount))
		if err != nil {
			return err
		}
		royalty, err := offer.NftRoyalty(price, uint16(args.BasisPoints))
		if err != nil {
			return err
		}
		reply.TradePrice = cjson.Uint64(price)
		reply.Royalty = cjson.Uint64(royalty)
		return nil
	}())
}

// AttachPuzzle supplies the reveal of a template known only by hash and
// keeps it in the store so it survives restarts.
func (s *Service) AttachPuzzle(_ *http.Request, args *ProgramArgs, reply *TreeHashReply) error {
	return s.done("attachPuzzle", func() error {
		m, err := puzzles.Attach(args.Program)
		if err != nil {
			return err
		}
		if s.state != nil {
			if _, err := s.state.PutPuzzle(args.Program); err != nil {
				return err
			}
			if err := s.state.Commit(); err != nil {
				return err
			}
		}
		reply.Hash = protocol.Bytes32(m.Hash)
		return nil
	}())
}

// CoinRecordArgs holds a coin record.
type CoinRecordArgs struct {
	Record store.CoinRecord `json:"record"`
}

// AddCoin starts tracking a coin.
func (s *Service) AddCoin(_ *http.Request, args *CoinRecordArgs, reply *CoinIDReply) error {
	return s.done("addCoin", func() error {
		if s.state == nil {
			return errNoState
		}
		if err := s.state.PutCoin(&args.Record); err != nil {
			s.state.Abort()
			return err
		}
		reply.ID = args.Record.ID()
		return s.state.Commit()
	}())
}

// CoinIDArgs holds a coin id.
type CoinIDArgs struct {
	ID protocol.Bytes32 `json:"id"`
}

// CoinRecordReply holds a coin record.
type CoinRecordReply struct {
	Record store.CoinRecord `json:"record"`
}

// GetCoin returns a tracked coin.
func (s *Service) GetCoin(_ *http.Request, args *CoinIDArgs, reply *CoinRecordReply) error {
	return s.done("getCoin", func() error {
		if s.state == nil {
			return errNoState
		}
		r, err := s.state.GetCoin(args.ID)
		if err != nil {
			return err
		}
		reply.Record = *r
		return nil
	}())
}

// SelectCoinsArgs asks for unspent coins of an asset adding up to Amount.
// AssetID is the CAT asset id or singleton launcher id.
type SelectCoinsArgs struct {
	AssetKind store.AssetKind  `json:"assetKind"`
	AssetID   protocol.Bytes32 `json:"assetID"`
	Amount    cjson.Uint64     `json:"amount"`
}

// CoinsReply holds a list of coins.
type CoinsReply struct {
	Coins []protocol.Coin `json:"coins"`
}

// SelectCoins selects tracked unspent coins.
func (s *Service) SelectCoins(_ *http.Request, args *SelectCoinsArgs, reply *CoinsReply) error {
	return s.done("selectCoins", func() error {
		if s.state == nil {
			return errNoState
		}
		records, err := s.state.SelectCoins(args.AssetKind, args.AssetID, uint64(args.Amount))
		if err != nil {
			return err
		}
		reply.Coins = make([]protocol.Coin, 0, len(records))
		for _, r := range records {
			reply.Coins = append(reply.Coins, r.Coin)
		}
		return nil
	}())
}

// NumberArgs holds a JSON number.
type NumberArgs struct {
	Value float64 `json:"value"`
}

// IntegerReply holds an integer.
type IntegerReply struct {
	Value int64 `json:"value"`
}

// CheckSafeInteger converts a number to an integer if it is a safe integer.
func (s *Service) CheckSafeInteger(_ *http.Request, args *NumberArgs, reply *IntegerReply) error {
	v, err := SafeInteger(args.Value)
	reply.Value = v
	return s.done("checkSafeInteger", err)
}

// BigIntArgs holds a base 10 integer.
type BigIntArgs struct {
	Value string `json:"value"`
}

// WordsReply is a signed magnitude split into big-endian 64 bit words.
type WordsReply struct {
	Negative bool           `json:"negative"`
	Words    []cjson.Uint64 `json:"words"`
}

// BigIntToWords splits an integer into words.
func (s *Service) BigIntToWords(_ *http.Request, args *BigIntArgs, reply *WordsReply) error {
	return s.done("bigIntToWords", func() error {
		v, ok := new(big.Int).SetString(args.Value, 10)
		if !ok {
			return fmt.Errorf("%w: %q", errInvalidBigInt, args.Value)
		}
		negative, words := BigIntToWords(v)
		reply.Negative = negative
		reply.Words = make([]cjson.Uint64, 0, len(words))
		for _, w := range words {
			reply.Words = append(reply.Words, cjson.Uint64(w))
		}
		return nil
	}())
}

// WordsArgs is a signed magnitude split into big-endian 64 bit words.
type WordsArgs struct {
	Negative bool           `json:"negative"`
	Words    []cjson.Uint64 `json:"words"`
}

// BigIntReply holds a base 10 integer.
type BigIntReply struct {
	Value string `json:"value"`
}

// WordsToBigInt joins words into an integer.
func (s *Service) WordsToBigInt(_ *http.Request, args *WordsArgs, reply *BigIntReply) error {
	words := make([]uint64, 0, len(args.Words))
	for _, w := range args.Words {
		words = append(words, uint64(w))
	}
	reply.Value = WordsToBigInt(args.Negative, words).String()
	return s.done("wordsToBigInt", nil)
}

// NetworkReply describes the network the service runs on.
type NetworkReply struct {
	Name             string           `json:"name"`
	GenesisChallenge protocol.Bytes32 `json:"genesisChallenge"`
	DefaultPort      cjson.Uint16     `json:"defaultPort"`
}

// Network returns the network the service runs on.
func (s *Service) Network(_ *http.Request, _ *struct{}, reply *NetworkReply) error {
	reply.Name = s.network.Name
	reply.GenesisChallenge = s.network.GenesisChallenge
	reply.DefaultPort = cjson.Uint16(s.network.DefaultPort)
	return s.done("network", nil)
}
