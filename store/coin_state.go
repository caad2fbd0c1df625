// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"fmt"

	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/chiasdk/coinselect"
	"github.com/ava-labs/chiasdk/protocol"
)

var _ CoinState = (*coinState)(nil)

// CoinState stores coin records keyed by coin id.
type CoinState interface {
	GetCoin(id protocol.Bytes32) (*CoinRecord, error)
	PutCoin(r *CoinRecord) error
	// MarkSpent flags a tracked coin as spent. Spent coins are kept so
	// their lineage can still be looked up.
	MarkSpent(id protocol.Bytes32) error
	DeleteCoin(id protocol.Bytes32) error

	// UnspentCoins lists unspent records of kind. assetID selects the CAT
	// asset id or singleton launcher id and is ignored for XCH.
	UnspentCoins(kind AssetKind, assetID protocol.Bytes32) ([]*CoinRecord, error)
	// SelectCoins picks unspent records of kind adding up to at least
	// amount.
	SelectCoins(kind AssetKind, assetID protocol.Bytes32, amount uint64) ([]*CoinRecord, error)

	ClearCache()
}

type coinState struct {
	coinCache cache.Cacher
	coinDB    database.Database
}

func NewCoinState(db database.Database, cacheSize int, registerer prometheus.Registerer) (CoinState, error) {
	coinCache, err := metercacher.New(
		"coin_cache",
		registerer,
		&cache.LRU{Size: cacheSize},
	)
	if err != nil {
		return nil, err
	}
	return &coinState{
		coinCache: coinCache,
		coinDB:    db,
	}, nil
}

// GetCoin returns a copy of the stored record, so callers may modify it
// freely.
func (s *coinState) GetCoin(id protocol.Bytes32) (*CoinRecord, error) {
	if cached, ok := s.coinCache.Get(id); ok {
		r := *cached.(*CoinRecord)
		return &r, nil
	}

	b, err := s.coinDB.Get(id[:])
	if err != nil {
		return nil, err
	}
	r, err := parseRecord(b)
	if err != nil {
		return nil, err
	}
	stored := *r
	s.coinCache.Put(id, &stored)
	return r, nil
}

func parseRecord(b []byte) (*CoinRecord, error) {
	r := &CoinRecord{}
	parsedVersion, err := Codec.Unmarshal(b, r)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, ErrWrongVersion
	}
	return r, nil
}

func (s *coinState) PutCoin(r *CoinRecord) error {
	b, err := Codec.Marshal(CodecVersion, r)
	if err != nil {
		return err
	}
	id := r.ID()
	stored := *r
	s.coinCache.Put(id, &stored)
	return s.coinDB.Put(id[:], b)
}

func (s *coinState) MarkSpent(id protocol.Bytes32) error {
	r, err := s.GetCoin(id)
	if err != nil {
		return fmt.Errorf("coin %s: %w", id, err)
	}
	if r.Spent {
		return nil
	}
	spent := *r
	spent.Spent = true
	return s.PutCoin(&spent)
}

func (s *coinState) DeleteCoin(id protocol.Bytes32) error {
	s.coinCache.Evict(id)
	return s.coinDB.Delete(id[:])
}

func (s *coinState) UnspentCoins(kind AssetKind, assetID protocol.Bytes32) ([]*CoinRecord, error) {
	it := s.coinDB.NewIterator()
	defer it.Release()

	var out []*CoinRecord
	for it.Next() {
		r, err := parseRecord(it.Value())
		if err != nil {
			return nil, err
		}
		if r.Spent || !r.matches(kind, assetID) {
			continue
		}
		out = append(out, r)
	}
	return out, it.Error()
}

func (s *coinState) SelectCoins(kind AssetKind, assetID protocol.Bytes32, amount uint64) ([]*CoinRecord, error) {
	records, err := s.UnspentCoins(kind, assetID)
	if err != nil {
		return nil, err
	}

	byCoin := make(map[protocol.Coin]*CoinRecord, len(records))
	coins := make([]protocol.Coin, 0, len(records))
	for _, r := range records {
		byCoin[r.Coin] = r
		coins = append(coins, r.Coin)
	}
	selected, err := coinselect.SelectCoins(coins, amount)
	if err != nil {
		return nil, err
	}

	out := make([]*CoinRecord, 0, len(selected))
	for _, coin := range selected {
		out = append(out, byCoin[coin])
	}
	log.Debug("selected coins", "kind", kind, "amount", amount, "coins", len(out))
	return out, nil
}

func (s *coinState) ClearCache() {
	s.coinCache.Flush()
}
