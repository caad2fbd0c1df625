// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/chiasdk/peer"
	"github.com/ava-labs/chiasdk/store"
)

const (
	envPrefix = "chiasdk"

	networkKey         = "network"
	httpHostKey        = "http-host"
	httpPortKey        = "http-port"
	logLevelKey        = "log-level"
	logFormatKey       = "log-format"
	coinCacheSizeKey   = "coin-cache-size"
	puzzleCacheSizeKey = "puzzle-cache-size"
	bootstrapPeersKey  = "bootstrap-peers"
	introducersKey     = "introducers"
	dnsTimeoutKey      = "dns-timeout"
	dnsBatchSizeKey    = "dns-batch-size"
	puzzleDirKey       = "puzzle-dir"
)

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(envPrefix, flag.ContinueOnError)

	fs.String(networkKey, "mainnet", "Network to run on (mainnet or testnet11)")
	fs.String(logLevelKey, "info", "Log level (debug, info, warn, error or crit)")
	fs.String(logFormatKey, "terminal", "Log format (terminal or logfmt)")

	return fs
}

func buildServeFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)

	fs.String(httpHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(httpPortKey, 9650, "Port of the HTTP server")
	fs.Int(coinCacheSizeKey, store.DefaultConfig.CoinCacheSize, "Number of coin records to cache")
	fs.Int(puzzleCacheSizeKey, store.DefaultConfig.PuzzleCacheSize, "Number of puzzle reveals to cache")
	fs.Bool(bootstrapPeersKey, false, "If true, resolves the network introducers on startup")
	fs.String(introducersKey, "", "Comma separated DNS introducers, overriding the network defaults")
	fs.Duration(dnsTimeoutKey, peer.DefaultDNSTimeout, "Timeout of each introducer lookup")
	fs.Int(dnsBatchSizeKey, peer.DefaultDNSBatchSize, "Number of introducers resolved concurrently")
	fs.String(puzzleDirKey, "", "Directory of <name>.hex puzzle reveals to load on startup")

	return fs
}

// getViper binds fs and the CHIASDK_ environment to a viper instance.
func getViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// introducers returns the configured introducers, or nil to use the network
// defaults.
func introducers(v *viper.Viper) []string {
	raw := v.GetString(introducersKey)
	if raw == "" {
		return nil
	}
	var hosts []string
	for _, host := range strings.Split(raw, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}
