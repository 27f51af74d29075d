// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rpc provides a chain backend talking to an external node through
// its JSON-RPC endpoint.
package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const Name = "rpc"

const ErrMissingURL = chain.ConstError("missing node URL")

func init() {
	err := chain.RegisterBackendFactory(Name, func(config any) (chain.Backend, error) {
		switch c := config.(type) {
		case Config:
			return NewBackend(c)
		case *Config:
			if c == nil {
				return nil, ErrMissingURL
			}
			return NewBackend(*c)
		case string:
			return NewBackend(Config{URL: c})
		}
		return nil, fmt.Errorf("invalid configuration for %s backend: %T", Name, config)
	})
	if err != nil {
		panic(err)
	}
}

type Config struct {
	// URL of the node, e.g. http://localhost:8545 or ws://localhost:8546.
	URL string
}

type backendImpl struct {
	*ethclient.Client
}

// NewBackend connects to the node at the configured URL. Transactions are
// settled by polling for their receipt; the node is expected to mine them.
func NewBackend(config Config) (chain.Backend, error) {
	url := strings.TrimSpace(config.URL)
	if url == "" {
		return nil, ErrMissingURL
	}
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return &backendImpl{Client: client}, nil
}

func (b *backendImpl) Settle(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, b.Client, tx)
}

func (b *backendImpl) Close() error {
	b.Client.Close()
	return nil
}
