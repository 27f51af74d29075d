// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package simulated provides an in-process, in-memory chain backend. Every
// backend instance is an independent chain; nothing is shared between
// instances and all state is discarded on Close.
package simulated

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
)

// Name is the name under which this backend is registered.
const Name = "simulated"

const defaultGasLimit = 30_000_000

func init() {
	err := chain.RegisterBackendFactory(Name, func(config any) (chain.Backend, error) {
		switch c := config.(type) {
		case nil:
			return NewBackend(Config{}), nil
		case Config:
			return NewBackend(c), nil
		case *Config:
			return NewBackend(*c), nil
		}
		return nil, fmt.Errorf("invalid configuration for %s backend: %T", Name, config)
	})
	if err != nil {
		panic(err)
	}
}

// Config is the configuration of a simulated chain.
type Config struct {
	Accounts []chain.Account // accounts funded in the genesis block
	Balance  *big.Int        // initial balance of each account, 1000 ether if nil
	GasLimit uint64          // block gas limit, 30M if zero
}

// DefaultBalance is the initial balance of funded accounts.
func DefaultBalance() *big.Int {
	return new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.Ether))
}

type backendImpl struct {
	simulated.Client
	sim *simulated.Backend
}

// NewBackend starts a new simulated chain funding the configured accounts.
func NewBackend(config Config) chain.Backend {
	balance := config.Balance
	if balance == nil {
		balance = DefaultBalance()
	}
	gasLimit := config.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}

	alloc := types.GenesisAlloc{}
	for _, account := range config.Accounts {
		alloc[account.Address] = types.Account{Balance: new(big.Int).Set(balance)}
	}

	sim := simulated.NewBackend(alloc, simulated.WithBlockGasLimit(gasLimit))
	return &backendImpl{
		Client: sim.Client(),
		sim:    sim,
	}
}

// NewChain is a convenience function starting a fresh simulated chain with
// the given pre-funded accounts.
func NewChain(ctx context.Context, accounts []chain.Account) (*chain.Chain, error) {
	backend := NewBackend(Config{Accounts: accounts})
	res, err := chain.NewChain(ctx, backend, accounts)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return res, nil
}

// Settle seals a new block containing the pending transactions and returns
// the receipt of the given transaction.
func (b *backendImpl) Settle(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	b.sim.Commit()
	return bind.WaitMined(ctx, b, tx)
}

func (b *backendImpl) Close() error {
	return b.sim.Close()
}
