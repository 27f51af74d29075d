// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

const receiptCacheSize = 1024

// Chain combines a Backend with the set of accounts usable for sending
// transactions. Transactions sent through a Chain are processed one at a
// time: each is settled before the next one is sent.
type Chain struct {
	backend  Backend
	accounts []Account
	chainID  *big.Int
	receipts *lru.Cache[common.Hash, *types.Receipt]
	mu       sync.Mutex
}

// NewChain creates a Chain on top of the given backend. The chain takes
// ownership of the backend and closes it when being closed.
func NewChain(ctx context.Context, backend Backend, accounts []Account) (*Chain, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	receipts, err := lru.New[common.Hash, *types.Receipt](receiptCacheSize)
	if err != nil {
		return nil, err
	}
	return &Chain{
		backend:  backend,
		accounts: append([]Account(nil), accounts...),
		chainID:  chainID,
		receipts: receipts,
	}, nil
}

func (c *Chain) Backend() Backend {
	return c.backend
}

func (c *Chain) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Chain) Accounts() []Account {
	return append([]Account(nil), c.accounts...)
}

// Account returns the i-th account of this chain.
func (c *Chain) Account(i int) (Account, error) {
	if i < 0 || i >= len(c.accounts) {
		return Account{}, fmt.Errorf("%w: index %d, have %d accounts", ErrUnknownAccount, i, len(c.accounts))
	}
	return c.accounts[i], nil
}

// TransactOpts creates options for signing transactions with the given account.
func (c *Chain) TransactOpts(ctx context.Context, from Account) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(from.Key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func (c *Chain) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// Transact signs a transaction created by send with the key of the given
// account, waits for it to be included in the chain, and returns its
// receipt. If the transaction was included but failed, the receipt is
// returned together with an error wrapping ErrTransactionFailed.
func (c *Chain) Transact(
	ctx context.Context,
	from Account,
	send func(*bind.TransactOpts) (*types.Transaction, error),
) (*types.Receipt, error) {
	opts, err := c.TransactOpts(ctx, from)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := send(opts)
	if err != nil {
		return nil, err
	}
	receipt, err := c.backend.Settle(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to settle transaction %v: %w", tx.Hash(), err)
	}
	c.receipts.Add(tx.Hash(), receipt)
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %v", ErrTransactionFailed, tx.Hash())
	}
	return receipt, nil
}

// Receipt obtains the receipt of the given transaction. Receipts of
// transactions sent through this chain are served from a cache.
func (c *Chain) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if receipt, found := c.receipts.Get(hash); found {
		return receipt, nil
	}
	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	c.receipts.Add(hash, receipt)
	return receipt, nil
}

func (c *Chain) Close() error {
	return c.backend.Close()
}
