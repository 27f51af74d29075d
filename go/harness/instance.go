// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package harness

//go:generate mockgen -source instance.go -destination instance_mock.go -package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Deployer produces fresh contract instances. Instances produced by a
// Deployer never share state.
type Deployer interface {
	// Deploy creates a new instance, waiting until it is usable.
	Deploy(ctx context.Context) (Instance, error)
}

// Instance is a handle to a deployed contract.
type Instance interface {
	Address() common.Address

	// ABI describes the methods of the instance.
	ABI() *abi.ABI

	// Invoke sends a transaction calling the given method and waits for it
	// to be settled. Errors are reported as produced by the chain.
	Invoke(ctx context.Context, from chain.Account, method string, args ...any) (*types.Receipt, error)

	// Read calls the given accessor without creating a transaction.
	Read(ctx context.Context, accessor string, args ...any) ([]any, error)
}

// contractDeployer deploys contracts described by bind meta data, the way
// abigen generated bindings do.
type contractDeployer struct {
	chain *chain.Chain
	abi   *abi.ABI
	code  []byte
}

// NewContractDeployer creates a Deployer deploying the given contract on
// the given chain from the chain's first account.
func NewContractDeployer(c *chain.Chain, metaData *bind.MetaData) (Deployer, error) {
	parsed, err := metaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	if parsed == nil {
		return nil, errors.New("GetABI returned nil")
	}
	code, err := hexutil.Decode(metaData.Bin)
	if err != nil {
		return nil, fmt.Errorf("failed to decode contract code: %w", err)
	}
	if len(code) == 0 {
		return nil, errors.New("contract code is empty")
	}
	return &contractDeployer{chain: c, abi: parsed, code: code}, nil
}

func (d *contractDeployer) Deploy(ctx context.Context) (Instance, error) {
	from, err := d.chain.Account(0)
	if err != nil {
		return nil, err
	}
	var contract *bind.BoundContract
	receipt, err := d.chain.Transact(ctx, from, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		_, tx, bound, err := bind.DeployContract(opts, *d.abi, d.code, d.chain.Backend())
		contract = bound
		return tx, err
	})
	if err != nil {
		return nil, err
	}
	return &boundInstance{
		chain:    d.chain,
		address:  receipt.ContractAddress,
		abi:      d.abi,
		contract: contract,
	}, nil
}

type boundInstance struct {
	chain    *chain.Chain
	address  common.Address
	abi      *abi.ABI
	contract *bind.BoundContract
}

func (i *boundInstance) Address() common.Address {
	return i.address
}

func (i *boundInstance) ABI() *abi.ABI {
	return i.abi
}

func (i *boundInstance) Invoke(ctx context.Context, from chain.Account, method string, args ...any) (*types.Receipt, error) {
	return i.chain.Transact(ctx, from, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return i.contract.Transact(opts, method, args...)
	})
}

func (i *boundInstance) Read(ctx context.Context, accessor string, args ...any) ([]any, error) {
	var out []any
	if err := i.contract.Call(i.chain.CallOpts(ctx), &out, accessor, args...); err != nil {
		return nil, err
	}
	return out, nil
}
