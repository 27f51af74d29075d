// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package game provides the Game contract: a small owner-administered
// contract tracking an issuer, a line of credit, and a player position,
// together with a typed binding for interacting with deployed instances.
package game

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// gameABI is the interface description of the Game contract.
const gameABI = `[
	{"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
	{"type":"function","name":"issuer","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
	{"type":"function","name":"lineOfCredit","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"position","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"setIssuer","inputs":[{"name":"issuer","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"setLineOfCredit","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"addLineOfCredit","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"movePlayer","inputs":[{"name":"position","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"IssuerChanged","anonymous":false,"inputs":[{"name":"issuer","type":"address","indexed":true}]},
	{"type":"event","name":"LineOfCreditChanged","anonymous":false,"inputs":[{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"PlayerMoved","anonymous":false,"inputs":[{"name":"player","type":"address","indexed":true},{"name":"position","type":"uint256","indexed":false}]}
]`

// DefaultSuite is a suite of state assertions covering the Game contract,
// encoded in YAML.
//
//go:embed suite.yaml
var DefaultSuite []byte

var (
	deploymentCode []byte
	runtimeCode    []byte
)

// GameMetaData contains all meta data concerning the Game contract.
var GameMetaData = &bind.MetaData{
	ABI: gameABI,
}

func init() {
	var err error
	deploymentCode, runtimeCode, err = buildCode()
	if err != nil {
		panic(fmt.Errorf("failed to build Game contract: %w", err))
	}
	GameMetaData.Bin = hexutil.Encode(deploymentCode)

	parsed, err := abi.JSON(strings.NewReader(gameABI))
	if err != nil {
		panic(fmt.Errorf("failed to parse Game ABI: %w", err))
	}
	for _, f := range functions {
		name := f.signature[:strings.IndexByte(f.signature, '(')]
		method, found := parsed.Methods[name]
		if !found || method.Sig != f.signature {
			panic(fmt.Sprintf("Game ABI does not describe %s", f.signature))
		}
	}
}

// RuntimeCode returns the code installed by deploying the Game contract.
func RuntimeCode() []byte {
	return append([]byte(nil), runtimeCode...)
}

// Game is a binding to a deployed Game contract.
type Game struct {
	address  common.Address
	contract *bind.BoundContract
}

// GameIssuerChanged is emitted by setIssuer.
type GameIssuerChanged struct {
	Issuer common.Address
	Raw    types.Log
}

// GameLineOfCreditChanged is emitted whenever the line of credit is updated
// and carries the new total.
type GameLineOfCreditChanged struct {
	Amount *big.Int
	Raw    types.Log
}

type GamePlayerMoved struct {
	Player   common.Address
	Position *big.Int
	Raw      types.Log
}

// DeployGame deploys a new Game contract owned by the sender of the
// transaction.
func DeployGame(auth *bind.TransactOpts, backend bind.ContractBackend) (common.Address, *types.Transaction, *Game, error) {
	parsed, err := GameMetaData.GetAbi()
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	if parsed == nil {
		return common.Address{}, nil, nil, errors.New("GetABI returned nil")
	}
	address, tx, contract, err := bind.DeployContract(auth, *parsed, deploymentCode, backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &Game{address: address, contract: contract}, nil
}

// NewGame creates a binding to a Game contract deployed at the given address.
func NewGame(address common.Address, backend bind.ContractBackend) (*Game, error) {
	parsed, err := GameMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(address, *parsed, backend, backend, backend)
	return &Game{address: address, contract: contract}, nil
}

// Deploy deploys a Game contract on the given chain from the given account
// and waits for the deployment to be settled.
func Deploy(ctx context.Context, c *chain.Chain, from chain.Account) (*Game, *types.Receipt, error) {
	var res *Game
	receipt, err := c.Transact(ctx, from, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		_, tx, game, err := DeployGame(opts, c.Backend())
		res = game
		return tx, err
	})
	if err != nil {
		return nil, receipt, fmt.Errorf("failed to deploy Game contract: %w", err)
	}
	return res, receipt, nil
}

func (g *Game) Address() common.Address {
	return g.address
}

func (g *Game) Owner(opts *bind.CallOpts) (common.Address, error) {
	return g.callAddress(opts, "owner")
}

func (g *Game) Issuer(opts *bind.CallOpts) (common.Address, error) {
	return g.callAddress(opts, "issuer")
}

func (g *Game) LineOfCredit(opts *bind.CallOpts) (*big.Int, error) {
	return g.callNumber(opts, "lineOfCredit")
}

func (g *Game) Position(opts *bind.CallOpts) (*big.Int, error) {
	return g.callNumber(opts, "position")
}

// SetIssuer replaces the issuer. Only the owner may do so.
func (g *Game) SetIssuer(opts *bind.TransactOpts, issuer common.Address) (*types.Transaction, error) {
	return g.contract.Transact(opts, "setIssuer", issuer)
}

// SetLineOfCredit replaces the line of credit. Only the owner may do so.
func (g *Game) SetLineOfCredit(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return g.contract.Transact(opts, "setLineOfCredit", amount)
}

// AddLineOfCredit increases the line of credit by the given amount. Only
// the owner may do so; overflowing the line of credit reverts.
func (g *Game) AddLineOfCredit(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return g.contract.Transact(opts, "addLineOfCredit", amount)
}

func (g *Game) MovePlayer(opts *bind.TransactOpts, position *big.Int) (*types.Transaction, error) {
	return g.contract.Transact(opts, "movePlayer", position)
}

func (g *Game) ParseIssuerChanged(log types.Log) (*GameIssuerChanged, error) {
	event := new(GameIssuerChanged)
	if err := g.contract.UnpackLog(event, "IssuerChanged", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

func (g *Game) ParseLineOfCreditChanged(log types.Log) (*GameLineOfCreditChanged, error) {
	event := new(GameLineOfCreditChanged)
	if err := g.contract.UnpackLog(event, "LineOfCreditChanged", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

func (g *Game) ParsePlayerMoved(log types.Log) (*GamePlayerMoved, error) {
	event := new(GamePlayerMoved)
	if err := g.contract.UnpackLog(event, "PlayerMoved", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

func (g *Game) callAddress(opts *bind.CallOpts, method string) (common.Address, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, method); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (g *Game) callNumber(opts *bind.CallOpts, method string) (*big.Int, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, method); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
