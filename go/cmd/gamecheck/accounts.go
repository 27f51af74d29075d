// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"
)

var showKeysFlag = &cli.BoolFlag{
	Name:  "show-keys",
	Usage: "print the private keys of the derived accounts",
}

var AccountsCmd = cli.Command{
	Action: doAccounts,
	Name:   "accounts",
	Usage:  "Print the accounts the simulated backend derives from a seed",
	Flags: []cli.Flag{
		SeedFlag,
		AccountsFlag,
		showKeysFlag,
	},
}

func doAccounts(context *cli.Context) error {
	n, err := AccountsFlag.Fetch(context)
	if err != nil {
		return err
	}
	accounts, err := chain.DeriveAccounts(SeedFlag.Fetch(context), n)
	if err != nil {
		return err
	}
	showKeys := context.Bool(showKeysFlag.Name)
	for i, account := range accounts {
		if showKeys {
			fmt.Fprintf(context.App.Writer, "accounts[%d] %v %s\n", i, account, hexutil.Encode(crypto.FromECDSA(account.Key)))
		} else {
			fmt.Fprintf(context.App.Writer, "accounts[%d] %v\n", i, account)
		}
	}
	return nil
}
