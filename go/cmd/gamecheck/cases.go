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

	"github.com/urfave/cli/v2"
)

var CasesCmd = cli.Command{
	Action:    doCases,
	Name:      "cases",
	Usage:     "List the names of the cases of the given suites",
	ArgsUsage: "[suite files...]",
	Flags: []cli.Flag{
		FilterFlag,
	},
}

func doCases(context *cli.Context) error {
	cases, err := selectCases(context)
	if err != nil {
		return err
	}
	for _, c := range cases {
		fmt.Fprintf(context.App.Writer, "%s (%d steps)\n", c.Name, len(c.Steps))
	}
	return nil
}
