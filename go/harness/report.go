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

import (
	"fmt"
	"io"
	"strings"
)

// Summary counts the outcomes of a list of results.
type Summary struct {
	Passed      int
	Failed      int
	SetupErrors int
}

func Summarize(results []Result) Summary {
	res := Summary{}
	for i := range results {
		switch {
		case results[i].Passed():
			res.Passed++
		case results[i].SetupFailed():
			res.SetupErrors++
		default:
			res.Failed++
		}
	}
	return res
}

func (s Summary) Total() int {
	return s.Passed + s.Failed + s.SetupErrors
}

func (s Summary) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d setup errors, %d total", s.Passed, s.Failed, s.SetupErrors, s.Total())
}

// WriteReport prints a plain-text report of the given results. In verbose
// mode, the contract and the settled transactions of every case are listed
// as well.
func WriteReport(w io.Writer, results []Result, verbose bool) error {
	var b strings.Builder
	for i := range results {
		res := &results[i]
		status := "PASS"
		switch {
		case res.SetupFailed():
			status = "ERROR"
		case !res.Passed():
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%-5s %s\n", status, res.Case)
		if verbose && !res.SetupFailed() {
			fmt.Fprintf(&b, "      contract %v\n", res.Contract)
			for j, step := range res.Steps {
				if step.Reverted {
					fmt.Fprintf(&b, "      step %d %s from %v reverted\n", j+1, step.Method, step.From)
					continue
				}
				fmt.Fprintf(&b, "      step %d %s from %v tx %v gas %d\n", j+1, step.Method, step.From, step.TxHash, step.GasUsed)
			}
		}
		for _, failure := range res.Failures {
			fmt.Fprintf(&b, "      %v\n", failure)
		}
	}
	fmt.Fprintf(&b, "%v\n", Summarize(results))
	_, err := io.WriteString(w, b.String())
	return err
}
