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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sebdah/goldie/v2"
)

func report(t *testing.T, results ...Result) string {
	t.Helper()
	var buffer bytes.Buffer
	if err := WriteReport(&buffer, results, false); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	return buffer.String()
}

func repeatedHash(b string) common.Hash {
	return common.HexToHash("0x" + strings.Repeat(b, 32))
}

func repeatedAddress(b string) common.Address {
	return common.HexToAddress("0x" + strings.Repeat(b, 20))
}

func exampleResults() []Result {
	return []Result{
		{
			Case:     "setIssuer and setLineOfCredit succeed",
			Contract: repeatedAddress("11"),
			Steps: []StepResult{
				{Method: "setIssuer", From: repeatedAddress("22"), TxHash: repeatedHash("01"), GasUsed: 45000},
				{Method: "setLineOfCredit", From: repeatedAddress("22"), TxHash: repeatedHash("02"), GasUsed: 43000},
			},
		},
		{
			Case:     "restricted setIssuer",
			Contract: repeatedAddress("44"),
			Steps: []StepResult{
				{Method: "setIssuer", From: repeatedAddress("33"), Reverted: true},
				{Method: "setLineOfCredit", From: repeatedAddress("22"), TxHash: repeatedHash("03"), GasUsed: 26000},
			},
			Failures: []Failure{
				{Kind: Mismatch, Step: 1, Method: "lineOfCredit", Want: "123456", Got: "0"},
				{Kind: ReadFailure, Step: FinalStep, Method: "position", Err: errors.New("connection lost")},
			},
		},
		{
			Case:     "missing revert",
			Contract: repeatedAddress("55"),
			Steps: []StepResult{
				{Method: "setLineOfCredit", From: repeatedAddress("33"), TxHash: repeatedHash("04"), GasUsed: 43000},
			},
			Failures: []Failure{
				{Kind: MissingRevert, Step: 0, Method: "setLineOfCredit", Want: "Game: caller is not the owner"},
			},
		},
		{
			Case: "broken deployment",
			Failures: []Failure{
				{Kind: SetupFailure, Step: FinalStep, Err: errors.New("failed to deploy: insufficient funds")},
			},
		},
	}
}

func TestWriteReport_Golden(t *testing.T) {
	tests := map[string]bool{
		"report":         false,
		"report_verbose": true,
	}
	for name, verbose := range tests {
		t.Run(name, func(t *testing.T) {
			var buffer bytes.Buffer
			if err := WriteReport(&buffer, exampleResults(), verbose); err != nil {
				t.Fatalf("failed to write report: %v", err)
			}
			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, name, buffer.Bytes())
		})
	}
}

func TestSummarize_CountsOutcomes(t *testing.T) {
	summary := Summarize(exampleResults())
	if want, got := (Summary{Passed: 1, Failed: 2, SetupErrors: 1}), summary; want != got {
		t.Errorf("unexpected summary, want %+v, got %+v", want, got)
	}
	if want, got := 4, summary.Total(); want != got {
		t.Errorf("unexpected total, want %d, got %d", want, got)
	}
}

func TestFailure_MessagesNameTheirLocation(t *testing.T) {
	tests := map[string]struct {
		failure Failure
		want    string
	}{
		"step failure": {
			Failure{Kind: StepFailure, Step: 2, Method: "setIssuer", Err: errors.New("boom")},
			"step 3: setIssuer failed: boom",
		},
		"final mismatch": {
			Failure{Kind: Mismatch, Step: FinalStep, Method: "issuer", Want: "a", Got: "b"},
			"final state: unexpected issuer, want a, got b",
		},
		"unknown kind": {
			Failure{Kind: FailureKind(9), Err: errors.New("boom")},
			"FailureKind(9): boom",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if want, got := test.want, test.failure.Error(); want != got {
				t.Errorf("unexpected message, want %q, got %q", want, got)
			}
		})
	}
}
