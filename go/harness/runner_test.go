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
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/bubbleDevelop/gamecheck/go/contract/game"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"
)

func gameABI(t *testing.T) *abi.ABI {
	t.Helper()
	res, err := game.GameMetaData.GetAbi()
	if err != nil {
		t.Fatalf("failed to parse ABI: %v", err)
	}
	return res
}

// newMockSetup creates a runner deploying the returned mock instance.
func newMockSetup(t *testing.T) (*Runner, *MockInstance, []chain.Account) {
	ctrl := gomock.NewController(t)
	deployer := NewMockDeployer(ctrl)
	instance := NewMockInstance(ctrl)
	accounts := testAccounts(t, 3)

	deployer.EXPECT().Deploy(gomock.Any()).Return(instance, nil)
	instance.EXPECT().ABI().Return(gameABI(t)).AnyTimes()
	instance.EXPECT().Address().Return(common.Address{1}).AnyTimes()

	runner := NewRunner(deployer, accounts, WithLogger(zaptest.NewLogger(t)))
	return runner, instance, accounts
}

func receipt() *types.Receipt {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.Hash{2}, GasUsed: 21_000}
}

func TestRunner_SetupFailureIsReportedSeparately(t *testing.T) {
	ctrl := gomock.NewController(t)
	deployer := NewMockDeployer(ctrl)
	injected := errors.New("injected")
	deployer.EXPECT().Deploy(gomock.Any()).Return(nil, injected)

	runner := NewRunner(deployer, testAccounts(t, 1))
	res := runner.Execute(context.Background(), Case{
		Name:   "case",
		Steps:  []Step{{Method: "setIssuer", Args: []Literal{"accounts[0]"}}},
		Expect: []Assertion{{Accessor: "issuer", Want: "accounts[0]"}},
	})

	if !res.SetupFailed() {
		t.Fatalf("setup failure not reported: %v", res.Failures)
	}
	if want, got := 1, len(res.Failures); want != got {
		t.Fatalf("unexpected number of failures, want %d, got %d", want, got)
	}
	if !errors.Is(res.Failures[0], injected) {
		t.Errorf("unexpected error, want %v, got %v", injected, res.Failures[0].Err)
	}
	if want, got := "ERROR", strings.Fields(report(t, res))[0]; want != got {
		t.Errorf("unexpected report status, want %s, got %s", want, got)
	}
}

func TestRunner_StepsRunInOrderAndAreFollowedByTheirAssertions(t *testing.T) {
	runner, instance, accounts := newMockSetup(t)

	gomock.InOrder(
		instance.EXPECT().Invoke(gomock.Any(), accounts[0], "setIssuer", accounts[1].Address).Return(receipt(), nil),
		instance.EXPECT().Read(gomock.Any(), "issuer").Return([]any{accounts[1].Address}, nil),
		instance.EXPECT().Invoke(gomock.Any(), accounts[0], "setLineOfCredit", big.NewInt(123456)).Return(receipt(), nil),
		instance.EXPECT().Read(gomock.Any(), "lineOfCredit").Return([]any{big.NewInt(123456)}, nil),
		instance.EXPECT().Read(gomock.Any(), "issuer").Return([]any{accounts[1].Address}, nil),
	)

	res := runner.Execute(context.Background(), Case{
		Name: "concrete scenario",
		Steps: []Step{
			{
				Method: "setIssuer",
				Args:   []Literal{"accounts[1]"},
				Expect: []Assertion{{Accessor: "issuer", Want: "accounts[1]"}},
			},
			{
				Method: "setLineOfCredit",
				Args:   []Literal{"123456"},
				Expect: []Assertion{{Accessor: "lineOfCredit", Want: "123456"}},
			},
		},
		Expect: []Assertion{{Accessor: "issuer", Want: Literal(strings.ToLower(accounts[1].Address.Hex()))}},
	})

	if !res.Passed() {
		t.Errorf("unexpected failures: %v", res.Failures)
	}
	if want, got := 2, len(res.Steps); want != got {
		t.Errorf("unexpected number of steps, want %d, got %d", want, got)
	}
	if want, got := (common.Address{1}), res.Contract; want != got {
		t.Errorf("unexpected contract, want %v, got %v", want, got)
	}
}

func TestRunner_StepErrorsArePropagatedVerbatimAndAbortTheCase(t *testing.T) {
	runner, instance, accounts := newMockSetup(t)
	injected := errors.New("execution reverted: injected")
	instance.EXPECT().Invoke(gomock.Any(), accounts[0], "setIssuer", accounts[1].Address).Return(nil, injected)

	res := runner.Execute(context.Background(), Case{
		Name: "case",
		Steps: []Step{
			{Method: "setIssuer", Args: []Literal{"accounts[1]"}},
			{Method: "setLineOfCredit", Args: []Literal{"1"}},
		},
		Expect: []Assertion{{Accessor: "issuer", Want: "accounts[1]"}},
	})

	if want, got := 1, len(res.Failures); want != got {
		t.Fatalf("unexpected number of failures, want %d, got %d", want, got)
	}
	failure := res.Failures[0]
	if want, got := StepFailure, failure.Kind; want != got {
		t.Errorf("unexpected failure kind, want %v, got %v", want, got)
	}
	if want, got := injected, failure.Err; want != got {
		t.Errorf("error was not propagated verbatim, want %v, got %v", want, got)
	}
	if want, got := 0, failure.Step; want != got {
		t.Errorf("unexpected step, want %d, got %d", want, got)
	}
}

func TestRunner_MismatchReportsWantAndGotAndContinues(t *testing.T) {
	runner, instance, _ := newMockSetup(t)
	gomock.InOrder(
		instance.EXPECT().Read(gomock.Any(), "lineOfCredit").Return([]any{big.NewInt(5)}, nil),
		instance.EXPECT().Read(gomock.Any(), "position").Return([]any{big.NewInt(1)}, nil),
	)

	res := runner.Execute(context.Background(), Case{
		Name: "case",
		Expect: []Assertion{
			{Accessor: "lineOfCredit", Want: "0x6"},
			{Accessor: "position", Want: "1"},
		},
	})

	if want, got := 1, len(res.Failures); want != got {
		t.Fatalf("unexpected number of failures, want %d, got %d", want, got)
	}
	failure := res.Failures[0]
	if want, got := Mismatch, failure.Kind; want != got {
		t.Errorf("unexpected failure kind, want %v, got %v", want, got)
	}
	if want, got := "6", failure.Want; want != got {
		t.Errorf("unexpected wanted value, want %s, got %s", want, got)
	}
	if want, got := "5", failure.Got; want != got {
		t.Errorf("unexpected actual value, want %s, got %s", want, got)
	}
	if want, got := FinalStep, failure.Step; want != got {
		t.Errorf("unexpected step, want %d, got %d", want, got)
	}
	if want, got := "final state: unexpected lineOfCredit, want 6, got 5", failure.Error(); want != got {
		t.Errorf("unexpected message, want %q, got %q", want, got)
	}
}

func TestRunner_ReadErrorsAbortTheCase(t *testing.T) {
	runner, instance, _ := newMockSetup(t)
	injected := errors.New("injected")
	instance.EXPECT().Read(gomock.Any(), "lineOfCredit").Return(nil, injected)

	res := runner.Execute(context.Background(), Case{
		Name: "case",
		Expect: []Assertion{
			{Accessor: "lineOfCredit", Want: "1"},
			{Accessor: "position", Want: "1"},
		},
	})

	if want, got := 1, len(res.Failures); want != got {
		t.Fatalf("unexpected number of failures, want %d, got %d", want, got)
	}
	if want, got := ReadFailure, res.Failures[0].Kind; want != got {
		t.Errorf("unexpected failure kind, want %v, got %v", want, got)
	}
	if !errors.Is(res.Failures[0], injected) {
		t.Errorf("unexpected error, want %v, got %v", injected, res.Failures[0].Err)
	}
}

func TestRunner_RevertExpectations(t *testing.T) {
	tests := map[string]struct {
		err  error
		want []FailureKind
	}{
		"reverted with reason": {
			err: errors.New("execution reverted: Game: caller is not the owner"),
		},
		"reverted with other reason": {
			err:  errors.New("execution reverted: something else"),
			want: []FailureKind{StepFailure},
		},
		"succeeded": {
			want: []FailureKind{MissingRevert},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			runner, instance, accounts := newMockSetup(t)
			var res *types.Receipt
			if test.err == nil {
				res = receipt()
			}
			instance.EXPECT().Invoke(gomock.Any(), accounts[1], "setIssuer", accounts[1].Address).Return(res, test.err)
			if len(test.want) == 0 {
				instance.EXPECT().Read(gomock.Any(), "issuer").Return([]any{common.Address{}}, nil)
			}

			result := runner.Execute(context.Background(), Case{
				Name: "case",
				Steps: []Step{{
					Method:  "setIssuer",
					From:    "accounts[1]",
					Args:    []Literal{"accounts[1]"},
					Reverts: game.ReasonNotOwner,
				}},
				Expect: []Assertion{{Accessor: "issuer", Want: "0x0000000000000000000000000000000000000000"}},
			})

			got := []FailureKind{}
			for _, failure := range result.Failures {
				got = append(got, failure.Kind)
			}
			if want := test.want; fmt.Sprint(want) != fmt.Sprint(got) {
				t.Errorf("unexpected failures, want %v, got %v", want, got)
			}
		})
	}
}

func TestRunner_InvalidStepsFailWithoutInvokingTheContract(t *testing.T) {
	tests := map[string]struct {
		step Step
		want error
	}{
		"unknown method":  {Step{Method: "selfDestruct"}, ErrUnknownMethod},
		"unknown sender":  {Step{Method: "setIssuer", From: "accounts[7]", Args: []Literal{"accounts[0]"}}, chain.ErrUnknownAccount},
		"invalid sender":  {Step{Method: "setIssuer", From: "0x01", Args: []Literal{"accounts[0]"}}, chain.ErrUnknownAccount},
		"invalid literal": {Step{Method: "setLineOfCredit", Args: []Literal{"-1"}}, chain.ErrNegativeValue},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			runner, _, _ := newMockSetup(t)
			res := runner.Execute(context.Background(), Case{Name: "case", Steps: []Step{test.step}})
			if want, got := 1, len(res.Failures); want != got {
				t.Fatalf("unexpected number of failures, want %d, got %d", want, got)
			}
			if want, got := StepFailure, res.Failures[0].Kind; want != got {
				t.Errorf("unexpected failure kind, want %v, got %v", want, got)
			}
			if !errors.Is(res.Failures[0], test.want) {
				t.Errorf("unexpected error, want %v, got %v", test.want, res.Failures[0].Err)
			}
		})
	}
}

func TestRunner_InvalidAssertionsAreReadFailures(t *testing.T) {
	tests := map[string]struct {
		assertion Assertion
		want      error
	}{
		"unknown accessor":  {Assertion{Accessor: "balance", Want: "1"}, ErrUnknownMethod},
		"no result":         {Assertion{Accessor: "setIssuer", Args: []Literal{"accounts[0]"}, Want: "1"}, ErrUnsupportedAccessor},
		"invalid want":      {Assertion{Accessor: "lineOfCredit", Want: "lots"}, ErrInvalidLiteral},
		"unknown reference": {Assertion{Accessor: "issuer", Want: "accounts[9]"}, chain.ErrUnknownAccount},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			runner, _, _ := newMockSetup(t)
			res := runner.Execute(context.Background(), Case{Name: "case", Expect: []Assertion{test.assertion}})
			if want, got := 1, len(res.Failures); want != got {
				t.Fatalf("unexpected number of failures, want %d, got %d", want, got)
			}
			if want, got := ReadFailure, res.Failures[0].Kind; want != got {
				t.Errorf("unexpected failure kind, want %v, got %v", want, got)
			}
			if !errors.Is(res.Failures[0], test.want) {
				t.Errorf("unexpected error, want %v, got %v", test.want, res.Failures[0].Err)
			}
		})
	}
}

func TestRunner_MalformedAccessorResultsAreReadFailures(t *testing.T) {
	runner, instance, _ := newMockSetup(t)
	instance.EXPECT().Read(gomock.Any(), "lineOfCredit").Return([]any{}, nil)

	res := runner.Execute(context.Background(), Case{
		Name:   "case",
		Expect: []Assertion{{Accessor: "lineOfCredit", Want: "1"}},
	})
	if want, got := 1, len(res.Failures); want != got {
		t.Fatalf("unexpected number of failures, want %d, got %d", want, got)
	}
	if !errors.Is(res.Failures[0], ErrUnsupportedAccessor) {
		t.Errorf("unexpected error, want %v, got %v", ErrUnsupportedAccessor, res.Failures[0].Err)
	}
}

// recordingTB captures reports of RunTest instead of failing the test.
type recordingTB struct {
	testing.TB
	errors []string
	fatals []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.fatals = append(r.fatals, fmt.Sprintf(format, args...))
}

func TestRunTest_SetupFailuresAreFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	deployer := NewMockDeployer(ctrl)
	deployer.EXPECT().Deploy(gomock.Any()).Return(nil, errors.New("no funds"))

	tb := &recordingTB{}
	RunTest(tb, NewRunner(deployer, nil), Case{Name: "case", Expect: []Assertion{{Accessor: "issuer", Want: "1"}}})

	if want, got := 0, len(tb.errors); want != got {
		t.Errorf("unexpected number of errors, want %d, got %d", want, got)
	}
	if want, got := 1, len(tb.fatals); want != got {
		t.Fatalf("unexpected number of fatal reports, want %d, got %d", want, got)
	}
	if !strings.Contains(tb.fatals[0], "failed to set up") || !strings.Contains(tb.fatals[0], "no funds") {
		t.Errorf("unexpected report: %s", tb.fatals[0])
	}
}

func TestRunTest_MismatchesAreErrors(t *testing.T) {
	runner, instance, _ := newMockSetup(t)
	instance.EXPECT().Read(gomock.Any(), "lineOfCredit").Return([]any{big.NewInt(5)}, nil)
	instance.EXPECT().Read(gomock.Any(), "position").Return([]any{big.NewInt(5)}, nil)

	tb := &recordingTB{}
	RunTest(tb, runner, Case{Name: "case", Expect: []Assertion{
		{Accessor: "lineOfCredit", Want: "6"},
		{Accessor: "position", Want: "7"},
	}})

	if want, got := 2, len(tb.errors); want != got {
		t.Errorf("unexpected number of errors, want %d, got %d", want, got)
	}
	if want, got := 0, len(tb.fatals); want != got {
		t.Errorf("unexpected number of fatal reports, want %d, got %d", want, got)
	}
}
