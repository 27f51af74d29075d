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
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"go.uber.org/zap"
)

const (
	ErrUnknownMethod       = chain.ConstError("unknown method")
	ErrUnsupportedAccessor = chain.ConstError("accessor must return exactly one value")
)

// Runner executes test cases against fresh instances produced by a
// Deployer. A Runner is not safe for concurrent use; use one Runner per
// worker.
type Runner struct {
	deployer Deployer
	accounts []chain.Account
	logger   *zap.Logger
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner. The accounts are the ones referenced by
// accounts[N] in cases; the first is the default sender.
func NewRunner(deployer Deployer, accounts []chain.Account, options ...Option) *Runner {
	res := &Runner{
		deployer: deployer,
		accounts: append([]chain.Account(nil), accounts...),
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(res)
	}
	return res
}

// Execute runs the given case on a fresh instance. Steps run strictly in
// order, each settled before the next one starts. The first failing step
// or accessor aborts the case; mismatching values are recorded and the
// remaining assertions are still checked.
func (r *Runner) Execute(ctx context.Context, c Case) Result {
	start := time.Now()
	res := Result{Case: c.Name}
	defer func() {
		res.Duration = time.Since(start)
	}()
	logger := r.logger.With(zap.String("case", c.Name))

	instance, err := r.deployer.Deploy(ctx)
	if err != nil {
		logger.Warn("failed to deploy contract", zap.Error(err))
		res.Failures = append(res.Failures, Failure{Kind: SetupFailure, Step: FinalStep, Err: err})
		return res
	}
	res.Contract = instance.Address()
	logger = logger.With(zap.Stringer("contract", instance.Address()))
	logger.Debug("deployed contract")

	for i, step := range c.Steps {
		if !r.runStep(ctx, logger, instance, i, step, &res) {
			return res
		}
		if !r.check(ctx, logger, instance, i, step.Expect, &res) {
			return res
		}
	}
	r.check(ctx, logger, instance, FinalStep, c.Expect, &res)
	return res
}

func (r *Runner) runStep(ctx context.Context, logger *zap.Logger, instance Instance, index int, step Step, res *Result) bool {
	fail := func(kind FailureKind, want string, err error) bool {
		res.Failures = append(res.Failures, Failure{Kind: kind, Step: index, Method: step.Method, Want: want, Err: err})
		return false
	}

	sender := step.From
	if sender == "" {
		sender = DefaultSender
	}
	from, found, err := resolveAccount(sender, r.accounts)
	if err != nil {
		return fail(StepFailure, "", err)
	}
	if !found {
		return fail(StepFailure, "", fmt.Errorf("%w: sender %q", chain.ErrUnknownAccount, sender))
	}

	method, found := instance.ABI().Methods[step.Method]
	if !found {
		return fail(StepFailure, "", fmt.Errorf("%w: %s", ErrUnknownMethod, step.Method))
	}
	args, err := toArguments(method, step.Args, r.accounts)
	if err != nil {
		return fail(StepFailure, "", err)
	}

	receipt, err := instance.Invoke(ctx, from, step.Method, args...)
	if step.Reverts != "" {
		if err == nil {
			return fail(MissingRevert, step.Reverts, nil)
		}
		if !strings.Contains(err.Error(), step.Reverts) {
			return fail(StepFailure, step.Reverts, err)
		}
		logger.Debug("call reverted as expected", zap.String("method", step.Method), zap.Error(err))
		res.Steps = append(res.Steps, StepResult{Method: step.Method, From: from.Address, Reverted: true})
		return true
	}
	if err != nil {
		logger.Debug("call failed", zap.String("method", step.Method), zap.Error(err))
		return fail(StepFailure, "", err)
	}

	logger.Debug("call settled",
		zap.String("method", step.Method),
		zap.Stringer("from", from.Address),
		zap.Stringer("tx", receipt.TxHash),
		zap.Uint64("gas", receipt.GasUsed),
	)
	if ce := logger.Check(zap.DebugLevel, "receipt"); ce != nil {
		if data, err := json.Marshal(receipt); err == nil {
			ce.Write(zap.ByteString("json", data))
		}
	}
	res.Steps = append(res.Steps, StepResult{
		Method:  step.Method,
		From:    from.Address,
		TxHash:  receipt.TxHash,
		GasUsed: receipt.GasUsed,
	})
	return true
}

// check evaluates the given assertions and reports whether the case may
// continue.
func (r *Runner) check(ctx context.Context, logger *zap.Logger, instance Instance, index int, assertions []Assertion, res *Result) bool {
	for _, assertion := range assertions {
		want, got, err := r.read(ctx, instance, assertion)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Kind: ReadFailure, Step: index, Method: assertion.Accessor, Err: err})
			return false
		}
		logger.Debug("read value", zap.String("accessor", assertion.Accessor), zap.String("value", got))
		if want != got {
			res.Failures = append(res.Failures, Failure{
				Kind:   Mismatch,
				Step:   index,
				Method: assertion.Accessor,
				Want:   want,
				Got:    got,
			})
		}
	}
	return true
}

// read calls the accessor of the given assertion and returns the
// normalized expected and actual values.
func (r *Runner) read(ctx context.Context, instance Instance, assertion Assertion) (string, string, error) {
	method, found := instance.ABI().Methods[assertion.Accessor]
	if !found {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownMethod, assertion.Accessor)
	}
	if len(method.Outputs) != 1 {
		return "", "", fmt.Errorf("%w: %s returns %d values", ErrUnsupportedAccessor, method.Sig, len(method.Outputs))
	}
	outType := method.Outputs[0].Type

	want, err := normalizeLiteral(outType, assertion.Want, r.accounts)
	if err != nil {
		return "", "", fmt.Errorf("invalid expected value: %w", err)
	}
	args, err := toArguments(method, assertion.Args, r.accounts)
	if err != nil {
		return "", "", err
	}
	out, err := instance.Read(ctx, assertion.Accessor, args...)
	if err != nil {
		return "", "", err
	}
	if len(out) != 1 {
		return "", "", fmt.Errorf("%w: %s returned %d values", ErrUnsupportedAccessor, method.Sig, len(out))
	}
	got, err := normalize(outType, out[0])
	if err != nil {
		return "", "", err
	}
	return want, got, nil
}

// RunTest executes the given case and reports its failures on t. Setup
// failures are reported distinctly from assertion failures.
func RunTest(t testing.TB, runner *Runner, c Case) {
	t.Helper()
	res := runner.Execute(context.Background(), c)
	for _, failure := range res.Failures {
		switch failure.Kind {
		case SetupFailure:
			t.Fatalf("failed to set up case %q: %v", c.Name, failure.Err)
		case Mismatch:
			t.Errorf("%v", failure)
		default:
			t.Fatalf("%v", failure)
		}
	}
}
