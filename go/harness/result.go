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
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FinalStep is the step index of failures of the assertions checked after
// the last step of a case.
const FinalStep = -1

// FailureKind classifies failures of a test case.
type FailureKind int

const (
	// SetupFailure indicates that no contract instance could be obtained.
	SetupFailure FailureKind = iota
	// StepFailure indicates that a mutating call failed.
	StepFailure
	// ReadFailure indicates that an accessor could not be called or its
	// expected value could not be interpreted.
	ReadFailure
	// Mismatch indicates that an accessor returned an unexpected value.
	Mismatch
	// MissingRevert indicates that a call expected to fail succeeded.
	MissingRevert
)

func (k FailureKind) String() string {
	switch k {
	case SetupFailure:
		return "setup failure"
	case StepFailure:
		return "step failure"
	case ReadFailure:
		return "read failure"
	case Mismatch:
		return "mismatch"
	case MissingRevert:
		return "missing revert"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure describes a single problem encountered while running a case.
type Failure struct {
	Kind   FailureKind
	Step   int // index of the step, or FinalStep
	Method string
	Want   string
	Got    string
	Err    error
}

func (f Failure) Error() string {
	switch f.Kind {
	case SetupFailure:
		return fmt.Sprintf("setup failed: %v", f.Err)
	case StepFailure:
		return fmt.Sprintf("%s: %s failed: %v", f.location(), f.Method, f.Err)
	case ReadFailure:
		return fmt.Sprintf("%s: reading %s failed: %v", f.location(), f.Method, f.Err)
	case Mismatch:
		return fmt.Sprintf("%s: unexpected %s, want %s, got %s", f.location(), f.Method, f.Want, f.Got)
	case MissingRevert:
		return fmt.Sprintf("%s: %s succeeded, want revert containing %q", f.location(), f.Method, f.Want)
	}
	return fmt.Sprintf("%v: %v", f.Kind, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

func (f Failure) location() string {
	if f.Step == FinalStep {
		return "final state"
	}
	return fmt.Sprintf("step %d", f.Step+1)
}

// StepResult records a settled transaction of a step.
type StepResult struct {
	Method   string
	From     common.Address
	TxHash   common.Hash
	GasUsed  uint64
	Reverted bool
}

// Result is the outcome of running a single case.
type Result struct {
	Case     string
	Contract common.Address
	Steps    []StepResult
	Failures []Failure
	Duration time.Duration
}

func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// SetupFailed reports whether the case could not be started at all.
func (r *Result) SetupFailed() bool {
	return len(r.Failures) > 0 && r.Failures[0].Kind == SetupFailure
}
