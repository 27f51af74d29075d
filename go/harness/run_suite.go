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
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunnerFactory creates a runner for one worker together with a function
// releasing its resources.
type RunnerFactory func(ctx context.Context) (*Runner, func(), error)

type SuiteConfig struct {
	// Jobs is the number of cases run in parallel; values < 1 mean 1.
	Jobs int
	// NewRunner is called once per worker.
	NewRunner RunnerFactory
	// OnResult, if set, is called for every finished case. Calls may
	// happen concurrently.
	OnResult func(Result)
}

// RunSuite runs the given cases on config.Jobs workers, each owning its own
// runner. Results are returned in the order of the cases.
func RunSuite(ctx context.Context, cases []Case, config SuiteConfig) ([]Result, error) {
	if config.NewRunner == nil {
		return nil, fmt.Errorf("no runner factory")
	}
	jobs := max(config.Jobs, 1)
	jobs = min(jobs, max(len(cases), 1))

	results := make([]Result, len(cases))
	next := make(chan int)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(next)
		for i := range cases {
			select {
			case next <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for worker := 0; worker < jobs; worker++ {
		group.Go(func() error {
			runner, release, err := config.NewRunner(ctx)
			if err != nil {
				return fmt.Errorf("failed to create runner: %w", err)
			}
			if release != nil {
				defer release()
			}
			for i := range next {
				results[i] = runner.Execute(ctx, cases[i])
				if config.OnResult != nil {
					config.OnResult(results[i])
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
