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
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/bubbleDevelop/gamecheck/go/chain/rpc"
	"github.com/bubbleDevelop/gamecheck/go/chain/simulated"
	"github.com/bubbleDevelop/gamecheck/go/contract/game"
	"github.com/bubbleDevelop/gamecheck/go/harness"
	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var RunCmd = addCommonFlags(cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Run state assertion cases against freshly deployed Game contracts",
	ArgsUsage: "[suite files...]",
	Flags: []cli.Flag{
		BackendFlag,
		UrlFlag,
		KeysFlag,
		AccountsFlag,
		SeedFlag,
		JobsFlag,
		FilterFlag,
		VerboseFlag,
	},
})

const progressInterval = 15 * time.Second

func doRun(context *cli.Context) error {
	// Log lines and progress reports share the error output.
	errOut := zapcore.Lock(zapcore.AddSync(context.App.ErrWriter))
	logger, err := newLogger(LogLevelFlag.Fetch(context), LogFormatFlag.Fetch(context), errOut)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cases, err := selectCases(context)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no cases selected")
	}

	factory, jobs, err := newRunnerFactory(context, logger)
	if err != nil {
		return err
	}

	out := context.App.Writer
	start := time.Now()
	var done, failed atomic.Int64
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				elapsed := time.Since(start)
				fmt.Fprintf(errOut, "[t=%4d:%02d] - Processed %d of %d cases, %d failed\n",
					int(elapsed.Minutes()), int(elapsed.Seconds())%60, done.Load(), len(cases), failed.Load(),
				)
			}
		}
	}()

	results, err := harness.RunSuite(context.Context, cases, harness.SuiteConfig{
		Jobs:      jobs,
		NewRunner: factory,
		OnResult: func(res harness.Result) {
			done.Add(1)
			if !res.Passed() {
				failed.Add(1)
			}
			logger.Info("case finished",
				zap.String("case", res.Case),
				zap.Bool("passed", res.Passed()),
				zap.Duration("duration", res.Duration),
			)
		},
	})
	close(stop)
	<-stopped
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := harness.WriteReport(out, results, VerboseFlag.Fetch(context)); err != nil {
		return err
	}
	summary := harness.Summarize(results)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(len(results)) / elapsed.Seconds()
	}
	fmt.Fprintf(out, "Ran %d cases in %v (~%s cases per second)\n",
		len(results), elapsed.Round(time.Millisecond), unitconv.FormatPrefix(rate, unitconv.SI, 0),
	)

	if summary.Failed+summary.SetupErrors > 0 {
		return fmt.Errorf("failed to pass %d of %d cases", summary.Failed+summary.SetupErrors, summary.Total())
	}
	return nil
}

// newRunnerFactory creates the factory producing one runner per worker
// together with the number of workers usable with the selected backend.
func newRunnerFactory(cliCtx *cli.Context, logger *zap.Logger) (harness.RunnerFactory, int, error) {
	name, err := BackendFlag.Fetch(cliCtx)
	if err != nil {
		return nil, 0, err
	}
	jobs := JobsFlag.Fetch(cliCtx)

	var accounts []chain.Account
	var config any
	switch name {
	case simulated.Name:
		n, err := AccountsFlag.Fetch(cliCtx)
		if err != nil {
			return nil, 0, err
		}
		accounts, err = chain.DeriveAccounts(SeedFlag.Fetch(cliCtx), n)
		if err != nil {
			return nil, 0, err
		}
		config = simulated.Config{Accounts: accounts}
	case rpc.Name:
		accounts, err = KeysFlag.Fetch(cliCtx)
		if err != nil {
			return nil, 0, err
		}
		if len(accounts) == 0 {
			return nil, 0, fmt.Errorf("the %s backend requires at least one key", name)
		}
		config = rpc.Config{URL: UrlFlag.Fetch(cliCtx)}
		// Workers on a shared node would race for the nonces of the same accounts.
		if jobs > 1 {
			logger.Warn("running cases sequentially on the rpc backend", zap.Int("jobs", jobs))
			jobs = 1
		}
	default:
		return nil, 0, fmt.Errorf("backend %q is not supported by this driver", name)
	}

	logger.Info("using backend",
		zap.String("backend", name),
		zap.Int("accounts", len(accounts)),
		zap.Int("jobs", jobs),
	)

	factory := func(ctx context.Context) (*harness.Runner, func(), error) {
		backend, err := chain.NewBackend(name, config)
		if err != nil {
			return nil, nil, err
		}
		c, err := chain.NewChain(ctx, backend, accounts)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		deployer, err := harness.NewContractDeployer(c, game.GameMetaData)
		if err != nil {
			c.Close()
			return nil, nil, err
		}
		release := func() {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close chain", zap.Error(err))
			}
		}
		return harness.NewRunner(deployer, accounts, harness.WithLogger(logger)), release, nil
	}
	return factory, jobs, nil
}

// selectCases loads the suites named on the command line, or the built-in
// Game suite if there are none, and returns the cases passing the filter.
// Cases of multiple suites are qualified by their suite's name.
func selectCases(context *cli.Context) ([]harness.Case, error) {
	filter, err := FilterFlag.Fetch(context)
	if err != nil {
		return nil, err
	}
	suites, err := loadSuites(context.Args().Slice())
	if err != nil {
		return nil, err
	}

	var cases []harness.Case
	for _, suite := range suites {
		for _, c := range suite.Cases {
			if len(suites) > 1 {
				c.Name = suite.Name + "/" + c.Name
			}
			cases = append(cases, c)
		}
	}
	return harness.Filter(cases, filter), nil
}

func loadSuites(paths []string) ([]*harness.Suite, error) {
	if len(paths) == 0 {
		suite, err := harness.ParseSuite(game.DefaultSuite, harness.FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("invalid built-in suite: %w", err)
		}
		return []*harness.Suite{suite}, nil
	}
	res := make([]*harness.Suite, 0, len(paths))
	for _, path := range paths {
		suite, err := harness.LoadSuite(path)
		if err != nil {
			return nil, err
		}
		res = append(res, suite)
	}
	return res, nil
}
