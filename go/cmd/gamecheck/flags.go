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
	"os"
	"regexp"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
)

type backendFlagType struct {
	cli.StringFlag
}

var BackendFlag = &backendFlagType{
	cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Usage:   "chain backend the cases are executed on",
		Value:   "simulated",
	},
}

func (f *backendFlagType) Fetch(context *cli.Context) (string, error) {
	name := strings.ToLower(context.String(f.Name))
	if chain.GetBackendFactory(name) == nil {
		available := maps.Keys(chain.GetAllRegisteredBackends())
		sort.Strings(available)
		return "", fmt.Errorf("unknown backend %q, available: %v", name, available)
	}
	return name, nil
}

type urlFlagType struct {
	cli.StringFlag
}

var UrlFlag = &urlFlagType{
	cli.StringFlag{
		Name:  "url",
		Usage: "endpoint of the node used by the rpc backend",
		Value: "http://localhost:8545",
	},
}

func (f *urlFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type keysFlagType struct {
	cli.StringSliceFlag
}

var KeysFlag = &keysFlagType{
	cli.StringSliceFlag{
		Name:  "keys",
		Usage: "hex encoded private keys of funded accounts, required by the rpc backend",
	},
}

func (f *keysFlagType) Fetch(context *cli.Context) ([]chain.Account, error) {
	var res []chain.Account
	for _, key := range context.StringSlice(f.Name) {
		account, err := chain.AccountFromHex(key)
		if err != nil {
			return nil, err
		}
		res = append(res, account)
	}
	return res, nil
}

type accountsFlagType struct {
	cli.IntFlag
}

var AccountsFlag = &accountsFlagType{
	cli.IntFlag{
		Name:    "accounts",
		Aliases: []string{"n"},
		Usage:   "number of accounts derived from the seed",
		Value:   3,
	},
}

func (f *accountsFlagType) Fetch(context *cli.Context) (int, error) {
	n := context.Int(f.Name)
	if n < 1 {
		return 0, fmt.Errorf("at least one account is required, got %d", n)
	}
	return n, nil
}

type filterFlagType struct {
	cli.StringFlag
}

var FilterFlag = &filterFlagType{
	cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "execute only cases which name matches the given regex",
		Value:   "",
	},
}

func (f *filterFlagType) Fetch(context *cli.Context) (*regexp.Regexp, error) {
	return regexp.Compile(context.String(f.Name))
}

type jobsFlagType struct {
	cli.IntFlag
}

var JobsFlag = &jobsFlagType{
	cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of cases run simultaneously",
		Value:   runtime.NumCPU(),
	},
}

func (f *jobsFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

type seedFlagType struct {
	cli.Uint64Flag
}

var SeedFlag = &seedFlagType{
	cli.Uint64Flag{
		Name:    "seed",
		Aliases: []string{"s"},
		Usage:   "seed for deriving the accounts of the simulated backend",
	},
}

func (f *seedFlagType) Fetch(context *cli.Context) uint64 {
	return context.Uint64(f.Name)
}

type verboseFlagType struct {
	cli.BoolFlag
}

var VerboseFlag = &verboseFlagType{
	cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "report contract addresses and executed transactions of every case",
	},
}

func (f *verboseFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

type logLevelFlagType struct {
	cli.StringFlag
}

var LogLevelFlag = &logLevelFlagType{
	cli.StringFlag{
		Name:  "log-level",
		Usage: "logging level, one of debug, info, warn or error",
		Value: "warn",
	},
}

func (f *logLevelFlagType) Fetch(context *cli.Context) string {
	return strings.ToLower(context.String(f.Name))
}

type logFormatFlagType struct {
	cli.StringFlag
}

var LogFormatFlag = &logFormatFlagType{
	cli.StringFlag{
		Name:  "log-format",
		Usage: "format of log lines, console or json",
		Value: "console",
	},
}

func (f *logFormatFlagType) Fetch(context *cli.Context) string {
	return strings.ToLower(context.String(f.Name))
}

type cpuProfileType struct {
	cli.StringFlag
}

var CpuProfileFlag = &cpuProfileType{
	cli.StringFlag{
		Name:      "cpuprofile",
		Usage:     "store CPU profile in the provided filename",
		TakesFile: true,
	},
}

func (f *cpuProfileType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

var commonFlags = []cli.Flag{
	CpuProfileFlag,
	LogLevelFlag,
	LogFormatFlag,
}

// addCommonFlags extends the given command by the profiling and logging
// flags and starts the CPU profiler around its action if requested.
func addCommonFlags(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, commonFlags...)

	action := command.Action
	command.Action = func(ctx *cli.Context) error {
		if filename := CpuProfileFlag.Fetch(ctx); filename != "" {
			f, err := os.Create(filename)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}
		return action(ctx)
	}
	return command
}
