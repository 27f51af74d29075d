// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package harness runs contract state-assertion tests: every test case gets
// a freshly deployed contract instance, applies an ordered list of mutating
// calls, and compares the values returned by the contract's accessors with
// expected literals.
package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSender is the account sending transactions of steps not naming an
// explicit sender. It is also the account deploying contract instances.
const DefaultSender = "accounts[0]"

// Case is a single test case. Steps are applied in order; Expect is checked
// after the last step.
type Case struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step      `yaml:"steps,omitempty" json:"steps,omitempty"`
	Expect      []Assertion `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Step is the invocation of a mutating contract method.
type Step struct {
	Method string    `yaml:"method" json:"method"`
	From   string    `yaml:"from,omitempty" json:"from,omitempty"`
	Args   []Literal `yaml:"args,omitempty" json:"args,omitempty"`

	// Reverts, if set, requires the invocation to fail with an error
	// containing the given text.
	Reverts string `yaml:"reverts,omitempty" json:"reverts,omitempty"`

	// Expect is checked right after this step.
	Expect []Assertion `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Assertion requires the given accessor to return Want.
type Assertion struct {
	Accessor string    `yaml:"accessor" json:"accessor"`
	Args     []Literal `yaml:"args,omitempty" json:"args,omitempty"`
	Want     Literal   `yaml:"want" json:"want"`
}

// Literal is the textual form of an argument or expected value. Numbers may
// be given in decimal or 0x-prefixed hex; accounts[N] refers to the N-th
// account of the environment.
type Literal string

func (l *Literal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*l = Literal(node.Value)
	return nil
}

func (l *Literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Literal(s)
		return nil
	}
	// numbers and booleans keep their literal text
	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		*l = Literal(number)
		return nil
	}
	var flag bool
	if err := json.Unmarshal(data, &flag); err != nil {
		return fmt.Errorf("expected a string, number, or boolean, got %s", data)
	}
	*l = Literal(string(data))
	return nil
}

func (c *Case) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Steps) == 0 && len(c.Expect) == 0 {
		return fmt.Errorf("case %q: neither steps nor expectations", c.Name)
	}
	for i, step := range c.Steps {
		if step.Method == "" {
			return fmt.Errorf("case %q, step %d: method is required", c.Name, i+1)
		}
		if err := validateAssertions(step.Expect); err != nil {
			return fmt.Errorf("case %q, step %d: %w", c.Name, i+1, err)
		}
	}
	if err := validateAssertions(c.Expect); err != nil {
		return fmt.Errorf("case %q: %w", c.Name, err)
	}
	return nil
}

func validateAssertions(assertions []Assertion) error {
	for _, a := range assertions {
		if a.Accessor == "" {
			return fmt.Errorf("accessor is required")
		}
	}
	return nil
}

// Filter returns the cases whose names match the given pattern.
func Filter(cases []Case, pattern *regexp.Regexp) []Case {
	if pattern == nil {
		return cases
	}
	res := []Case{}
	for _, c := range cases {
		if pattern.MatchString(c.Name) {
			res = append(res, c)
		}
	}
	return res
}
