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
)

// Snapshot maps the zero-argument accessors of an instance to their
// normalized values.
type Snapshot map[string]string

// TakeSnapshot reads all zero-argument, single-result view methods of the
// given instance.
func TakeSnapshot(ctx context.Context, instance Instance) (Snapshot, error) {
	res := Snapshot{}
	for name, method := range instance.ABI().Methods {
		if !method.IsConstant() || len(method.Inputs) != 0 || len(method.Outputs) != 1 {
			continue
		}
		out, err := instance.Read(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(out) != 1 {
			return nil, fmt.Errorf("%w: %s returned %d values", ErrUnsupportedAccessor, name, len(out))
		}
		value, err := normalize(method.Outputs[0].Type, out[0])
		if err != nil {
			return nil, fmt.Errorf("failed to normalize %s: %w", name, err)
		}
		res[name] = value
	}
	return res, nil
}

func (s Snapshot) Equal(other Snapshot) bool {
	return equalMaps(s, other, func(a, b string) bool { return a == b })
}

func (s Snapshot) Diff(other Snapshot) []string {
	return diffMaps("", s, other, func(name string, a, b string) []string {
		if a == b {
			return nil
		}
		return []string{fmt.Sprintf("different value of %s: %s != %s", name, a, b)}
	})
}

func equalMaps[K comparable, V any](a, b map[K]V, equal func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, found := b[k]
		if !found || !equal(v, w) {
			return false
		}
	}
	return true
}

// diffMaps lists the differences of two maps, in no particular order.
func diffMaps[K comparable, V any](prefix string, a, b map[K]V, diff func(K, V, V) []string) []string {
	var diffs []string
	for k, v := range a {
		diffs = append(diffs, diff(k, v, b[k])...)
	}
	for k, v := range b {
		if _, overlap := a[k]; !overlap {
			diffs = append(diffs, diff(k, a[k], v)...)
		}
	}
	for i, diff := range diffs {
		diffs[i] = prefix + diff
	}
	return diffs
}
