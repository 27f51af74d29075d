// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Value is the canonical numeric representation used when comparing numbers
// produced by contracts. It is a 256-bit unsigned integer in big-endian
// order, matching the width of the EVM word. All conversions into a Value
// are checked; a number that does not fit is reported as an error instead of
// being truncated.
type Value [32]byte

// NewValue creates a new Value instance from up to 4 uint64 arguments. The
// arguments are given in the order from most significant to least significant
// by padding leading zeros as needed. No argument results in a value of zero.
func NewValue(args ...uint64) (result Value) {
	if len(args) > 4 {
		panic("Too many arguments")
	}
	offset := 4 - len(args)
	for i := 0; i < len(args); i++ {
		start := (offset * 8) + i*8
		binary.BigEndian.PutUint64(result[start:start+8], args[i])
	}
	return
}

// ValueFromUint256 converts a *uint256.Int to a Value.
// If the input is nil, it returns 0.
func ValueFromUint256(value *uint256.Int) (result Value) {
	if value == nil {
		return result
	}
	return value.Bytes32()
}

// ValueFromBig converts a big integer into a Value. Negative values and
// values exceeding 256 bits are rejected.
func ValueFromBig(value *big.Int) (Value, error) {
	var res Value
	if value == nil {
		return res, fmt.Errorf("%w: nil", ErrInvalidValue)
	}
	if value.Sign() < 0 {
		return res, fmt.Errorf("%w: %v", ErrNegativeValue, value)
	}
	if value.BitLen() > 256 {
		return res, fmt.Errorf("%w: %v", ErrValueOverflow, value)
	}
	value.FillBytes(res[:])
	return res, nil
}

// ParseValue parses a decimal or 0x-prefixed hexadecimal number.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	if digits == "" {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	parsed, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	return ValueFromBig(parsed)
}

func (v Value) ToBig() *big.Int {
	return new(big.Int).SetBytes(v[:])
}

func (v Value) ToUint256() *uint256.Int {
	return new(uint256.Int).SetBytes(v[:])
}

// Uint64 returns the value as a uint64, failing if it does not fit.
func (v Value) Uint64() (uint64, error) {
	u := v.ToUint256()
	if !u.IsUint64() {
		return 0, fmt.Errorf("%w: %v does not fit into 64 bits", ErrValueOverflow, v)
	}
	return u.Uint64(), nil
}

func (v Value) IsZero() bool {
	return v == Value{}
}

func (v Value) Cmp(o Value) int {
	return bytes.Compare(v[:], o[:])
}

// String returns the decimal representation of the value.
func (v Value) String() string {
	return v.ToBig().String()
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalText(data []byte) error {
	res, err := ParseValue(string(data))
	if err != nil {
		return err
	}
	*v = res
	return nil
}
