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
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/bubbleDevelop/gamecheck/go/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	ErrUnsupportedType = chain.ConstError("unsupported ABI type")
	ErrInvalidLiteral  = chain.ConstError("invalid literal")
)

var accountReference = regexp.MustCompile(`^accounts\[(\d+)\]$`)

// resolveAccount interprets references of the form accounts[N].
func resolveAccount(literal string, accounts []chain.Account) (chain.Account, bool, error) {
	match := accountReference.FindStringSubmatch(strings.TrimSpace(literal))
	if match == nil {
		return chain.Account{}, false, nil
	}
	index, err := strconv.Atoi(match[1])
	if err != nil || index >= len(accounts) {
		return chain.Account{}, true, fmt.Errorf("%w: %s, have %d accounts", chain.ErrUnknownAccount, literal, len(accounts))
	}
	return accounts[index], true, nil
}

// toArgument converts a literal into the Go value the ABI encoder expects
// for the given type. No conversion truncates.
func toArgument(typ abi.Type, literal Literal, accounts []chain.Account) (any, error) {
	text := strings.TrimSpace(string(literal))
	switch typ.T {
	case abi.AddressTy:
		if account, found, err := resolveAccount(text, accounts); found {
			return account.Address, err
		}
		if !common.IsHexAddress(text) {
			return nil, fmt.Errorf("%w: %q is not an address", ErrInvalidLiteral, text)
		}
		return common.HexToAddress(text), nil

	case abi.UintTy:
		value, err := chain.ParseValue(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidLiteral, text, err)
		}
		if value.ToBig().BitLen() > typ.Size {
			return nil, fmt.Errorf("%w: %s does not fit into %v", chain.ErrValueOverflow, text, typ)
		}
		return fitUint(typ, value)

	case abi.IntTy:
		value, ok := new(big.Int).SetString(text, 0)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidLiteral, text)
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
		if value.Cmp(limit) >= 0 || value.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%w: %s does not fit into %v", chain.ErrValueOverflow, text, typ)
		}
		return fitInt(typ, value), nil

	case abi.BoolTy:
		value, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidLiteral, text)
		}
		return value, nil

	case abi.StringTy:
		return string(literal), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, typ)
}

func fitUint(typ abi.Type, value chain.Value) (any, error) {
	if typ.Size > 64 {
		return value.ToBig(), nil
	}
	v, err := value.Uint64()
	if err != nil {
		return nil, err
	}
	switch typ.Size {
	case 8:
		return uint8(v), nil
	case 16:
		return uint16(v), nil
	case 32:
		return uint32(v), nil
	case 64:
		return v, nil
	}
	return value.ToBig(), nil
}

func fitInt(typ abi.Type, value *big.Int) any {
	switch typ.Size {
	case 8:
		return int8(value.Int64())
	case 16:
		return int16(value.Int64())
	case 32:
		return int32(value.Int64())
	case 64:
		return value.Int64()
	}
	return value
}

// normalize renders a decoded ABI value in canonical form: numbers in
// decimal, addresses as checksummed hex.
func normalize(typ abi.Type, value any) (string, error) {
	switch typ.T {
	case abi.AddressTy:
		address, ok := value.(common.Address)
		if !ok {
			return "", fmt.Errorf("%w: %T for %v", ErrUnsupportedType, value, typ)
		}
		return address.Hex(), nil

	case abi.UintTy:
		number, err := toBig(value)
		if err != nil {
			return "", err
		}
		converted, err := chain.ValueFromBig(number)
		if err != nil {
			return "", err
		}
		return converted.String(), nil

	case abi.IntTy:
		number, err := toBig(value)
		if err != nil {
			return "", err
		}
		return number.String(), nil

	case abi.BoolTy:
		flag, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("%w: %T for %v", ErrUnsupportedType, value, typ)
		}
		return strconv.FormatBool(flag), nil

	case abi.StringTy:
		text, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%w: %T for %v", ErrUnsupportedType, value, typ)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: %v", ErrUnsupportedType, typ)
}

// normalizeLiteral renders an expected value in the same canonical form as
// normalize does for decoded values.
func normalizeLiteral(typ abi.Type, literal Literal, accounts []chain.Account) (string, error) {
	value, err := toArgument(typ, literal, accounts)
	if err != nil {
		return "", err
	}
	return normalize(typ, value)
}

func toBig(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("%w: nil number", ErrInvalidLiteral)
		}
		return v, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	}
	return nil, fmt.Errorf("%w: %T is not a number", ErrUnsupportedType, value)
}

// toArguments converts the literal arguments of a call of the given method.
func toArguments(method abi.Method, literals []Literal, accounts []chain.Account) ([]any, error) {
	if want, got := len(method.Inputs), len(literals); want != got {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", method.Sig, want, got)
	}
	res := make([]any, len(literals))
	for i, literal := range literals {
		arg, err := toArgument(method.Inputs[i].Type, literal, accounts)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i+1, method.Sig, err)
		}
		res[i] = arg
	}
	return res, nil
}
