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
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is an externally owned account usable to sign transactions.
type Account struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
}

func (a Account) String() string {
	return a.Address.Hex()
}

// NewAccount wraps the given private key into an account.
func NewAccount(key *ecdsa.PrivateKey) Account {
	return Account{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Key:     key,
	}
}

// AccountFromHex creates an account from a hex encoded private key, with or
// without 0x prefix.
func AccountFromHex(hexKey string) (Account, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return Account{}, fmt.Errorf("invalid private key: %w", err)
	}
	return NewAccount(key), nil
}

// DeriveAccounts produces n accounts whose keys are derived deterministically
// from the given seed. The same seed always yields the same accounts, which
// makes addresses in test reports reproducible.
func DeriveAccounts(seed uint64, n int) ([]Account, error) {
	res := make([]Account, 0, n)
	for i := 0; i < n; i++ {
		key, err := deriveKey(seed, uint64(i))
		if err != nil {
			return nil, fmt.Errorf("failed to derive account %d: %w", i, err)
		}
		res = append(res, NewAccount(key))
	}
	return res, nil
}

func deriveKey(seed, index uint64) (*ecdsa.PrivateKey, error) {
	var input [8 + 8 + 8]byte
	binary.BigEndian.PutUint64(input[0:8], seed)
	binary.BigEndian.PutUint64(input[8:16], index)
	// A hash outside the valid scalar range is practically impossible, but it
	// is handled by rehashing with an incremented attempt counter.
	for attempt := uint64(0); attempt < 16; attempt++ {
		binary.BigEndian.PutUint64(input[16:24], attempt)
		key, err := crypto.ToECDSA(crypto.Keccak256([]byte("gamecheck/account"), input[:]))
		if err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("no valid key for seed %d and index %d", seed, index)
}
