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
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/exp/maps"
)

// Backend is a connection to a chain able to deploy and call contracts.
// Implementations differ in how a sent transaction becomes part of the
// chain, which is abstracted by Settle.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.ChainIDReader

	// Settle blocks until the given transaction is included in the chain
	// and returns its receipt. The receipt is returned regardless of the
	// execution status of the transaction.
	Settle(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

	// Close releases all resources held by the backend.
	Close() error
}

// This file provides a registry for Backend implementations.
//
// Implementations register a factory in the init code of their package.
// Thus, by including the implementation package, the backend becomes
// available by name in this central registry.

// BackendFactory is the type of a function that creates a new Backend using
// a backend specific configuration.
type BackendFactory func(config any) (Backend, error)

// NewBackend performs a lookup for the given name (case-insensitive) in the
// registry and creates a new Backend using the given configuration. An error
// is returned if no factory was registered under the given name.
func NewBackend(name string, config any) (Backend, error) {
	factory := GetBackendFactory(name)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s, use one of %v", ErrBackendNotFound, name, maps.Keys(GetAllRegisteredBackends()))
	}
	return factory(config)
}

// GetBackendFactory performs a lookup for the given name (case-insensitive)
// in the registry. The result is nil if no factory was registered under the
// given name.
func GetBackendFactory(name string) BackendFactory {
	backendRegistryLock.Lock()
	defer backendRegistryLock.Unlock()
	return backendRegistry[strings.ToLower(name)]
}

// GetAllRegisteredBackends obtains all registered implementations.
func GetAllRegisteredBackends() map[string]BackendFactory {
	backendRegistryLock.Lock()
	defer backendRegistryLock.Unlock()
	return maps.Clone(backendRegistry)
}

// RegisterBackendFactory registers a new Backend implementation under the
// given name. The name is not case-sensitive. An error is returned if a
// factory was bound to the same name before, or the factory is nil.
func RegisterBackendFactory(name string, factory BackendFactory) error {
	key := strings.ToLower(name)
	if factory == nil {
		return fmt.Errorf("invalid initialization: cannot register nil-factory using `%s`", key)
	}
	backendRegistryLock.Lock()
	defer backendRegistryLock.Unlock()
	if _, found := backendRegistry[key]; found {
		return fmt.Errorf("invalid initialization: multiple factories registered for `%s`", key)
	}
	backendRegistry[key] = factory
	return nil
}

// backendRegistry is a global registry for Backend factories.
var backendRegistry = map[string]BackendFactory{}

// backendRegistryLock to protect access to the registry.
var backendRegistryLock sync.Mutex
