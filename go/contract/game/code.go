// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package game

import (
	"fmt"

	"github.com/bubbleDevelop/gamecheck/go/evm/asm"
)

// Storage layout of the Game contract.
const (
	ownerSlot = iota
	issuerSlot
	lineOfCreditSlot
	positionSlot
)

const (
	ReasonNotOwner = "Game: caller is not the owner"
	ReasonOverflow = "Game: line of credit overflow"
)

const (
	issuerChangedEvent       = "IssuerChanged(address)"
	lineOfCreditChangedEvent = "LineOfCreditChanged(uint256)"
	playerMovedEvent         = "PlayerMoved(address,uint256)"
)

// function is an entry point of the contract dispatched by its selector.
type function struct {
	signature string
	body      func(p *asm.Program, label string)
}

var functions = []function{
	{"owner()", getter(ownerSlot)},
	{"issuer()", getter(issuerSlot)},
	{"lineOfCredit()", getter(lineOfCreditSlot)},
	{"position()", getter(positionSlot)},
	{"setIssuer(address)", setIssuer},
	{"setLineOfCredit(uint256)", setLineOfCredit},
	{"addLineOfCredit(uint256)", addLineOfCredit},
	{"movePlayer(uint256)", movePlayer},
}

// buildCode assembles the deployment code of the Game contract and the
// runtime code it installs.
func buildCode() (deployment []byte, runtime []byte, err error) {
	runtime, err = buildRuntime()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to assemble runtime code: %w", err)
	}
	deployment, err = buildConstructor(runtime)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to assemble constructor: %w", err)
	}
	return deployment, runtime, nil
}

func buildConstructor(runtime []byte) ([]byte, error) {
	p := asm.NewProgram()
	p.Op(asm.CALLVALUE).JumpI("revert")
	p.Op(asm.CALLER).Push(ownerSlot).Op(asm.SSTORE)

	// copy the runtime code to memory and return it
	p.PushN(2, uint64(len(runtime))).Op(asm.DUP1)
	p.PushLabel("runtime").Push(0).Op(asm.CODECOPY)
	p.Push(0).Op(asm.RETURN)

	p.Label("revert").Push(0).Op(asm.DUP1, asm.REVERT)
	p.Mark("runtime").Append(runtime)
	return p.Assemble()
}

func buildRuntime() ([]byte, error) {
	p := asm.NewProgram()
	p.Op(asm.CALLVALUE).JumpI("revert")
	p.Push(4).Op(asm.CALLDATASIZE, asm.LT).JumpI("revert")

	// selector = calldata[0:4]
	p.Push(0).Op(asm.CALLDATALOAD).Push(0xE0).Op(asm.SHR)
	for _, f := range functions {
		p.Op(asm.DUP1).PushN(4, uint64(asm.Selector(f.signature))).Op(asm.EQ).JumpI(f.signature)
	}
	p.Label("revert").Push(0).Op(asm.DUP1, asm.REVERT)

	for _, f := range functions {
		p.Label(f.signature).Op(asm.POP)
		f.body(p, f.signature)
	}
	return p.Assemble()
}

func getter(slot uint64) func(*asm.Program, string) {
	return func(p *asm.Program, _ string) {
		p.Push(slot).Op(asm.SLOAD)
		returnWord(p)
	}
}

func setIssuer(p *asm.Program, label string) {
	requireArgument(p)
	onlyOwner(p, label)
	p.Push(4).Op(asm.CALLDATALOAD)
	// the upper 96 bits of an address argument must be zero
	p.Op(asm.DUP1).Push(0xA0).Op(asm.SHR).JumpI("revert")
	p.Op(asm.DUP1).Push(issuerSlot).Op(asm.SSTORE)
	pushTopic(p, issuerChangedEvent)
	p.Push(0).Op(asm.DUP1, asm.Log(2), asm.STOP)
}

func setLineOfCredit(p *asm.Program, label string) {
	requireArgument(p)
	onlyOwner(p, label)
	p.Push(4).Op(asm.CALLDATALOAD)
	storeAndEmitLineOfCredit(p)
}

func addLineOfCredit(p *asm.Program, label string) {
	requireArgument(p)
	onlyOwner(p, label)
	p.Push(lineOfCreditSlot).Op(asm.SLOAD)
	p.Push(4).Op(asm.CALLDATALOAD, asm.ADD)
	// the sum wrapped around if it is less than the old value
	p.Push(lineOfCreditSlot).Op(asm.SLOAD, asm.Dup(2), asm.LT).JumpI(label + "/overflow")
	storeAndEmitLineOfCredit(p)
	p.Label(label + "/overflow")
	revertWithReason(p, ReasonOverflow)
}

// storeAndEmitLineOfCredit consumes the value on top of the stack.
func storeAndEmitLineOfCredit(p *asm.Program) {
	p.Op(asm.DUP1).Push(lineOfCreditSlot).Op(asm.SSTORE)
	p.Push(0).Op(asm.MSTORE)
	pushTopic(p, lineOfCreditChangedEvent)
	p.Push(0x20).Push(0).Op(asm.Log(1), asm.STOP)
}

func movePlayer(p *asm.Program, _ string) {
	requireArgument(p)
	p.Push(4).Op(asm.CALLDATALOAD)
	p.Op(asm.DUP1).Push(positionSlot).Op(asm.SSTORE)
	p.Push(0).Op(asm.MSTORE)
	p.Op(asm.CALLER)
	pushTopic(p, playerMovedEvent)
	p.Push(0x20).Push(0).Op(asm.Log(2), asm.STOP)
}

func requireArgument(p *asm.Program) {
	p.Push(4 + 32).Op(asm.CALLDATASIZE, asm.LT).JumpI("revert")
}

func onlyOwner(p *asm.Program, label string) {
	p.Op(asm.CALLER).Push(ownerSlot).Op(asm.SLOAD, asm.EQ).JumpI(label + "/authorized")
	revertWithReason(p, ReasonNotOwner)
	p.Label(label + "/authorized")
}

func returnWord(p *asm.Program) {
	p.Push(0).Op(asm.MSTORE)
	p.Push(0x20).Push(0).Op(asm.RETURN)
}

func pushTopic(p *asm.Program, event string) {
	topic := asm.Topic(event)
	p.PushBytes(topic[:])
}

// revertWithReason reverts with an ABI encoded Error(string) of a reason of
// at most 32 bytes.
func revertWithReason(p *asm.Program, reason string) {
	var data [32]byte
	copy(data[:], reason)
	p.PushN(4, uint64(asm.Selector("Error(string)"))).Push(0xE0).Op(asm.SHL).Push(0).Op(asm.MSTORE)
	p.Push(0x20).Push(0x04).Op(asm.MSTORE)
	p.Push(uint64(len(reason))).Push(0x24).Op(asm.MSTORE)
	p.PushBytes(data[:]).Push(0x44).Op(asm.MSTORE)
	p.Push(0x64).Push(0).Op(asm.REVERT)
}
