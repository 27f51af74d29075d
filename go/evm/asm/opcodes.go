// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package asm

import "fmt"

// OpCode is a single EVM instruction. Only the instructions needed for
// writing simple storage contracts are named here.
type OpCode byte

const (
	STOP         OpCode = 0x00
	ADD          OpCode = 0x01
	SUB          OpCode = 0x03
	LT           OpCode = 0x10
	GT           OpCode = 0x11
	EQ           OpCode = 0x14
	ISZERO       OpCode = 0x15
	AND          OpCode = 0x16
	OR           OpCode = 0x17
	NOT          OpCode = 0x19
	SHL          OpCode = 0x1B
	SHR          OpCode = 0x1C
	CALLER       OpCode = 0x33
	CALLVALUE    OpCode = 0x34
	CALLDATALOAD OpCode = 0x35
	CALLDATASIZE OpCode = 0x36
	CODECOPY     OpCode = 0x39
	POP          OpCode = 0x50
	MLOAD        OpCode = 0x51
	MSTORE       OpCode = 0x52
	SLOAD        OpCode = 0x54
	SSTORE       OpCode = 0x55
	JUMP         OpCode = 0x56
	JUMPI        OpCode = 0x57
	JUMPDEST     OpCode = 0x5B
	PUSH1        OpCode = 0x60
	PUSH2        OpCode = 0x61
	PUSH4        OpCode = 0x63
	PUSH32       OpCode = 0x7F
	DUP1         OpCode = 0x80
	DUP2         OpCode = 0x81
	DUP3         OpCode = 0x82
	DUP16        OpCode = 0x8F
	SWAP1        OpCode = 0x90
	SWAP2        OpCode = 0x91
	SWAP16       OpCode = 0x9F
	LOG0         OpCode = 0xA0
	LOG1         OpCode = 0xA1
	LOG2         OpCode = 0xA2
	LOG4         OpCode = 0xA4
	RETURN       OpCode = 0xF3
	REVERT       OpCode = 0xFD
	INVALID      OpCode = 0xFE
)

var opCodeNames = map[OpCode]string{
	STOP:         "STOP",
	ADD:          "ADD",
	SUB:          "SUB",
	LT:           "LT",
	GT:           "GT",
	EQ:           "EQ",
	ISZERO:       "ISZERO",
	AND:          "AND",
	OR:           "OR",
	NOT:          "NOT",
	SHL:          "SHL",
	SHR:          "SHR",
	CALLER:       "CALLER",
	CALLVALUE:    "CALLVALUE",
	CALLDATALOAD: "CALLDATALOAD",
	CALLDATASIZE: "CALLDATASIZE",
	CODECOPY:     "CODECOPY",
	POP:          "POP",
	MLOAD:        "MLOAD",
	MSTORE:       "MSTORE",
	SLOAD:        "SLOAD",
	SSTORE:       "SSTORE",
	JUMP:         "JUMP",
	JUMPI:        "JUMPI",
	JUMPDEST:     "JUMPDEST",
	RETURN:       "RETURN",
	REVERT:       "REVERT",
	INVALID:      "INVALID",
}

// Push returns the PUSH instruction for the given number of bytes.
func Push(width int) OpCode {
	if width < 1 || width > 32 {
		panic(fmt.Sprintf("invalid push width %d", width))
	}
	return PUSH1 + OpCode(width-1)
}

// Dup returns the DUP instruction duplicating the n-th stack element.
func Dup(n int) OpCode {
	if n < 1 || n > 16 {
		panic(fmt.Sprintf("invalid dup position %d", n))
	}
	return DUP1 + OpCode(n-1)
}

// Swap returns the SWAP instruction exchanging the top with the (n+1)-th
// stack element.
func Swap(n int) OpCode {
	if n < 1 || n > 16 {
		panic(fmt.Sprintf("invalid swap position %d", n))
	}
	return SWAP1 + OpCode(n-1)
}

// Log returns the LOG instruction consuming the given number of topics.
func Log(topics int) OpCode {
	if topics < 0 || topics > 4 {
		panic(fmt.Sprintf("invalid number of topics %d", topics))
	}
	return LOG0 + OpCode(topics)
}

// Width is the number of bytes the instruction occupies in code, including
// push data.
func (op OpCode) Width() int {
	if PUSH1 <= op && op <= PUSH32 {
		return int(op-PUSH1) + 2
	}
	return 1
}

func (op OpCode) String() string {
	switch {
	case PUSH1 <= op && op <= PUSH32:
		return fmt.Sprintf("PUSH%d", op-PUSH1+1)
	case DUP1 <= op && op <= DUP16:
		return fmt.Sprintf("DUP%d", op-DUP1+1)
	case SWAP1 <= op && op <= SWAP16:
		return fmt.Sprintf("SWAP%d", op-SWAP1+1)
	case LOG0 <= op && op <= LOG4:
		return fmt.Sprintf("LOG%d", op-LOG0)
	}
	if name, found := opCodeNames[op]; found {
		return name
	}
	return fmt.Sprintf("op(0x%02X)", byte(op))
}

// Disassemble renders the given code as one instruction per line, prefixed
// by its position. Truncated push data at the end of the code is rendered
// as far as present.
func Disassemble(code []byte) []string {
	res := []string{}
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		width := op.Width()
		if width == 1 {
			res = append(res, fmt.Sprintf("%04x: %v", pc, op))
		} else {
			end := min(pc+width, len(code))
			res = append(res, fmt.Sprintf("%04x: %v 0x%x", pc, op, code[pc+1:end]))
		}
		pc += width
	}
	return res
}
