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

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/sha3"
)

const (
	ErrUndefinedLabel = constError("undefined label")
	ErrDuplicateLabel = constError("duplicate label")
	ErrCodeTooLarge   = constError("code too large")
	ErrInvalidPush    = constError("invalid push data")
)

type constError string

func (e constError) Error() string {
	return string(e)
}

// labelWidth is the width of jump targets; PUSH2 covers any valid
// contract code size.
const labelWidth = 2

// Program is a builder for EVM bytecode. Jump targets may be referenced
// before they are defined; they are resolved by Assemble.
type Program struct {
	code   []byte
	labels map[string]int
	refs   []labelRef
	err    error
}

type labelRef struct {
	label    string
	position int
}

func NewProgram() *Program {
	return &Program{labels: map[string]int{}}
}

// Len is the current size of the program in bytes.
func (p *Program) Len() int {
	return len(p.code)
}

// Op appends the given instructions.
func (p *Program) Op(ops ...OpCode) *Program {
	for _, op := range ops {
		p.code = append(p.code, byte(op))
	}
	return p
}

// Push appends a push of the given value using the shortest PUSH
// instruction.
func (p *Program) Push(value uint64) *Program {
	width := (bits.Len64(value) + 7) / 8
	return p.PushN(max(width, 1), value)
}

// PushN appends a push of the given value using a PUSH instruction of
// exactly the given width.
func (p *Program) PushN(width int, value uint64) *Program {
	if width < 1 || width > 32 {
		return p.fail(fmt.Errorf("%w: width %d", ErrInvalidPush, width))
	}
	var buffer [32]byte
	binary.BigEndian.PutUint64(buffer[24:], value)
	if width < 8 && value>>(8*width) != 0 {
		return p.fail(fmt.Errorf("%w: %d does not fit into %d bytes", ErrInvalidPush, value, width))
	}
	return p.PushBytes(buffer[32-width:])
}

// PushBytes appends a push of the given big-endian data.
func (p *Program) PushBytes(data []byte) *Program {
	if len(data) < 1 || len(data) > 32 {
		return p.fail(fmt.Errorf("%w: %d bytes", ErrInvalidPush, len(data)))
	}
	p.code = append(p.code, byte(Push(len(data))))
	p.code = append(p.code, data...)
	return p
}

// PushLabel appends a push of the position of the given label.
func (p *Program) PushLabel(label string) *Program {
	p.code = append(p.code, byte(Push(labelWidth)))
	p.refs = append(p.refs, labelRef{label: label, position: len(p.code)})
	p.code = append(p.code, make([]byte, labelWidth)...)
	return p
}

// Label defines a jump target at the current position.
func (p *Program) Label(label string) *Program {
	p.Mark(label)
	return p.Op(JUMPDEST)
}

// Mark names the current position without making it a jump target. Marks
// are used to reference data appended after the code.
func (p *Program) Mark(label string) *Program {
	if _, found := p.labels[label]; found {
		return p.fail(fmt.Errorf("%w: %s", ErrDuplicateLabel, label))
	}
	p.labels[label] = len(p.code)
	return p
}

func (p *Program) Jump(label string) *Program {
	return p.PushLabel(label).Op(JUMP)
}

func (p *Program) JumpI(label string) *Program {
	return p.PushLabel(label).Op(JUMPI)
}

// Append adds raw bytes to the program, e.g. the runtime code of a
// contract behind its constructor.
func (p *Program) Append(data []byte) *Program {
	p.code = append(p.code, data...)
	return p
}

// Assemble resolves all label references and returns the resulting code.
func (p *Program) Assemble() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(p.code) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d bytes", ErrCodeTooLarge, len(p.code))
	}
	res := append([]byte(nil), p.code...)
	for _, ref := range p.refs {
		target, found := p.labels[ref.label]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUndefinedLabel, ref.label)
		}
		binary.BigEndian.PutUint16(res[ref.position:], uint16(target))
	}
	return res, nil
}

func (p *Program) fail(err error) *Program {
	if p.err == nil {
		p.err = err
	}
	return p
}

// Selector computes the 4-byte function selector of the given canonical
// signature, e.g. "setIssuer(address)".
func Selector(signature string) uint32 {
	hash := Keccak256([]byte(signature))
	return binary.BigEndian.Uint32(hash[:4])
}

// Topic computes the topic identifying an event of the given signature.
func Topic(signature string) [32]byte {
	return Keccak256([]byte(signature))
}

func Keccak256(data []byte) [32]byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var hash [32]byte
	hasher.Sum(hash[0:0])
	return hash
}
