// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package program defines the bytecode produced by the formula compiler.
package program

import (
	"fmt"
	"strings"

	"nickandperla.net/sheetcalc/internal/value"
)

// Op is an instruction opcode.
type Op uint8

const (
	PUSH Op = iota // push literal Value
	LOAD           // push loader(Arg)
	ADD
	SUB
	MUL
	DIV
	CONCAT
	GT
	GTE
	LT
	LTE
	EQ
	NE
	NEG
	CALL // pop argc, invoke builtin Arg
)

var opNames = [...]string{
	PUSH:   "PUSH",
	LOAD:   "LOAD",
	ADD:    "ADD",
	SUB:    "SUB",
	MUL:    "MUL",
	DIV:    "DIV",
	CONCAT: "CONCAT",
	GT:     "GT",
	GTE:    "GTE",
	LT:     "LT",
	LTE:    "LTE",
	EQ:     "EQ",
	NE:     "NE",
	NEG:    "NEG",
	CALL:   "CALL",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// IsBinary reports whether o pops two operands and pushes one.
func (o Op) IsBinary() bool {
	return o >= ADD && o <= NE
}

// Instruction is one bytecode step. Value is the operand of PUSH; Arg is the
// address lexeme of LOAD or the lowercase function name of CALL.
type Instruction struct {
	Op    Op
	Value value.Value
	Arg   string
}

func (in Instruction) String() string {
	switch in.Op {
	case PUSH:
		return "PUSH " + in.Value.GoString()
	case LOAD, CALL:
		return in.Op.String() + " " + in.Arg
	}
	return in.Op.String()
}

// Program is a flat instruction sequence. It holds no reference to any grid
// and can be cached and shared freely.
type Program []Instruction

// String returns a numbered listing, one instruction per line.
func (p Program) String() string {
	var sb strings.Builder
	for i, in := range p {
		fmt.Fprintf(&sb, "%04d %s\n", i, in)
	}
	return sb.String()
}

// Emitter receives instructions from the parser as it recognises them.
type Emitter interface {
	Emit(Instruction)
}

// Builder is an Emitter that accumulates a Program.
type Builder struct {
	prog Program
}

// Emit appends in.
func (b *Builder) Emit(in Instruction) {
	b.prog = append(b.prog, in)
}

// Program returns the instructions emitted so far.
func (b *Builder) Program() Program {
	return b.prog
}

// Push is shorthand for a PUSH instruction.
func Push(v value.Value) Instruction { return Instruction{Op: PUSH, Value: v} }

// Load is shorthand for a LOAD instruction.
func Load(ref string) Instruction { return Instruction{Op: LOAD, Arg: ref} }

// Call is shorthand for a CALL instruction.
func Call(name string) Instruction { return Instruction{Op: CALL, Arg: name} }

// Simple returns an operand-less instruction.
func Simple(op Op) Instruction { return Instruction{Op: op} }
