// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package vm executes compiled formula programs on an operand stack.
package vm

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"nickandperla.net/sheetcalc/internal/builtin"
	"nickandperla.net/sheetcalc/internal/program"
	"nickandperla.net/sheetcalc/internal/value"
)

var (
	// ErrUnknownFunction is returned by CALL for a name the registry lacks.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrBadArgCount is returned when CALL finds no valid argument count.
	ErrBadArgCount = errors.New("bad argument count")
	// ErrStackDepth is returned when a program does not leave exactly one
	// value on the stack.
	ErrStackDepth = errors.New("program must leave exactly one value")
	// ErrMatrixResult is returned when the final value is a matrix.
	ErrMatrixResult = errors.New("matrix is not a valid result")
)

// Loader resolves a cell address or range lexeme to its current value.
// It is the only way evaluation touches cell storage.
type Loader func(ref string) (value.Value, error)

// Functions is the runtime view of the builtin registry.
type Functions interface {
	Lookup(name string) (builtin.Func, bool)
}

// Evaluate runs prog and returns its single scalar result.
func Evaluate(prog program.Program, load Loader, funcs Functions) (value.Value, error) {
	st := value.NewStack()

	for pc, in := range prog {
		if err := step(in, st, load, funcs); err != nil {
			return value.Value{}, fmt.Errorf("at %04d %s: %w", pc, in, err)
		}
	}

	if st.Len() != 1 {
		return value.Value{}, fmt.Errorf("%w: %d remain", ErrStackDepth, st.Len())
	}
	result, _ := st.Pop()
	if result.IsMatrix() {
		return value.Value{}, ErrMatrixResult
	}
	return result, nil
}

func step(in program.Instruction, st *value.Stack, load Loader, funcs Functions) error {
	switch in.Op {
	case program.PUSH:
		st.Push(in.Value)
		return nil

	case program.LOAD:
		v, err := load(in.Arg)
		if err != nil {
			return err
		}
		st.Push(v)
		return nil

	case program.NEG:
		v, err := st.Pop()
		if err != nil {
			return err
		}
		st.Push(value.Number(-value.ToNumber(v)))
		return nil

	case program.CALL:
		return call(in.Arg, st, funcs)
	}

	if !in.Op.IsBinary() {
		return fmt.Errorf("unknown opcode %s", in.Op)
	}
	rhs, err := st.Pop()
	if err != nil {
		return err
	}
	lhs, err := st.Pop()
	if err != nil {
		return err
	}
	st.Push(binary(in.Op, lhs, rhs))
	return nil
}

func call(name string, st *value.Stack, funcs Functions) error {
	fn, ok := funcs.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	argv, err := st.Pop()
	if err != nil {
		return err
	}
	argc, ok := argv.Num()
	if !ok || argc < 0 || argc != math.Trunc(argc) || int(argc) > st.Len() {
		return fmt.Errorf("%w: %s called with %#v", ErrBadArgCount, name, argv)
	}
	if err := fn(int(argc), st); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// binary applies an arithmetic, concatenation or comparison operator.
// Arithmetic coerces anything but numbers to 0 and follows IEEE division.
func binary(op program.Op, lhs, rhs value.Value) value.Value {
	switch op {
	case program.ADD:
		return value.Number(value.ToNumber(lhs) + value.ToNumber(rhs))
	case program.SUB:
		return value.Number(value.ToNumber(lhs) - value.ToNumber(rhs))
	case program.MUL:
		return value.Number(value.ToNumber(lhs) * value.ToNumber(rhs))
	case program.DIV:
		return value.Number(value.ToNumber(lhs) / value.ToNumber(rhs))
	case program.CONCAT:
		return value.Text(lhs.String() + rhs.String())
	}
	return value.Bool(compare(op, lhs, rhs))
}

// compare evaluates a comparison. Both operands must be numbers or text,
// otherwise the result is false. Equality is strict; ordering between a
// number and text converts the text to a number and is false when it is
// not numeric.
func compare(op program.Op, lhs, rhs value.Value) bool {
	if !scalar(lhs) || !scalar(rhs) {
		return false
	}
	switch op {
	case program.EQ:
		return lhs.Equal(rhs)
	case program.NE:
		return !lhs.Equal(rhs)
	}

	ls, lText := lhs.Str()
	rs, rText := rhs.Str()
	if lText && rText {
		return ordered(op, strings.Compare(ls, rs))
	}
	a, aok := asNumber(lhs)
	b, bok := asNumber(rhs)
	if !aok || !bok || math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	switch {
	case a < b:
		return ordered(op, -1)
	case a > b:
		return ordered(op, 1)
	}
	return ordered(op, 0)
}

func ordered(op program.Op, cmp int) bool {
	switch op {
	case program.GT:
		return cmp > 0
	case program.GTE:
		return cmp >= 0
	case program.LT:
		return cmp < 0
	case program.LTE:
		return cmp <= 0
	}
	return false
}

func scalar(v value.Value) bool {
	return v.IsNumber() || v.IsText()
}

func asNumber(v value.Value) (float64, bool) {
	if n, ok := v.Num(); ok {
		return n, true
	}
	s, _ := v.Str()
	return value.ParseNumber(s)
}
