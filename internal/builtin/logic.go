// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package builtin

import (
	"fmt"

	"nickandperla.net/sheetcalc/internal/value"
)

// ifFunc is IF(cond, then, else?). Without an else branch a false
// condition yields null.
func ifFunc(argc int, st *value.Stack) error {
	args, err := popArgs("if", argc, st, 2, 3)
	if err != nil {
		return err
	}
	switch {
	case args[0].Truthy():
		st.Push(args[1])
	case argc == 3:
		st.Push(args[2])
	default:
		st.Push(value.Null())
	}
	return nil
}

// and pops every argument, then yields 1 only if all are truthy scalars.
// Matrices are never truthy.
func and(argc int, st *value.Stack) error {
	args, err := st.PopN(argc)
	if err != nil {
		return err
	}
	for _, a := range args {
		if !a.Truthy() {
			st.Push(value.Bool(false))
			return nil
		}
	}
	st.Push(value.Bool(true))
	return nil
}

// or yields 1 if any scalar argument is truthy; matrices are skipped.
func or(argc int, st *value.Stack) error {
	args, err := st.PopN(argc)
	if err != nil {
		return err
	}
	for _, a := range args {
		if a.Truthy() {
			st.Push(value.Bool(true))
			return nil
		}
	}
	st.Push(value.Bool(false))
	return nil
}

func not(argc int, st *value.Stack) error {
	args, err := popArgs("not", argc, st, 1, 1)
	if err != nil {
		return err
	}
	st.Push(value.Bool(!args[0].Truthy()))
	return nil
}

// ifs is IFS(cond1, value1, cond2, value2, ...): the value paired with the
// first truthy condition, or "#N/A" when none is.
func ifs(argc int, st *value.Stack) error {
	if argc%2 != 0 {
		return fmt.Errorf("%w: ifs takes condition/value pairs, got %d", ErrArity, argc)
	}
	args, err := popArgs("ifs", argc, st, 2, -1)
	if err != nil {
		return err
	}
	for i := 0; i < len(args); i += 2 {
		if args[i].Truthy() {
			st.Push(args[i+1])
			return nil
		}
	}
	st.Push(value.Text(value.NotAvailable))
	return nil
}

// ifError is IFERROR(value, fallback): fallback when value is an error
// marker such as "#VALUE!" or "#N/A".
func ifError(argc int, st *value.Stack) error {
	args, err := popArgs("iferror", argc, st, 2, 2)
	if err != nil {
		return err
	}
	if args[0].IsErrorMarker() {
		st.Push(args[1])
		return nil
	}
	st.Push(args[0])
	return nil
}
