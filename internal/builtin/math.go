// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package builtin

import (
	"math"

	"nickandperla.net/sheetcalc/internal/value"
)

// Single-argument math kernels.
var (
	absValue   = math.Abs
	floorValue = math.Floor
	ceilValue  = math.Ceil
	sinValue   = math.Sin
	cosValue   = math.Cos
	log10Value = math.Log10
)

// unaryMath wraps fn as a one-argument builtin that yields "#VALUE!" for
// non-numbers.
func unaryMath(name string, fn func(float64) float64) Func {
	return func(argc int, st *value.Stack) error {
		args, err := popArgs(name, argc, st, 1, 1)
		if err != nil {
			return err
		}
		n, ok := args[0].Num()
		if !ok {
			st.Push(valueError)
			return nil
		}
		st.Push(value.Number(fn(n)))
		return nil
	}
}

// numbers extracts every argument as a number, reporting false if any is not.
func numbers(args []value.Value) ([]float64, bool) {
	out := make([]float64, len(args))
	for i, a := range args {
		n, ok := a.Num()
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func power(argc int, st *value.Stack) error {
	args, err := popArgs("power", argc, st, 2, 2)
	if err != nil {
		return err
	}
	n, ok := numbers(args)
	if !ok {
		st.Push(valueError)
		return nil
	}
	st.Push(value.Number(math.Pow(n[0], n[1])))
	return nil
}

// jsRound rounds half toward positive infinity.
func jsRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

// round is ROUND(x, digits): half away from zero, with a 0.0001 bias in the
// direction of x's sign to absorb binary representation error.
func round(argc int, st *value.Stack) error {
	args, err := popArgs("round", argc, st, 2, 2)
	if err != nil {
		return err
	}
	n, ok := numbers(args)
	if !ok {
		st.Push(valueError)
		return nil
	}
	x, digits := n[0], n[1]
	sign := 1.0
	if x < 0 {
		sign = -1
	}
	scale := math.Pow(10, digits)
	st.Push(value.Number(jsRound(scale*x+sign*0.0001) / scale))
	return nil
}

func randFunc(r Random) Func {
	return func(argc int, st *value.Stack) error {
		if _, err := popArgs("rand", argc, st, 0, 0); err != nil {
			return err
		}
		st.Push(value.Number(r.Float64()))
		return nil
	}
}

// randBetween is RANDBETWEEN(low, high), rounded to an integer.
func randBetween(r Random) Func {
	return func(argc int, st *value.Stack) error {
		args, err := popArgs("randbetween", argc, st, 2, 2)
		if err != nil {
			return err
		}
		n, ok := numbers(args)
		if !ok {
			st.Push(valueError)
			return nil
		}
		low, high := n[0], n[1]
		st.Push(value.Number(jsRound(r.Float64()*(low-high) + high)))
		return nil
	}
}

// pmt is PMT(rate, nper, pv, fv?, type?): the periodic payment of an
// annuity. type 1 means payments at the start of each period.
func pmt(argc int, st *value.Stack) error {
	args, err := popArgs("pmt", argc, st, 3, 5)
	if err != nil {
		return err
	}
	n, ok := numbers(args)
	if !ok {
		st.Push(valueError)
		return nil
	}
	rate, nper, pv := n[0], n[1], n[2]
	var fv, due float64
	if len(n) > 3 {
		fv = n[3]
	}
	if len(n) > 4 && n[4] != 0 {
		due = 1
	}
	if nper == 0 {
		st.Push(valueError)
		return nil
	}
	if rate == 0 {
		st.Push(value.Number(-(pv + fv) / nper))
		return nil
	}
	growth := math.Pow(1+rate, nper)
	st.Push(value.Number(-rate * (pv*growth + fv) / ((1 + rate*due) * (growth - 1))))
	return nil
}
