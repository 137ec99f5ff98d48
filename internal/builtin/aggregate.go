// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package builtin

import "nickandperla.net/sheetcalc/internal/value"

// reduce pops argc values, flattens matrices, and feeds every scalar to fn.
func reduce(argc int, st *value.Stack, fn func(value.Value)) error {
	args, err := st.PopN(argc)
	if err != nil {
		return err
	}
	for _, arg := range args {
		for _, v := range arg.Flatten() {
			fn(v)
		}
	}
	return nil
}

func sum(argc int, st *value.Stack) error {
	total := 0.0
	err := reduce(argc, st, func(v value.Value) {
		if n, ok := v.Num(); ok {
			total += n
		}
	})
	if err != nil {
		return err
	}
	st.Push(value.Number(total))
	return nil
}

func average(argc int, st *value.Stack) error {
	total, n := 0.0, 0
	err := reduce(argc, st, func(v value.Value) {
		if f, ok := v.Num(); ok {
			total += f
			n++
		}
	})
	if err != nil {
		return err
	}
	if n == 0 {
		st.Push(value.Null())
		return nil
	}
	st.Push(value.Number(total / float64(n)))
	return nil
}

// count counts non-null entries of any kind.
func count(argc int, st *value.Stack) error {
	n := 0
	err := reduce(argc, st, func(v value.Value) {
		if !v.IsNull() {
			n++
		}
	})
	if err != nil {
		return err
	}
	st.Push(value.Number(float64(n)))
	return nil
}

// extremum returns a min or max builtin; better reports whether a should
// replace the current best b.
func extremum(better func(a, b float64) bool) Func {
	return func(argc int, st *value.Stack) error {
		var best float64
		found := false
		err := reduce(argc, st, func(v value.Value) {
			f, ok := v.Num()
			if !ok {
				return
			}
			if !found || better(f, best) {
				best, found = f, true
			}
		})
		if err != nil {
			return err
		}
		if !found {
			st.Push(value.Null())
			return nil
		}
		st.Push(value.Number(best))
		return nil
	}
}

var (
	minFunc = extremum(func(a, b float64) bool { return a < b })
	maxFunc = extremum(func(a, b float64) bool { return a > b })
)
