// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package builtin

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"nickandperla.net/sheetcalc/internal/value"
)

// String positions and lengths count characters, not bytes.

// length is LEN(text). Anything but text has length 0.
func length(argc int, st *value.Stack) error {
	args, err := popArgs("len", argc, st, 1, 1)
	if err != nil {
		return err
	}
	s, ok := args[0].Str()
	if !ok {
		st.Push(value.Number(0))
		return nil
	}
	st.Push(value.Number(float64(utf8.RuneCountInString(s))))
	return nil
}

// valueFunc is VALUE(text). Numbers pass through unchanged.
func valueFunc(argc int, st *value.Stack) error {
	args, err := popArgs("value", argc, st, 1, 1)
	if err != nil {
		return err
	}
	if args[0].IsNumber() {
		st.Push(args[0])
		return nil
	}
	s, ok := args[0].Str()
	if !ok {
		st.Push(valueError)
		return nil
	}
	n, ok := value.ParseNumber(s)
	if !ok {
		st.Push(valueError)
		return nil
	}
	st.Push(value.Number(n))
	return nil
}

// text is TEXT(number). Non-numbers render as "".
func text(argc int, st *value.Stack) error {
	args, err := popArgs("text", argc, st, 1, 1)
	if err != nil {
		return err
	}
	if n, ok := args[0].Num(); ok {
		st.Push(value.Text(value.FormatNumber(n)))
		return nil
	}
	st.Push(value.Text(""))
	return nil
}

// scalarText renders a scalar argument as text. Matrices are rejected.
func scalarText(v value.Value) (string, bool) {
	if v.IsMatrix() {
		return "", false
	}
	return v.String(), true
}

func trim(argc int, st *value.Stack) error {
	args, err := popArgs("trim", argc, st, 1, 1)
	if err != nil {
		return err
	}
	s, ok := scalarText(args[0])
	if !ok {
		st.Push(valueError)
		return nil
	}
	st.Push(value.Text(strings.TrimSpace(s)))
	return nil
}

// charCount returns the optional character count argument, defaulting to 1
// and capped at limit. NaN and negative counts are rejected.
func charCount(args []value.Value, limit int) (int, bool) {
	if len(args) < 2 {
		return min(1, limit), true
	}
	n, ok := args[1].Num()
	if !ok {
		return 0, false
	}
	return clampCount(n, limit)
}

// clampCount converts n to a count no larger than limit. It is checked as a
// float first so that huge or infinite values never reach int conversion.
func clampCount(n float64, limit int) (int, bool) {
	if math.IsNaN(n) || n < 0 {
		return 0, false
	}
	if n > float64(limit) {
		return limit, true
	}
	return int(n), true
}

// left is LEFT(text, count?).
func left(argc int, st *value.Stack) error {
	args, err := popArgs("left", argc, st, 1, 2)
	if err != nil {
		return err
	}
	s, ok := scalarText(args[0])
	r := []rune(s)
	n, nok := charCount(args, len(r))
	if !ok || !nok {
		st.Push(valueError)
		return nil
	}
	st.Push(value.Text(string(r[:n])))
	return nil
}

// right is RIGHT(text, count?).
func right(argc int, st *value.Stack) error {
	args, err := popArgs("right", argc, st, 1, 2)
	if err != nil {
		return err
	}
	s, ok := scalarText(args[0])
	r := []rune(s)
	n, nok := charCount(args, len(r))
	if !ok || !nok {
		st.Push(valueError)
		return nil
	}
	st.Push(value.Text(string(r[len(r)-n:])))
	return nil
}

// mid is MID(text, start, count) with a one-based start. A start below 1
// aborts the evaluation.
func mid(argc int, st *value.Stack) error {
	args, err := popArgs("mid", argc, st, 3, 3)
	if err != nil {
		return err
	}
	s, ok := scalarText(args[0])
	nums, nok := numbers(args[1:])
	if !ok || !nok {
		st.Push(valueError)
		return nil
	}
	if math.IsNaN(nums[0]) || nums[0] < 1 {
		return fmt.Errorf("%w: mid start must be at least 1, got %s", ErrArgument, value.FormatNumber(nums[0]))
	}
	r := []rune(s)
	start, _ := clampCount(nums[0]-1, len(r))
	n, ok := clampCount(nums[1], len(r)-start)
	if !ok {
		st.Push(valueError)
		return nil
	}
	st.Push(value.Text(string(r[start : start+n])))
	return nil
}

// concat joins the display form of every argument, flattening matrices,
// in call order.
func concat(argc int, st *value.Stack) error {
	var sb strings.Builder
	err := reduce(argc, st, func(v value.Value) {
		sb.WriteString(v.String())
	})
	if err != nil {
		return err
	}
	st.Push(value.Text(sb.String()))
	return nil
}

// find is FIND(needle, haystack, start?): the one-based position of the
// first case-sensitive match at or after start, or "#VALUE!".
func find(argc int, st *value.Stack) error {
	args, err := popArgs("find", argc, st, 2, 3)
	if err != nil {
		return err
	}
	needle, ok1 := scalarText(args[0])
	haystack, ok2 := scalarText(args[1])
	start := 1
	if len(args) == 3 {
		n, ok := args[2].Num()
		if !ok || math.IsNaN(n) || n < 1 || n > float64(utf8.RuneCountInString(haystack)+1) {
			st.Push(valueError)
			return nil
		}
		start = int(n)
	}
	hay := []rune(haystack)
	if !ok1 || !ok2 || start < 1 || start > len(hay)+1 {
		st.Push(valueError)
		return nil
	}
	i := strings.Index(string(hay[start-1:]), needle)
	if i < 0 {
		st.Push(valueError)
		return nil
	}
	pos := start + utf8.RuneCountInString(string(hay[start-1:])[:i])
	st.Push(value.Number(float64(pos)))
	return nil
}
