// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package builtin

import (
	"fmt"
	"math"
	"strings"

	"nickandperla.net/sheetcalc/internal/address"
	"nickandperla.net/sheetcalc/internal/value"
)

// rows returns the rows of a matrix argument, treating a scalar as a 1x1
// matrix.
func rows(v value.Value) [][]value.Value {
	if v.IsMatrix() {
		return v.Rows()
	}
	return [][]value.Value{{v}}
}

// cell returns rows[r][c], or null when out of bounds.
func cell(m [][]value.Value, r, c int) value.Value {
	if r < 0 || r >= len(m) || c < 0 || c >= len(m[r]) {
		return value.Null()
	}
	return m[r][c]
}

// vlookup is VLOOKUP(key, table, column): exact match on the first column,
// top to bottom.
func vlookup(argc int, st *value.Stack) error {
	args, err := popArgs("vlookup", argc, st, 3, 3)
	if err != nil {
		return err
	}
	key, table, col := args[0], args[1], args[2]
	if !table.IsMatrix() {
		return fmt.Errorf("%w: vlookup table must be a range", ErrArgument)
	}
	c, ok := col.Num()
	if !ok {
		return fmt.Errorf("%w: vlookup column must be a number", ErrArgument)
	}
	for _, row := range table.Rows() {
		if len(row) == 0 || !row[0].Equal(key) {
			continue
		}
		if c != math.Trunc(c) {
			st.Push(value.Null())
			return nil
		}
		st.Push(cell([][]value.Value{row}, 0, int(c)-1))
		return nil
	}
	st.Push(value.Text(value.NotAvailable))
	return nil
}

// index is INDEX(range, row, column?), one-based. With a single-row range
// and one index, the index selects the column.
func index(argc int, st *value.Stack) error {
	args, err := popArgs("index", argc, st, 2, 3)
	if err != nil {
		return err
	}
	n, ok := numbers(args[1:])
	if !ok {
		st.Push(valueError)
		return nil
	}
	m := rows(args[0])
	r, c := int(n[0]), 1
	if len(n) == 2 {
		c = int(n[1])
	} else if len(m) == 1 {
		r, c = 1, int(n[0])
	}
	if r < 1 || r > len(m) || c < 1 || c > len(m[r-1]) {
		st.Push(value.Text(value.RefError))
		return nil
	}
	st.Push(m[r-1][c-1])
	return nil
}

// order compares two scalars of the same kind; ok is false otherwise.
func order(a, b value.Value) (int, bool) {
	if an, ok := a.Num(); ok {
		bn, ok := b.Num()
		if !ok {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		}
		return 0, true
	}
	as, ok := a.Str()
	if !ok {
		return 0, false
	}
	bs, ok := b.Str()
	if !ok {
		return 0, false
	}
	return strings.Compare(strings.ToLower(as), strings.ToLower(bs)), true
}

// match is MATCH(key, range, type?). type 0 is an exact match; 1 (the
// default) finds the last entry <= key and -1 the last entry >= key, both
// assuming a sorted range. The result is a one-based position or "#N/A".
func match(argc int, st *value.Stack) error {
	args, err := popArgs("match", argc, st, 2, 3)
	if err != nil {
		return err
	}
	kind := 1.0
	if len(args) == 3 {
		k, ok := args[2].Num()
		if !ok {
			st.Push(valueError)
			return nil
		}
		kind = k
	}
	m := rows(args[1])
	if len(m) > 1 && len(m[0]) > 1 {
		st.Push(value.Text(value.NotAvailable))
		return nil
	}
	key, entries := args[0], args[1].Flatten()
	found := -1
	for i, e := range entries {
		if kind == 0 {
			if e.Equal(key) {
				found = i
				break
			}
			continue
		}
		cmp, ok := order(e, key)
		if !ok {
			continue
		}
		if (kind > 0 && cmp > 0) || (kind < 0 && cmp < 0) {
			break
		}
		found = i
	}
	if found < 0 {
		st.Push(value.Text(value.NotAvailable))
		return nil
	}
	st.Push(value.Number(float64(found + 1)))
	return nil
}

// criteriaRows evaluates (range, criterion) pairs row by row. A row passes
// when, for every pair, the range's first-column entry strictly equals the
// criterion: a scalar criterion applies to every row, a range criterion is
// compared row-aligned. All ranges must have the same row count.
func criteriaRows(name string, pairs []value.Value) ([]bool, error) {
	rowCount := -1
	for i := 0; i < len(pairs); i += 2 {
		if !pairs[i].IsMatrix() {
			return nil, fmt.Errorf("%w: %s criteria range %d is not a range", ErrArgument, name, i/2+1)
		}
		n := len(pairs[i].Rows())
		if rowCount != -1 && n != rowCount {
			return nil, fmt.Errorf("%w: %s criteria ranges differ in size", ErrArgument, name)
		}
		rowCount = n
	}
	if rowCount == -1 {
		return nil, fmt.Errorf("%w: %s needs a criteria range", ErrArgument, name)
	}

	pass := make([]bool, rowCount)
	for r := range pass {
		pass[r] = true
		for i := 0; i < len(pairs); i += 2 {
			entry := cell(pairs[i].Rows(), r, 0)
			crit := pairs[i+1]
			if crit.IsMatrix() {
				crit = cell(crit.Rows(), r, 0)
			}
			if !entry.Equal(crit) {
				pass[r] = false
				break
			}
		}
	}
	return pass, nil
}

// sumIfs is SUMIFS(sumRange, critRange1, crit1, ...): sums the first column
// of sumRange over the passing rows.
func sumIfs(argc int, st *value.Stack) error {
	if argc >= 3 && argc%2 != 1 {
		return fmt.Errorf("%w: sumifs takes a sum range and range/criterion pairs, got %d", ErrArity, argc)
	}
	args, err := popArgs("sumifs", argc, st, 3, -1)
	if err != nil {
		return err
	}
	pass, err := criteriaRows("sumifs", args[1:])
	if err != nil {
		return err
	}
	if !args[0].IsMatrix() {
		return fmt.Errorf("%w: sumifs sum range is not a range", ErrArgument)
	}
	sumRows := args[0].Rows()
	if len(sumRows) != len(pass) {
		return fmt.Errorf("%w: sumifs sum range differs in size from criteria ranges", ErrArgument)
	}
	total := 0.0
	for r, ok := range pass {
		if n, isNum := cell(sumRows, r, 0).Num(); ok && isNum {
			total += n
		}
	}
	st.Push(value.Number(total))
	return nil
}

// countIfs is COUNTIFS(critRange1, crit1, ...): the number of passing rows.
func countIfs(argc int, st *value.Stack) error {
	if argc >= 2 && argc%2 != 0 {
		return fmt.Errorf("%w: countifs takes range/criterion pairs, got %d", ErrArity, argc)
	}
	args, err := popArgs("countifs", argc, st, 2, -1)
	if err != nil {
		return err
	}
	pass, err := criteriaRows("countifs", args)
	if err != nil {
		return err
	}
	n := 0
	for _, ok := range pass {
		if ok {
			n++
		}
	}
	st.Push(value.Number(float64(n)))
	return nil
}

// criterion builds the predicate of SUMIF and COUNTIF. Text starting with a
// comparison operator (">5", "<>x") compares against the rest of the text,
// numerically when it parses as a number; anything else is strict equality.
func criterion(c value.Value) func(value.Value) bool {
	s, ok := c.Str()
	if !ok {
		return c.Equal
	}
	op := ""
	for _, prefix := range []string{">=", "<=", "<>", ">", "<", "="} {
		if strings.HasPrefix(s, prefix) {
			op = prefix
			break
		}
	}
	if op == "" {
		return c.Equal
	}
	operand := value.Text(s[len(op):])
	if n, ok := value.ParseNumber(s[len(op):]); ok && s[len(op):] != "" {
		operand = value.Number(n)
	}
	return func(v value.Value) bool {
		cmp, ok := order(v, operand)
		if !ok {
			return op == "<>"
		}
		switch op {
		case ">=":
			return cmp >= 0
		case "<=":
			return cmp <= 0
		case "<>":
			return cmp != 0
		case ">":
			return cmp > 0
		case "<":
			return cmp < 0
		}
		return cmp == 0
	}
}

// sumIf is SUMIF(range, criterion, sumRange?). Cells of sumRange are
// matched to range by position.
func sumIf(argc int, st *value.Stack) error {
	args, err := popArgs("sumif", argc, st, 2, 3)
	if err != nil {
		return err
	}
	test := criterion(args[1])
	m := rows(args[0])
	target := m
	if len(args) == 3 {
		target = rows(args[2])
	}
	total := 0.0
	for r, row := range m {
		for c, v := range row {
			if !test(v) {
				continue
			}
			if n, ok := cell(target, r, c).Num(); ok {
				total += n
			}
		}
	}
	st.Push(value.Number(total))
	return nil
}

// countIf is COUNTIF(range, criterion).
func countIf(argc int, st *value.Stack) error {
	args, err := popArgs("countif", argc, st, 2, 2)
	if err != nil {
		return err
	}
	test := criterion(args[1])
	n := 0
	for _, v := range args[0].Flatten() {
		if test(v) {
			n++
		}
	}
	st.Push(value.Number(float64(n)))
	return nil
}

// addressFunc is ADDRESS(row, column, absolute?): the A1 text of a
// coordinate. absolute is 1 ($A$1, the default), 2 (A$1), 3 ($A1) or 4 (A1).
func addressFunc(argc int, st *value.Stack) error {
	args, err := popArgs("address", argc, st, 2, 3)
	if err != nil {
		return err
	}
	n, ok := numbers(args)
	if !ok {
		st.Push(valueError)
		return nil
	}
	mode := 1
	if len(n) == 3 {
		mode = int(n[2])
	}
	r, c := int(n[0]), int(n[1])
	if r < 1 || c < 1 || mode < 1 || mode > 4 {
		st.Push(valueError)
		return nil
	}
	a := address.Address{
		Col:         c - 1,
		Row:         r - 1,
		ColAnchored: mode == 1 || mode == 3,
		RowAnchored: mode == 1 || mode == 2,
	}
	st.Push(value.Text(a.String()))
	return nil
}
