// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package value

import (
	"errors"
	"fmt"
)

// ErrStackUnderflow is returned when a pop finds the operand stack empty.
var ErrStackUnderflow = errors.New("stack underflow")

// Stack is the evaluator's operand stack.
type Stack struct {
	items []Value
}

// NewStack returns a stack holding vs, last element on top.
func NewStack(vs ...Value) *Stack {
	return &Stack{items: append([]Value(nil), vs...)}
}

// Push adds v to the top of the stack.
func (s *Stack) Push(v Value) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top value.
func (s *Stack) Pop() (Value, error) {
	if len(s.items) == 0 {
		return Value{}, ErrStackUnderflow
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, nil
}

// PopN removes the top n values and returns them in push order, so the
// first argument of a call comes first.
func (s *Stack) PopN(n int) ([]Value, error) {
	if n < 0 || n > len(s.items) {
		return nil, fmt.Errorf("%w: need %d values, have %d", ErrStackUnderflow, n, len(s.items))
	}
	start := len(s.items) - n
	out := append([]Value(nil), s.items[start:]...)
	s.items = s.items[:start]
	return out, nil
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return len(s.items)
}
