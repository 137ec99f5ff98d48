// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package builtin provides the spreadsheet function registry.
//
// A builtin receives the argument count and the operand stack, pops exactly
// its arguments, and pushes exactly one result. Arity mismatches and
// structurally impossible arguments are returned as errors and abort the
// evaluation; type mismatches push the "#VALUE!" marker instead.
package builtin

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"nickandperla.net/sheetcalc/internal/value"
)

var (
	// ErrArity is returned when a builtin is called with the wrong number of
	// arguments.
	ErrArity = errors.New("wrong number of arguments")
	// ErrArgument is returned for arguments no result can be computed from,
	// such as a non-range lookup table.
	ErrArgument = errors.New("invalid argument")
	// ErrNotImplemented is returned by registered functions that need
	// context a builtin does not receive.
	ErrNotImplemented = errors.New("function not implemented")
)

// Func is a builtin implementation.
type Func func(argc int, st *value.Stack) error

// Random is the source of RAND and RANDBETWEEN. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }

// Option configures a Registry.
type Option func(*config)

type config struct {
	random Random
}

// WithRandom sets the random source, typically a seeded generator in tests.
func WithRandom(r Random) Option {
	return func(c *config) {
		c.random = r
	}
}

// Registry maps lowercase function names to implementations. It is never
// mutated after construction and is safe for concurrent use.
type Registry struct {
	funcs map[string]Func
}

// New returns a registry holding the standard function set.
func New(opts ...Option) *Registry {
	cfg := config{random: globalRandom{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	funcs := map[string]Func{
		// aggregates
		"sum":     sum,
		"average": average,
		"count":   count,
		"min":     minFunc,
		"max":     maxFunc,

		// logic
		"if":      ifFunc,
		"and":     and,
		"or":      or,
		"not":     not,
		"ifs":     ifs,
		"iferror": ifError,

		// math
		"power":       power,
		"abs":         unaryMath("abs", absValue),
		"floor":       unaryMath("floor", floorValue),
		"ceiling":     unaryMath("ceiling", ceilValue),
		"sin":         unaryMath("sin", sinValue),
		"cos":         unaryMath("cos", cosValue),
		"log":         unaryMath("log", log10Value),
		"round":       round,
		"rand":        randFunc(cfg.random),
		"randbetween": randBetween(cfg.random),
		"pmt":         pmt,

		// text
		"len":    length,
		"value":  valueFunc,
		"text":   text,
		"trim":   trim,
		"left":   left,
		"right":  right,
		"mid":    mid,
		"concat": concat,
		"find":   find,

		// lookup and conditional aggregation
		"vlookup":  vlookup,
		"index":    index,
		"match":    match,
		"sumifs":   sumIfs,
		"countifs": countIfs,
		"sumif":    sumIf,
		"countif":  countIf,
		"address":  addressFunc,

		// registered so formulas compile; they need the calling cell or the
		// loader, which a builtin does not receive
		"column":   notImplemented("column"),
		"row":      notImplemented("row"),
		"indirect": notImplemented("indirect"),
	}
	return &Registry{funcs: funcs}
}

// Lookup returns the function registered under name, case-insensitively.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[strings.ToLower(name)]
	return fn, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// With returns a copy of r with fn registered under name, replacing any
// existing entry.
func (r *Registry) With(name string, fn Func) *Registry {
	funcs := make(map[string]Func, len(r.funcs)+1)
	for k, v := range r.funcs {
		funcs[k] = v
	}
	funcs[strings.ToLower(name)] = fn
	return &Registry{funcs: funcs}
}

// popArgs checks argc against [lo, hi] (hi < 0 means unbounded) and pops
// the arguments in call order.
func popArgs(name string, argc int, st *value.Stack, lo, hi int) ([]value.Value, error) {
	if argc < lo || (hi >= 0 && argc > hi) {
		switch {
		case lo == hi:
			return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, name, lo, argc)
		case hi < 0:
			return nil, fmt.Errorf("%w: %s takes at least %d, got %d", ErrArity, name, lo, argc)
		default:
			return nil, fmt.Errorf("%w: %s takes %d to %d, got %d", ErrArity, name, lo, hi, argc)
		}
	}
	return st.PopN(argc)
}

func notImplemented(name string) Func {
	return func(argc int, st *value.Stack) error {
		return fmt.Errorf("%w: %s", ErrNotImplemented, name)
	}
}

var valueError = value.Text(value.ErrorValue)
