// Package sheetcalc provides the public API for the spreadsheet formula
// engine.
package sheetcalc

import (
	"context"

	"nickandperla.net/sheetcalc/internal/builtin"
	"nickandperla.net/sheetcalc/internal/store"
	"nickandperla.net/sheetcalc/internal/value"
)

// Option configures a Workbook.
type Option func(*Workbook)

// Store interface for custom stores.
type Store = store.Store

// VersionEntry is one saved version of a cell's content.
type VersionEntry = store.VersionEntry

// Value is a computed cell value: null, number, text or matrix.
type Value = value.Value

// Stack is the operand stack a Func pops its arguments from and pushes its
// result onto.
type Stack = value.Stack

// Func is a builtin function. It pops argc arguments, last argument first,
// and pushes exactly one result.
type Func = builtin.Func

// Registry is an immutable set of builtin functions.
type Registry = builtin.Registry

// Value constructors for use in custom functions.
var (
	Null   = value.Null
	Number = value.Number
	Text   = value.Text
	Bool   = value.Bool
)

// ToNumber coerces a value to a number; anything but a number is 0.
func ToNumber(v Value) float64 {
	return value.ToNumber(v)
}

// NewRegistry returns the standard builtins, drawing RAND from r when it
// is non-nil.
func NewRegistry(r Random) *Registry {
	if r == nil {
		return builtin.New()
	}
	return builtin.New(builtin.WithRandom(r))
}

// Random is a source of uniform floats in [0, 1) for RAND and RANDBETWEEN.
type Random = builtin.Random

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(w *Workbook) {
		s, err := store.NewSQLite(path)
		if err != nil {
			w.err = err
			return
		}
		w.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(w *Workbook) {
		w.store = store.NewMemory()
	}
}

// WithStore sets a custom store. The workbook closes it on Close.
func WithStore(s Store) Option {
	return func(w *Workbook) {
		w.store = s
	}
}

// WithWorkbookID selects the workbook to load and save. Without it a new
// random ID is generated.
func WithWorkbookID(id string) Option {
	return func(w *Workbook) {
		w.id = id
	}
}

// WithLenientLexing makes the lexer skip unknown characters instead of
// failing the formula.
func WithLenientLexing() Option {
	return func(w *Workbook) {
		w.lenient = true
	}
}

// WithRandom sets the random source used by RAND and RANDBETWEEN.
func WithRandom(r Random) Option {
	return func(w *Workbook) {
		w.random = r
	}
}

// WithRegistry replaces the builtin function registry.
func WithRegistry(r *Registry) Option {
	return func(w *Workbook) {
		w.funcs = r
	}
}

// WithFunction registers fn under name, replacing any builtin of the same
// name. Names are case-insensitive.
func WithFunction(name string, fn Func) Option {
	return func(w *Workbook) {
		w.extra = append(w.extra, namedFunc{name, fn})
	}
}

// WithContext sets the context used for logging during recalculation.
func WithContext(ctx context.Context) Option {
	return func(w *Workbook) {
		w.ctx = ctx
	}
}
