package sheetcalc

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.alis.build/alog"

	"nickandperla.net/sheetcalc/internal/address"
	"nickandperla.net/sheetcalc/internal/builtin"
	"nickandperla.net/sheetcalc/internal/scanner"
	"nickandperla.net/sheetcalc/internal/sheet"
	"nickandperla.net/sheetcalc/internal/store"
	"nickandperla.net/sheetcalc/internal/value"
)

// Change is a single-cell edit. Empty content deletes the cell.
type Change = sheet.Change

// Alignment and style values accepted by SetStyle.
const (
	AlignDefault = sheet.AlignDefault
	AlignLeft    = sheet.AlignLeft
	AlignCenter  = sheet.AlignCenter
	AlignRight   = sheet.AlignRight
	StyleNormal  = sheet.StyleNormal
	StyleBold    = sheet.StyleBold
)

type namedFunc struct {
	name string
	fn   builtin.Func
}

// Workbook is a calculated grid of cells. Every edit builds a new snapshot,
// recalculates it in full and publishes it; readers always see a complete
// snapshot.
type Workbook struct {
	mu      sync.RWMutex
	ctx     context.Context
	id      string
	store   store.Store
	funcs   *builtin.Registry
	random  builtin.Random
	lenient bool
	extra   []namedFunc
	engine  *sheet.Engine
	grid    *sheet.Grid
	err     error
}

// New creates a workbook with the given options. When a store is
// configured, the cells saved under the workbook ID are loaded and
// recalculated.
func New(opts ...Option) (*Workbook, error) {
	w := &Workbook{ctx: context.Background()}
	for _, opt := range opts {
		opt(w)
	}
	if w.err != nil {
		return nil, w.err
	}
	if w.id == "" {
		w.id = uuid.NewString()
	}
	if w.funcs == nil {
		var bopts []builtin.Option
		if w.random != nil {
			bopts = append(bopts, builtin.WithRandom(w.random))
		}
		w.funcs = builtin.New(bopts...)
	}
	for _, f := range w.extra {
		w.funcs = w.funcs.With(f.name, f.fn)
	}
	mode := scanner.Strict
	if w.lenient {
		mode = scanner.Lenient
	}
	w.engine = sheet.NewEngine(w.funcs, sheet.WithLexMode(mode))

	grid := sheet.NewGrid()
	if w.store != nil {
		records, err := w.store.LoadCells(w.id)
		if err != nil {
			w.store.Close()
			return nil, fmt.Errorf("load workbook %s: %w", w.id, err)
		}
		for _, r := range records {
			grid.Set(r.At, fromRecord(r))
		}
	}
	w.engine.Recalculate(w.ctx, grid)
	w.grid = grid
	return w, nil
}

// ID returns the workbook ID used for persistence.
func (w *Workbook) ID() string {
	return w.id
}

// Set replaces the content of the cell at ref.
func (w *Workbook) Set(ref, content string) error {
	ch, err := sheet.ParseChange(ref, content)
	if err != nil {
		return err
	}
	return w.Apply(ch)
}

// Apply applies a batch of edits, recalculates and persists them.
func (w *Workbook) Apply(changes ...Change) error {
	coords := make([]address.Coord, len(changes))
	for i, ch := range changes {
		coords[i] = ch.At
	}
	return w.update(coords, func(g *sheet.Grid) *sheet.Grid {
		return g.Apply(changes...)
	})
}

// SetFormat sets the number format of the cell at ref.
func (w *Workbook) SetFormat(ref string, format int) error {
	a, err := address.Parse(ref)
	if err != nil {
		return err
	}
	c := a.Coord()
	return w.update([]address.Coord{c}, func(g *sheet.Grid) *sheet.Grid {
		return g.WithFormat(c, format)
	})
}

// SetStyle sets the alignment and text style of the cell at ref.
func (w *Workbook) SetStyle(ref string, align sheet.TextAlign, style sheet.TextStyle) error {
	a, err := address.Parse(ref)
	if err != nil {
		return err
	}
	c := a.Coord()
	return w.update([]address.Coord{c}, func(g *sheet.Grid) *sheet.Grid {
		return g.WithStyle(c, align, style)
	})
}

// update derives a new snapshot, recalculates it, publishes it and saves
// the touched coordinates. A failed save is logged; the in-memory state
// stays authoritative.
func (w *Workbook) update(touched []address.Coord, edit func(*sheet.Grid) *sheet.Grid) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := edit(w.grid)
	w.engine.Recalculate(w.ctx, next)
	w.grid = next

	if w.store == nil {
		return nil
	}
	var records []store.Record
	var deleted []address.Coord
	seen := make(map[address.Coord]bool, len(touched))
	for _, c := range touched {
		if seen[c] {
			continue
		}
		seen[c] = true
		if cell, ok := next.Get(c); ok {
			records = append(records, toRecord(c, cell))
		} else {
			deleted = append(deleted, c)
		}
	}
	if err := w.store.SaveCells(w.id, records, deleted); err != nil {
		alog.Warnf(w.ctx, "save workbook %s: %v", w.id, err)
		return fmt.Errorf("save workbook %s: %w", w.id, err)
	}
	return nil
}

// Get returns the display form of the computed value at ref. An empty
// cell displays as "".
func (w *Workbook) Get(ref string) (string, error) {
	v, err := w.Value(ref)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Value returns the computed value at ref.
func (w *Workbook) Value(ref string) (Value, error) {
	a, err := address.Parse(ref)
	if err != nil {
		return value.Value{}, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	cell, ok := w.grid.Get(a.Coord())
	if !ok {
		return value.Null(), nil
	}
	return cell.Computed, nil
}

// Source returns the content of the cell at ref as it was entered.
func (w *Workbook) Source(ref string) (string, error) {
	a, err := address.Parse(ref)
	if err != nil {
		return "", err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	cell, _ := w.grid.Get(a.Coord())
	return cell.Source(), nil
}

// Eval evaluates a formula against the current snapshot without storing
// it. The leading "=" is optional.
func (w *Workbook) Eval(formula string) (Value, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.engine.Eval(w.ctx, w.grid, formula)
}

// Disassemble returns the compiled program listing of formula.
func (w *Workbook) Disassemble(formula string) (string, error) {
	prog, err := w.engine.Compile(formula)
	if err != nil {
		return "", err
	}
	return prog.String(), nil
}

// Cells returns the addresses of the non-empty cells in row-major order.
func (w *Workbook) Cells() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	coords := w.grid.Coords()
	refs := make([]string, len(coords))
	for i, c := range coords {
		refs[i] = c.String()
	}
	return refs
}

// Functions returns the names of the registered builtins.
func (w *Workbook) Functions() []string {
	return w.funcs.Names()
}

// History returns the edit history of the cell at ref, newest first. A
// limit of 0 returns every version. Stores without history return nothing.
func (w *Workbook) History(ref string, limit int) ([]VersionEntry, error) {
	a, err := address.Parse(ref)
	if err != nil {
		return nil, err
	}
	hs, ok := w.store.(store.HistoryStore)
	if !ok {
		return nil, nil
	}
	return hs.CellHistory(w.id, a.Coord(), limit)
}

// Workbooks returns the IDs of the workbooks saved in the store.
func (w *Workbook) Workbooks() ([]string, error) {
	if w.store == nil {
		return nil, nil
	}
	return w.store.ListWorkbooks()
}

// Close releases resources.
func (w *Workbook) Close() error {
	if w.store != nil {
		return w.store.Close()
	}
	return nil
}

func toRecord(c address.Coord, cell sheet.Cell) store.Record {
	return store.Record{
		At:        c,
		DataType:  int(cell.DataType),
		IsFormula: cell.IsFormula,
		Content:   cell.Source(),
		Format:    cell.Format,
		Style:     sheet.PackStyle(cell.Align, cell.Style),
	}
}

func fromRecord(r store.Record) sheet.Cell {
	var prev sheet.Cell
	prev.Format = r.Format
	prev.Align, prev.Style = sheet.UnpackStyle(r.Style)
	return sheet.NewCell(r.Content, &prev)
}
