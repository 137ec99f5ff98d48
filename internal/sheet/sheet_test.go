package sheet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/sheetcalc/internal/address"
	"nickandperla.net/sheetcalc/internal/builtin"
	"nickandperla.net/sheetcalc/internal/scanner"
	"nickandperla.net/sheetcalc/internal/value"
)

func at(ref string) Coord {
	return address.MustParse(ref).Coord()
}

// build returns a recalculated grid from ref/content pairs.
func build(t *testing.T, e *Engine, pairs ...string) *Grid {
	t.Helper()
	require.Zero(t, len(pairs)%2, "pairs must be even")
	var changes []Change
	for i := 0; i < len(pairs); i += 2 {
		ch, err := ParseChange(pairs[i], pairs[i+1])
		require.NoError(t, err)
		changes = append(changes, ch)
	}
	g := NewGrid().Apply(changes...)
	e.Recalculate(context.Background(), g)
	return g
}

func display(t *testing.T, g *Grid, ref string) string {
	t.Helper()
	cell, ok := g.Get(at(ref))
	require.True(t, ok, "no cell at %s", ref)
	require.True(t, cell.Calculated, "%s not calculated", ref)
	return cell.Display()
}

func TestNewCell(t *testing.T) {
	c := NewCell("=A1+1", nil)
	assert.True(t, c.IsFormula)
	assert.Equal(t, "A1+1", c.Formula())

	c = NewCell("=", nil)
	assert.False(t, c.IsFormula)
	assert.Equal(t, TypeString, c.DataType)

	c = NewCell("42.5", nil)
	assert.Equal(t, TypeNumber, c.DataType)
	assert.True(t, c.Content.Equal(value.Number(42.5)))

	c = NewCell("   ", nil)
	assert.Equal(t, TypeString, c.DataType)

	prev := Cell{Format: 3, Align: AlignRight, Style: StyleBold}
	c = NewCell("hello", &prev)
	assert.Equal(t, TypeString, c.DataType)
	assert.Equal(t, 3, c.Format)
	assert.Equal(t, AlignRight, c.Align)
	assert.Equal(t, StyleBold, c.Style)
}

func TestStylePacking(t *testing.T) {
	for _, align := range []TextAlign{AlignDefault, AlignLeft, AlignCenter, AlignRight} {
		for _, style := range []TextStyle{StyleNormal, StyleBold} {
			a, s := UnpackStyle(PackStyle(align, style))
			assert.Equal(t, align, a)
			assert.Equal(t, style, s)
		}
	}
	assert.Equal(t, 9, PackStyle(AlignRight, StyleBold))
	a, _ := UnpackStyle(3 << 1)
	assert.Equal(t, AlignDefault, a)
}

func TestRecalculate(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e,
		"A1", "5",
		"A2", "3",
		"A3", "=A1+A2",
		"B1", "=B2*2", // forward reference
		"B2", "=A3+1",
		"C1", "=E9+1",
		"C2", "=SUM(A1:A3)",
		"C3", "text",
		"C4", `=IF(A1>4,"big","small")`,
	)

	assert.Equal(t, "8", display(t, g, "A3"))
	assert.Equal(t, "9", display(t, g, "B2"))
	assert.Equal(t, "18", display(t, g, "B1"))
	assert.Equal(t, "1", display(t, g, "C1"))
	assert.Equal(t, "16", display(t, g, "C2"))
	assert.Equal(t, "text", display(t, g, "C3"))
	assert.Equal(t, "big", display(t, g, "C4"))

	c4, _ := g.Get(at("C4"))
	assert.Equal(t, TypeString, c4.DataType)
	b1, _ := g.Get(at("B1"))
	assert.Equal(t, TypeNumber, b1.DataType)
}

func TestFailuresAreIsolated(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e,
		"A1", "=1+",
		"A2", "=A0",
		"A3", "=NOPE(1)",
		"A4", "=A1:A2",
		"A5", "=MID(\"x\",0,1)",
		"B1", "=2*3",
	)
	for _, ref := range []string{"A1", "A2", "A3", "A4", "A5"} {
		assert.Equal(t, value.EvalError, display(t, g, ref), ref)
	}
	assert.Equal(t, "6", display(t, g, "B1"))
}

func TestCircularReferences(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e,
		"A1", "=B1+1",
		"B1", "=A1",
		"C1", "=C1",
		"D1", "=A1",
		"E1", "=7",
	)
	for _, ref := range []string{"A1", "B1", "C1"} {
		assert.Equal(t, value.EvalError, display(t, g, ref), ref)
	}
	// Outside the cycle the error is an ordinary value.
	assert.Equal(t, value.EvalError, display(t, g, "D1"))
	assert.Equal(t, "7", display(t, g, "E1"))
}

func TestRangeKeepsZeroAndEmptyText(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e,
		"A1", "0",
		"A2", `=""`,
		"B1", "=COUNT(A1:A3)",
		"B2", "=A1:A2",
	)
	assert.Equal(t, "2", display(t, g, "B1"))
	assert.Equal(t, value.EvalError, display(t, g, "B2"))
}

func TestRecalculateIsDeterministic(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e,
		"A1", "=B1*2",
		"B1", "=C1+C2",
		"C1", "4",
		"C2", "=VLOOKUP(1,D1:E2,2)",
		"D1", "1",
		"E1", "10",
	)
	first := map[Coord]string{}
	for _, c := range g.Coords() {
		cell, _ := g.Get(c)
		first[c] = cell.Display()
	}
	e.Recalculate(context.Background(), g)
	for c, want := range first {
		cell, _ := g.Get(c)
		assert.Equal(t, want, cell.Display(), c.String())
	}
	assert.Equal(t, "28", first[at("A1")])
}

func TestApplyIsImmutable(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e, "A1", "1", "A2", "=A1*10")

	next := g.Apply(Change{At: at("A1"), Content: "2"}, Change{At: at("B5"), Content: "x"})
	e.Recalculate(context.Background(), next)

	assert.Equal(t, "10", display(t, g, "A2"))
	assert.Equal(t, "20", display(t, next, "A2"))
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 3, next.Len())

	deleted := next.Apply(Change{At: at("A1")})
	e.Recalculate(context.Background(), deleted)
	_, ok := deleted.Get(at("A1"))
	assert.False(t, ok)
	assert.Equal(t, "0", display(t, deleted, "A2"))
}

func TestFormatAndStyleSurviveEdits(t *testing.T) {
	g := NewGrid().Apply(Change{At: at("A1"), Content: "1"})
	g = g.WithFormat(at("A1"), 2).WithStyle(at("A1"), AlignCenter, StyleBold)
	g = g.Apply(Change{At: at("A1"), Content: "=1+1"})

	cell, ok := g.Get(at("A1"))
	require.True(t, ok)
	assert.Equal(t, 2, cell.Format)
	assert.Equal(t, AlignCenter, cell.Align)
	assert.Equal(t, StyleBold, cell.Style)

	styled := NewGrid().WithStyle(at("C3"), AlignLeft, StyleNormal)
	assert.Equal(t, 1, styled.Len())
}

func TestCoordsRowMajor(t *testing.T) {
	g := NewGrid().Apply(
		Change{At: at("B2"), Content: "1"},
		Change{At: at("A2"), Content: "1"},
		Change{At: at("C1"), Content: "1"},
	)
	var got []string
	for _, c := range g.Coords() {
		got = append(got, c.String())
	}
	assert.Equal(t, []string{"C1", "A2", "B2"}, got)
}

func TestProgramCache(t *testing.T) {
	e := NewEngine(builtin.New())
	build(t, e, "A1", "=1+1", "A2", "=1+1", "A3", "=2+2", "A4", "=1+")
	assert.Equal(t, 3, e.cache.Len())

	_, err := e.Compile("1+")
	assert.Error(t, err)
}

func TestEvalAndLenient(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e, "A1", "4", "A2", "6")
	v, err := e.Eval(context.Background(), g, "=AVERAGE(A1:A2)*2")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Number(10)))

	_, err = e.Eval(context.Background(), g, "=A1 # 2")
	assert.Error(t, err)

	lenient := NewEngine(builtin.New(), WithLexMode(scanner.Lenient))
	v, err = lenient.Eval(context.Background(), g, "=A1 # + 2")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Number(6)))
}

func TestOutOfRangeCountsStayInCell(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e,
		"A1", `=LEFT("abc",1/0)`,
		"A2", `=LEFT("abc",POWER(10,20))`,
		"A3", `=RIGHT("abc",POWER(10,20))`,
		"A4", `=MID("abc",2,1/0)`,
		"A5", `=FIND("b","abc",POWER(10,20))`,
		"B1", "=1+1",
	)
	assert.Equal(t, "abc", display(t, g, "A1"))
	assert.Equal(t, "abc", display(t, g, "A2"))
	assert.Equal(t, "abc", display(t, g, "A3"))
	assert.Equal(t, "bc", display(t, g, "A4"))
	assert.Equal(t, value.ErrorValue, display(t, g, "A5"))
	assert.Equal(t, "2", display(t, g, "B1"))
}

func TestOversizedRange(t *testing.T) {
	e := NewEngine(builtin.New())
	g := build(t, e,
		"A1", "=SUM(B1:XFD1048576)",
		"A2", "=COUNT(C1:C100)",
		"C1", "3",
	)
	assert.Equal(t, value.EvalError, display(t, g, "A1"))
	assert.Equal(t, "1", display(t, g, "A2"))

	_, err := e.Eval(context.Background(), g, "=SUM(A1:ZZ99999)")
	assert.ErrorIs(t, err, ErrRef)
	assert.ErrorIs(t, err, address.ErrTooLarge)
}

func TestFormattedEmptyCellReadsAsNull(t *testing.T) {
	e := NewEngine(builtin.New())
	g := NewGrid().WithStyle(at("B1"), AlignCenter, StyleBold).WithFormat(at("B2"), 2)
	g = g.Apply(
		Change{At: at("A1"), Content: `=B1=""`},
		Change{At: at("A2"), Content: "=B2+1"},
		Change{At: at("A3"), Content: "=COUNT(B1:B2)"},
	)
	e.Recalculate(context.Background(), g)

	b1, ok := g.Get(at("B1"))
	require.True(t, ok)
	assert.True(t, b1.Content.IsNull())
	assert.Equal(t, "", b1.Display())
	assert.Equal(t, "0", display(t, g, "A1"))
	assert.Equal(t, "1", display(t, g, "A2"))
	assert.Equal(t, "0", display(t, g, "A3"))
}
