package sheetcalc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/sheetcalc/internal/address"
	"nickandperla.net/sheetcalc/internal/value"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func TestSetAndGet(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Set("A1", "5"))
	require.NoError(t, w.Set("A2", "=A1*2"))
	require.NoError(t, w.Set("a3", `="n="&A2`))

	got, err := w.Get("A2")
	require.NoError(t, err)
	assert.Equal(t, "10", got)
	got, _ = w.Get("A3")
	assert.Equal(t, "n=10", got)

	// Edits propagate through a full recalculation
	require.NoError(t, w.Set("A1", "7"))
	got, _ = w.Get("A2")
	assert.Equal(t, "14", got)

	v, err := w.Value("A2")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Number(14)))

	v, err = w.Value("Z99")
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	src, _ := w.Source("A2")
	assert.Equal(t, "=A1*2", src)

	_, err = w.Get("1A")
	assert.Error(t, err)
	assert.Error(t, w.Set("??", "1"))
}

func TestDeleteAndCells(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	require.NoError(t, w.Apply(
		Change{At: coord(t, "B1"), Content: "1"},
		Change{At: coord(t, "A2"), Content: "2"},
		Change{At: coord(t, "A1"), Content: "=SUM(A2:B2)"},
	))
	assert.Equal(t, []string{"A1", "B1", "A2"}, w.Cells())

	require.NoError(t, w.Set("A2", ""))
	assert.Equal(t, []string{"A1", "B1"}, w.Cells())
	got, _ := w.Get("A1")
	assert.Equal(t, "0", got)
}

func TestErrorsStayInTheirCell(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	require.NoError(t, w.Set("A1", "=1+"))
	require.NoError(t, w.Set("A2", "=A2"))
	require.NoError(t, w.Set("A3", "=VLOOKUP(9,B1:C1,2)"))
	require.NoError(t, w.Set("A4", "=3"))

	for _, ref := range []string{"A1", "A2"} {
		got, _ := w.Get(ref)
		assert.Equal(t, "#ERROR!", got, ref)
	}
	got, _ := w.Get("A3")
	assert.Equal(t, "#N/A", got)
	got, _ = w.Get("A4")
	assert.Equal(t, "3", got)
}

func TestEvalAndDisassemble(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Set("A1", "4"))

	v, err := w.Eval("=A1*A1")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Number(16)))

	v, err = w.Eval("A1>3")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Number(1)))

	_, err = w.Eval("=NOPE(1)")
	assert.Error(t, err)

	listing, err := w.Disassemble("=1+A1")
	require.NoError(t, err)
	assert.Equal(t, "0000 PUSH number(1)\n0001 LOAD A1\n0002 ADD\n", listing)
}

func TestLenientLexing(t *testing.T) {
	strict, err := New()
	require.NoError(t, err)
	require.NoError(t, strict.Set("A1", "=1 # + 2"))
	got, _ := strict.Get("A1")
	assert.Equal(t, "#ERROR!", got)

	lenient, err := New(WithLenientLexing())
	require.NoError(t, err)
	require.NoError(t, lenient.Set("A1", "=1 # + 2"))
	got, _ = lenient.Get("A1")
	assert.Equal(t, "3", got)
}

func TestWithRandomAndRegistry(t *testing.T) {
	w, err := New(WithRandom(fixedRandom(0.5)))
	require.NoError(t, err)
	require.NoError(t, w.Set("A1", "=RAND()"))
	got, _ := w.Get("A1")
	assert.Equal(t, "0.5", got)

	double := func(argc int, st *Stack) error {
		v, err := st.Pop()
		if err != nil {
			return err
		}
		st.Push(Number(ToNumber(v) * 2))
		return nil
	}
	w, err = New(WithFunction("DOUBLE", double))
	require.NoError(t, err)
	require.NoError(t, w.Set("A1", "=double(21)"))
	got, _ = w.Get("A1")
	assert.Equal(t, "42", got)
	assert.Contains(t, w.Functions(), "double")
	assert.Contains(t, w.Functions(), "sum")

	w, err = New(WithRegistry(NewRegistry(fixedRandom(0.25))), WithFunction("double", double))
	require.NoError(t, err)
	require.NoError(t, w.Set("A1", "=DOUBLE(RAND())"))
	got, _ = w.Get("A1")
	assert.Equal(t, "0.5", got)
	assert.Contains(t, w.Functions(), "double")
}

func TestFormatAndStyleRecalculate(t *testing.T) {
	w, err := New(WithMemoryStore(), WithWorkbookID("styled"))
	require.NoError(t, err)
	require.NoError(t, w.Set("A1", "2"))
	require.NoError(t, w.SetFormat("A1", 3))
	require.NoError(t, w.SetStyle("A1", AlignCenter, StyleBold))
	require.NoError(t, w.Set("A1", "=1+1"))

	records, err := w.store.LoadCells("styled")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Format)
	assert.Equal(t, 5, records[0].Style)
	assert.True(t, records[0].IsFormula)
	got, _ := w.Get("A1")
	assert.Equal(t, "2", got)
}

func TestPersistenceAndHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")

	w, err := New(WithSQLiteStore(path), WithWorkbookID("budget"))
	require.NoError(t, err)
	require.NoError(t, w.Set("A1", "100"))
	require.NoError(t, w.Set("A2", "=A1*1.5"))
	require.NoError(t, w.Set("A1", "200"))
	require.NoError(t, w.Close())

	w, err = New(WithSQLiteStore(path), WithWorkbookID("budget"))
	require.NoError(t, err)
	defer w.Close()

	got, err := w.Get("A2")
	require.NoError(t, err)
	assert.Equal(t, "300", got)

	entries, err := w.History("A1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "200", entries[0].Content)
	assert.Equal(t, "100", entries[1].Content)

	ids, err := w.Workbooks()
	require.NoError(t, err)
	assert.Equal(t, []string{"budget"}, ids)

	// A different ID starts empty
	other, err := New(WithSQLiteStore(path), WithWorkbookID("other"))
	require.NoError(t, err)
	defer other.Close()
	assert.Empty(t, other.Cells())
}

func TestGeneratedID(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())

	entries, err := a.History("A1", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteStoreError(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "missing", "nested", "book.db")
	_, err := os.Stat(filepath.Dir(bad))
	require.True(t, os.IsNotExist(err))

	_, err = New(WithSQLiteStore(bad))
	assert.Error(t, err)
}

func coord(t *testing.T, ref string) address.Coord {
	t.Helper()
	a, err := address.Parse(ref)
	require.NoError(t, err)
	return a.Coord()
}
