package program

import (
	"testing"

	"nickandperla.net/sheetcalc/internal/value"
)

func TestBuilderListing(t *testing.T) {
	var b Builder
	b.Emit(Load("A1"))
	b.Emit(Push(value.Number(2)))
	b.Emit(Simple(MUL))
	b.Emit(Push(value.Number(1)))
	b.Emit(Call("abs"))

	want := "0000 LOAD A1\n" +
		"0001 PUSH number(2)\n" +
		"0002 MUL\n" +
		"0003 PUSH number(1)\n" +
		"0004 CALL abs\n"
	if got := b.Program().String(); got != want {
		t.Errorf("listing mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestIsBinary(t *testing.T) {
	for _, op := range []Op{ADD, SUB, MUL, DIV, CONCAT, GT, GTE, LT, LTE, EQ, NE} {
		if !op.IsBinary() {
			t.Errorf("%s should be binary", op)
		}
	}
	for _, op := range []Op{PUSH, LOAD, NEG, CALL} {
		if op.IsBinary() {
			t.Errorf("%s should not be binary", op)
		}
	}
}
