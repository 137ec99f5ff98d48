package value

import (
	"errors"
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Null(), false},
		{Number(0), false},
		{Number(-2), true},
		{Number(math.NaN()), false},
		{Text(""), false},
		{Text("0"), true},
		{Matrix([][]Value{{Number(1)}}), false},
	}
	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.want {
			t.Errorf("%#v.Truthy() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEqualIsStrict(t *testing.T) {
	if Number(1).Equal(Text("1")) {
		t.Error("number 1 should not equal text \"1\"")
	}
	if !Null().Equal(Null()) {
		t.Error("null should equal null")
	}
	if !Text("a").Equal(Text("a")) {
		t.Error("equal text should compare equal")
	}
	m := Matrix([][]Value{{Number(1)}})
	if m.Equal(m) {
		t.Error("matrices should never compare equal")
	}
}

func TestFormatNumber(t *testing.T) {
	// Runtime addition; a constant expression would fold to exactly 0.3.
	a, b := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{-0.5, "-0.5"},
		{a + b, "0.30000000000000004"},
		{0.3, "0.3"},
		{1e21, "1e+21"},
		{123456789012, "123456789012"},
		{1e-7, "1e-7"},
		{0.000001, "0.000001"},
		{math.Inf(1), "Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"  3.5 ", 3.5, true},
		{"", 0, true},
		{"-1e3", -1000, true},
		{".5", 0.5, true},
		{"0x10", 16, true},
		{"-Infinity", math.Inf(-1), true},
		{"12abc", 0, false},
		{"inf", 0, false},
		{"1_000", 0, false},
		{"--1", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDisplay(t *testing.T) {
	m := Matrix([][]Value{{Number(1), Text("a")}, {Null(), Number(2.5)}})
	if got := m.String(); got != "1,a,,2.5" {
		t.Errorf("matrix String() = %q", got)
	}
	if got := Null().String(); got != "" {
		t.Errorf("null String() = %q", got)
	}
	if !Text(NotAvailable).IsErrorMarker() || Text("#hashtag").IsErrorMarker() {
		t.Error("IsErrorMarker mismatch")
	}
}

func TestStack(t *testing.T) {
	s := NewStack(Number(1), Number(2), Number(3))
	top, err := s.Pop()
	if err != nil || !top.Equal(Number(3)) {
		t.Fatalf("Pop() = %#v, %v", top, err)
	}
	args, err := s.PopN(2)
	if err != nil {
		t.Fatalf("PopN error: %v", err)
	}
	if !args[0].Equal(Number(1)) || !args[1].Equal(Number(2)) {
		t.Errorf("PopN order = %#v", args)
	}
	if _, err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("expected ErrStackUnderflow, got %v", err)
	}
	if _, err := s.PopN(1); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("expected ErrStackUnderflow from PopN, got %v", err)
	}
}
