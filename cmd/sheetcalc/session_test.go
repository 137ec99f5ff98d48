package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.alis.build/alog"

	"nickandperla.net/sheetcalc/pkg/sheetcalc"
)

func newSession(t *testing.T) *session {
	t.Helper()
	wb, err := sheetcalc.New(sheetcalc.WithMemoryStore(), sheetcalc.WithWorkbookID("test"))
	if err != nil {
		t.Fatalf("failed to create workbook: %v", err)
	}
	t.Cleanup(func() { wb.Close() })
	return &session{wb: wb}
}

func TestSessionCommands(t *testing.T) {
	s := newSession(t)

	tests := []struct {
		line string
		want string
	}{
		{"A1 = 5", "A1: 5\n"},
		{"a2=  =A1*3", "A2: 15  [=A1*3]\n"},
		{"A2", "A2: 15  [=A1*3]\n"},
		{"$A$1", "A1: 5\n"},
		{"=A1+A2", "20\n"},
		{"B1 = hello", "B1: hello\n"},
		{":cells", "A1: 5\nB1: hello\nA2: 15  [=A1*3]\n"},
		{"=1+", "Error: "},
		{":disasm =A1*2", "0000 LOAD A1\n0001 PUSH number(2)\n0002 MUL\n"},
		{"B1 =", "B1: \n"},
		{":workbooks", "* test\n"},
		{":nope", "Unknown command :nope"},
		{"", ""},
	}
	for _, tt := range tests {
		got := s.exec(tt.line)
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("exec(%q) = %q, want prefix %q", tt.line, got, tt.want)
		}
	}
}

func TestSessionHistory(t *testing.T) {
	s := newSession(t)
	s.exec("A1 = 1")
	s.exec("A1 = 2")
	s.exec("A1 =")

	out := s.exec(":history A1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 history lines, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "v3 ") || !strings.HasSuffix(lines[0], "(deleted)") {
		t.Errorf("unexpected newest entry %q", lines[0])
	}
	if !strings.HasSuffix(lines[2], " 1") {
		t.Errorf("unexpected oldest entry %q", lines[2])
	}

	out = s.exec(":history A1 1")
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected 1 line with limit, got %q", out)
	}
	if got := s.exec(":history"); !strings.HasPrefix(got, "Usage") {
		t.Errorf("expected usage, got %q", got)
	}
	if got := s.exec(":history A1 x"); !strings.HasPrefix(got, "Error") {
		t.Errorf("expected error for bad limit, got %q", got)
	}
}

func TestSessionFuncsAndHelp(t *testing.T) {
	s := newSession(t)
	funcs := s.exec(":funcs")
	for _, name := range []string{"sum", "vlookup", "if"} {
		if !strings.Contains(funcs, name) {
			t.Errorf("expected %s in :funcs output %q", name, funcs)
		}
	}
	if !strings.Contains(s.exec(":help"), ":history") {
		t.Error("expected :history in help")
	}
}

func TestParseFixture(t *testing.T) {
	data := []byte(`
cells:
  B1: "=A1*2"
  A1: 21
  A2: true
  c2: hello
  D9: ~
formats:
  A1: 2
`)
	changes, formats, err := parseFixture(data)
	if err != nil {
		t.Fatalf("parseFixture failed: %v", err)
	}
	var got []string
	for _, ch := range changes {
		got = append(got, ch.At.String()+"="+ch.Content)
	}
	want := []string{"A1=21", "B1==A1*2", "A2=1", "C2=hello", "D9="}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
	if formats["A1"] != 2 {
		t.Errorf("expected format 2 for A1, got %v", formats)
	}

	if _, _, err := parseFixture([]byte("cells:\n  A1: [1, 2]\n")); err == nil {
		t.Error("expected error for non-scalar cell")
	}
	if _, _, err := parseFixture([]byte("cells:\n  1A: 3\n")); err == nil {
		t.Error("expected error for bad address")
	}
}

func TestLoadFileAndEval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.yaml")
	content := "cells:\n  A1: 4\n  A2: 6\n  A3: \"=SUM(A1:A2)\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	s := newSession(t)
	if err := loadFile(s.wb, path); err != nil {
		t.Fatalf("loadFile failed: %v", err)
	}
	out, err := evalFormula(s.wb, "=A3/2", false)
	if err != nil {
		t.Fatalf("evalFormula failed: %v", err)
	}
	if out != "5\n" {
		t.Errorf("expected '5', got %q", out)
	}

	out, err = evalFormula(s.wb, "=A3/2", true)
	if err != nil {
		t.Fatalf("disassemble failed: %v", err)
	}
	if !strings.HasPrefix(out, "0000 LOAD A3\n") {
		t.Errorf("unexpected listing %q", out)
	}

	if err := loadFile(s.wb, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVerboseLocalLogging(t *testing.T) {
	configureLogging(true, true)
	defer alog.SetLevel(alog.LevelInfo)

	s := newSession(t)
	if got := s.exec("A1 = =1+"); got != "A1: #ERROR!  [=1+]\n" {
		t.Errorf("unexpected output with debug logging %q", got)
	}
}
