package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nickandperla.net/sheetcalc/pkg/sheetcalc"
)

const helpText = `Commands:
  A1 = content      set a cell (empty content deletes it)
  A1                show a cell
  =formula          evaluate a formula without storing it
  :cells            list all cells
  :disasm =formula  show the compiled program
  :funcs            list builtin functions
  :history A1 [n]   show the edit history of a cell
  :workbooks        list saved workbooks
  :help             show this help
`

var assignRe = regexp.MustCompile(`^\s*(\$?[A-Za-z]+\$?[0-9]+)\s*=(.*)$`)

// session executes REPL command lines against a workbook.
type session struct {
	wb *sheetcalc.Workbook
}

// exec runs one command line and returns its output.
func (s *session) exec(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return ""
	case strings.HasPrefix(line, ":"):
		return s.command(line)
	case strings.HasPrefix(line, "="):
		v, err := s.wb.Eval(line)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		return v.String() + "\n"
	}

	if m := assignRe.FindStringSubmatch(line); m != nil {
		content := strings.TrimLeft(m[2], " ")
		if err := s.wb.Set(m[1], content); err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		return s.show(m[1])
	}
	return s.show(line)
}

func (s *session) command(line string) string {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":help":
		return helpText
	case ":cells":
		return s.listCells()
	case ":funcs":
		return strings.Join(s.wb.Functions(), " ") + "\n"
	case ":disasm":
		formula := strings.TrimSpace(strings.TrimPrefix(line, ":disasm"))
		out, err := s.wb.Disassemble(formula)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		return out
	case ":history":
		if len(fields) < 2 {
			return "Usage: :history A1 [limit]\n"
		}
		limit := 0
		if len(fields) > 2 {
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Sprintf("Error: bad limit %q\n", fields[2])
			}
			limit = n
		}
		entries, err := s.wb.History(fields[1], limit)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		var sb strings.Builder
		for _, e := range entries {
			content := e.Content
			if content == "" {
				content = "(deleted)"
			}
			fmt.Fprintf(&sb, "v%d %s %s\n", e.Version, e.Ts, content)
		}
		return sb.String()
	case ":workbooks":
		ids, err := s.wb.Workbooks()
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		var sb strings.Builder
		for _, id := range ids {
			marker := " "
			if id == s.wb.ID() {
				marker = "*"
			}
			fmt.Fprintf(&sb, "%s %s\n", marker, id)
		}
		return sb.String()
	}
	return fmt.Sprintf("Unknown command %s (try :help)\n", fields[0])
}

// show prints a cell as "A1: value", with the source for formulas.
func (s *session) show(ref string) string {
	v, err := s.wb.Get(ref)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	src, _ := s.wb.Source(ref)
	ref = strings.ToUpper(strings.ReplaceAll(ref, "$", ""))
	if strings.HasPrefix(src, "=") {
		return fmt.Sprintf("%s: %s  [%s]\n", ref, v, src)
	}
	return fmt.Sprintf("%s: %s\n", ref, v)
}

func (s *session) listCells() string {
	var sb strings.Builder
	for _, ref := range s.wb.Cells() {
		sb.WriteString(s.show(ref))
	}
	return sb.String()
}
