// Command sheetcalc is the spreadsheet formula engine CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.alis.build/alog"

	"nickandperla.net/sheetcalc/pkg/sheetcalc"
)

func main() {
	var (
		evalStr  = flag.String("e", "", "Evaluate a formula against the workbook")
		file     = flag.String("f", "", "Load cells from a YAML file")
		dbPath   = flag.String("db", "sheetcalc.db", "SQLite database path (empty for in-memory)")
		id       = flag.String("workbook", "default", "Workbook ID")
		lenient  = flag.Bool("lenient", false, "Skip unknown characters in formulas")
		disasm   = flag.Bool("disasm", false, "Print the compiled program instead of evaluating")
		verbose  = flag.Bool("v", false, "Log per-cell evaluation failures")
		logLocal = flag.Bool("log-local", false, "Human-readable log output")
	)

	flag.Parse()

	configureLogging(*verbose, *logLocal)

	// Build options
	opts := []sheetcalc.Option{
		sheetcalc.WithWorkbookID(*id),
		sheetcalc.WithContext(context.Background()),
	}
	if *dbPath == "" {
		opts = append(opts, sheetcalc.WithMemoryStore())
	} else {
		opts = append(opts, sheetcalc.WithSQLiteStore(*dbPath))
	}
	if *lenient {
		opts = append(opts, sheetcalc.WithLenientLexing())
	}

	wb, err := sheetcalc.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer wb.Close()

	// Step 1: Load file if specified
	if *file != "" {
		if err := loadFile(wb, *file); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading file: %v\n", err)
			wb.Close()
			os.Exit(1)
		}
	}

	// Step 2: Run -e formula if provided
	if *evalStr != "" {
		out, err := evalFormula(wb, *evalStr, *disasm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			wb.Close()
			os.Exit(1)
		}
		fmt.Print(out)
		return
	}

	// Step 3: With a file and no formula, print the grid
	if *file != "" {
		s := &session{wb: wb}
		fmt.Print(s.listCells())
		return
	}

	runREPL(wb)
}

// evalFormula evaluates formula, or disassembles it when disasm is set.
func evalFormula(wb *sheetcalc.Workbook, formula string, disasm bool) (string, error) {
	if disasm {
		return wb.Disassemble(formula)
	}
	v, err := wb.Eval(formula)
	if err != nil {
		return "", err
	}
	return v.String() + "\n", nil
}

// configureLogging maps the -v and -log-local flags onto alog.
func configureLogging(verbose, local bool) {
	if local {
		alog.SetLoggingEnvironment(alog.EnvironmentLocal)
	}
	if verbose {
		alog.SetLevel(alog.LevelDebug)
	}
}
