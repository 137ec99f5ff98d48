package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"nickandperla.net/sheetcalc/pkg/sheetcalc"
)

func printBanner(wb *sheetcalc.Workbook) {
	fmt.Printf("sheetcalc REPL, workbook %s (Ctrl+D to exit, :help for commands)\n", wb.ID())
	fmt.Println()
}

func runREPL(wb *sheetcalc.Workbook) {
	s := &session{wb: wb}
	printBanner(wb)

	// Check if stdin is a terminal
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Not a TTY, fall back to basic mode
		runBasicREPL(s)
		return
	}

	runRawREPL(s)
}

// runBasicREPL handles non-TTY input (piped input)
func runBasicREPL(s *session) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		fmt.Print(s.exec(scanner.Text()))
	}
}

// runRawREPL handles TTY input with line editing and history
func runRawREPL(s *session) {
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
		runBasicREPL(s)
		return
	}
	defer term.Restore(fd, oldState)

	var history []string
	for {
		fmt.Print(">>> ")
		line, eof := readLineRaw(fd, history)
		if eof {
			fmt.Print("\r\n")
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		history = append(history, line)

		// Replace newlines with \r\n for raw mode display
		fmt.Print(strings.ReplaceAll(s.exec(line), "\n", "\r\n"))
	}
}

// readLineRaw reads a line in raw mode. Up and down arrows walk history.
// Returns the line and whether EOF was encountered
func readLineRaw(fd int, history []string) (string, bool) {
	var line []rune
	cursor := 0 // Position in line (for arrow key navigation)
	hist := len(history)
	buf := make([]byte, 1)

	// Helper to redraw line from cursor position
	redrawFromCursor := func() {
		// Clear from cursor to end of line
		fmt.Print("\x1b[K")
		for i := cursor; i < len(line); i++ {
			fmt.Print(string(line[i]))
		}
		// Move cursor back to position
		if cursor < len(line) {
			fmt.Printf("\x1b[%dD", len(line)-cursor)
		}
	}

	// Replace the whole line, leaving the cursor at its end
	replaceLine := func(s string) {
		if cursor > 0 {
			fmt.Printf("\x1b[%dD", cursor)
		}
		line = []rune(s)
		cursor = 0
		redrawFromCursor()
		if len(line) > 0 {
			fmt.Printf("\x1b[%dC", len(line))
		}
		cursor = len(line)
	}

	insert := func(r rune) {
		newLine := make([]rune, 0, len(line)+1)
		newLine = append(newLine, line[:cursor]...)
		newLine = append(newLine, r)
		newLine = append(newLine, line[cursor:]...)
		line = newLine
		cursor++
		fmt.Print(string(r))
		if cursor < len(line) {
			redrawFromCursor()
		}
	}

	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return string(line), true
		}

		b := buf[0]

		switch b {
		case 0x04: // Ctrl+D
			if len(line) == 0 {
				return "", true
			}
			// Delete character at cursor (like Delete key)
			if cursor < len(line) {
				line = append(line[:cursor], line[cursor+1:]...)
				redrawFromCursor()
			}

		case 0x03: // Ctrl+C
			fmt.Print("^C\r\n")
			return "", false

		case 0x0d, 0x0a: // Enter (CR or LF)
			fmt.Print("\r\n")
			return string(line), false

		case 0x7f, 0x08: // Backspace (DEL or BS)
			if cursor > 0 {
				cursor--
				line = append(line[:cursor], line[cursor+1:]...)
				fmt.Print("\b")
				redrawFromCursor()
			}

		case 0x1b: // ESC: arrow key sequence
			seq := make([]byte, 2)
			if n, err := os.Stdin.Read(seq[:1]); err != nil || n == 0 || seq[0] != '[' {
				continue
			}
			if n, err := os.Stdin.Read(seq[1:]); err != nil || n == 0 {
				continue
			}

			switch seq[1] {
			case 'A': // Up arrow
				if hist > 0 {
					hist--
					replaceLine(history[hist])
				}
			case 'B': // Down arrow
				if hist < len(history)-1 {
					hist++
					replaceLine(history[hist])
				} else if hist == len(history)-1 {
					hist++
					replaceLine("")
				}
			case 'C': // Right arrow
				if cursor < len(line) {
					cursor++
					fmt.Print("\x1b[C")
				}
			case 'D': // Left arrow
				if cursor > 0 {
					cursor--
					fmt.Print("\x1b[D")
				}
			case '3': // Delete key: ESC [ 3 ~
				delBuf := make([]byte, 1)
				os.Stdin.Read(delBuf)
				if delBuf[0] == '~' && cursor < len(line) {
					line = append(line[:cursor], line[cursor+1:]...)
					redrawFromCursor()
				}
			}

		case 0x01: // Ctrl+A - beginning of line
			if cursor > 0 {
				fmt.Printf("\x1b[%dD", cursor)
				cursor = 0
			}

		case 0x05: // Ctrl+E - end of line
			if cursor < len(line) {
				fmt.Printf("\x1b[%dC", len(line)-cursor)
				cursor = len(line)
			}

		case 0x0b: // Ctrl+K - kill to end of line
			if cursor < len(line) {
				line = line[:cursor]
				fmt.Print("\x1b[K")
			}

		case 0x15: // Ctrl+U - kill to beginning of line
			if cursor > 0 {
				fmt.Printf("\x1b[%dD", cursor)
				line = line[cursor:]
				cursor = 0
				redrawFromCursor()
			}

		default:
			if b >= 0x20 && b < 0x7f {
				insert(rune(b))
			} else if b >= 0x80 {
				// UTF-8 multi-byte sequence - read remaining bytes
				utfBuf := []byte{b}
				numBytes := 0
				if b&0xE0 == 0xC0 {
					numBytes = 1
				} else if b&0xF0 == 0xE0 {
					numBytes = 2
				} else if b&0xF8 == 0xF0 {
					numBytes = 3
				}
				for i := 0; i < numBytes; i++ {
					n, err := os.Stdin.Read(buf)
					if err != nil || n == 0 {
						break
					}
					utfBuf = append(utfBuf, buf[0])
				}
				insert([]rune(string(utfBuf))[0])
			}
		}
	}
}
