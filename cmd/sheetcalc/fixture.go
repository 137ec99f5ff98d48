package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"nickandperla.net/sheetcalc/internal/address"
	"nickandperla.net/sheetcalc/pkg/sheetcalc"
)

// fixture is the YAML workbook format:
//
//	cells:
//	  A1: 5
//	  A2: "=A1*2"
//	formats:
//	  A1: 2
type fixture struct {
	Cells   map[string]yaml.Node `yaml:"cells"`
	Formats map[string]int       `yaml:"formats"`
}

// parseFixture decodes a YAML fixture into changes in row-major order.
func parseFixture(data []byte) ([]sheetcalc.Change, map[string]int, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, err
	}
	changes := make([]sheetcalc.Change, 0, len(f.Cells))
	for ref, node := range f.Cells {
		if node.Kind != yaml.ScalarNode {
			return nil, nil, fmt.Errorf("cell %s: line %d: expected a scalar", ref, node.Line)
		}
		a, err := address.Parse(ref)
		if err != nil {
			return nil, nil, fmt.Errorf("cell %s: %w", ref, err)
		}
		changes = append(changes, sheetcalc.Change{At: a.Coord(), Content: scalarContent(node)})
	}
	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i].At, changes[j].At
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return changes, f.Formats, nil
}

// scalarContent returns the cell text of a YAML scalar. Booleans map to
// 1 and 0 and null to an empty cell.
func scalarContent(node yaml.Node) string {
	switch node.ShortTag() {
	case "!!null":
		return ""
	case "!!bool":
		if b, err := strconv.ParseBool(node.Value); err == nil && b {
			return "1"
		}
		return "0"
	}
	return node.Value
}

func loadFile(wb *sheetcalc.Workbook, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	changes, formats, err := parseFixture(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := wb.Apply(changes...); err != nil {
		return err
	}
	refs := make([]string, 0, len(formats))
	for ref := range formats {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		if err := wb.SetFormat(ref, formats[ref]); err != nil {
			return fmt.Errorf("format %s: %w", ref, err)
		}
	}
	return nil
}
