// File path: internal/diffparse/csv.go
package diffparse

import (
	"fmt"
	"strings"

	"github.com/openassess/asset-history/internal/textutil"
)

// maxDisplayValue caps any cell value shown in a summary.
const maxDisplayValue = 80

// VariationType labels how a single translated field changed.
type VariationType string

const (
	VariationUpdate   VariationType = "update"
	VariationAddition VariationType = "addition"
	VariationRemoval  VariationType = "removal"
)

// RowChange is one logical row edit reconstructed from a unified diff. A nil
// Before means the row is new; a nil After means it was removed. At least one
// side is always present.
type RowChange struct {
	Key    string
	Before []string
	After  []string
}

// LanguageVariation is one changed field of one row, ready for display.
type LanguageVariation struct {
	Type   VariationType
	Label  string
	Before string
	After  string
}

// Header describes the translation table's column layout, parsed from the
// current first line of the raw file.
type Header struct {
	Columns   []string
	ItemIDCol int
	LabelsCol int
}

// ParseHeader splits the header row and locates the item-id and labels
// columns by name. Missing names fall back to column 0 and item-id+1.
func ParseHeader(line string) Header {
	cols := ScanRow(strings.TrimRight(line, "\r\n"))
	h := Header{Columns: cols, ItemIDCol: -1, LabelsCol: -1}
	for i, col := range cols {
		name := strings.ToLower(strings.TrimSpace(col))
		if h.ItemIDCol < 0 && (name == "item_id" || name == "item id" || name == "itemid" || name == "id") {
			h.ItemIDCol = i
		}
		if h.LabelsCol < 0 && strings.Contains(name, "label") {
			h.LabelsCol = i
		}
	}
	if h.ItemIDCol < 0 {
		h.ItemIDCol = 0
	}
	if h.LabelsCol < 0 {
		h.LabelsCol = h.ItemIDCol + 1
	}
	return h
}

// ScanRow splits one CSV line into cells with a quote-aware scanner. Doubled
// quotes inside a quoted cell decode to a literal quote. Malformed input
// never fails; the scanner just yields what it saw.
func ScanRow(line string) []string {
	var (
		cells  []string
		cell   strings.Builder
		quoted bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case quoted:
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					cell.WriteRune('"')
					i++
				} else {
					quoted = false
				}
			} else {
				cell.WriteRune(ch)
			}
		case ch == '"' && cell.Len() == 0:
			quoted = true
		case ch == ',':
			cells = append(cells, cell.String())
			cell.Reset()
		default:
			cell.WriteRune(ch)
		}
	}
	cells = append(cells, cell.String())
	return cells
}

// ExtractRowChanges walks a unified-diff patch and reconstructs the changed
// logical rows, grouped by natural key. Diff metadata lines are skipped; a
// key appearing in several hunks collapses to one RowChange per side, last
// writer wins.
func ExtractRowChanges(patch string, header Header) []RowChange {
	changes := make(map[string]*RowChange)
	var order []string
	synthetic := 0

	upsert := func(key string) *RowChange {
		if rc, ok := changes[key]; ok {
			return rc
		}
		rc := &RowChange{Key: key}
		changes[key] = rc
		order = append(order, key)
		return rc
	}

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") || strings.HasPrefix(line, "@@") {
			continue
		}
		if len(line) == 0 || (line[0] != '+' && line[0] != '-') {
			continue
		}
		content := strings.TrimRight(line[1:], "\r")
		if strings.TrimSpace(content) == "" {
			continue
		}
		row := ScanRow(content)
		key := rowKey(row, header, &synthetic)
		rc := upsert(key)
		if line[0] == '+' {
			rc.After = row
		} else {
			rc.Before = row
		}
	}

	out := make([]RowChange, 0, len(order))
	for _, key := range order {
		out = append(out, *changes[key])
	}
	return out
}

func rowKey(row []string, header Header, synthetic *int) string {
	if header.ItemIDCol < len(row) {
		if key := strings.TrimSpace(row[header.ItemIDCol]); key != "" {
			return key
		}
	}
	if len(row) > 1 {
		if key := strings.TrimSpace(row[1]); key != "" {
			return key
		}
	}
	*synthetic++
	return fmt.Sprintf("row-%d", *synthetic)
}

// Variations compares every column to the right of the labels column between
// a row's before and after, emitting one variation per changed field. Raw
// cell text is compared; HTML stripping happens only when a value is
// rendered. A row whose sides are identical yields nothing.
func Variations(rc RowChange, header Header) []LanguageVariation {
	var out []LanguageVariation
	start := header.LabelsCol + 1
	width := len(rc.Before)
	if len(rc.After) > width {
		width = len(rc.After)
	}
	for i := start; i < width; i++ {
		before := cellAt(rc.Before, i)
		after := cellAt(rc.After, i)
		label := columnLabel(header, i)
		switch {
		case before != "" && after != "" && before != after:
			out = append(out, LanguageVariation{Type: VariationUpdate, Label: label, Before: before, After: after})
		case before == "" && after != "":
			out = append(out, LanguageVariation{Type: VariationAddition, Label: label, After: after})
		case before != "" && after == "":
			out = append(out, LanguageVariation{Type: VariationRemoval, Label: label, Before: before})
		}
	}
	return out
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func columnLabel(header Header, i int) string {
	if i < len(header.Columns) {
		if name := strings.TrimSpace(header.Columns[i]); name != "" {
			return textutil.LanguageName(name)
		}
	}
	return fmt.Sprintf("column %d", i+1)
}

// RowSummary renders one row's variations as a short sentence group: at most
// one sentence per variation type, at most three sentences, each citing up to
// two example fields with a continuation marker beyond that.
func RowSummary(rc RowChange, vars []LanguageVariation) string {
	if len(vars) == 0 {
		return ""
	}
	grouped := map[VariationType][]LanguageVariation{}
	for _, v := range vars {
		grouped[v.Type] = append(grouped[v.Type], v)
	}
	var sentences []string
	for _, typ := range []VariationType{VariationUpdate, VariationAddition, VariationRemoval} {
		group := grouped[typ]
		if len(group) == 0 {
			continue
		}
		sentences = append(sentences, renderGroup(rc.Key, typ, group))
		if len(sentences) == 3 {
			break
		}
	}
	return strings.Join(sentences, "; ")
}

func renderGroup(key string, typ VariationType, group []LanguageVariation) string {
	verb := "Updated"
	switch typ {
	case VariationAddition:
		verb = "Added"
	case VariationRemoval:
		verb = "Removed"
	}
	var fields []string
	for i, v := range group {
		if i == 2 {
			fields = append(fields, "…")
			break
		}
		fields = append(fields, renderField(v))
	}
	return fmt.Sprintf("%s %s (%s)", verb, key, strings.Join(fields, ", "))
}

func renderField(v LanguageVariation) string {
	switch v.Type {
	case VariationUpdate:
		return fmt.Sprintf("%s: %q → %q", v.Label, displayValue(v.Before), displayValue(v.After))
	case VariationAddition:
		return fmt.Sprintf("%s: %q", v.Label, displayValue(v.After))
	default:
		return fmt.Sprintf("%s: %q", v.Label, displayValue(v.Before))
	}
}

func displayValue(s string) string {
	return textutil.Truncate(textutil.StripHTML(s), maxDisplayValue)
}
