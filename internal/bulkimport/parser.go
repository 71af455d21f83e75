// Package bulkimport turns a bond spreadsheet into create requests. The
// sheet layout is owned by the data entry side: the header row is found by
// content, columns are matched by header text, and each data row stands or
// falls on its own.
package bulkimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fidelis/internal/bond/models"
	dErrors "fidelis/pkg/domain-errors"
)

// headerAnchor marks the header row: the first row containing this cell
// value, case-insensitively, is the header. Everything above is title
// matter and is ignored.
const headerAnchor = "RANK"

// excelEpoch is day zero of spreadsheet date serials (the 1900 date system
// with its leap-year quirk already folded in).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// storedDateLayout is the normalized shape dates are written in.
const storedDateLayout = "01/02/06"

// Row is one parsed data row with its position in the source sheet.
type Row struct {
	// Number is the 1-based row number in the sheet.
	Number int
	Input  models.Input
}

// columnMatchers map a header cell to a bond field. Matched on the
// normalized header text, first hit wins, so the sheet's column order
// does not matter.
var columnMatchers = []struct {
	field string
	match func(string) bool
}{
	{"rank", func(h string) bool { return h == "RANK" }},
	{"name", func(h string) bool { return strings.Contains(h, "NAME") }},
	{"designation", func(h string) bool { return strings.Contains(h, "DESIGNATION") }},
	{"unit", func(h string) bool { return strings.Contains(h, "UNIT") || strings.Contains(h, "OFFICE") }},
	{"mca", func(h string) bool { return strings.Contains(h, "MCA") }},
	{"amount", func(h string) bool { return strings.Contains(h, "AMOUNT") }},
	{"premium", func(h string) bool { return strings.Contains(h, "PREMIUM") }},
	{"risk", func(h string) bool { return strings.Contains(h, "RISK") }},
	{"effective", func(h string) bool { return strings.Contains(h, "EFFECTIV") }},
	{"cancellation", func(h string) bool { return strings.Contains(h, "CANCEL") }},
	{"contact", func(h string) bool { return strings.Contains(h, "CONTACT") }},
	{"remark", func(h string) bool { return strings.Contains(h, "REMARK") }},
}

func normalizeHeader(cell string) string {
	return strings.ToUpper(strings.Join(strings.Fields(cell), " "))
}

// locateColumns maps field names to column indexes for a header row.
func locateColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for idx, cell := range header {
		h := normalizeHeader(cell)
		if h == "" {
			continue
		}
		for _, m := range columnMatchers {
			if _, taken := columns[m.field]; taken {
				continue
			}
			if m.match(h) {
				columns[m.field] = idx
				break
			}
		}
	}
	return columns
}

// ParseRows parses an in-memory sheet. Rows above the header row and rows
// with an empty RANK cell (blanks, section separators, footers) are
// silently skipped — they are layout, not data.
func ParseRows(rows [][]string) ([]Row, error) {
	headerIdx := -1
	for i, row := range rows {
		for _, cell := range row {
			if strings.EqualFold(strings.TrimSpace(cell), headerAnchor) {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no header row found: no cell matches RANK")
	}

	columns := locateColumns(rows[headerIdx])
	if _, ok := columns["rank"]; !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "header row has no RANK column")
	}

	var out []Row
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if cellAt(row, columns, "rank") == "" {
			continue
		}
		first, middle, last := splitName(cellAt(row, columns, "name"))
		out = append(out, Row{
			Number: i + 1,
			Input: models.Input{
				LastName:           last,
				FirstName:          first,
				MiddleName:         middle,
				Rank:               cellAt(row, columns, "rank"),
				Designation:        cellAt(row, columns, "designation"),
				UnitOffice:         cellAt(row, columns, "unit"),
				MCA:                NormalizeMoney(cellAt(row, columns, "mca")),
				AmountOfBond:       NormalizeMoney(cellAt(row, columns, "amount")),
				BondPremium:        NormalizeMoney(cellAt(row, columns, "premium")),
				RiskNo:             cellAt(row, columns, "risk"),
				EffectiveDate:      NormalizeDate(cellAt(row, columns, "effective")),
				DateOfCancellation: NormalizeDate(cellAt(row, columns, "cancellation")),
				ContactNo:          cellAt(row, columns, "contact"),
				Remark:             cellAt(row, columns, "remark"),
			},
		})
	}
	return out, nil
}

// cellAt reads a trimmed cell, tolerating ragged rows and absent columns.
func cellAt(row []string, columns map[string]int, field string) string {
	idx, ok := columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// splitName splits a combined name cell on whitespace: first token is the
// first name, last token the last name, anything between the middle name.
// A single token is a first name only.
func splitName(name string) (first, middle, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	default:
		return parts[0], strings.Join(parts[1:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// NormalizeMoney strips everything but digits and periods, so "₱150,000.00"
// and "150000.00" store identically.
func NormalizeMoney(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDate maps the shapes seen in real sheets to MM/DD/YY:
// M/D/YYYY-style strings and spreadsheet date serials. A value longer than
// eight characters carrying two or more dashes is assumed to be a risk
// number that drifted into a date column and passes through unchanged — a
// data-owner heuristic for sheets where both live in similar-looking cells.
// Anything else also passes through; the status engine reports unparseable
// dates rather than this path guessing.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if len(s) > 8 && strings.Count(s, "-") >= 2 {
		return s
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelEpoch.AddDate(0, 0, int(serial)).Format(storedDateLayout)
	}
	for _, layout := range []string{"1/2/2006", "01/02/2006", "1/2/06", "01/02/06", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(storedDateLayout)
		}
	}
	return s
}

// ParseFile parses the first sheet of an xlsx stream. Cells are read raw
// so date serials arrive as numbers instead of excel's display formatting.
func ParseFile(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "not a readable spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("read sheet %q", sheets[0]))
	}
	return ParseRows(rows)
}
