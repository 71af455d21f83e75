// Package export flattens bond views into ordered, named columns for the
// download renderers that run outside this service. The renderers only see
// strings: column selection and value extraction happen here so every
// export format agrees on field names and order.
package export

import (
	"strconv"

	"fidelis/internal/bond/models"
	"fidelis/internal/bond/service"
	dErrors "fidelis/pkg/domain-errors"
	pstrings "fidelis/pkg/platform/strings"
)

// Derived columns exported alongside the stored fields.
const (
	ColumnStatus        = "status"
	ColumnDaysRemaining = "days_remaining"
)

// extractors maps a column name to its value in a view. Stored fields come
// straight from the field catalog; the two derived columns are computed.
var extractors = map[string]func(v *service.View) string{
	ColumnStatus:        func(v *service.View) string { return string(v.Status) },
	ColumnDaysRemaining: func(v *service.View) string { return strconv.Itoa(v.DaysRemaining) },
}

func init() {
	for _, name := range models.FieldNames {
		extractors[name] = func(v *service.View) string { return v.Fields()[name] }
	}
}

// DefaultColumns is the full export: every stored field, then the derived
// pair, in catalog order.
func DefaultColumns() []string {
	columns := make([]string, 0, len(models.FieldNames)+2)
	columns = append(columns, models.FieldNames...)
	return append(columns, ColumnStatus, ColumnDaysRemaining)
}

// Projection is a column-ordered view of a bond list.
type Projection struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Project renders views into the selected columns, preserving both the
// requested column order and the input row order. An empty selection means
// all columns. Unknown column names are rejected, not silently dropped.
func Project(views []service.View, columns []string) (*Projection, error) {
	columns = pstrings.DedupeAndTrim(columns)
	if len(columns) == 0 {
		columns = DefaultColumns()
	}
	for _, name := range columns {
		if _, ok := extractors[name]; !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown export column %q", name)
		}
	}

	rows := make([][]string, 0, len(views))
	for i := range views {
		row := make([]string, len(columns))
		for j, name := range columns {
			row[j] = extractors[name](&views[i])
		}
		rows = append(rows, row)
	}
	return &Projection{Columns: columns, Rows: rows}, nil
}
