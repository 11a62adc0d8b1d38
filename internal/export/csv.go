package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

// WriteCSV writes tbl as CSV: a header of column names in table order, then one
// record per row. Null cells are written as empty fields.
func WriteCSV(w io.Writer, tbl *dataframe.Table) error {
	cw := csv.NewWriter(w)
	columns := tbl.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	series := make([]*dataframe.Series, len(columns))
	for i, name := range columns {
		series[i], _ = tbl.Column(name)
	}
	record := make([]string, len(columns))
	for r := 0; r < tbl.RowCount(); r++ {
		for i, s := range series {
			v, _ := s.At(r)
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
