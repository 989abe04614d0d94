package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/signalnine/simsweep/internal/extract"
)

// WriteCSV writes a header row and one record per row. Absent metrics are
// empty cells.
func WriteCSV(w io.Writer, columns []string, rows []extract.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(columns))
	for _, r := range rows {
		for i, col := range columns {
			record[i] = ""
			v, ok := cell(r, col)
			if !ok {
				continue
			}
			switch v := v.(type) {
			case string:
				record[i] = v
			case float64:
				record[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing %s/%s: %w", r.ConfigID, r.WorkloadID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
