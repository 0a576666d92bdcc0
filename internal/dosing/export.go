package dosing

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportFilename is the suggested file name for CSV exports.
const ExportFilename = "dosing-results.csv"

// WriteCSV writes one row per gram-dosed product. Products that are not
// required are written with a dose of "0" and no split advice.
func WriteCSV(w io.Writer, r *Result, loc Locale) error {
	pr := loc.printer()
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := []string{pr.Sprintf(msgCSVParameter), pr.Sprintf(msgCSVDose), pr.Sprintf(msgCSVSplit)}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range Products() {
		dose := "0"
		advice := ""
		if r != nil && r.Required(p) {
			dose = FormatGrams(r.Dose(p))
			advice = r.Advice(p)
		}
		if err := cw.Write([]string{ProductName(p, loc), dose, advice}); err != nil {
			return fmt.Errorf("write csv row %s: %w", p, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
