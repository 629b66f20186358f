package marks

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/acadtrack/acadtrack/internal/masterdata"
)

var titleCaser = cases.Title(language.English)

// WriteMarksheetCSV streams an exam marksheet as CSV. Student names are
// title-cased so exports look consistent regardless of how names were typed
// in.
func WriteMarksheetCSV(w io.Writer, exam masterdata.Exam, sheet []MarksheetRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Student", "Obtained", "Max Marks", "Percentage", "Remarks"}); err != nil {
		return err
	}
	for _, row := range sheet {
		pct := 0.0
		if exam.MaxMarks > 0 {
			pct = float64(row.Obtained) / float64(exam.MaxMarks) * 100
		}
		record := []string{
			titleCaser.String(strings.ToLower(row.StudentName)),
			strconv.Itoa(row.Obtained),
			strconv.Itoa(exam.MaxMarks),
			fmt.Sprintf("%.1f", pct),
			row.Remarks,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
