package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// WriteClassOverviewCSV streams the class overview as CSV.
func WriteClassOverviewCSV(w io.Writer, entries []ClassEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Student", "Average", "Exams", "Classification"}); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			titleCaser.String(strings.ToLower(entry.StudentName)),
			fmt.Sprintf("%.1f", entry.Average),
			strconv.Itoa(entry.ExamCount),
			string(entry.Classification),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
