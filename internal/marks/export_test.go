package marks

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acadtrack/acadtrack/internal/masterdata"
)

func TestWriteMarksheetCSV(t *testing.T) {
	exam := masterdata.Exam{Name: "Midterm", MaxMarks: 80}
	sheet := []MarksheetRow{
		{StudentName: "ANITA RAO", Obtained: 60, Remarks: "good"},
		{StudentName: "bala krishnan", Obtained: 40},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarksheetCSV(&buf, exam, sheet))

	out := buf.String()
	require.Contains(t, out, "Student,Obtained,Max Marks,Percentage,Remarks")
	require.Contains(t, out, "Anita Rao,60,80,75.0,good")
	require.Contains(t, out, "Bala Krishnan,40,80,50.0,")
}
