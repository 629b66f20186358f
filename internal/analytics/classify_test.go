package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		average   float64
		examCount int
		want      Classification
	}{
		{"no exams stays unclassified", 0, 0, ClassificationNone},
		{"exactly 75 is advanced", 75, 4, ClassificationAdvanced},
		{"just under 75 is intermediate", 74.9, 4, ClassificationIntermediate},
		{"exactly 50 is intermediate", 50, 2, ClassificationIntermediate},
		{"just under 50 is slow", 49.9, 2, ClassificationSlow},
		{"zero average with exams is slow", 0, 1, ClassificationSlow},
		{"high average with no exams stays unclassified", 90, 0, ClassificationNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.average, tc.examCount))
		})
	}
}
