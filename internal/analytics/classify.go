// Package analytics derives performance insight from marks and attendance.
package analytics

// Classification buckets a student's average percentage.
type Classification string

// Classification buckets.
const (
	ClassificationAdvanced     Classification = "advanced"
	ClassificationIntermediate Classification = "intermediate"
	ClassificationSlow         Classification = "slow"
	ClassificationNone         Classification = "unclassified"
)

// Classify buckets an average percentage. A student with no recorded exams
// stays unclassified rather than being labelled slow.
func Classify(average float64, examCount int) Classification {
	if examCount == 0 {
		return ClassificationNone
	}
	switch {
	case average >= 75:
		return ClassificationAdvanced
	case average >= 50:
		return ClassificationIntermediate
	default:
		return ClassificationSlow
	}
}
