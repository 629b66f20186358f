package analytics

// RiskLevel flags students who need intervention.
type RiskLevel string

// Risk levels.
const (
	RiskNone   RiskLevel = "none"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Risk score and attendance thresholds, in percent.
const (
	riskAverageFloor    = 40.0
	riskAttendanceFloor = 60.0
)

// RiskAssessment is the outcome of AssessRisk.
type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Reasons []string  `json:"reasons,omitempty"`
}

// AssessRisk flags a student whose average or attendance has fallen through
// the floor. One failing factor is medium, both together are high. Students
// with no exams yet are judged on attendance alone.
func AssessRisk(average float64, examCount int, attendancePct float64) RiskAssessment {
	var reasons []string
	if examCount > 0 && average < riskAverageFloor {
		reasons = append(reasons, "average below 40%")
	}
	if attendancePct < riskAttendanceFloor {
		reasons = append(reasons, "attendance below 60%")
	}
	switch len(reasons) {
	case 0:
		return RiskAssessment{Level: RiskNone}
	case 1:
		return RiskAssessment{Level: RiskMedium, Reasons: reasons}
	default:
		return RiskAssessment{Level: RiskHigh, Reasons: reasons}
	}
}
