package srs

import (
	"fmt"
	"math"
)

// Grade describes one of the answer buttons offered while studying.
type Grade struct {
	Label       string  `json:"label"`
	Quality     Quality `json:"quality"`
	Description string  `json:"description"`
}

var Grades = []Grade{
	{Label: "Again", Quality: QualityBlackout, Description: "Complete blackout, no recall"},
	{Label: "Hard", Quality: QualityCorrectDifficult, Description: "Recalled with difficulty"},
	{Label: "Good", Quality: QualityCorrectHesitation, Description: "Recalled with some hesitation"},
	{Label: "Easy", Quality: QualityPerfect, Description: "Perfect recall"},
}

// FormatInterval renders an interval in days for display.
func FormatInterval(days int) string {
	switch {
	case days <= 0:
		return "Now"
	case days == 1:
		return "1 day"
	case days < 7:
		return fmt.Sprintf("%d days", days)
	case days < 30:
		return fmt.Sprintf("%d weeks", roundDiv(days, 7))
	case days < 365:
		return fmt.Sprintf("%d months", roundDiv(days, 30))
	default:
		return fmt.Sprintf("%d years", roundDiv(days, 365))
	}
}

// RetentionRate is the percentage of correct answers, rounded.
func RetentionRate(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

func RetentionGrade(rate int) string {
	switch {
	case rate >= 90:
		return "Excellent"
	case rate >= 80:
		return "Great"
	case rate >= 70:
		return "Good"
	case rate >= 60:
		return "Fair"
	default:
		return "Needs Work"
	}
}

func roundDiv(n, d int) int {
	return int(math.Round(float64(n) / float64(d)))
}
