package engagement

import (
	"math"

	"carecircle-activity-svc/src/internal/models"
)

// Score weights. They sum to 100.
const (
	contributionWeight   = 30.0
	participationWeight  = 30.0
	votingWeight         = 20.0
	responsivenessWeight = 20.0

	contributionTarget = 10.0
	responseHalfLife   = 24.0
)

// CalculateScore maps engagement metrics onto [0, 100]. Contributions saturate
// at contributionTarget; responsiveness halves at responseHalfLife hours.
func CalculateScore(m models.EngagementMetrics) float64 {
	contribution := clamp01(float64(m.ContributionCount)/contributionTarget) * contributionWeight
	participation := clamp01(m.ParticipationRate) * participationWeight
	voting := clamp01(m.VotingParticipation) * votingWeight

	responseHours := m.ResponseTime
	if responseHours < 0 || math.IsNaN(responseHours) {
		responseHours = 0
	}
	responsiveness := responseHalfLife / (responseHalfLife + responseHours) * responsivenessWeight

	score := contribution + participation + voting + responsiveness
	score = math.Max(0, math.Min(100, score))

	return math.Round(score*10) / 10
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
