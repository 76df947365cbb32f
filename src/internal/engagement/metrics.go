package engagement

import (
	"time"

	"carecircle-activity-svc/src/internal/models"
)

const (
	// assumedOpportunities stands in for the number of chances a member had to participate.
	assumedOpportunities = 10.0
	responseBaseHours    = 48.0
	defaultResponseHours = 24.0
)

// ComputeMetrics derives engagement metrics from the events strictly after since.
func ComputeMetrics(events []models.EngagementEvent, since time.Time) models.EngagementMetrics {
	var contributions, participation, responses, votes, proposals int

	for _, e := range events {
		if !e.Timestamp.After(since) {
			continue
		}
		switch e.Type {
		case models.EngagementContribution:
			contributions++
			participation++
		case models.EngagementVote:
			votes++
			responses++
			participation++
		case models.EngagementComment:
			responses++
			participation++
		case models.EngagementProposal:
			proposals++
			participation++
		}
	}

	responseTime := defaultResponseHours
	if responses > 0 {
		responseTime = responseBaseHours / float64(max(1, responses))
	}

	return models.EngagementMetrics{
		ContributionCount:   contributions,
		ParticipationRate:   min(float64(participation)/assumedOpportunities, 1.0),
		ResponseTime:        responseTime,
		VotingParticipation: min(float64(votes)/float64(max(1, proposals)), 1.0),
	}
}
