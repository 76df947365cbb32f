package models

import "time"

type EngagementType string

const (
	EngagementContribution EngagementType = "contribution"
	EngagementVote         EngagementType = "vote"
	EngagementProposal     EngagementType = "proposal"
	EngagementComment      EngagementType = "comment"
	EngagementReaction     EngagementType = "reaction"
	EngagementView         EngagementType = "view"
	EngagementJoin         EngagementType = "join"
	EngagementLeave        EngagementType = "leave"
)

func (t EngagementType) IsValid() bool {
	switch t {
	case EngagementContribution, EngagementVote, EngagementProposal, EngagementComment,
		EngagementReaction, EngagementView, EngagementJoin, EngagementLeave:
		return true
	default:
		return false
	}
}

type EngagementMetadata struct {
	Amount       *float64 `json:"amount,omitempty"`
	ProposalID   string   `json:"proposalId,omitempty"`
	CommentID    string   `json:"commentId,omitempty"`
	ReactionType string   `json:"reactionType,omitempty"`
	ActivityID   string   `json:"activityId,omitempty"`
}

type EngagementEvent struct {
	Type          EngagementType     `json:"type"`
	GroupAddress  string             `json:"groupAddress"`
	MemberAddress string             `json:"memberAddress"`
	Timestamp     time.Time          `json:"timestamp"`
	Metadata      EngagementMetadata `json:"metadata"`
}

type EngagementMetrics struct {
	ContributionCount   int     `json:"contributionCount"`
	ParticipationRate   float64 `json:"participationRate"`
	ResponseTime        float64 `json:"responseTime"`
	VotingParticipation float64 `json:"votingParticipation"`
}
