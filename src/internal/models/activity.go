package models

import "time"

type ActivityType string

const (
	ActivityMemberJoined      ActivityType = "member_joined"
	ActivityMemberLeft        ActivityType = "member_left"
	ActivityExpenseAdded      ActivityType = "expense_added"
	ActivityExpenseSettled    ActivityType = "expense_settled"
	ActivityProposalCreated   ActivityType = "proposal_created"
	ActivityProposalApproved  ActivityType = "proposal_approved"
	ActivityProposalExecuted  ActivityType = "proposal_executed"
	ActivityContributionMade  ActivityType = "contribution_made"
	ActivityAchievementEarned ActivityType = "achievement_earned"
	ActivityMilestoneReached  ActivityType = "milestone_reached"
)

// AllActivityTypes is the closed set of feed record types, in display order.
var AllActivityTypes = []ActivityType{
	ActivityMemberJoined,
	ActivityMemberLeft,
	ActivityExpenseAdded,
	ActivityExpenseSettled,
	ActivityProposalCreated,
	ActivityProposalApproved,
	ActivityProposalExecuted,
	ActivityContributionMade,
	ActivityAchievementEarned,
	ActivityMilestoneReached,
}

func (t ActivityType) IsValid() bool {
	for _, known := range AllActivityTypes {
		if known == t {
			return true
		}
	}
	return false
}

type Privacy string

const (
	PrivacyPublic      Privacy = "public"
	PrivacyMembersOnly Privacy = "members_only"
	PrivacyPrivate     Privacy = "private"
)

// AllPrivacyLevels lists the visibility levels from widest to narrowest audience.
var AllPrivacyLevels = []Privacy{PrivacyPublic, PrivacyMembersOnly, PrivacyPrivate}

func (p Privacy) IsValid() bool {
	switch p {
	case PrivacyPublic, PrivacyMembersOnly, PrivacyPrivate:
		return true
	default:
		return false
	}
}

type Actor struct {
	Address  string  `json:"address" bson:"address"`
	Nickname string  `json:"nickname" bson:"nickname"`
	Avatar   *string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

type Target struct {
	Address  *string `json:"address,omitempty" bson:"address,omitempty"`
	Nickname *string `json:"nickname,omitempty" bson:"nickname,omitempty"`
	ID       *string `json:"id,omitempty" bson:"id,omitempty"`
	Name     *string `json:"name,omitempty" bson:"name,omitempty"`
}

// Metadata keys used by the feed; the map itself is open-ended.
const (
	MetaAmount      = "amount"
	MetaDescription = "description"
	MetaExpenseID   = "expenseId"
	MetaProposalID  = "proposalId"
	MetaCategory    = "category"
	MetaAchievement = "achievement"
	MetaMilestone   = "milestone"
)

type ActivityRecord struct {
	ID           string                 `json:"id" bson:"activity_id"`
	Type         ActivityType           `json:"type" bson:"type"`
	Timestamp    time.Time              `json:"timestamp" bson:"timestamp"`
	Actor        Actor                  `json:"actor" bson:"actor"`
	Target       *Target                `json:"target,omitempty" bson:"target,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	GroupAddress string                 `json:"groupAddress" bson:"group_address"`
	TxHash       *string                `json:"txHash,omitempty" bson:"tx_hash,omitempty"`
	Privacy      Privacy                `json:"privacy" bson:"privacy"`
}

// NewActivity is an activity record before the store assigns ID and Timestamp.
type NewActivity struct {
	Type         ActivityType           `json:"type" binding:"required"`
	Actor        Actor                  `json:"actor"`
	Target       *Target                `json:"target,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	GroupAddress string                 `json:"groupAddress"`
	TxHash       *string                `json:"txHash,omitempty"`
	Privacy      Privacy                `json:"privacy"`
}

// ActivityMessage is published to the events exchange whenever a record is added.
type ActivityMessage struct {
	ServiceName string         `json:"service_name"`
	Action      string         `json:"action"`
	Activity    ActivityRecord `json:"activity"`
	Timestamp   time.Time      `json:"timestamp"`
}

const (
	ActionActivityCreated   = "activity_created"
	ActionEngagementTracked = "engagement_tracked"
)

const (
	ServiceActivityFeed      = "carecircle.activity.feed"
	ServiceEngagementTracker = "carecircle.engagement.tracker"
)
