package models

import "time"

// AnalyticsQuery carries the optional filters accepted by the analytics service.
type AnalyticsQuery struct {
	Timeframe          string `json:"timeframe,omitempty" form:"timeframe"`
	IncludeMembers     bool   `json:"includeMembers,omitempty" form:"includeMembers"`
	IncludePredictions bool   `json:"includePredictions,omitempty" form:"includePredictions"`
}

type FundingSummary struct {
	TotalContributed   float64 `json:"totalContributed"`
	TotalSpent         float64 `json:"totalSpent"`
	Balance            float64 `json:"balance"`
	AverageContributed float64 `json:"averageContribution"`
	ContributorCount   int     `json:"contributorCount"`
}

type FundingTrend struct {
	Period       string  `json:"period"`
	Contributed  float64 `json:"contributed"`
	Spent        float64 `json:"spent"`
	GrowthRate   float64 `json:"growthRate"`
	Transactions int     `json:"transactions"`
}

type FundingPatterns struct {
	GroupAddress string         `json:"groupAddress"`
	Summary      FundingSummary `json:"summary"`
	Trends       []FundingTrend `json:"trends"`
}

type EngagementSummary struct {
	ActiveMembers        int     `json:"activeMembers"`
	TotalMembers         int     `json:"totalMembers"`
	AverageScore         float64 `json:"averageScore"`
	ParticipationRate    float64 `json:"participationRate"`
	ProposalsCreated     int     `json:"proposalsCreated"`
	VotingParticipation  float64 `json:"votingParticipation"`
	AverageResponseHours float64 `json:"averageResponseTime"`
}

type MemberAnalytics struct {
	Address         string  `json:"address"`
	Nickname        string  `json:"nickname,omitempty"`
	EngagementScore float64 `json:"engagementScore"`
	Contributed     float64 `json:"contributed"`
}

type EngagementReport struct {
	GroupAddress string            `json:"groupAddress"`
	Summary      EngagementSummary `json:"summary"`
	Members      []MemberAnalytics `json:"members,omitempty"`
}

type Prediction struct {
	Metric         string    `json:"metric"`
	Value          float64   `json:"value"`
	ConfidenceLow  float64   `json:"confidenceLow"`
	ConfidenceHigh float64   `json:"confidenceHigh"`
	Confidence     float64   `json:"confidence"`
	Horizon        string    `json:"horizon"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

type GroupAnalytics struct {
	GroupAddress string            `json:"groupAddress"`
	Timeframe    string            `json:"timeframe,omitempty"`
	Funding      FundingSummary    `json:"funding"`
	Engagement   EngagementSummary `json:"engagement"`
	Members      []MemberAnalytics `json:"members,omitempty"`
	Predictions  []Prediction      `json:"predictions,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type GroupBenchmark struct {
	GroupAddress    string  `json:"groupAddress"`
	Balance         float64 `json:"balance"`
	MemberCount     int     `json:"memberCount"`
	EngagementScore float64 `json:"engagementScore"`
	Rank            int     `json:"rank"`
}

type GroupComparison struct {
	Groups     []GroupBenchmark   `json:"groups"`
	Benchmarks map[string]float64 `json:"benchmarks"`
}

type ExportResult struct {
	Format      string    `json:"format"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Dashboard bundles the reads the dashboard view needs in one response.
type Dashboard struct {
	Analytics  *GroupAnalytics   `json:"analytics"`
	Funding    *FundingPatterns  `json:"funding"`
	Engagement *EngagementReport `json:"engagement"`
}
