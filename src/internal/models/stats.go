package models

type Contributor struct {
	Address  string `json:"address"`
	Nickname string `json:"nickname"`
	Count    int    `json:"count"`
}

type ActivityStats struct {
	TotalActivities  int                  `json:"totalActivities"`
	RecentActivities int                  `json:"recentActivities"`
	TopContributors  []Contributor        `json:"topContributors"`
	ActivityByType   map[ActivityType]int `json:"activityByType"`
}

// EmptyActivityStats returns stats with every activity type present at zero.
func EmptyActivityStats() *ActivityStats {
	byType := make(map[ActivityType]int, len(AllActivityTypes))
	for _, t := range AllActivityTypes {
		byType[t] = 0
	}
	return &ActivityStats{
		TopContributors: []Contributor{},
		ActivityByType:  byType,
	}
}
