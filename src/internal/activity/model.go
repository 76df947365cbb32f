package activity

import (
	"time"

	"carecircle-activity-svc/src/internal/models"
)

// HistoryQuery pages through persisted records.
type HistoryQuery struct {
	GroupAddress string
	UserAddress  string
	Types        []models.ActivityType
	Privacy      []models.Privacy
	Since        *time.Time
	Page         int
	Limit        int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type HistoryResponse struct {
	Activities []models.ActivityRecord `json:"activities"`
	Pagination Pagination              `json:"pagination"`
}

// FeedItem is a record decorated for display.
type FeedItem struct {
	models.ActivityRecord
	Message string `json:"message"`
	TimeAgo string `json:"timeAgo"`
}

type FeedResponse struct {
	Activities []FeedItem `json:"activities"`
	Count      int        `json:"count"`
	Offset     int        `json:"offset"`
	Limit      int        `json:"limit"`
}
