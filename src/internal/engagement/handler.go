package engagement

import (
	"context"
	"net/http"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/middleware"
	"carecircle-activity-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EngagementTracker is the subset of Tracker the HTTP layer needs.
type EngagementTracker interface {
	TrackEngagement(ctx context.Context, event models.EngagementEvent)
	GetEngagementScore(memberAddress, groupAddress string) float64
	GetMetrics(memberAddress, groupAddress string) (models.EngagementMetrics, bool)
	Enabled() bool
}

type Handler interface {
	TrackEngagement(c *gin.Context)
	GetMemberEngagement(c *gin.Context)
}

type TrackRequest struct {
	Type     models.EngagementType     `json:"type" binding:"required"`
	Metadata models.EngagementMetadata `json:"metadata"`
}

type MemberEngagement struct {
	GroupAddress  string                   `json:"groupAddress"`
	MemberAddress string                   `json:"memberAddress"`
	Score         float64                  `json:"score"`
	Metrics       models.EngagementMetrics `json:"metrics"`
	Active        bool                     `json:"active"`
}

type handler struct {
	config  *config.Configuration
	tracker EngagementTracker
}

func NewHandler(cfg *config.Configuration, tracker EngagementTracker) Handler {
	return &handler{config: cfg, tracker: tracker}
}

// TrackEngagement records an event for the authenticated member.
func (h *handler) TrackEngagement(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !req.Type.IsValid() {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid engagement type", models.ErrInvalidEngagementType.Error())
		return
	}

	event := models.EngagementEvent{
		Type:          req.Type,
		GroupAddress:  c.Param("address"),
		MemberAddress: middleware.CallerAddress(c),
		Metadata:      req.Metadata,
	}

	enabled := h.tracker.Enabled()
	h.tracker.TrackEngagement(ctx, event)

	logrus.WithFields(logrus.Fields{
		"group":   event.GroupAddress,
		"member":  event.MemberAddress,
		"type":    event.Type,
		"tracked": enabled,
	}).Debug("Engagement tracking request handled")

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    gin.H{"tracked": enabled},
		"message": "Engagement event accepted",
	})
}

func (h *handler) GetMemberEngagement(c *gin.Context) {
	groupAddress := c.Param("address")
	memberAddress := c.Param("member")

	m, active := h.tracker.GetMetrics(memberAddress, groupAddress)
	score := h.tracker.GetEngagementScore(memberAddress, groupAddress)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": MemberEngagement{
			GroupAddress:  groupAddress,
			MemberAddress: memberAddress,
			Score:         score,
			Metrics:       m,
			Active:        active,
		},
		"message": "Member engagement retrieved successfully",
	})
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string) {
	c.JSON(statusCode, gin.H{
		"error":   error,
		"success": false,
		"message": message,
	})
}
