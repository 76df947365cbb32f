package analytics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var exportFormats = map[string]struct{}{"csv": {}, "json": {}, "pdf": {}}

type Handler interface {
	GetGroupAnalytics(c *gin.Context)
	GetFundingPatterns(c *gin.Context)
	GetEngagementMetrics(c *gin.Context)
	GetPredictions(c *gin.Context)
	GetLiveAnalytics(c *gin.Context)
	GetDashboard(c *gin.Context)
	ExportAnalytics(c *gin.Context)
	CompareGroups(c *gin.Context)
}

type ExportRequest struct {
	Format    string `json:"format" binding:"required"`
	Timeframe string `json:"timeframe"`
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{config: cfg, service: service}
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.config.Analytics.Timeout
	if timeout <= 0 {
		timeout = h.config.App.Timeout
	}
	return context.WithTimeout(c.Request.Context(), time.Duration(timeout)*time.Second)
}

func (h *handler) bindQuery(c *gin.Context) (models.AnalyticsQuery, bool) {
	var q models.AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return q, false
	}
	return q, true
}

func (h *handler) GetGroupAnalytics(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.service.GetGroupAnalytics(ctx, c.Param("address"), q)
	h.respond(c, out, err, "Group analytics retrieved successfully")
}

func (h *handler) GetFundingPatterns(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.service.GetFundingPatterns(ctx, c.Param("address"), q)
	h.respond(c, out, err, "Funding patterns retrieved successfully")
}

func (h *handler) GetEngagementMetrics(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.service.GetEngagementMetrics(ctx, c.Param("address"), q)
	h.respond(c, out, err, "Engagement metrics retrieved successfully")
}

func (h *handler) GetPredictions(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.service.GetPredictions(ctx, c.Param("address"), q)
	h.respond(c, out, err, "Predictions retrieved successfully")
}

func (h *handler) GetLiveAnalytics(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.service.GetLiveAnalytics(ctx, c.Param("address"))
	h.respond(c, out, err, "Live analytics retrieved successfully")
}

func (h *handler) GetDashboard(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.service.GetDashboard(ctx, c.Param("address"), q)
	h.respond(c, out, err, "Dashboard retrieved successfully")
}

func (h *handler) ExportAnalytics(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	format := strings.ToLower(req.Format)
	if _, ok := exportFormats[format]; !ok {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid export format", "Supported formats are csv, json and pdf")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.service.ExportAnalytics(ctx, c.Param("address"), format, models.AnalyticsQuery{Timeframe: req.Timeframe})
	h.respond(c, out, err, "Analytics export created successfully")
}

func (h *handler) CompareGroups(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	groups := strings.Split(c.Query("groups"), ",")
	out, err := h.service.CompareGroups(ctx, groups)
	h.respond(c, out, err, "Group comparison retrieved successfully")
}

func (h *handler) respond(c *gin.Context, data interface{}, err error, message string) {
	if err != nil {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Analytics request failed")

		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrAnalyticsRequest) || errors.Is(err, models.ErrAnalyticsDecode) {
			status = http.StatusBadGateway
		}
		h.sendErrorResponse(c, status, "Failed to retrieve analytics", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"message": message,
	})
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string) {
	c.JSON(statusCode, gin.H{
		"error":   error,
		"success": false,
		"message": message,
	})
}
