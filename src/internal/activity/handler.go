package activity

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/format"
	"carecircle-activity-svc/src/internal/membership"
	"carecircle-activity-svc/src/internal/middleware"
	"carecircle-activity-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	ListActivities(c *gin.Context)
	AddActivity(c *gin.Context)
	GetStats(c *gin.Context)
	GetHistory(c *gin.Context)
	JoinMember(c *gin.Context)
	LeaveMember(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
	members membership.Service
	now     func() time.Time
}

func NewHandler(cfg *config.Configuration, service Service, members membership.Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
		members: members,
		now:     time.Now,
	}
}

func (h *handler) ListActivities(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	groupAddress := c.Param("address")
	types, err := parseActivityTypes(c.Query("types"))
	if err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid activity type", err.Error())
		return
	}

	opts := ListOptions{
		GroupAddress: groupAddress,
		UserAddress:  c.Query("user"),
		Types:        types,
		Offset:       parseIntParam(c, "offset", 0),
		Limit:        parseIntParam(c, "limit", h.config.Activity.DefaultLimit),
	}
	if maxLimit := h.config.Activity.MaxLimit; maxLimit > 0 && opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}

	opts.Privacy = h.visiblePrivacy(ctx, c, groupAddress, opts.UserAddress, parsePrivacy(c.Query("privacy")))

	response := FeedResponse{Activities: []FeedItem{}, Offset: opts.Offset, Limit: opts.Limit}
	if len(opts.Privacy) > 0 {
		now := h.now()
		for _, r := range h.service.ListActivities(ctx, opts) {
			response.Activities = append(response.Activities, FeedItem{
				ActivityRecord: r,
				Message:        format.Describe(r),
				TimeAgo:        format.TimeAgo(r.Timestamp, now),
			})
		}
	}
	response.Count = len(response.Activities)

	logrus.WithFields(logrus.Fields{
		"group":    groupAddress,
		"returned": response.Count,
		"privacy":  opts.Privacy,
	}).Debug("Activities listed")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Activities retrieved successfully",
	})
}

// visiblePrivacy intersects the requested privacy levels with what the caller
// may see. Anonymous callers see public records, group members also see
// members_only, and private records are visible only in a caller's own feed.
func (h *handler) visiblePrivacy(ctx context.Context, c *gin.Context, groupAddress, userAddress string, requested []models.Privacy) []models.Privacy {
	allowed := []models.Privacy{models.PrivacyPublic}

	caller := middleware.CallerAddress(c)
	if caller != "" {
		if h.isMember(ctx, groupAddress, caller) {
			allowed = append(allowed, models.PrivacyMembersOnly)
		}
		if strings.EqualFold(userAddress, caller) {
			allowed = append(allowed, models.PrivacyPrivate)
		}
	}

	if len(requested) == 0 {
		return allowed
	}

	visible := make([]models.Privacy, 0, len(requested))
	for _, p := range requested {
		for _, a := range allowed {
			if p == a {
				visible = append(visible, p)
				break
			}
		}
	}
	return visible
}

func (h *handler) isMember(ctx context.Context, groupAddress, caller string) bool {
	if h.members == nil {
		return false
	}
	ok, err := h.members.IsMember(ctx, groupAddress, caller)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"group":  groupAddress,
			"member": caller,
		}).Warn("Membership lookup failed, treating caller as non-member")
		return false
	}
	return ok
}

func (h *handler) AddActivity(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	var input models.NewActivity
	if err := c.ShouldBindJSON(&input); err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	input.GroupAddress = c.Param("address")

	if isMembershipType(input.Type) && !middleware.IsAdmin(c) {
		logrus.WithFields(logrus.Fields{
			"caller": middleware.CallerAddress(c),
			"type":   input.Type,
		}).Warn("Non-admin attempted to change group membership")
		h.sendErrorResponse(c, http.StatusForbidden, "Access forbidden", "Membership changes require the admin role")
		return
	}

	caller := middleware.CallerAddress(c)
	if input.Actor.Address == "" {
		input.Actor.Address = caller
	} else if !strings.EqualFold(input.Actor.Address, caller) && !middleware.IsAdmin(c) {
		logrus.WithFields(logrus.Fields{
			"caller": caller,
			"actor":  input.Actor.Address,
		}).Warn("Caller attempted to add activity for another actor")
		h.sendErrorResponse(c, http.StatusForbidden, "Access forbidden", "Activities can only be added for the authenticated address")
		return
	}

	record, err := h.service.AddActivity(ctx, input)
	if err != nil {
		h.handleServiceError(c, "Failed to add activity", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    record,
		"message": "Activity added successfully",
	})
}

// JoinMember records member_joined for the :member path address. Routed
// behind the admin role.
func (h *handler) JoinMember(c *gin.Context) {
	h.changeMembership(c, models.ActivityMemberJoined, http.StatusCreated, "Member added successfully")
}

func (h *handler) LeaveMember(c *gin.Context) {
	h.changeMembership(c, models.ActivityMemberLeft, http.StatusOK, "Member removed successfully")
}

func (h *handler) changeMembership(c *gin.Context, activityType models.ActivityType, status int, message string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	record, err := h.service.AddActivity(ctx, models.NewActivity{
		Type:         activityType,
		GroupAddress: c.Param("address"),
		Actor:        models.Actor{Address: c.Param("member")},
	})
	if err != nil {
		h.handleServiceError(c, "Failed to change membership", err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"group":  record.GroupAddress,
		"member": record.Actor.Address,
		"type":   activityType,
		"admin":  middleware.CallerAddress(c),
	}).Info("Group membership changed")

	c.JSON(status, gin.H{
		"success": true,
		"data":    record,
		"message": message,
	})
}

func isMembershipType(t models.ActivityType) bool {
	return t == models.ActivityMemberJoined || t == models.ActivityMemberLeft
}

func (h *handler) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	groupAddress := c.Param("address")
	privacy := h.visiblePrivacy(ctx, c, groupAddress, "", nil)

	stats, err := h.service.GetStats(ctx, groupAddress, privacy)
	if err != nil {
		h.handleServiceError(c, "Failed to retrieve activity statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"message": "Activity statistics retrieved successfully",
	})
}

func (h *handler) GetHistory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	types, err := parseActivityTypes(c.Query("types"))
	if err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid activity type", err.Error())
		return
	}

	q := &HistoryQuery{
		GroupAddress: c.Param("address"),
		UserAddress:  c.Query("user"),
		Types:        types,
		Page:         parseIntParam(c, "page", 1),
		Limit:        parseIntParam(c, "limit", h.config.Activity.DefaultLimit),
	}

	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			h.sendErrorResponse(c, http.StatusBadRequest, "Invalid since parameter", "Expected an RFC3339 timestamp")
			return
		}
		q.Since = &ts
	}

	q.Privacy = h.visiblePrivacy(ctx, c, q.GroupAddress, q.UserAddress, parsePrivacy(c.Query("privacy")))
	if len(q.Privacy) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": HistoryResponse{
				Activities: []models.ActivityRecord{},
				Pagination: Pagination{Page: q.Page, Limit: q.Limit},
			},
			"message": "Activity history retrieved successfully",
		})
		return
	}

	response, err := h.service.GetHistory(ctx, q)
	if err != nil {
		h.handleServiceError(c, "Failed to retrieve activity history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Activity history retrieved successfully",
	})
}

func (h *handler) handleServiceError(c *gin.Context, message string, err error) {
	logrus.WithError(err).WithField("group", c.Param("address")).Error(message)

	switch {
	case errors.Is(err, models.ErrInvalidActivityType):
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid activity type", err.Error())
	case errors.Is(err, models.ErrInvalidParams):
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid parameters", err.Error())
	default:
		h.sendErrorResponse(c, http.StatusInternalServerError, message, err.Error())
	}
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string) {
	c.JSON(statusCode, gin.H{
		"error":   error,
		"success": false,
		"message": message,
	})
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
			"error": err,
		}).Warn("Invalid integer parameter, using default")

		return defaultValue
	}
	return parsed
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseActivityTypes(value string) ([]models.ActivityType, error) {
	var types []models.ActivityType
	for _, part := range splitList(value) {
		t := models.ActivityType(part)
		if !t.IsValid() {
			return nil, errors.New("unknown activity type " + strconv.Quote(part))
		}
		types = append(types, t)
	}
	return types, nil
}

// parsePrivacy drops unknown levels so they can never widen visibility.
func parsePrivacy(value string) []models.Privacy {
	var levels []models.Privacy
	for _, part := range splitList(value) {
		if p := models.Privacy(part); p.IsValid() {
			levels = append(levels, p)
		}
	}
	return levels
}
