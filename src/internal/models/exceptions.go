package models

import "errors"

var (
	ErrRedisGet    = errors.New("redis get error")
	ErrRedisSet    = errors.New("redis set error")
	ErrRedisDelete = errors.New("redis delete error")
)

var (
	ErrDatabaseQuery  = errors.New("database query error")
	ErrDatabaseInsert = errors.New("database insert error")
	ErrDatabaseUpdate = errors.New("database update error")
)

var (
	ErrInvalidParams         = errors.New("invalid parameters")
	ErrInvalidActivityType   = errors.New("invalid activity type")
	ErrInvalidEngagementType = errors.New("invalid engagement type")
)

var (
	ErrAnalyticsRequest = errors.New("analytics request failed")
	ErrAnalyticsDecode  = errors.New("analytics response malformed")
	ErrPublish          = errors.New("event publish failed")
	ErrRPCUnavailable   = errors.New("chain rpc unavailable")
)
