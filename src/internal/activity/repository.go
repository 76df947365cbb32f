package activity

import (
	"context"
	"regexp"

	"carecircle-activity-svc/src/clients"
	"carecircle-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	regexKey   = "$regex"
	optionsKey = "$options"
)

type Repository interface {
	Insert(ctx context.Context, record models.ActivityRecord) error
	FindHistory(ctx context.Context, q *HistoryQuery) ([]models.ActivityRecord, int64, error)
}

type activityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	return &activityRepository{
		collection: mongoClient.Database.Collection(collectionName),
	}
}

func (r *activityRepository) Insert(ctx context.Context, record models.ActivityRecord) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		logrus.WithError(err).WithField("activity_id", record.ID).Error("Failed to insert activity")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *activityRepository) FindHistory(ctx context.Context, q *HistoryQuery) ([]models.ActivityRecord, int64, error) {
	filter := historyFilter(q)

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count activities")
		return nil, 0, models.ErrDatabaseQuery
	}

	skip := (q.Page - 1) * q.Limit
	opts := options.Find().
		SetLimit(int64(q.Limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find activities")
		return nil, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	records := make([]models.ActivityRecord, 0, q.Limit)
	for cursor.Next(ctx) {
		var record models.ActivityRecord
		if err := cursor.Decode(&record); err != nil {
			logrus.WithError(err).Error("Failed to decode activity")
			continue
		}
		records = append(records, record)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, 0, models.ErrDatabaseQuery
	}

	logrus.WithFields(logrus.Fields{
		"count": len(records),
		"total": totalCount,
		"page":  q.Page,
		"limit": q.Limit,
	}).Debug("Retrieved activity history")

	return records, totalCount, nil
}

func historyFilter(q *HistoryQuery) bson.M {
	filter := bson.M{}

	if q.GroupAddress != "" {
		filter["group_address"] = exactInsensitive(q.GroupAddress)
	}
	if q.UserAddress != "" {
		filter["actor.address"] = exactInsensitive(q.UserAddress)
	}
	if len(q.Types) > 0 {
		filter["type"] = bson.M{"$in": q.Types}
	}
	if len(q.Privacy) > 0 {
		filter["privacy"] = bson.M{"$in": q.Privacy}
	}
	if q.Since != nil {
		filter["timestamp"] = bson.M{"$gte": *q.Since}
	}

	return filter
}

func exactInsensitive(value string) bson.M {
	return bson.M{regexKey: "^" + regexp.QuoteMeta(value) + "$", optionsKey: "i"}
}
