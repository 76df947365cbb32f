package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"carecircle-activity-svc/src/clients"
	"carecircle-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Membership struct {
	GroupAddress  string     `bson:"group_address"`
	MemberAddress string     `bson:"member_address"`
	Active        bool       `bson:"active"`
	JoinedAt      time.Time  `bson:"joined_at"`
	LeftAt        *time.Time `bson:"left_at,omitempty"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

type Repository interface {
	IsMember(ctx context.Context, groupAddress, memberAddress string) (bool, error)
	Join(ctx context.Context, groupAddress, memberAddress string) error
	Leave(ctx context.Context, groupAddress, memberAddress string) error
}

type repository struct {
	collection *mongo.Collection
}

func NewMembershipRepository(db *clients.MongoDB, collectionName string) Repository {
	collection := db.Database.Collection(collectionName)
	return &repository{collection: collection}
}

func (r *repository) IsMember(ctx context.Context, groupAddress, memberAddress string) (bool, error) {
	var m Membership
	err := r.collection.FindOne(ctx, memberFilter(groupAddress, memberAddress)).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"group":  groupAddress,
			"member": memberAddress,
		}).Error("Failed to get membership")
		return false, models.ErrDatabaseQuery
	}
	return m.Active, nil
}

func (r *repository) Join(ctx context.Context, groupAddress, memberAddress string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"active":     true,
			"joined_at":  now,
			"updated_at": now,
		},
		"$unset": bson.M{"left_at": ""},
	}
	return r.upsert(ctx, groupAddress, memberAddress, update)
}

func (r *repository) Leave(ctx context.Context, groupAddress, memberAddress string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"active":     false,
			"left_at":    now,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"joined_at": now},
	}
	return r.upsert(ctx, groupAddress, memberAddress, update)
}

func (r *repository) upsert(ctx context.Context, groupAddress, memberAddress string, update bson.M) error {
	_, err := r.collection.UpdateOne(ctx, memberFilter(groupAddress, memberAddress), update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"group":  groupAddress,
			"member": memberAddress,
		}).Error("Failed to update membership")
		return models.ErrDatabaseUpdate
	}
	return nil
}

// Addresses are stored lowercased so lookups match the feed's case-insensitive semantics.
func memberFilter(groupAddress, memberAddress string) bson.M {
	return bson.M{
		"group_address":  strings.ToLower(groupAddress),
		"member_address": strings.ToLower(memberAddress),
	}
}
