package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/melodix/server/internal/domain"
)

// MongoNotificationRepository is the MongoDB-backed notification repository.
type MongoNotificationRepository struct {
	coll *mongo.Collection
}

// Insert stores a new notification document.
func (r *MongoNotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, n)
	return wrapWriteError(err)
}

// GetByID resolves a notification, returning (nil, nil) when it does not
// exist.
func (r *MongoNotificationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	var n domain.Notification
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &n, nil
}

// Delete removes a notification document.
func (r *MongoNotificationRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.DeletedCount, nil
}
