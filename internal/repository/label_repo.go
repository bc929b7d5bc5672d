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

// MongoLabelRepository is the MongoDB-backed label repository. The songs
// back-references are written through the reference maintainer; this
// repository only resolves and seeds documents.
type MongoLabelRepository struct {
	coll *mongo.Collection
}

// Insert stores a new label document.
func (r *MongoLabelRepository) Insert(ctx context.Context, label *domain.Label) error {
	if label.ID.IsZero() {
		label.ID = primitive.NewObjectID()
	}
	label.CreatedAt = time.Now()
	if label.Songs == nil {
		label.Songs = []primitive.ObjectID{}
	}
	_, err := r.coll.InsertOne(ctx, label)
	return wrapWriteError(err)
}

// GetByID resolves a label, returning (nil, nil) when it does not exist.
func (r *MongoLabelRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Label, error) {
	var label domain.Label
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&label)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &label, nil
}

// ListByKind returns every label of the given kind.
func (r *MongoLabelRepository) ListByKind(ctx context.Context, kind domain.LabelKind) ([]*domain.Label, error) {
	cur, err := r.coll.Find(ctx, bson.M{"kind": kind})
	if err != nil {
		return nil, wrapWriteError(err)
	}
	defer cur.Close(ctx)

	var labels []*domain.Label
	if err := cur.All(ctx, &labels); err != nil {
		return nil, wrapWriteError(err)
	}
	return labels, nil
}
